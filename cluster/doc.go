// Package cluster tracks ring membership over hashicorp/memberlist gossip.
//
// Every node publishes its token as memberlist node metadata: one version
// byte followed by the token's raw wire form. Token changes are also gossiped
// as broadcasts and exchanged during push/pull state sync, so a node that
// missed a metadata update converges on the next sync.
//
// Membership.Ring rebuilds a ring.Ring from the live members.
package cluster
