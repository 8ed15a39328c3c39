// Package ring holds the sorted token ring built from endpoint tokens.
//
// A Ring is immutable apart from endpoint liveness. Liveness is tracked per
// entry index in a roaring bitmap, so LiveTokens and LiveOwner stay cheap for
// rings with many virtual tokens per endpoint.
//
//	r, err := ring.New(p, []ring.Entry{{Endpoint: "a", Token: ta}, {Endpoint: "b", Token: tb}})
//	owner, err := r.Owner(key)
//	r.MarkDown("a")
//	next, err := r.SuggestToken(ctx)
//
// Snapshots persist a ring through any blobstore.Store.
package ring
