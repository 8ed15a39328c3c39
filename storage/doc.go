// Package storage is an embedded row store backed by BadgerDB that serves as
// the partitioner's catalog.
//
// Rows are keyed by table, then by an order-preserving encoding of the row's
// token, then by partition key, so a key-order scan of one table visits rows
// in ring order. SplitCountEstimate counts the rows of a range and converts
// the count into splits of KeysPerSplit rows each.
//
//	base, _ := dht.NewSimilarityPartitioner(bank)
//	store, _ := storage.Open(storage.InMemoryConfig(), base)
//	defer store.Close()
//	p, _ := dht.NewSimilarityPartitioner(bank, dht.WithCatalog(store))
package storage
