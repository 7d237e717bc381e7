// Package storage provides the storage gateways used to exchange EDI files.
//
// The exchange engine only needs two operations, captured by the Gateway interface:
// get the bytes at a path (or ErrNotFound) and put bytes at a path. No retry or
// backoff happens here; the caller decides what a failure means.
//
// # Gateways
//
//   - S3Gateway: objects in an S3 compatible bucket, through the MinIO Go client.
//   - FSGateway: files on an afero filesystem (local disk in production, memory in tests).
//
// # Registry
//
// Backends name a storage kind ("s3", "fs") and a location (bucket or root directory).
// The Registry maps kinds to factories and caches the gateway built for each
// (kind, location) pair, so gateways are resolved once and reused across calls.
//
// # Usage
//
//	reg := storage.NewDefaultRegistry(cfg.Storage, afero.NewOsFs())
//	gw, err := reg.Open(backend.StorageKind, backend.StorageLocation)
//	data, err := gw.Get(ctx, "out/done/order-42.xml")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // still pending
//	}
package storage
