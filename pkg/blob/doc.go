// Package blob abstracts the external object store holding conversion
// output payloads.
//
// The retention reconciler is the only consumer in this repository: it
// deletes the payload of an expired job before removing the job row. The
// S3Store adapter talks to S3 or any S3-compatible endpoint; MemoryStore
// backs tests and can inject per-key failures.
package blob
