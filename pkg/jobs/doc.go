// Package jobs holds the conversion job ledger consumed by the retention
// reconciler.
//
// Jobs are created and transitioned by the conversion pipeline elsewhere;
// this package only models the record and provides the storage operations
// retention needs: querying expired terminal jobs by status and removing
// them in batches. Two backends are provided, a SQLite store for production
// and an in-memory store for tests.
package jobs
