// Package retention reclaims expired conversion jobs and their payloads.
//
// The Reconciler is a single long-lived control loop. Each tick it queries
// up to a batch of expired Completed jobs, deletes their cloud payloads,
// queries up to a batch of expired Failed jobs, and removes both sets from
// the job store in one batch call. A blob delete failure is logged and
// counted but never blocks row removal: the design favors bounded ledger
// growth over zero orphaned blobs, and orphans stay visible in the logs.
//
// Any tick error other than cancellation is absorbed so the loop survives
// indefinitely. Batches cap work per tick per status, so enforcement is
// eventual; a backlog larger than the batch rate never fully drains.
//
// The interval loop is the default. Scheduler wraps the same tick in a cron
// expression for deployments that want a fixed time of day instead.
package retention
