// Package quota implements the monthly usage ledger for conversion work.
//
// Usage is tracked per user per calendar month in two counters: conversions
// performed and bytes processed. Rows are created lazily on the first check
// or record within a month, with limits snapshotted from the user's tier at
// that moment. A later tier change affects only future months; an already
// created month keeps the limits it was born with. Month rollover is
// implicit: the first touch after the boundary creates a fresh row.
//
// Check evaluates conversions before bytes and reports the first exceeded
// counter as an ExceededError carrying the used and limit values. There is
// no atomicity between Check and Record: two concurrent conversions can both
// pass Check before either records, permitting a transient overrun. Callers
// that need hard accounting must serialize externally.
package quota
