// Package storage provides persistence for admission-control state.
//
// Two stores live here:
//
//   - SettingsStore: one RateLimitSettings row per user (tier plus optional
//     per-policy overrides), created lazily on first resolution miss
//   - QuotaStore: one UsageQuota row per user per calendar month, created
//     lazily on first check or record within that month
//
// # Backends
//
//   - SQLiteStore: durable storage on modernc.org/sqlite with WAL mode and
//     prepared statements, suitable for single-instance deployments
//   - MemoryStore: in-memory twin used by tests and ephemeral deployments
//
// Both backends are thread-safe. Reads of absent rows return (nil, nil), not
// an error; lazy creation is the caller's concern. Add reports ErrDuplicate
// when a row with the same key already exists, which callers use to resolve
// concurrent create races by adopting the winner's row.
package storage
