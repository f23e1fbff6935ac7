// Package ratelimit resolves the effective rate limits for a user and policy.
//
// # Resolution order
//
// The Resolver consults, in order, first match wins:
//
//  1. Admin bypass: when the governance configuration exempts admins and the
//     user's IsAdmin flag is set (this loads the User aggregate, not the
//     rate-limit settings)
//  2. Per-user override: an active permit-limit/window pair for the named
//     policy, taking precedence even over the Unlimited tier
//  3. Unlimited tier: bypass with the tier's nominal catalog settings,
//     reported for observability only
//  4. Tier default: the policy catalog's (tier, policy) cell
//
// Unknown policy names degrade to the standard policy; they are not errors.
//
// # Caching
//
// Resolution runs once per admitted request, so it must not issue a storage
// read per request. Settings are cached per user with an absolute TTL and a
// sliding TTL of half that; sliding renewal delays eviction but never extends
// past the absolute ceiling. Cache misses serialize per user through a lock
// map and re-check the cache after acquiring the lock, so a thundering herd
// of misses for one user produces a single storage load while other users
// proceed in parallel.
//
// Mutators persist first and then evict the user's cache entry. A concurrent
// resolution can still observe the stale value in the narrow window between
// persist and evict; this bounded staleness is accepted.
package ratelimit
