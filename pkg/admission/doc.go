// Package admission decides whether a caller may proceed and how much of
// their monthly allowance they have consumed.
//
// The package is a thin facade over three parts: the policy catalog
// (pkg/admission/catalog) mapping tier and policy to nominal limits, the
// rate limit resolver (pkg/admission/ratelimit) computing per-request
// admission decisions with caching, and the quota ledger
// (pkg/admission/quota) accounting monthly conversion usage. Manager wires
// them together and records Prometheus metrics around the hot paths.
//
// The request-handling layer calls EffectiveLimits once per admitted policy
// check, CheckQuota before a conversion, and RecordUsage after it. This
// package only computes decisions; emitting 429 responses and rate limit
// headers belongs to the transport layer.
package admission
