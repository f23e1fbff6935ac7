// Package catalog holds the static rate-limit policy table.
//
// A Catalog maps a service tier (Free, Premium, Unlimited) and a named policy
// (standard, conversion) to a permit-limit/window pair. It is pure
// configuration: no state, no behavior beyond lookup. The catalog is the leaf
// of the admission subsystem; the resolution engine consults it after
// per-user overrides and admin bypass have been ruled out.
//
// Unknown policy names degrade to the standard policy rather than failing;
// callers that need strict validation use ValidPolicy.
package catalog
