// Package users exposes the user directory consumed by the admission
// subsystem.
//
// The User aggregate itself is owned by the platform's account service; this
// package only defines the lookup contract the governance components need
// (the IsAdmin flag drives bypass and exemption decisions) plus two small
// adapters:
//
//   - StaticDirectory: admin identities pinned in configuration
//   - MemoryDirectory: mutable in-memory directory for tests
package users
