// Warden is the admission control and resource governance daemon for the
// DocForge conversion service.
//
// It enforces per-user rate limit policies, tracks monthly conversion and
// byte quotas, and reclaims storage held by expired conversion jobs.
//
// Usage:
//
//	# Start the daemon with default configuration
//	warden run
//
//	# Start with a custom configuration file
//	warden run --config /etc/warden/config.yaml
//
//	# Validate a configuration file without starting
//	warden validate --config /etc/warden/config.yaml
//
//	# Show version information
//	warden version
package main

func main() {
	Execute()
}
