// Package version exposes build information for the microhttp binary and
// the default User-Agent of its HTTP clients.
//
// Version, commit and build time are set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/microhttp/version.Version=1.0.0"
package version
