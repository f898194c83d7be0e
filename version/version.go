// Package version exposes build metadata injected at link time.
//
//	go build -ldflags "-X github.com/farcloser/consonance/version.version=v0.1.0 \
//	  -X github.com/farcloser/consonance/version.commit=$(git rev-parse --short HEAD)"
package version

import (
	"os"
	"path/filepath"
)

//nolint:gochecknoglobals // populated by -ldflags
var (
	name    = ""
	version = "dev"
	commit  = "unknown"
)

// Name returns the binary name, falling back to the invoked executable name.
func Name() string {
	if name != "" {
		return name
	}

	return filepath.Base(os.Args[0])
}

// Version returns the semantic version the binary was built from.
func Version() string {
	return version
}

// Commit returns the VCS revision the binary was built from.
func Commit() string {
	return commit
}
