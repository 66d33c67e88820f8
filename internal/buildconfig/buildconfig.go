package buildconfig

import (
	"runtime"

	"go.uber.org/zap"
)

// Build-time variables injected via ldflags:
//
//	-X github.com/Harshitk-cp/lumen/internal/buildconfig.version=v0.3.0
var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the build version
func Version() string {
	return version
}

// Commit returns the git commit hash
func Commit() string {
	return commit
}

// Fields describes the running binary for startup logs. A supervised agent
// is usually built by `go run`, so the toolchain is part of the identity.
func Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("go", runtime.Version()),
	}
}
