// Package version holds the build-time version string, overridden via
// -ldflags "-X github.com/weftsh/weft/internal/version.Version=..." by the
// release build.
package version

// Version is the running binary's version. "dev" denotes a local,
// non-release build; internal/update refuses to self-update those.
var Version = "dev"
