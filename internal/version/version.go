// Package version provides build and version information.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current application version.
const Version = "0.3.0"

// Commit is the source revision, set at build time with
// -ldflags "-X github.com/litescript/ls-ephem/internal/version.Commit=...".
var Commit = "dev"

// Milestones:
// 0.3.0 - Watch mode, meta-kernel manifests, terminal kernel browser
// 0.2.0 - Orientation kernels, body-fixed frames, aberration corrections
// 0.1.0 - Initial release: SPK reader, Chebyshev/Lagrange/Hermite segments, state queries

// String returns a one-line version description.
func String() string {
	return fmt.Sprintf("ls-ephem v%s (%s, %s %s/%s)", Version, Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
