package version

import "fmt"

const (
	major = 0
	minor = 1
	patch = 0
)

// build carries optional build metadata. It is meant to be set at link time
// via -ldflags "-X github.com/utxocommit/utxocommitd/version.build=...".
var build string

// Version returns the version string of this build.
func Version() string {
	if build == "" {
		return fmt.Sprintf("%d.%d.%d", major, minor, patch)
	}
	return fmt.Sprintf("%d.%d.%d-%s", major, minor, patch, build)
}
