package app

import (
	"fmt"
	"runtime"
)

// Binary is the release version of the binaries.
const Binary = "0.4.0"

// VersionString returns the version line printed by -version.
func VersionString(app string) string {
	return fmt.Sprintf("%s v%s (built w/%s)", app, Binary, runtime.Version())
}
