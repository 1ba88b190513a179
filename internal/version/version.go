// ABOUTME: Version information for robot-go binaries
// ABOUTME: Reported by the CLI and in server/hello names
package version

// Version is overridden at build time with -ldflags "-X"
var Version = "0.1.0"

const (
	Product      = "robot-go"
	Manufacturer = "scummtools"
)

// String returns the product and version
func String() string {
	return Product + " " + Version
}
