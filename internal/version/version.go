// ABOUTME: Version information for the ildawav tools
// ABOUTME: Reported by -version and announced by stream servers
package version

const (
	// Version is the release of the tools
	Version = "0.1.0"

	// Product is the name used in logs and stream announcements
	Product = "ildawav"

	// Manufacturer identifies who builds the tools
	Manufacturer = "lasertools"
)

// String returns "product version"
func String() string {
	return Product + " " + Version
}
