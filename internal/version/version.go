// ABOUTME: Version constants for the undertone toolkit
// ABOUTME: Identifies the product in handshakes, mDNS records and logs
package version

const (
	// Product is the user-visible product name
	Product = "Undertone"

	// Manufacturer identifies the project
	Manufacturer = "Undertone Audio"

	// Version is the software version string
	Version = "0.3.0"
)
