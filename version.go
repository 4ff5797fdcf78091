// Package shrdlu holds the module version.
package shrdlu

// Version is the released version of shrdlu.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}
