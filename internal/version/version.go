// Package version reports the coffasm module version recorded at build time.
package version

import "runtime/debug"

// Default is returned when the binary was built from a local checkout.
const Default = "dev"

// GetVersion returns the module version of the running coffasm binary.
func GetVersion() string {
	info, ok := debug.ReadBuildInfo()
	return fromBuildInfo(info, ok)
}

func fromBuildInfo(info *debug.BuildInfo, ok bool) string {
	if !ok || info == nil {
		return Default
	}
	switch v := info.Main.Version; v {
	case "", "(devel)":
		return Default
	default:
		return v
	}
}
