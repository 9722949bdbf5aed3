// SPDX-License-Identifier: EPL-2.0

package avifdec

import (
	"fmt"
	"runtime/debug"

	"github.com/ik5/avifdec/codec"
)

// EngineVersion is the version of this library.
const EngineVersion = "0.1.0"

// Version renders the engine version, every available decode backend
// and the pixel-conversion dependency, e.g.
// "avifdec/0.1.0 [dav1d/1.4.1] float16/v0.8.4".
func Version() string {
	return fmt.Sprintf("avifdec/%s [%s] float16/%s",
		EngineVersion, codec.DefaultRegistry.Versions(), float16Version())
}

// float16Version reads the half-float dependency's version from the
// binary's build info.
func float16Version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range bi.Deps {
		if dep.Path == "github.com/x448/float16" {
			return dep.Version
		}
	}
	return "unknown"
}

// BuildInfo returns the module version recorded by the Go toolchain,
// or the empty string when the binary carries no build info.
func BuildInfo() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range bi.Deps {
		if dep.Path == "github.com/ik5/avifdec" {
			return dep.Version
		}
	}
	return bi.Main.Version
}
