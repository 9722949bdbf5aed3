// SPDX-License-Identifier: EPL-2.0

package dav1d

import (
	"fmt"

	"github.com/ebitengine/purego"
)

func loadLibrary() (uintptr, error) {
	names := []string{
		"libdav1d.dylib",
		"/opt/homebrew/lib/libdav1d.dylib",
		"/usr/local/lib/libdav1d.dylib",
	}
	for _, name := range names {
		lib, err := purego.Dlopen(name, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err == nil {
			return lib, nil
		}
	}
	return 0, fmt.Errorf("dav1d: cannot load libdav1d (%v)", names)
}
