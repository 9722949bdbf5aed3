// SPDX-License-Identifier: EPL-2.0

package dav1d

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func loadLibrary() (uintptr, error) {
	handle, err := windows.LoadLibrary("libdav1d.dll")
	if err != nil {
		return 0, fmt.Errorf("dav1d: cannot load libdav1d.dll: %w", err)
	}
	return uintptr(handle), nil
}
