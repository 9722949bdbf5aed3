// SPDX-License-Identifier: EPL-2.0

//go:build linux || darwin || freebsd

package dav1d

import (
	"syscall"
	"testing"
)

func TestErrAgainMatchesHostErrno(t *testing.T) {
	t.Parallel()

	if got, want := errAgain, -int(syscall.EAGAIN); got != want {
		t.Errorf("errAgain = %v, want %v", got, want)
	}
}
