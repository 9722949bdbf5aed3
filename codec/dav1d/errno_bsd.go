// SPDX-License-Identifier: EPL-2.0

//go:build darwin || freebsd

package dav1d

// DAV1D_ERR(EAGAIN): dav1d negates the host errno, and EAGAIN is 35
// on the BSD-derived platforms.
const errAgain = -35
