// SPDX-License-Identifier: EPL-2.0

package dav1d

// DAV1D_ERR(EAGAIN): dav1d negates the C runtime errno, and EAGAIN is
// 11 in the Windows CRT.
const errAgain = -11
