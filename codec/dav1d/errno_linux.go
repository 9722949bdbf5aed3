// SPDX-License-Identifier: EPL-2.0

package dav1d

// DAV1D_ERR(EAGAIN): dav1d negates the host errno, and EAGAIN is 11
// on Linux.
const errAgain = -11
