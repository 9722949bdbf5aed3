// SPDX-License-Identifier: EPL-2.0

// Package codec defines the boundary to the underlying AV1 decoding
// primitive. The engine itself never touches AV1 bitstream coding; it
// hands coded temporal units to a registered backend and receives
// reconstructed sample planes.
//
// Backends register themselves in DefaultRegistry from init, the way
// stdlib image formats do:
//
//	import _ "github.com/ik5/avifdec/codec/dav1d"
//
// See codec/dav1d for the default libdav1d backend.
package codec
