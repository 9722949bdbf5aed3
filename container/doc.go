// SPDX-License-Identifier: EPL-2.0

// Package container parses the ISOBMFF box structure of AVIF files.
//
// Parse walks the box tree of an in-memory buffer and extracts the
// primary coded image item (still images) or the AV1 picture track
// with its frame timing and repetition count (sequences), together
// with the static image properties: dimensions, bit depth, chroma
// subsampling, CICP color description and alpha presence.
//
// Parsing is strict by structure and configurable by policy. All
// boxes are bounds-checked; a declared size that runs past the buffer
// fails the whole parse with ErrTruncated. Two checks are toggleable
// through StrictFlags because real-world encoders get them wrong:
// clean-aperture geometry (StrictClapValid) and the presence of the
// pixi property (StrictPixiRequired).
//
// Unknown box and property types are skipped, never fatal.
//
// PeekCompatibleFileType classifies a buffer as AVIF by its ftyp
// brands alone, without touching the rest of the container.
package container
