// SPDX-License-Identifier: EPL-2.0

// Package avifdec decodes AVIF still images and image sequences.
//
// The work is split across three subpackages: container parses the
// ISOBMFF wrapper into coded payloads and timing, codec reconstructs
// AV1 temporal units into YUV planes through pluggable backends, and
// pixel converts the planes into packed RGB output buffers.
//
// # Quick Start
//
// The one-shot helpers cover the common case of a single image:
//
//	data, _ := os.ReadFile("photo.avif")
//
//	info, _ := avifdec.GetInfo(data, avifdec.Options{})
//	rgb := pixel.NewRGBImage(info.Width, info.Height, pixel.FormatRGBA8888)
//	_ = avifdec.Decode(data, rgb, avifdec.Options{})
//
//	// rgb.Pix now holds premultiplied RGBA rows.
//
// # Sessions
//
// Animations and repeated conversions use a Decoder session, which
// keeps the parsed file and backend state alive between frames:
//
//	d, _ := avifdec.Open(data, avifdec.Options{})
//	defer d.Close()
//
//	for {
//		if _, err := d.NextImage(); err != nil {
//			break // avifdec.ErrNoImagesRemaining past the last frame
//		}
//		_ = d.ToRGB(rgb)
//	}
//
// NthImage jumps to an arbitrary frame; the session re-feeds the
// backend from the nearest preceding random-access point, so the
// result is identical to sequential stepping.
//
// # Output Formats
//
// Three sink layouts are supported: pixel.FormatRGBA8888 (8 bits per
// channel), pixel.FormatRGB565 (packed 16-bit, no alpha) and
// pixel.FormatRGBAF16 (IEEE half floats). Output alpha is always
// premultiplied.
//
// # Codec Backends
//
// AV1 reconstruction goes through the codec.Codec interface. The
// codec/dav1d subpackage binds libdav1d at runtime and registers
// itself on import; hosts without the shared library report it as
// unavailable and Open fails with codec.ErrNoCodec. Alternative
// backends register through codec.Register.
//
// # Error Handling
//
// Operations return wrapped sentinel errors (errors.Is friendly).
// ResultOf maps any returned error to the closed Result enumeration
// for callers that log or marshal status codes.
//
// Importing this package also registers the "avif" format with the
// standard image package, so image.Decode handles AVIF transparently.
//
// Decoder sessions are not safe for concurrent use; the handle Table
// and codec Registry are.
package avifdec
