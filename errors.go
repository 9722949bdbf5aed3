// SPDX-License-Identifier: EPL-2.0

package avifdec

import "errors"

var (
	// ErrInvalidArgument is a caller error: negative thread count,
	// out-of-range frame index, conversion without a decoded image.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned by any operation on a closed decoder.
	ErrClosed = errors.New("decoder is closed")

	// ErrNoImagesRemaining means sequential decode ran past the last
	// frame. The cursor never wraps; rewind with NthImage instead.
	ErrNoImagesRemaining = errors.New("no images remaining")

	// ErrInvalidHandle is returned by Table operations on a handle
	// that was never issued or has been destroyed.
	ErrInvalidHandle = errors.New("invalid decoder handle")

	// ErrDecodeColor wraps codec failures on the color planes.
	ErrDecodeColor = errors.New("decoding color planes failed")

	// ErrDecodeAlpha wraps codec failures on the alpha plane.
	ErrDecodeAlpha = errors.New("decoding alpha plane failed")
)
