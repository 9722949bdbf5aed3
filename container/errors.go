// SPDX-License-Identifier: EPL-2.0

package container

import "errors"

var (
	// ErrInvalidFtyp means the buffer does not start with a
	// compatible ftyp box.
	ErrInvalidFtyp = errors.New("no compatible ftyp brand")

	// ErrTruncated means a declared box or extent runs past the end
	// of the buffer.
	ErrTruncated = errors.New("truncated container data")

	// ErrParseFailed covers structural violations that are not simple
	// truncation: malformed boxes, bad field values, broken timing.
	ErrParseFailed = errors.New("container parse failed")

	// ErrNoContent means the container carries no decodable image:
	// neither a primary AV1 item nor an AV1 picture track.
	ErrNoContent = errors.New("no image content")

	// ErrMissingImageItem means a meta box is present but the primary
	// item is absent or not an AV1 coded item.
	ErrMissingImageItem = errors.New("missing primary image item")

	// ErrMissingPixi is returned when StrictPixiRequired is set and a
	// coded item lacks the pixel-information property. Older encoders
	// omit pixi, so the default policy tolerates it.
	ErrMissingPixi = errors.New("missing pixi property")

	// ErrInvalidClap is returned when StrictClapValid is set and a
	// clean-aperture property describes an impossible crop.
	ErrInvalidClap = errors.New("invalid clean aperture")
)
