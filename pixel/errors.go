// SPDX-License-Identifier: EPL-2.0

package pixel

import "errors"

var (
	// ErrBufferTooSmall means the sink cannot hold the full image.
	// Output is never cropped to fit.
	ErrBufferTooSmall = errors.New("target buffer smaller than image")

	// ErrNotImplemented means the sink requested a pixel format the
	// converter does not support. Callers should pick another format.
	ErrNotImplemented = errors.New("unsupported target pixel format")

	// ErrReformatFailed means the source image itself is unusable:
	// inconsistent plane dimensions, bad depth, or a matrix/subsampling
	// combination with no defined transform.
	ErrReformatFailed = errors.New("cannot reformat image to RGB")

	// ErrTargetLocked means the sink is already inside a conversion.
	ErrTargetLocked = errors.New("target buffer already locked")
)
