// SPDX-License-Identifier: EPL-2.0

package avifdec

import (
	"errors"

	"github.com/ik5/avifdec/codec"
	"github.com/ik5/avifdec/container"
	"github.com/ik5/avifdec/pixel"
)

// Result is the closed enumeration of operation outcomes, for callers
// that log or marshal status codes rather than Go errors. Every Result
// has a stable human-readable description.
type Result int

const (
	ResultOK Result = iota
	ResultUnknownError
	ResultInvalidArgument
	ResultInvalidFtyp
	ResultTruncatedData
	ResultBMFFParseFailed
	ResultNoContent
	ResultMissingImageItem
	ResultDecodeColorFailed
	ResultDecodeAlphaFailed
	ResultReformatFailed
	ResultNotImplemented
	ResultNoImagesRemaining
	ResultNoCodecAvailable
)

var resultStrings = map[Result]string{
	ResultOK:                "OK",
	ResultUnknownError:      "Unknown Error",
	ResultInvalidArgument:   "Invalid argument",
	ResultInvalidFtyp:       "Invalid ftyp",
	ResultTruncatedData:     "Truncated data",
	ResultBMFFParseFailed:   "BMFF parsing failed",
	ResultNoContent:         "No content",
	ResultMissingImageItem:  "Missing or empty image item",
	ResultDecodeColorFailed: "Decoding of color planes failed",
	ResultDecodeAlphaFailed: "Decoding of alpha plane failed",
	ResultReformatFailed:    "Reformatting failed",
	ResultNotImplemented:    "Not implemented",
	ResultNoImagesRemaining: "No images remaining",
	ResultNoCodecAvailable:  "No codec available",
}

func (r Result) String() string {
	if s, ok := resultStrings[r]; ok {
		return s
	}
	return "Unknown Error"
}

// ResultOf maps an error returned by this package to its Result code.
// A nil error maps to ResultOK.
func ResultOf(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrClosed),
		errors.Is(err, ErrInvalidHandle):
		return ResultInvalidArgument
	case errors.Is(err, ErrNoImagesRemaining):
		return ResultNoImagesRemaining
	case errors.Is(err, ErrDecodeColor):
		return ResultDecodeColorFailed
	case errors.Is(err, ErrDecodeAlpha):
		return ResultDecodeAlphaFailed
	case errors.Is(err, container.ErrInvalidFtyp):
		return ResultInvalidFtyp
	case errors.Is(err, container.ErrTruncated):
		return ResultTruncatedData
	case errors.Is(err, container.ErrNoContent):
		return ResultNoContent
	case errors.Is(err, container.ErrMissingImageItem):
		return ResultMissingImageItem
	case errors.Is(err, container.ErrParseFailed),
		errors.Is(err, container.ErrMissingPixi),
		errors.Is(err, container.ErrInvalidClap):
		return ResultBMFFParseFailed
	case errors.Is(err, pixel.ErrBufferTooSmall),
		errors.Is(err, pixel.ErrReformatFailed),
		errors.Is(err, pixel.ErrTargetLocked):
		return ResultReformatFailed
	case errors.Is(err, pixel.ErrNotImplemented):
		return ResultNotImplemented
	case errors.Is(err, codec.ErrNoCodec):
		return ResultNoCodecAvailable
	default:
		return ResultUnknownError
	}
}
