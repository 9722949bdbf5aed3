// SPDX-License-Identifier: EPL-2.0

package avifdec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/avifdec"
	"github.com/ik5/avifdec/codec"
	"github.com/ik5/avifdec/container"
	"github.com/ik5/avifdec/internal/imagetest"
	"github.com/ik5/avifdec/pixel"
)

// testOptions returns Options wired to a fresh registry holding only
// the raw stub codec, plus the codec for config assertions.
func testOptions() (avifdec.Options, *imagetest.RawCodec) {
	raw := &imagetest.RawCodec{}
	reg := codec.NewRegistry()
	reg.Register(raw)
	return avifdec.Options{Registry: reg}, raw
}

func grayFrame(w, h int, luma uint16) *pixel.Image {
	return imagetest.GrayImage(w, h, 8, true, func(x, y int) uint16 { return luma })
}

func TestOpenStill(t *testing.T) {
	t.Parallel()

	img := imagetest.SolidImage(8, 6, 8, pixel.Subsampling420, false, pixel.MatrixBT601, 1, 0, 0)
	data := imagetest.BuildStill(img, imagetest.StillOptions{})

	opts, _ := testOptions()
	d, err := avifdec.Open(data, opts)
	require.NoError(t, err)
	defer d.Close()

	info := d.Info()
	assert.Equal(t, 8, info.Width)
	assert.Equal(t, 6, info.Height)
	assert.Equal(t, 8, info.Depth)
	assert.False(t, info.Alpha)
	assert.Equal(t, 1, info.FrameCount)
	assert.Equal(t, 0, info.RepetitionCount)
	assert.Equal(t, []float64{1}, info.Durations)

	require.Nil(t, d.Image())
	assert.Equal(t, -1, d.ImageIndex())
	assert.Equal(t, 0, d.NextImageIndex())

	frame, err := d.NextImage()
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, 0, d.ImageIndex())

	rgb := pixel.NewRGBImage(8, 6, pixel.FormatRGBA8888)
	require.NoError(t, d.ToRGB(rgb))
	r, g, b, a := rgb.Pix[0], rgb.Pix[1], rgb.Pix[2], rgb.Pix[3]
	assert.InDelta(t, 255, int(r), 2)
	assert.InDelta(t, 0, int(g), 2)
	assert.InDelta(t, 0, int(b), 2)
	assert.EqualValues(t, 255, a)

	// A still has exactly one frame.
	_, err = d.NextImage()
	assert.ErrorIs(t, err, avifdec.ErrNoImagesRemaining)

	// Asking for the current frame again is served from the session.
	again, err := d.NthImage(0)
	require.NoError(t, err)
	assert.Same(t, frame, again)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()

	valid := imagetest.BuildStill(grayFrame(2, 2, 100), imagetest.StillOptions{})

	t.Run("negative threads rejected before any work", func(t *testing.T) {
		t.Parallel()

		opts, _ := testOptions()
		opts.Threads = -1
		// Garbage data: the argument check must fire first.
		_, err := avifdec.Open([]byte("not an avif at all"), opts)
		assert.ErrorIs(t, err, avifdec.ErrInvalidArgument)
	})

	t.Run("unknown codec name", func(t *testing.T) {
		t.Parallel()

		opts, _ := testOptions()
		opts.Codec = "nonexistent"
		_, err := avifdec.Open(valid, opts)
		assert.ErrorIs(t, err, codec.ErrNoCodec)
	})

	t.Run("not avif", func(t *testing.T) {
		t.Parallel()

		opts, _ := testOptions()
		_, err := avifdec.Open([]byte("definitely not an avif"), opts)
		assert.ErrorIs(t, err, container.ErrInvalidFtyp)
	})

	t.Run("strict pixi", func(t *testing.T) {
		t.Parallel()

		data := imagetest.BuildStill(grayFrame(2, 2, 100), imagetest.StillOptions{OmitPixi: true})
		opts, _ := testOptions()
		opts.Strict = container.StrictAll
		_, err := avifdec.Open(data, opts)
		assert.ErrorIs(t, err, container.ErrMissingPixi)

		opts.Strict = container.StrictNone
		d, err := avifdec.Open(data, opts)
		require.NoError(t, err)
		d.Close()
	})
}

func TestThreadResolution(t *testing.T) {
	t.Parallel()

	img := imagetest.SolidImage(4, 4, 8, pixel.Subsampling420, false, pixel.MatrixBT601, 0, 1, 0)
	imagetest.WithAlpha(img, func(x, y int) uint16 { return 255 })
	data := imagetest.BuildStill(img, imagetest.StillOptions{})

	t.Run("zero threads polls the host at decode time", func(t *testing.T) {
		t.Parallel()

		opts, raw := testOptions()
		opts.Parallelism = func() int { return 3 }
		d, err := avifdec.Open(data, opts)
		require.NoError(t, err)
		defer d.Close()

		// Instances are created lazily, on the first decode.
		assert.Empty(t, raw.Configs())

		_, err = d.NextImage()
		require.NoError(t, err)

		configs := raw.Configs()
		require.Len(t, configs, 2) // color + alpha
		assert.Equal(t, 3, configs[0].Threads)
		assert.Equal(t, 3, configs[1].Threads)
	})

	t.Run("explicit thread count wins", func(t *testing.T) {
		t.Parallel()

		opts, raw := testOptions()
		opts.Threads = 7
		opts.Parallelism = func() int { return 3 }
		d, err := avifdec.Open(data, opts)
		require.NoError(t, err)
		defer d.Close()

		_, err = d.NextImage()
		require.NoError(t, err)
		require.NotEmpty(t, raw.Configs())
		assert.Equal(t, 7, raw.Configs()[0].Threads)
	})
}

func TestAlphaStill(t *testing.T) {
	t.Parallel()

	img := imagetest.SolidImage(4, 4, 8, pixel.Subsampling444, true, pixel.MatrixBT601, 1, 1, 1)
	imagetest.WithAlpha(img, func(x, y int) uint16 { return 128 })
	data := imagetest.BuildStill(img, imagetest.StillOptions{Premultiplied: true})

	opts, _ := testOptions()
	d, err := avifdec.Open(data, opts)
	require.NoError(t, err)
	defer d.Close()

	info := d.Info()
	assert.True(t, info.Alpha)
	assert.True(t, info.AlphaPremultiplied)

	frame, err := d.NextImage()
	require.NoError(t, err)
	require.True(t, frame.HasAlpha())
	assert.True(t, frame.AlphaPremultiplied)

	rgb := pixel.NewRGBImage(4, 4, pixel.FormatRGBA8888)
	require.NoError(t, d.ToRGB(rgb))
	// Premultiplied input passes color through untouched.
	assert.InDelta(t, 255, int(rgb.Pix[0]), 2)
	assert.EqualValues(t, 128, rgb.Pix[3])
}

func TestAnimationSequential(t *testing.T) {
	t.Parallel()

	frames := []*pixel.Image{grayFrame(4, 4, 50), grayFrame(4, 4, 120), grayFrame(4, 4, 200)}
	data := imagetest.BuildAnimation(frames, imagetest.AnimationOptions{
		Timescale:   1000,
		Deltas:      []uint32{100, 100, 200},
		Repetitions: -1,
	})

	opts, _ := testOptions()
	d, err := avifdec.Open(data, opts)
	require.NoError(t, err)
	defer d.Close()

	info := d.Info()
	assert.Equal(t, 3, info.FrameCount)
	assert.Equal(t, container.RepetitionInfinite, info.RepetitionCount)
	require.Len(t, info.Durations, 3)
	assert.InDelta(t, 0.1, info.Durations[0], 1e-9)
	assert.InDelta(t, 0.1, info.Durations[1], 1e-9)
	assert.InDelta(t, 0.2, info.Durations[2], 1e-9)

	for i, want := range []uint16{50, 120, 200} {
		frame, err := d.NextImage()
		require.NoErrorf(t, err, "frame %d", i)
		assert.Equalf(t, want, frame.Y.Data[0], "frame %d luma", i)
		assert.Equal(t, i, d.ImageIndex())
	}

	// Walking past the end reports the condition and keeps the
	// session usable.
	_, err = d.NextImage()
	assert.ErrorIs(t, err, avifdec.ErrNoImagesRemaining)

	frame, err := d.NthImage(1)
	require.NoError(t, err)
	assert.EqualValues(t, 120, frame.Y.Data[0])
}

func TestFiniteRepetitions(t *testing.T) {
	t.Parallel()

	frames := []*pixel.Image{grayFrame(2, 2, 10), grayFrame(2, 2, 20)}
	data := imagetest.BuildAnimation(frames, imagetest.AnimationOptions{Repetitions: 4})

	opts, _ := testOptions()
	info, err := avifdec.GetInfo(data, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, info.RepetitionCount)
}

func TestNthImageSeek(t *testing.T) {
	t.Parallel()

	frames := []*pixel.Image{grayFrame(4, 4, 10), grayFrame(4, 4, 20), grayFrame(4, 4, 30), grayFrame(4, 4, 40)}
	// Samples 1 and 3 (1-based) are random-access points.
	data := imagetest.BuildAnimation(frames, imagetest.AnimationOptions{
		SyncSamples: []uint32{1, 3},
	})

	opts, raw := testOptions()
	d, err := avifdec.Open(data, opts)
	require.NoError(t, err)
	defer d.Close()

	// Jumping straight to a sync sample needs one instance and one
	// decode call.
	frame, err := d.NthImage(2)
	require.NoError(t, err)
	assert.EqualValues(t, 30, frame.Y.Data[0])
	assert.Len(t, raw.Configs(), 1)

	// Continuing forward reuses the live instance.
	frame, err = d.NextImage()
	require.NoError(t, err)
	assert.EqualValues(t, 40, frame.Y.Data[0])
	assert.Len(t, raw.Configs(), 1)

	// Seeking backwards re-feeds from the preceding sync sample on a
	// fresh instance.
	frame, err = d.NthImage(1)
	require.NoError(t, err)
	assert.EqualValues(t, 20, frame.Y.Data[0])
	assert.Len(t, raw.Configs(), 2)

	// The seeked-to frame matches a plain sequential decode.
	d2, err := avifdec.Open(data, opts)
	require.NoError(t, err)
	defer d2.Close()
	_, err = d2.NextImage()
	require.NoError(t, err)
	sequential, err := d2.NextImage()
	require.NoError(t, err)
	assert.Equal(t, sequential.Y.Data, frame.Y.Data)
}

func TestDecodeFailureKeepsSessionUsable(t *testing.T) {
	t.Parallel()

	frames := []*pixel.Image{grayFrame(4, 4, 10), grayFrame(4, 4, 20), grayFrame(4, 4, 30)}
	data := imagetest.BuildAnimation(frames, imagetest.AnimationOptions{})

	// Corrupt the second sample's magic so only that frame fails.
	second := bytes.Index(data[bytes.Index(data, []byte("RAWP"))+4:], []byte("RAWP"))
	require.Greater(t, second, 0)
	copy(data[bytes.Index(data, []byte("RAWP"))+4+second:], imagetest.FailPayload())

	opts, _ := testOptions()
	d, err := avifdec.Open(data, opts)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.NextImage()
	require.NoError(t, err)

	_, err = d.NextImage()
	assert.ErrorIs(t, err, avifdec.ErrDecodeColor)

	// The session survives; earlier frames are still reachable.
	frame, err := d.NthImage(0)
	require.NoError(t, err)
	assert.EqualValues(t, 10, frame.Y.Data[0])
}

func TestClose(t *testing.T) {
	t.Parallel()

	data := imagetest.BuildStill(grayFrame(2, 2, 100), imagetest.StillOptions{})

	opts, _ := testOptions()
	d, err := avifdec.Open(data, opts)
	require.NoError(t, err)

	_, err = d.NextImage()
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, d.Close()) // idempotent

	_, err = d.NextImage()
	assert.ErrorIs(t, err, avifdec.ErrClosed)
	_, err = d.NthImage(0)
	assert.ErrorIs(t, err, avifdec.ErrClosed)
	assert.ErrorIs(t, d.ToRGB(pixel.NewRGBImage(2, 2, pixel.FormatRGBA8888)), avifdec.ErrClosed)
	assert.Nil(t, d.Image())
}

func TestOneShot(t *testing.T) {
	t.Parallel()

	img := imagetest.SolidImage(4, 4, 8, pixel.Subsampling420, false, pixel.MatrixBT601, 0, 0, 1)
	data := imagetest.BuildStill(img, imagetest.StillOptions{})

	opts, _ := testOptions()
	rgb := pixel.NewRGBImage(4, 4, pixel.FormatRGBA8888)
	require.NoError(t, avifdec.Decode(data, rgb, opts))
	assert.InDelta(t, 0, int(rgb.Pix[0]), 2)
	assert.InDelta(t, 255, int(rgb.Pix[2]), 2)

	info, err := avifdec.GetInfo(data, opts)
	require.NoError(t, err)
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 4, info.Height)
}

func TestToRGBBeforeDecode(t *testing.T) {
	t.Parallel()

	data := imagetest.BuildStill(grayFrame(2, 2, 100), imagetest.StillOptions{})
	opts, _ := testOptions()
	d, err := avifdec.Open(data, opts)
	require.NoError(t, err)
	defer d.Close()

	err = d.ToRGB(pixel.NewRGBImage(2, 2, pixel.FormatRGBA8888))
	assert.ErrorIs(t, err, avifdec.ErrNoImagesRemaining)
}

func TestIsAVIF(t *testing.T) {
	t.Parallel()

	still := imagetest.BuildStill(grayFrame(2, 2, 100), imagetest.StillOptions{})
	anim := imagetest.BuildAnimation([]*pixel.Image{grayFrame(2, 2, 1)}, imagetest.AnimationOptions{})

	assert.True(t, avifdec.IsAVIF(still))
	assert.True(t, avifdec.IsAVIF(anim))
	assert.False(t, avifdec.IsAVIF([]byte("plainly not")))
	assert.False(t, avifdec.IsAVIF(nil))
}
