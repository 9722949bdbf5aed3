// SPDX-License-Identifier: EPL-2.0

package dav1d

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// Dav1dPictureParameters.layout values.
const (
	pixelLayoutI400 = 0
	pixelLayoutI420 = 1
	pixelLayoutI422 = 2
	pixelLayoutI444 = 3
)

// Mirrors of the libdav1d 1.x ABI structs the binding touches.

type dav1dPicAllocator struct {
	Cookie       uintptr
	AllocPicture uintptr
	ReleasePict  uintptr
}

type dav1dLogger struct {
	Cookie   uintptr
	Callback uintptr
}

type dav1dSettings struct {
	NThreads              int32
	MaxFrameDelay         int32
	ApplyGrain            int32
	OperatingPoint        int32
	AllLayers             int32
	FrameSizeLimit        uint32
	Allocator             dav1dPicAllocator
	Logger                dav1dLogger
	StrictStdCompliance   int32
	OutputInvisibleFrames int32
	InloopFilters         int32
	DecodeFrameType       int32
	Reserved              [16]uint8
}

type dav1dUserData struct {
	Data uintptr
	Ref  uintptr
}

type dav1dDataProps struct {
	Timestamp int64
	Duration  int64
	Offset    int64
	Size      uint
	UserData  dav1dUserData
}

type dav1dData struct {
	Data uintptr
	Sz   uint
	Ref  uintptr
	M    dav1dDataProps
}

type dav1dPictureParameters struct {
	W      int32
	H      int32
	Layout uint32
	Bpc    int32
}

type dav1dPicture struct {
	SeqHdr              uintptr
	FrameHdr            uintptr
	Data                [3]uintptr
	Stride              [2]int
	P                   dav1dPictureParameters
	M                   dav1dDataProps
	ContentLight        uintptr
	MasteringDisplay    uintptr
	ItutT35             uintptr
	NItutT35            uint
	Reserved            [4]uintptr
	FrameHdrRef         uintptr
	SeqHdrRef           uintptr
	ContentLightRef     uintptr
	MasteringDisplayRef uintptr
	ItutT35Ref          uintptr
	ReservedRef         [4]uintptr
	Ref                 uintptr
	AllocatorData       uintptr
}

var (
	loaded  bool
	loadErr error

	dav1dVersion         func() string
	dav1dDefaultSettings func(*dav1dSettings)
	dav1dOpen            func(*uintptr, *dav1dSettings) int32
	dav1dSendData        func(uintptr, *dav1dData) int32
	dav1dGetPicture      func(uintptr, *dav1dPicture) int32
	dav1dPictureUnref    func(*dav1dPicture)
	dav1dDataWrap        func(*dav1dData, *byte, uint, uintptr, uintptr) int32
	dav1dDataUnref       func(*dav1dData)
	dav1dClose           func(*uintptr)

	// The wrapped buffer is Go memory kept alive by the instance; the
	// release callback has nothing to free.
	freeCallback uintptr
)

func init() {
	defer func() {
		if r := recover(); r != nil {
			loaded = false
			loadErr = fmt.Errorf("%v", r)
		}
	}()

	lib, err := loadLibrary()
	if err != nil {
		loadErr = err
		return
	}

	purego.RegisterLibFunc(&dav1dVersion, lib, "dav1d_version")
	purego.RegisterLibFunc(&dav1dDefaultSettings, lib, "dav1d_default_settings")
	purego.RegisterLibFunc(&dav1dOpen, lib, "dav1d_open")
	purego.RegisterLibFunc(&dav1dSendData, lib, "dav1d_send_data")
	purego.RegisterLibFunc(&dav1dGetPicture, lib, "dav1d_get_picture")
	purego.RegisterLibFunc(&dav1dPictureUnref, lib, "dav1d_picture_unref")
	purego.RegisterLibFunc(&dav1dDataWrap, lib, "dav1d_data_wrap")
	purego.RegisterLibFunc(&dav1dDataUnref, lib, "dav1d_data_unref")
	purego.RegisterLibFunc(&dav1dClose, lib, "dav1d_close")

	freeCallback = purego.NewCallback(func(buf uintptr, cookie uintptr) {})

	loaded = true
}

// LoadError reports why the backend is unavailable, or nil.
func LoadError() error { return loadErr }
