// SPDX-License-Identifier: EPL-2.0

package avifdec

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/ik5/avifdec/codec"
	"github.com/ik5/avifdec/container"
)

// Options configures a Decoder session. The zero value is a valid
// configuration: automatic thread count, any available codec, relaxed
// strictness and no logging.
type Options struct {
	// Threads is the number of worker threads handed to the codec.
	// Zero selects the host's CPU count at decode time. Negative
	// values are rejected by Open before any work is done.
	Threads int

	// Codec names the registered codec to use. Empty selects the
	// default choice from the registry.
	Codec string

	// Strict enables additional container validation. The zero value
	// is the relaxed mode that tolerates real-world encoder output.
	Strict container.StrictFlags

	// Parallelism reports the number of CPUs to use when Threads is
	// zero. Nil means runtime.NumCPU.
	Parallelism func() int

	// Logger receives debug output. Nil means no logging.
	Logger *zap.Logger

	// Registry is the codec registry to select from. Nil means the
	// package default.
	Registry *codec.Registry
}

func (o Options) parallelism() int {
	if o.Parallelism != nil {
		return o.Parallelism()
	}
	return runtime.NumCPU()
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

func (o Options) registry() *codec.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return codec.DefaultRegistry
}
