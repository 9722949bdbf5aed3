// SPDX-License-Identifier: EPL-2.0

package codec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ik5/avifdec/pixel"
)

var (
	// ErrNoCodec means no decode backend is registered or available.
	ErrNoCodec = errors.New("no AV1 codec available")
	// ErrDecodeFailed wraps backend reconstruction failures.
	ErrDecodeFailed = errors.New("AV1 decode failed")
)

// Config carries per-instance decode settings.
type Config struct {
	// Threads bounds the backend's internal parallelism. Must be >= 1;
	// auto-detection happens above this layer.
	Threads int
}

// Codec is a factory for decode instances of one AV1 backend.
type Codec interface {
	// Name identifies the backend (e.g. "dav1d").
	Name() string
	// Version is the backend's own version string.
	Version() string
	// Available reports whether the backend can decode on this host.
	Available() bool
	// NewInstance creates a stateful decode instance.
	NewInstance(cfg Config) (Instance, error)
}

// Instance is one stateful decode stream. Temporal units must be fed
// in coded order; random access is handled by the caller re-feeding
// from a sync sample on a fresh or reset instance.
//
// Instances are not safe for concurrent use.
type Instance interface {
	// Decode reconstructs the sample planes of one temporal unit.
	// The returned image is owned by the instance and is valid until
	// the next Decode or Close.
	Decode(obu []byte) (*pixel.Image, error)
	// Close releases backend state. Idempotent.
	Close() error
}

// Registry maps backend names to codecs.
type Registry struct {
	codecs map[string]Codec

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Codec),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(c Codec) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[c.Name()] = c
}

func (r *Registry) Get(name string) (Codec, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	c, ok := r.codecs[name]
	return c, ok
}

// Choose returns the codec with the given name, or, for an empty name,
// the preferred available backend ("dav1d" first, then any other in
// name order).
func (r *Registry) Choose(name string) (Codec, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if name != "" {
		c, ok := r.codecs[name]
		if !ok || !c.Available() {
			return nil, fmt.Errorf("%w: %q", ErrNoCodec, name)
		}
		return c, nil
	}

	if c, ok := r.codecs["dav1d"]; ok && c.Available() {
		return c, nil
	}

	names := make([]string, 0, len(r.codecs))
	for n := range r.codecs {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if c := r.codecs[n]; c.Available() {
			return c, nil
		}
	}
	return nil, ErrNoCodec
}

// Versions renders "name/version" for every available backend, for
// inclusion in the engine version string.
func (r *Registry) Versions() string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	names := make([]string, 0, len(r.codecs))
	for n := range r.codecs {
		names = append(names, n)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, n := range names {
		c := r.codecs[n]
		if !c.Available() {
			continue
		}
		parts = append(parts, n+"/"+c.Version())
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// DefaultRegistry is where backend packages register themselves from
// their init functions.
var DefaultRegistry = NewRegistry()

// Register adds a codec to the default registry.
func Register(c Codec) { DefaultRegistry.Register(c) }
