// SPDX-License-Identifier: EPL-2.0

package avifdec

import (
	"fmt"
	"sync"
)

// Handle is an opaque session reference for callers that cannot hold a
// Go pointer, such as FFI bridges keying sessions by integer. Zero is
// never a valid handle.
type Handle uint64

// Table owns a set of Decoder sessions addressed by Handle. Destroying
// a handle closes its session; slots are reused.
//
// A Table is safe for concurrent use.
type Table struct {
	mu       sync.Mutex
	sessions map[Handle]*Decoder
	free     []Handle
	next     Handle
}

// NewTable returns an empty session table.
func NewTable() *Table {
	return &Table{
		sessions: make(map[Handle]*Decoder),
		next:     1,
	}
}

// Open parses data, stores the resulting session and returns its
// handle.
func (t *Table) Open(data []byte, opts Options) (Handle, error) {
	d, err := Open(data, opts)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var h Handle
	if n := len(t.free); n > 0 {
		h = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		h = t.next
		t.next++
	}
	t.sessions[h] = d
	return h, nil
}

// Get returns the session behind h.
func (t *Table) Get(h Handle) (*Decoder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	d, ok := t.sessions[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	return d, nil
}

// Destroy closes the session behind h and releases the handle. An
// unknown handle fails with ErrInvalidHandle.
func (t *Table) Destroy(h Handle) error {
	t.mu.Lock()
	d, ok := t.sessions[h]
	if ok {
		delete(t.sessions, h)
		t.free = append(t.free, h)
	}
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}
	return d.Close()
}

// Len returns the number of live sessions.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
