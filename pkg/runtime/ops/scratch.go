// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"math"
	"sync"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// DefaultPoolAlignment is the alignment of the base of a ScratchPool buffer.
const DefaultPoolAlignment = 64

// ScratchPool is a bump allocator over one pre-allocated, aligned buffer.
//
// Individual allocations are never freed: Free is a no-op and the memory is reclaimed in bulk by Reset.
// It is safe for concurrent use.
type ScratchPool struct {
	mu        sync.Mutex
	buf       []byte
	used      int
	highWater int
}

// NewScratchPool allocates a pool of size bytes, with its base aligned to alignment (a power of 2,
// DefaultPoolAlignment if 0).
func NewScratchPool(size, alignment int) (*ScratchPool, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "invalid scratch pool size %d", size)
	}
	if alignment == 0 {
		alignment = DefaultPoolAlignment
	}
	if !isPowerOf2(alignment) {
		return nil, errors.Wrapf(ErrInvalidArgument, "scratch pool alignment %d is not a power of 2", alignment)
	}
	buf, err := alignedBytes(size, alignment)
	if err != nil {
		return nil, err
	}
	return &ScratchPool{buf: buf}, nil
}

// Allocate returns size bytes aligned to alignment (a power of 2, DefaultScratchAlignment if 0).
// The bytes are not zeroed. It fails with ErrResourceExhausted if the pool doesn't have enough space left.
func (p *ScratchPool) Allocate(size, alignment int) ([]byte, error) {
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "invalid scratch allocation size %d", size)
	}
	if alignment == 0 {
		alignment = DefaultScratchAlignment
	}
	if !isPowerOf2(alignment) {
		return nil, errors.Wrapf(ErrInvalidArgument, "scratch alignment %d is not a power of 2", alignment)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	base := uintptr(unsafe.Pointer(unsafe.SliceData(p.buf)))
	mask := uintptr(alignment - 1)
	start := int(((base+uintptr(p.used))+mask)&^mask - base)
	if start > len(p.buf) || size > len(p.buf)-start {
		return nil, errors.Wrapf(ErrResourceExhausted, "scratch pool exhausted: requested %s, %s of %s available",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(len(p.buf)-p.used)), humanize.IBytes(uint64(len(p.buf))))
	}
	end := start + size
	p.used = end
	p.highWater = max(p.highWater, end)
	return p.buf[start:end:end], nil
}

// Free is a no-op: memory is only reclaimed by Reset.
func (p *ScratchPool) Free([]byte) {}

// Reset reclaims all allocations. Previously returned buffers must no longer be used.
func (p *ScratchPool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.used = 0
}

// Used returns the number of bytes allocated since the last Reset, including alignment padding.
func (p *ScratchPool) Used() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

// Available returns the number of bytes not yet allocated.
func (p *ScratchPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf) - p.used
}

// Capacity returns the size of the pool.
func (p *ScratchPool) Capacity() int {
	return len(p.buf)
}

// HighWater returns the maximum Used value observed.
func (p *ScratchPool) HighWater() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.highWater
}

func isPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// alignedBytes allocates size bytes whose first element is aligned to alignment (a power of 2).
// It fails with ErrResourceExhausted if the padded size doesn't fit in an int.
func alignedBytes(size, alignment int) ([]byte, error) {
	if size > math.MaxInt-(alignment-1) {
		return nil, errors.Wrapf(ErrResourceExhausted, "scratch size %d with alignment %d overflows", size, alignment)
	}
	buf := make([]byte, size+alignment-1)
	offset := 0
	if mod := int(uintptr(unsafe.Pointer(unsafe.SliceData(buf))) & uintptr(alignment-1)); mod != 0 {
		offset = alignment - mod
	}
	return buf[offset : offset+size : offset+size], nil
}
