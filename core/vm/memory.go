package vm

// memory.go implements the byte-addressed execution memory. Each
// execution context owns its memory region; the backing store is built
// from pooled pages so repeated executions do not churn the allocator.

import (
	"errors"
	"sync"
)

// Memory sizing constants. Memory grows in 32-byte word increments but
// the backing store is allocated in 4 KiB pages; the per-context cap
// matches the heap budget available to a contract execution.
const (
	memoryPageSize = 4096
	memoryWordSize = 32
	MemoryLimit    = 512 * 1024
)

// ErrMemoryLimit is returned when a resize would exceed MemoryLimit.
var ErrMemoryLimit = errors.New("memory limit exceeded")

// memPagePool holds zeroed-on-acquire pages shared across executions.
var memPagePool = sync.Pool{
	New: func() interface{} {
		page := make([]byte, memoryPageSize)
		return &page
	},
}

func getPage() *[]byte {
	p := memPagePool.Get().(*[]byte)
	clear(*p)
	return p
}

func putPage(p *[]byte) {
	if p != nil && len(*p) == memoryPageSize {
		memPagePool.Put(p)
	}
}

// Memory is the execution memory of a single context. The zero value is
// an empty memory ready for use.
type Memory struct {
	pages []*[]byte
	size  uint64 // logical size in bytes, word-aligned
}

// NewMemory returns an empty memory with no pages allocated.
func NewMemory() *Memory {
	return &Memory{}
}

// Size returns the current logical memory size in bytes.
func (m *Memory) Size() uint64 {
	return m.size
}

// Resize grows the memory to at least newSize bytes, rounded up to the
// next word boundary. Shrinking below the current size is a no-op.
func (m *Memory) Resize(newSize uint64) error {
	if newSize <= m.size {
		return nil
	}
	if newSize > MemoryLimit {
		return ErrMemoryLimit
	}

	wordAligned := ((newSize + memoryWordSize - 1) / memoryWordSize) * memoryWordSize
	neededPages := int((wordAligned + memoryPageSize - 1) / memoryPageSize)
	for i := len(m.pages); i < neededPages; i++ {
		m.pages = append(m.pages, getPage())
	}
	m.size = wordAligned
	return nil
}

// Set writes value[:size] at the given offset. The region must lie
// within the current size; callers resize first.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 || offset+size > m.size {
		return
	}
	written := uint64(0)
	for written < size {
		pageIdx := int((offset + written) / memoryPageSize)
		pageOff := (offset + written) % memoryPageSize
		n := memoryPageSize - pageOff
		if remaining := size - written; remaining < n {
			n = remaining
		}
		copy((*m.pages[pageIdx])[pageOff:pageOff+n], value[written:written+n])
		written += n
	}
}

// Set32 writes val as a 32-byte big-endian word at offset, left-padded
// with zeroes.
func (m *Memory) Set32(offset uint64, val []byte) {
	if offset+memoryWordSize > m.size {
		return
	}
	var padded [memoryWordSize]byte
	if len(val) > memoryWordSize {
		val = val[len(val)-memoryWordSize:]
	}
	copy(padded[memoryWordSize-len(val):], val)
	m.Set(offset, memoryWordSize, padded[:])
}

// Get reads size bytes starting at offset, returning a copy. Out of
// bounds reads return nil.
func (m *Memory) Get(offset, size uint64) []byte {
	if size == 0 || offset+size > m.size {
		return nil
	}
	result := make([]byte, size)
	read := uint64(0)
	for read < size {
		pageIdx := int((offset + read) / memoryPageSize)
		pageOff := (offset + read) % memoryPageSize
		n := memoryPageSize - pageOff
		if remaining := size - read; remaining < n {
			n = remaining
		}
		copy(result[read:read+n], (*m.pages[pageIdx])[pageOff:pageOff+n])
		read += n
	}
	return result
}

// Clear resets the logical size to zero, keeping the pages for reuse by
// the same context.
func (m *Memory) Clear() {
	for _, p := range m.pages {
		clear(*p)
	}
	m.size = 0
}

// Free returns the backing pages to the pool. The memory is empty and
// still usable afterwards.
func (m *Memory) Free() {
	for _, p := range m.pages {
		putPage(p)
	}
	m.pages = nil
	m.size = 0
}

// Data returns the full memory contents as one contiguous copy. Meant
// for debugging and tests; hot paths use Get and Set.
func (m *Memory) Data() []byte {
	if m.size == 0 {
		return nil
	}
	return m.Get(0, m.size)
}
