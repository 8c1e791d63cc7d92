package paging

import (
	"container/heap"
	"fmt"
)

// freeFrames is a min-heap of empty frame indices
type freeFrames []int

func (f freeFrames) Len() int           { return len(f) }
func (f freeFrames) Less(i, j int) bool { return f[i] < f[j] }
func (f freeFrames) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *freeFrames) Push(x any) { *f = append(*f, x.(int)) }

func (f *freeFrames) Pop() any {
	old := *f
	n := len(old)
	x := old[n-1]
	*f = old[:n-1]
	return x
}

// FrameTable is the fixed array of physical frames owned by one policy
// Occupied frames and resident keys are kept in bijection through index
type FrameTable struct {
	slots    []PageKey
	used     []bool
	index    map[PageKey]int
	free     freeFrames
	occupied int
}

// NewFrameTable creates a table of frameCount empty frames
func NewFrameTable(frameCount int) *FrameTable {
	if frameCount <= 0 {
		panic(ErrInvalidFrameCount("NewFrameTable", frameCount))
	}

	t := &FrameTable{
		slots: make([]PageKey, frameCount),
		used:  make([]bool, frameCount),
		index: make(map[PageKey]int, frameCount),
		free:  make(freeFrames, 0, frameCount),
	}
	t.Reset()
	return t
}

// Len returns the number of frames
func (t *FrameTable) Len() int {
	return len(t.slots)
}

// Occupied returns the number of frames holding a page
func (t *FrameTable) Occupied() int {
	return t.occupied
}

// Full reports whether every frame holds a page
func (t *FrameTable) Full() bool {
	return t.occupied == len(t.slots)
}

// Get returns the occupant of frame i
func (t *FrameTable) Get(i int) (PageKey, bool) {
	return t.slots[i], t.used[i]
}

// Lookup returns the frame holding key, or -1
func (t *FrameTable) Lookup(key PageKey) int {
	if i, ok := t.index[key]; ok {
		return i
	}
	return -1
}

// TakeFree claims the lowest-indexed empty frame, or returns -1 when full
func (t *FrameTable) TakeFree() int {
	if t.free.Len() == 0 {
		return -1
	}
	return heap.Pop(&t.free).(int)
}

// Install places key into frame i, which must have been claimed via TakeFree
// or vacated via Evict
func (t *FrameTable) Install(i int, key PageKey) {
	t.slots[i] = key
	t.used[i] = true
	t.index[key] = i
	t.occupied++
}

// Evict empties frame i and returns its former occupant
// The frame is not returned to the free heap; the caller reuses it immediately
func (t *FrameTable) Evict(i int) (PageKey, bool) {
	if !t.used[i] {
		return PageKey{}, false
	}
	key := t.slots[i]
	delete(t.index, key)
	t.slots[i] = PageKey{}
	t.used[i] = false
	t.occupied--
	return key, true
}

// Release empties frame i and makes it available to TakeFree again
func (t *FrameTable) Release(i int) (PageKey, bool) {
	key, ok := t.Evict(i)
	if ok {
		heap.Push(&t.free, i)
	}
	return key, ok
}

// Snapshot copies the frame contents, nil for empty frames
func (t *FrameTable) Snapshot() []*PageKey {
	out := make([]*PageKey, len(t.slots))
	for i := range t.slots {
		if t.used[i] {
			key := t.slots[i]
			out[i] = &key
		}
	}
	return out
}

// Reset empties every frame
func (t *FrameTable) Reset() {
	clear(t.index)
	t.free = t.free[:0]
	for i := range t.slots {
		t.slots[i] = PageKey{}
		t.used[i] = false
		t.free = append(t.free, i)
	}
	// ascending order already satisfies the heap property
	t.occupied = 0
}

// check verifies the slot/index bijection and the free heap
func (t *FrameTable) check(op string) error {
	count := 0
	for i := range t.slots {
		if !t.used[i] {
			continue
		}
		count++
		if j, ok := t.index[t.slots[i]]; !ok || j != i {
			return ErrInvariant(op, fmt.Sprintf("frame %d holds %s but index maps it to %d", i, t.slots[i], j))
		}
	}
	if count != t.occupied || len(t.index) != t.occupied {
		return ErrInvariant(op, fmt.Sprintf("occupied=%d, used slots=%d, index size=%d", t.occupied, count, len(t.index)))
	}
	if t.free.Len()+t.occupied != len(t.slots) {
		return ErrInvariant(op, fmt.Sprintf("free=%d + occupied=%d does not cover %d frames", t.free.Len(), t.occupied, len(t.slots)))
	}
	for _, i := range t.free {
		if t.used[i] {
			return ErrInvariant(op, fmt.Sprintf("frame %d is in the free heap but occupied", i))
		}
	}
	return nil
}
