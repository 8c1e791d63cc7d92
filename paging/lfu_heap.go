package paging

import "fmt"

// lfuEntry is one resident page tracked by the frequency heap
type lfuEntry struct {
	key        PageKey
	frame      int
	frequency  int
	insertedAt uint64
}

// less orders by frequency, then by age of the last insert or bump
func (e *lfuEntry) less(o *lfuEntry) bool {
	if e.frequency != o.frequency {
		return e.frequency < o.frequency
	}
	return e.insertedAt < o.insertedAt
}

// frequencyHeap is an array-backed binary min-heap with a key to slot index
// Every swap updates index, so index[e.key] == slot holds after each mutation
type frequencyHeap struct {
	entries []lfuEntry
	index   map[PageKey]int
}

func newFrequencyHeap(capacity int) frequencyHeap {
	return frequencyHeap{
		entries: make([]lfuEntry, 0, capacity),
		index:   make(map[PageKey]int, capacity),
	}
}

func (h *frequencyHeap) len() int {
	return len(h.entries)
}

func (h *frequencyHeap) lookup(key PageKey) (int, bool) {
	slot, ok := h.index[key]
	return slot, ok
}

func (h *frequencyHeap) at(slot int) *lfuEntry {
	return &h.entries[slot]
}

// insert appends then sifts up
func (h *frequencyHeap) insert(e lfuEntry) {
	h.entries = append(h.entries, e)
	slot := len(h.entries) - 1
	h.index[e.key] = slot
	h.siftUp(slot)
}

// extractMin swaps the root with the last entry, pops it, and sifts down
func (h *frequencyHeap) extractMin() (lfuEntry, bool) {
	if len(h.entries) == 0 {
		return lfuEntry{}, false
	}
	return h.removeAt(0), true
}

// bump increments the frequency of the entry at slot and stamps it with clock
// The (frequency, insertedAt) key only grows, so only a downward sift is needed
func (h *frequencyHeap) bump(slot int, clock uint64) int {
	e := &h.entries[slot]
	e.frequency++
	e.insertedAt = clock
	freq := e.frequency
	h.siftDown(slot)
	return freq
}

// remove deletes key from the heap
func (h *frequencyHeap) remove(key PageKey) (lfuEntry, bool) {
	slot, ok := h.index[key]
	if !ok {
		return lfuEntry{}, false
	}
	return h.removeAt(slot), true
}

func (h *frequencyHeap) removeAt(slot int) lfuEntry {
	last := len(h.entries) - 1
	h.swap(slot, last)
	e := h.entries[last]
	h.entries = h.entries[:last]
	delete(h.index, e.key)

	if slot < last {
		// the moved entry may belong above or below the vacated slot
		if !h.siftDown(slot) {
			h.siftUp(slot)
		}
	}
	return e
}

func (h *frequencyHeap) reset() {
	h.entries = h.entries[:0]
	clear(h.index)
}

func (h *frequencyHeap) swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.index[h.entries[i].key] = i
	h.index[h.entries[j].key] = j
}

func (h *frequencyHeap) siftUp(slot int) {
	for slot > 0 {
		parent := (slot - 1) / 2
		if !h.entries[slot].less(&h.entries[parent]) {
			break
		}
		h.swap(slot, parent)
		slot = parent
	}
}

// siftDown reports whether the entry moved
func (h *frequencyHeap) siftDown(slot int) bool {
	start := slot
	n := len(h.entries)
	for {
		smallest := slot
		left := 2*slot + 1
		right := left + 1
		if left < n && h.entries[left].less(&h.entries[smallest]) {
			smallest = left
		}
		if right < n && h.entries[right].less(&h.entries[smallest]) {
			smallest = right
		}
		if smallest == slot {
			break
		}
		h.swap(slot, smallest)
		slot = smallest
	}
	return slot != start
}

// check verifies heap order and index agreement
func (h *frequencyHeap) check(op string) error {
	if len(h.index) != len(h.entries) {
		return ErrInvariant(op, fmt.Sprintf("heap holds %d entries, index holds %d", len(h.entries), len(h.index)))
	}
	for slot := range h.entries {
		e := &h.entries[slot]
		if got, ok := h.index[e.key]; !ok || got != slot {
			return ErrInvariant(op, fmt.Sprintf("slot %d holds %s but index maps it to %d", slot, e.key, got))
		}
		if e.frequency < 1 {
			return ErrInvariant(op, fmt.Sprintf("slot %d has frequency %d", slot, e.frequency))
		}
		if slot > 0 {
			parent := (slot - 1) / 2
			if e.less(&h.entries[parent]) {
				return ErrInvariant(op, fmt.Sprintf("slot %d orders before its parent %d", slot, parent))
			}
		}
	}
	return nil
}
