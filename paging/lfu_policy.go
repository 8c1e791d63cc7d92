package paging

import "fmt"

// LFUPolicy evicts the least frequently used page
// Among equal frequencies the page inserted or last hit earliest goes first
type LFUPolicy struct {
	policyBase
	heap  frequencyHeap
	clock uint64 // strictly increasing until Reset
}

// NewLFUPolicy creates an LFU policy over frameCount frames
func NewLFUPolicy(frameCount int) *LFUPolicy {
	return &LFUPolicy{
		policyBase: newPolicyBase(frameCount),
		heap:       newFrequencyHeap(frameCount),
	}
}

// Algorithm returns AlgorithmLFU
func (p *LFUPolicy) Algorithm() Algorithm {
	return AlgorithmLFU
}

// AccessPage references a page
func (p *LFUPolicy) AccessPage(processID string, pageNumber int) AccessResult {
	key := NewPageKey(processID, pageNumber)

	if slot, ok := p.heap.lookup(key); ok {
		frameIndex := p.heap.at(slot).frame
		freq := p.heap.bump(slot, p.tick())
		return p.hit(key, frameIndex, freq)
	}

	var replaced *PageKey
	frameIndex := p.frames.TakeFree()
	if frameIndex < 0 {
		victim, _ := p.heap.extractMin()
		frameIndex = victim.frame
		if old, ok := p.frames.Evict(frameIndex); ok {
			replaced = &old
		}
	}

	p.frames.Install(frameIndex, key)
	p.heap.insert(lfuEntry{
		key:        key,
		frame:      frameIndex,
		frequency:  1,
		insertedAt: p.tick(),
	})
	return p.fault(key, frameIndex, replaced, 1)
}

// State returns frames, counters, history and the frequency of each resident page
func (p *LFUPolicy) State() State {
	s := p.baseState(AlgorithmLFU)
	s.Frequencies = make(map[PageKey]int, p.heap.len())
	for slot := 0; slot < p.heap.len(); slot++ {
		e := p.heap.at(slot)
		s.Frequencies[e.key] = e.frequency
	}
	return s
}

// Reset empties the heap, restarts the clock and clears the history
func (p *LFUPolicy) Reset() {
	p.frames.Reset()
	p.heap.reset()
	p.clock = 0
	p.history.Reset()
}

// RemoveProcess deletes every heap entry of processID and frees its frame
func (p *LFUPolicy) RemoveProcess(processID string) {
	for _, frameIndex := range p.framesOf(processID) {
		key, _ := p.frames.Get(frameIndex)
		p.heap.remove(key)
		p.frames.Release(frameIndex)
	}
}

// CheckInvariants verifies heap order, heap/index agreement and heap/frame agreement
func (p *LFUPolicy) CheckInvariants() error {
	const op = "LFUPolicy.CheckInvariants"
	if err := p.frames.check(op); err != nil {
		return err
	}
	if err := p.heap.check(op); err != nil {
		return err
	}
	if p.heap.len() != p.frames.Occupied() {
		return sizeMismatch(op, "frequency heap", p.heap.len(), p.frames.Occupied())
	}
	for slot := 0; slot < p.heap.len(); slot++ {
		e := p.heap.at(slot)
		if occupant, ok := p.frames.Get(e.frame); !ok || occupant != e.key {
			return ErrInvariant(op, fmt.Sprintf("heap entry %s points at frame %d holding %s", e.key, e.frame, occupant))
		}
		if e.insertedAt > p.clock {
			return ErrInvariant(op, fmt.Sprintf("heap entry %s stamped %d after clock %d", e.key, e.insertedAt, p.clock))
		}
	}
	return nil
}

func (p *LFUPolicy) tick() uint64 {
	p.clock++
	return p.clock
}
