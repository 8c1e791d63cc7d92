package paging

import "fmt"

// lruNode is an arena slot; slot i belongs to frame i
type lruNode struct {
	key  PageKey
	prev int
	next int
}

// LRUPolicy evicts the least recently used page
// Recency is an intrusive doubly linked list stored in an arena of frameCount+2
// slots; the last two slots are the head (most recent) and tail sentinels
type LRUPolicy struct {
	policyBase
	nodes []lruNode
	index map[PageKey]int
	head  int
	tail  int
}

// NewLRUPolicy creates an LRU policy over frameCount frames
func NewLRUPolicy(frameCount int) *LRUPolicy {
	p := &LRUPolicy{
		policyBase: newPolicyBase(frameCount),
		nodes:      make([]lruNode, frameCount+2),
		index:      make(map[PageKey]int, frameCount),
		head:       frameCount,
		tail:       frameCount + 1,
	}
	p.linkSentinels()
	return p
}

// Algorithm returns AlgorithmLRU
func (p *LRUPolicy) Algorithm() Algorithm {
	return AlgorithmLRU
}

// AccessPage references a page
func (p *LRUPolicy) AccessPage(processID string, pageNumber int) AccessResult {
	key := NewPageKey(processID, pageNumber)

	if node, ok := p.index[key]; ok {
		p.unlink(node)
		p.pushFront(node)
		return p.hit(key, node, 0)
	}

	var replaced *PageKey
	frameIndex := p.frames.TakeFree()
	if frameIndex < 0 {
		frameIndex = p.nodes[p.tail].prev
		p.unlink(frameIndex)
		delete(p.index, p.nodes[frameIndex].key)
		if old, ok := p.frames.Evict(frameIndex); ok {
			replaced = &old
		}
	}

	p.frames.Install(frameIndex, key)
	p.nodes[frameIndex].key = key
	p.pushFront(frameIndex)
	p.index[key] = frameIndex
	return p.fault(key, frameIndex, replaced, 0)
}

// State returns frames, counters, history and the recency order
func (p *LRUPolicy) State() State {
	s := p.baseState(AlgorithmLRU)
	s.LRUOrder = p.order()
	return s
}

// Reset rebuilds an empty list and clears the history
func (p *LRUPolicy) Reset() {
	p.frames.Reset()
	clear(p.index)
	for i := range p.nodes {
		p.nodes[i] = lruNode{prev: -1, next: -1}
	}
	p.linkSentinels()
	p.history.Reset()
}

// RemoveProcess unlinks every node of processID and frees its frame
func (p *LRUPolicy) RemoveProcess(processID string) {
	for _, frameIndex := range p.framesOf(processID) {
		p.unlink(frameIndex)
		delete(p.index, p.nodes[frameIndex].key)
		p.nodes[frameIndex].key = PageKey{}
		p.frames.Release(frameIndex)
	}
}

// CheckInvariants walks the list in both directions and compares it with the index and frames
func (p *LRUPolicy) CheckInvariants() error {
	const op = "LRUPolicy.CheckInvariants"
	if err := p.frames.check(op); err != nil {
		return err
	}
	if len(p.index) != p.frames.Occupied() {
		return sizeMismatch(op, "recency index", len(p.index), p.frames.Occupied())
	}

	count := 0
	for cur := p.nodes[p.head].next; cur != p.tail; cur = p.nodes[cur].next {
		if count > len(p.index) {
			return ErrInvariant(op, "recency list is longer than the index (cycle?)")
		}
		if p.nodes[p.nodes[cur].next].prev != cur {
			return ErrInvariant(op, fmt.Sprintf("node %d: next.prev does not point back", cur))
		}
		key := p.nodes[cur].key
		if node, ok := p.index[key]; !ok || node != cur {
			return ErrInvariant(op, fmt.Sprintf("node %d holds %s but index maps it to %d", cur, key, node))
		}
		if occupant, ok := p.frames.Get(cur); !ok || occupant != key {
			return ErrInvariant(op, fmt.Sprintf("node %d holds %s but frame %d holds %s", cur, key, cur, occupant))
		}
		count++
	}
	if count != len(p.index) {
		return sizeMismatch(op, "recency list", count, len(p.index))
	}
	return nil
}

// order lists resident keys from most to least recently used
func (p *LRUPolicy) order() []PageKey {
	out := make([]PageKey, 0, len(p.index))
	for cur := p.nodes[p.head].next; cur != p.tail; cur = p.nodes[cur].next {
		out = append(out, p.nodes[cur].key)
	}
	return out
}

// linkSentinels points head and tail at each other
func (p *LRUPolicy) linkSentinels() {
	p.nodes[p.head] = lruNode{prev: -1, next: p.tail}
	p.nodes[p.tail] = lruNode{prev: p.head, next: -1}
}

// pushFront links node right after head, making it the most recent
func (p *LRUPolicy) pushFront(node int) {
	first := p.nodes[p.head].next
	p.nodes[node].prev = p.head
	p.nodes[node].next = first
	p.nodes[first].prev = node
	p.nodes[p.head].next = node
}

// unlink detaches node from the list and clears its links
func (p *LRUPolicy) unlink(node int) {
	if node == p.head || node == p.tail {
		panic(fmt.Sprintf("LRUPolicy: unlink called on sentinel %d", node))
	}

	prev := p.nodes[node].prev
	next := p.nodes[node].next
	p.nodes[prev].next = next
	p.nodes[next].prev = prev

	p.nodes[node].prev = -1
	p.nodes[node].next = -1
}
