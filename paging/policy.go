package paging

import (
	"fmt"
	"strings"
)

// Algorithm names a page replacement policy
type Algorithm string

const (
	AlgorithmFIFO Algorithm = "fifo"
	AlgorithmLRU  Algorithm = "lru"
	AlgorithmLFU  Algorithm = "lfu"
)

// Algorithms lists every supported policy in report order
var Algorithms = []Algorithm{AlgorithmFIFO, AlgorithmLRU, AlgorithmLFU}

// ParseAlgorithm accepts any case of "fifo", "lru" or "lfu"
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case AlgorithmFIFO, AlgorithmLRU, AlgorithmLFU:
		return a, nil
	default:
		return "", ErrUnknownAlgorithm("ParseAlgorithm", name)
	}
}

// AccessResult is the outcome of a single AccessPage call
type AccessResult struct {
	Hit        bool     `json:"hit"`
	FrameIndex int      `json:"frameIndex"`
	PageFault  bool     `json:"pageFault"`
	Replaced   *PageKey `json:"replaced"`
	Frequency  int      `json:"frequency,omitempty"` // LFU only
}

// State is a read-only view of a policy
// Only the order view belonging to the policy is populated
type State struct {
	Algorithm   Algorithm       `json:"algorithm"`
	FrameCount  int             `json:"frameCount"`
	Frames      []*PageKey      `json:"frames"`
	Queue       []int           `json:"queue,omitempty"`       // FIFO: frame indices, oldest arrival first
	LRUOrder    []PageKey       `json:"lruOrder,omitempty"`    // LRU: most to least recently used
	Frequencies map[PageKey]int `json:"frequencies,omitempty"` // LFU: resident key to frequency
	PageFaults  int             `json:"pageFaults"`
	PageHits    int             `json:"pageHits"`
	HitRatio    float64         `json:"hitRatio"`
	History     []HistoryEntry  `json:"history"`
}

// Policy is the contract shared by FIFO, LRU and LFU
// Implementations do no locking; one caller drives an instance at a time
type Policy interface {
	// Algorithm returns the policy name
	Algorithm() Algorithm

	// FrameCount returns the fixed number of frames
	FrameCount() int

	// Occupied returns the number of frames holding a page
	Occupied() int

	// AccessPage references a page and returns whether it hit or faulted
	// Callers validate processID and pageNumber beforehand
	AccessPage(processID string, pageNumber int) AccessResult

	// State returns a snapshot of frames, counters, history and the policy order view
	State() State

	// Reset returns the policy to its freshly constructed state
	Reset()

	// RemoveProcess frees every frame held by processID without recording an access
	RemoveProcess(processID string)

	// CheckInvariants verifies the internal structures agree with each other
	CheckInvariants() error
}

// NewPolicy creates a policy based on the specified algorithm
func NewPolicy(algorithm Algorithm, frameCount int) (Policy, error) {
	if frameCount <= 0 {
		return nil, ErrInvalidFrameCount("NewPolicy", frameCount)
	}

	switch algorithm {
	case AlgorithmFIFO:
		return NewFIFOPolicy(frameCount), nil
	case AlgorithmLRU:
		return NewLRUPolicy(frameCount), nil
	case AlgorithmLFU:
		return NewLFUPolicy(frameCount), nil
	default:
		return nil, ErrUnknownAlgorithm("NewPolicy", string(algorithm))
	}
}

// policyBase holds what every policy needs: its frames and its history
type policyBase struct {
	frames       *FrameTable
	history      *AccessHistory
	historyLimit int // entries State copies out, 0 for all
}

// historyLimiter bounds how much history State copies out
type historyLimiter interface {
	limitHistory(n int)
}

func newPolicyBase(frameCount int) policyBase {
	return policyBase{
		frames:  NewFrameTable(frameCount),
		history: NewAccessHistory(),
	}
}

// FrameCount returns the fixed number of frames
func (b *policyBase) FrameCount() int {
	return b.frames.Len()
}

// Occupied returns the number of frames holding a page
func (b *policyBase) Occupied() int {
	return b.frames.Occupied()
}

// limitHistory makes State return only the most recent n entries; n <= 0 returns all
// Counters and the log itself are unaffected
func (b *policyBase) limitHistory(n int) {
	b.historyLimit = n
}

func (b *policyBase) baseState(algorithm Algorithm) State {
	return State{
		Algorithm:  algorithm,
		FrameCount: b.frames.Len(),
		Frames:     b.frames.Snapshot(),
		PageFaults: b.history.Faults(),
		PageHits:   b.history.Hits(),
		HitRatio:   b.history.HitRatio(),
		History:    b.history.Tail(b.historyLimit),
	}
}

func (b *policyBase) hit(key PageKey, frameIndex, frequency int) AccessResult {
	b.history.Append(key, ActionHit, frameIndex, nil, frequency)
	return AccessResult{
		Hit:        true,
		FrameIndex: frameIndex,
		Frequency:  frequency,
	}
}

func (b *policyBase) fault(key PageKey, frameIndex int, replaced *PageKey, frequency int) AccessResult {
	b.history.Append(key, ActionFault, frameIndex, replaced, frequency)
	return AccessResult{
		FrameIndex: frameIndex,
		PageFault:  true,
		Replaced:   replaced,
		Frequency:  frequency,
	}
}

// framesOf returns the frames held by processID in ascending order
func (b *policyBase) framesOf(processID string) []int {
	var out []int
	for i := 0; i < b.frames.Len(); i++ {
		if key, ok := b.frames.Get(i); ok && key.ProcessID == processID {
			out = append(out, i)
		}
	}
	return out
}

func sizeMismatch(op, structure string, got, want int) error {
	return ErrInvariant(op, fmt.Sprintf("%s holds %d entries, %d frames are occupied", structure, got, want))
}
