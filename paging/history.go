package paging

import (
	"fmt"
	"time"
)

// Action is the outcome of one access
type Action uint8

const (
	ActionHit Action = iota
	ActionFault
)

func (a Action) String() string {
	switch a {
	case ActionHit:
		return "hit"
	case ActionFault:
		return "fault"
	default:
		return fmt.Sprintf("action(%d)", uint8(a))
	}
}

// MarshalText implements encoding.TextMarshaler
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Action) UnmarshalText(text []byte) error {
	switch string(text) {
	case "hit":
		*a = ActionHit
	case "fault":
		*a = ActionFault
	default:
		return fmt.Errorf("unknown action %q", text)
	}
	return nil
}

// HistoryEntry records one access outcome
type HistoryEntry struct {
	ProcessID  string    `json:"processId"`
	PageNumber int       `json:"pageNumber"`
	Action     Action    `json:"action"`
	FrameIndex int       `json:"frameIndex"`
	Replaced   *PageKey  `json:"replaced"`
	Frequency  int       `json:"frequency,omitempty"` // LFU only
	Step       uint64    `json:"step"`
	Timestamp  time.Time `json:"timestamp"`
}

// AccessHistory is the append-only access log together with the hit/fault counters
type AccessHistory struct {
	entries []HistoryEntry
	hits    int
	faults  int
	now     func() time.Time
}

// NewAccessHistory creates an empty history
func NewAccessHistory() *AccessHistory {
	return &AccessHistory{now: time.Now}
}

// Append records an access and bumps the matching counter
// The log keeps its own copy of replaced
func (h *AccessHistory) Append(key PageKey, action Action, frameIndex int, replaced *PageKey, frequency int) HistoryEntry {
	if replaced != nil {
		victim := *replaced
		replaced = &victim
	}
	if action == ActionHit {
		h.hits++
	} else {
		h.faults++
	}

	entry := HistoryEntry{
		ProcessID:  key.ProcessID,
		PageNumber: key.PageNumber,
		Action:     action,
		FrameIndex: frameIndex,
		Replaced:   replaced,
		Frequency:  frequency,
		Step:       uint64(len(h.entries) + 1),
		Timestamp:  h.now(),
	}
	h.entries = append(h.entries, entry)
	return entry.clone()
}

// Hits returns the number of recorded hits
func (h *AccessHistory) Hits() int {
	return h.hits
}

// Faults returns the number of recorded faults
func (h *AccessHistory) Faults() int {
	return h.faults
}

// HitRatio returns hits/(hits+faults), 0 before any access
func (h *AccessHistory) HitRatio() float64 {
	total := h.hits + h.faults
	if total == 0 {
		return 0.0
	}
	return float64(h.hits) / float64(total)
}

// Len returns the number of entries
func (h *AccessHistory) Len() int {
	return len(h.entries)
}

// Entries returns a copy of the log, oldest first
func (h *AccessHistory) Entries() []HistoryEntry {
	return cloneEntries(h.entries)
}

// Tail returns a copy of the most recent n entries; n <= 0 means all
func (h *AccessHistory) Tail(n int) []HistoryEntry {
	if n <= 0 || n >= len(h.entries) {
		return h.Entries()
	}
	return cloneEntries(h.entries[len(h.entries)-n:])
}

// clone returns e with its own Replaced key
func (e HistoryEntry) clone() HistoryEntry {
	if e.Replaced != nil {
		victim := *e.Replaced
		e.Replaced = &victim
	}
	return e
}

func cloneEntries(entries []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}

// Reset clears the log and counters
func (h *AccessHistory) Reset() {
	h.entries = nil
	h.hits = 0
	h.faults = 0
}
