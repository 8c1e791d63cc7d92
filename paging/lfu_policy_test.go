package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLFUEndToEnd(t *testing.T) {
	p := NewLFUPolicy(2)

	results := accessAll(p, key("A", 0), key("A", 1), key("A", 0), key("A", 2))

	assert.True(t, results[0].PageFault, "first access faults")
	assert.True(t, results[1].PageFault, "second access faults")
	assert.True(t, results[2].Hit, "third access hits")
	assert.Equal(t, 2, results[2].Frequency, "hit reports bumped frequency")
	require.True(t, results[3].PageFault, "fourth access faults")
	require.NotNil(t, results[3].Replaced)
	assert.Equal(t, key("A", 1), *results[3].Replaced, "lowest frequency evicted")
	assert.Equal(t, 1, results[3].Frequency, "fault reports frequency 1")

	st := p.State()
	assert.Equal(t, map[PageKey]int{key("A", 0): 2, key("A", 2): 1}, st.Frequencies)
	assert.Equal(t, []*PageKey{ptr(key("A", 0)), ptr(key("A", 2))}, st.Frames)
	assert.Equal(t, 2, st.History[2].Frequency, "history records frequency")
	require.NoError(t, p.CheckInvariants())
}

func TestLFUTieBreakOldestFirst(t *testing.T) {
	p := NewLFUPolicy(2)

	accessAll(p, key("A", 0), key("A", 1))
	r := p.AccessPage("A", 2)

	require.NotNil(t, r.Replaced)
	assert.Equal(t, key("A", 0), *r.Replaced, "equal frequency evicts the older insert")
	assert.Equal(t, 0, r.FrameIndex)
}

func TestLFUHitRefreshesTieBreak(t *testing.T) {
	p := NewLFUPolicy(2)

	// Both pages end at frequency 2, but A-0 was bumped last
	accessAll(p, key("A", 0), key("A", 1), key("A", 1), key("A", 0))

	r := p.AccessPage("A", 2)
	require.NotNil(t, r.Replaced)
	assert.Equal(t, key("A", 1), *r.Replaced, "page bumped earlier is evicted first")
	assert.Equal(t, 1, r.FrameIndex)
}

func TestLFUFrequencyWins(t *testing.T) {
	p := NewLFUPolicy(3)

	accessAll(p, key("A", 0), key("A", 1), key("A", 2))
	accessAll(p, key("A", 0), key("A", 0), key("A", 2))
	// A-0:3, A-1:1, A-2:2

	r := p.AccessPage("B", 0)
	require.NotNil(t, r.Replaced)
	assert.Equal(t, key("A", 1), *r.Replaced)

	// B-0 is now the only frequency-1 page, even though it is the newest
	r = p.AccessPage("B", 1)
	require.NotNil(t, r.Replaced)
	assert.Equal(t, key("B", 0), *r.Replaced)
	require.NoError(t, p.CheckInvariants())
}

func TestLFURemoveProcess(t *testing.T) {
	p := NewLFUPolicy(4)

	accessAll(p, key("A", 0), key("B", 0), key("A", 1), key("B", 1))
	accessAll(p, key("B", 0), key("B", 0), key("A", 1))

	p.RemoveProcess("B")
	require.NoError(t, p.CheckInvariants())

	st := p.State()
	assert.Equal(t, map[PageKey]int{key("A", 0): 1, key("A", 1): 2}, st.Frequencies)
	assert.Equal(t, 4, st.PageFaults, "removal records no faults")
	assert.Equal(t, 3, st.PageHits, "removal records no hits")

	r := p.AccessPage("B", 0)
	assert.True(t, r.PageFault, "removed page faults again")
	assert.Equal(t, 1, r.Frequency, "frequency restarts at 1")
	assert.Equal(t, 1, r.FrameIndex, "lowest freed frame reused")
}

func TestLFUReset(t *testing.T) {
	p := NewLFUPolicy(2)
	seq := []PageKey{key("A", 0), key("A", 1), key("A", 0), key("A", 2), key("A", 1)}

	first := accessAll(p, seq...)
	p.Reset()

	assert.Zero(t, p.clock, "clock restarts")
	st := p.State()
	assert.Empty(t, st.Frequencies)
	assert.Empty(t, st.History)
	assert.Zero(t, st.PageFaults)
	assert.Zero(t, st.PageHits)

	second := accessAll(p, seq...)
	assert.Equal(t, first, second, "reset reproduces a fresh instance")
}

func TestLFUClockStrictlyIncreases(t *testing.T) {
	p := NewLFUPolicy(2)

	var last uint64
	for _, k := range []PageKey{key("A", 0), key("A", 0), key("A", 1), key("A", 2), key("A", 2)} {
		p.AccessPage(k.ProcessID, k.PageNumber)
		assert.Greater(t, p.clock, last)
		last = p.clock
	}
}

func ptr(k PageKey) *PageKey {
	return &k
}
