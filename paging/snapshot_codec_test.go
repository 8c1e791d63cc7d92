package paging

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

// testSnapshot builds an LRU-looking snapshot with n history entries
func testSnapshot(n int) *Snapshot {
	history := make([]HistoryEntry, n)
	for i := range history {
		history[i] = HistoryEntry{
			ProcessID:  "P1",
			PageNumber: i % 3,
			Action:     ActionFault,
			FrameIndex: i % 2,
			Step:       uint64(i + 1),
			Timestamp:  testTime,
		}
	}
	if n > 2 {
		history[2].Action = ActionHit
		history[2].Replaced = ptr(key("P1", 0))
	}

	return &Snapshot{
		SessionID:  "s1",
		Algorithm:  AlgorithmLRU,
		FrameCount: 2,
		Reason:     "final",
		TakenAt:    testTime,
		State: State{
			Algorithm:  AlgorithmLRU,
			FrameCount: 2,
			Frames:     []*PageKey{ptr(key("P1", 0)), nil},
			LRUOrder:   []PageKey{key("P1", 0)},
			PageFaults: n,
			HitRatio:   0,
			History:    history,
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionLZ4, CompressionSnappy} {
		t.Run(ct.String(), func(t *testing.T) {
			snap := testSnapshot(200)

			data, err := EncodeSnapshot(snap, ct)
			require.NoError(t, err)
			assert.Equal(t, uint8(ct), data[2], "repetitive payload keeps the requested compression")

			got, err := DecodeSnapshot(data)
			require.NoError(t, err)
			assert.Equal(t, snap, got)
		})
	}
}

func TestSnapshotLFUFrequencies(t *testing.T) {
	snap := testSnapshot(1)
	snap.Algorithm = AlgorithmLFU
	snap.State.Algorithm = AlgorithmLFU
	snap.State.LRUOrder = nil
	snap.State.Frequencies = map[PageKey]int{key("P-1", 0): 4}

	data, err := EncodeSnapshot(snap, CompressionSnappy)
	require.NoError(t, err)

	got, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, map[PageKey]int{key("P-1", 0): 4}, got.State.Frequencies)
}

func TestSnapshotSmallPayloadSkipsCompression(t *testing.T) {
	data, err := EncodeSnapshot(testSnapshot(0), CompressionSnappy)
	require.NoError(t, err)

	assert.Equal(t, uint8(CompressionNone), data[2])
	assert.Equal(t, binary.LittleEndian.Uint32(data[4:8]), binary.LittleEndian.Uint32(data[8:12]))
}

func TestSnapshotCompressionShrinks(t *testing.T) {
	raw, err := EncodeSnapshot(testSnapshot(500), CompressionNone)
	require.NoError(t, err)

	for _, ct := range []CompressionType{CompressionLZ4, CompressionSnappy} {
		packed, err := EncodeSnapshot(testSnapshot(500), ct)
		require.NoError(t, err)
		assert.Less(t, len(packed), len(raw)/2, "%s", ct)
		t.Logf("%s: %d -> %d bytes", ct, len(raw), len(packed))
	}
}

func TestDecodeSnapshotCorruption(t *testing.T) {
	good, err := EncodeSnapshot(testSnapshot(50), CompressionSnappy)
	require.NoError(t, err)

	mutate := func(f func([]byte) []byte) []byte {
		data := append([]byte(nil), good...)
		return f(data)
	}

	cases := map[string][]byte{
		"empty":            {},
		"short header":     good[:SnapshotHeaderSize-1],
		"truncated":        good[:len(good)-1],
		"trailing garbage": append(append([]byte(nil), good...), 0),
		"bad magic": mutate(func(d []byte) []byte {
			d[0] ^= 0xFF
			return d
		}),
		"unknown compression": mutate(func(d []byte) []byte {
			d[2] = 9
			return d
		}),
		"bad checksum": mutate(func(d []byte) []byte {
			d[12] ^= 0x01
			return d
		}),
		"bad uncompressed size": mutate(func(d []byte) []byte {
			binary.LittleEndian.PutUint32(d[4:8], binary.LittleEndian.Uint32(d[4:8])+1)
			return d
		}),
		"flipped payload byte": mutate(func(d []byte) []byte {
			d[len(d)/2] ^= 0x20
			return d
		}),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot(data)
			require.Error(t, err)
			assert.True(t, IsErrorCode(err, ErrCodeSnapshotCorrupted), "got %v", err)
		})
	}
}

func TestDecodeSnapshotUncompressedPayloadFlip(t *testing.T) {
	data, err := EncodeSnapshot(testSnapshot(3), CompressionNone)
	require.NoError(t, err)

	data[len(data)-5] ^= 0x01
	_, err = DecodeSnapshot(data)
	assert.True(t, IsErrorCode(err, ErrCodeSnapshotCorrupted))
}

func TestParseCompressionType(t *testing.T) {
	for name, want := range map[string]CompressionType{
		"":       CompressionNone,
		"none":   CompressionNone,
		"lz4":    CompressionLZ4,
		"snappy": CompressionSnappy,
	} {
		got, err := ParseCompressionType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseCompressionType("gzip")
	assert.Error(t, err)
	assert.Equal(t, "compression(7)", CompressionType(7).String())
}

// rawSnapshot builds a frame with an arbitrary header around body
func rawSnapshot(ct CompressionType, uncompressed uint32, body []byte) []byte {
	data := make([]byte, SnapshotHeaderSize+len(body))
	binary.LittleEndian.PutUint16(data[0:2], SnapshotMagic)
	data[2] = uint8(ct)
	binary.LittleEndian.PutUint32(data[4:8], uncompressed)
	binary.LittleEndian.PutUint32(data[8:12], uint32(len(body)))
	copy(data[SnapshotHeaderSize:], body)
	return data
}

func TestDecodeSnapshotRejectsImpossibleSizes(t *testing.T) {
	cases := map[string][]byte{
		"lz4 over the payload cap":    rawSnapshot(CompressionLZ4, 0xFFFFFFF0, []byte{0x10, 'x'}),
		"lz4 beyond block expansion":  rawSnapshot(CompressionLZ4, 10_000, []byte{0x10, 'x'}),
		"snappy over the payload cap": rawSnapshot(CompressionSnappy, MaxSnapshotPayload+1, []byte{0x01, 0x00, 'x'}),
		"none over the payload cap":   rawSnapshot(CompressionNone, MaxSnapshotPayload+1, []byte("{}")),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeSnapshot(data)
			require.Error(t, err)
			assert.True(t, IsErrorCode(err, ErrCodeSnapshotCorrupted), "got %v", err)
		})
	}
}
