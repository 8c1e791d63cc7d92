package paging

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// CompressionType represents the compression algorithm used for a snapshot
type CompressionType uint8

const (
	CompressionNone   CompressionType = 0
	CompressionLZ4    CompressionType = 1
	CompressionSnappy CompressionType = 2
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionSnappy:
		return "snappy"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompressionType maps a config value to a CompressionType
func ParseCompressionType(name string) (CompressionType, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "snappy":
		return CompressionSnappy, nil
	default:
		return CompressionNone, fmt.Errorf("unsupported compression %q", name)
	}
}

// Snapshot is a persisted copy of a session's State taken at a policy-instance boundary
type Snapshot struct {
	SessionID  string    `json:"sessionId"`
	Algorithm  Algorithm `json:"algorithm"`
	FrameCount int       `json:"frameCount"`
	Reason     string    `json:"reason"`
	TakenAt    time.Time `json:"takenAt"`
	State      State     `json:"state"`
}

// Snapshot header layout (little-endian):
// [0-1]: Magic number (0x5AFE)
// [2]: Compression type (0=none, 1=LZ4, 2=Snappy)
// [3]: Reserved
// [4-7]: Uncompressed payload size
// [8-11]: Compressed payload size
// [12-15]: CRC32 of the uncompressed payload
// [16+]: Payload (JSON encoded Snapshot)

const (
	SnapshotMagic           = 0x5AFE
	SnapshotHeaderSize      = 16
	MinCompressionThreshold = 64       // Minimum bytes saved to use compression
	MaxSnapshotPayload      = 64 << 20 // Largest uncompressed payload accepted

	// An LZ4 block never expands its input more than 255 times
	lz4MaxExpansion = 255
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// EncodeSnapshot serializes a snapshot, compressing the payload when that pays off
func EncodeSnapshot(snap *Snapshot, compressionType CompressionType) ([]byte, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if len(payload) > MaxSnapshotPayload {
		return nil, fmt.Errorf("snapshot payload of %d bytes exceeds %d", len(payload), MaxSnapshotPayload)
	}

	var compressed []byte

	switch compressionType {
	case CompressionNone:
		compressed = payload

	case CompressionLZ4:
		compressed = make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := lz4.CompressBlock(payload, compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("LZ4 compression failed: %w", err)
		}
		// n == 0 means the payload is incompressible
		compressed = compressed[:n]

	case CompressionSnappy:
		compressed = snappy.Encode(nil, payload)

	default:
		return nil, fmt.Errorf("unsupported compression type: %d", compressionType)
	}

	// Check if compression is worthwhile
	if compressionType != CompressionNone {
		if len(compressed) == 0 || len(payload)-len(compressed) < MinCompressionThreshold {
			compressionType = CompressionNone
			compressed = payload
		}
	}

	buf := make([]byte, SnapshotHeaderSize+len(compressed))
	binary.LittleEndian.PutUint16(buf[0:2], SnapshotMagic)
	buf[2] = uint8(compressionType)
	buf[3] = 0
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(buf[12:16], crc32.Checksum(payload, crcTable))
	copy(buf[SnapshotHeaderSize:], compressed)

	return buf, nil
}

// DecodeSnapshot parses bytes produced by EncodeSnapshot
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	const op = "DecodeSnapshot"

	if len(data) < SnapshotHeaderSize {
		return nil, ErrSnapshotCorrupted(op, fmt.Errorf("data too short for snapshot header: %d bytes", len(data)))
	}

	magic := binary.LittleEndian.Uint16(data[0:2])
	if magic != SnapshotMagic {
		return nil, ErrSnapshotCorrupted(op, fmt.Errorf("invalid magic number: got %04x, expected %04x", magic, SnapshotMagic))
	}

	compressionType := CompressionType(data[2])
	uncompressedSize := binary.LittleEndian.Uint32(data[4:8])
	compressedSize := binary.LittleEndian.Uint32(data[8:12])
	checksum := binary.LittleEndian.Uint32(data[12:16])

	if uint64(SnapshotHeaderSize)+uint64(compressedSize) != uint64(len(data)) {
		return nil, ErrSnapshotCorrupted(op, fmt.Errorf("payload size mismatch: header says %d bytes, have %d",
			compressedSize, len(data)-SnapshotHeaderSize))
	}
	body := data[SnapshotHeaderSize:]

	if uncompressedSize > MaxSnapshotPayload {
		return nil, ErrSnapshotCorrupted(op, fmt.Errorf("uncompressed size %d exceeds %d", uncompressedSize, MaxSnapshotPayload))
	}

	var payload []byte
	switch compressionType {
	case CompressionNone:
		payload = body

	case CompressionLZ4:
		if uint64(uncompressedSize) > lz4MaxExpansion*uint64(len(body)) {
			return nil, ErrSnapshotCorrupted(op, fmt.Errorf("uncompressed size %d is impossible for a %d byte LZ4 block", uncompressedSize, len(body)))
		}
		payload = make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(body, payload)
		if err != nil {
			return nil, ErrSnapshotCorrupted(op, fmt.Errorf("LZ4 decompression failed: %w", err))
		}
		payload = payload[:n]

	case CompressionSnappy:
		n, err := snappy.DecodedLen(body)
		if err != nil || n != int(uncompressedSize) {
			return nil, ErrSnapshotCorrupted(op, fmt.Errorf("snappy block decodes to %d bytes, header says %d", n, uncompressedSize))
		}
		payload, err = snappy.Decode(nil, body)
		if err != nil {
			return nil, ErrSnapshotCorrupted(op, fmt.Errorf("snappy decompression failed: %w", err))
		}

	default:
		return nil, ErrSnapshotCorrupted(op, fmt.Errorf("unsupported compression type: %d", compressionType))
	}

	if len(payload) != int(uncompressedSize) {
		return nil, ErrSnapshotCorrupted(op, fmt.Errorf("decompressed size mismatch: got %d, expected %d", len(payload), uncompressedSize))
	}

	if got := crc32.Checksum(payload, crcTable); got != checksum {
		return nil, ErrSnapshotCorrupted(op, fmt.Errorf("checksum mismatch: got %08x, expected %08x", got, checksum))
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, ErrSnapshotCorrupted(op, err)
	}
	return &snap, nil
}
