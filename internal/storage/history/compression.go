package history

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
)

// Blob encodings, stored in the first byte of a detail blob.
const (
	blobRaw byte = iota
	blobLZ4
)

// maxBlobSize bounds the decoded size of a detail blob.
const maxBlobSize = 64 << 20

// compress frames data as [encoding][uvarint length][payload], falling back
// to the raw bytes when LZ4 does not shrink them.
func compress(data []byte) ([]byte, error) {
	header := make([]byte, 1+binary.MaxVarintLen64)
	n := 1 + binary.PutUvarint(header[1:], uint64(len(data)))

	var hashTable [1 << 16]int
	compressed := make([]byte, n+lz4.CompressBlockBound(len(data)))
	size, err := lz4.CompressBlock(data, compressed[n:], hashTable[:])
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if size == 0 || size >= len(data) {
		header[0] = blobRaw
		return append(header[:n], data...), nil
	}

	header[0] = blobLZ4
	copy(compressed, header[:n])
	return compressed[:n+size], nil
}

// decompress reverses compress.
func decompress(blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrCorruptDetail)
	}
	length, n := binary.Uvarint(blob[1:])
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad length prefix", ErrCorruptDetail)
	}
	if length > maxBlobSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit", ErrCorruptDetail, length)
	}
	payload := blob[1+n:]

	switch blob[0] {
	case blobRaw:
		if uint64(len(payload)) != length {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptDetail, length, len(payload))
		}
		return payload, nil
	case blobLZ4:
		out := make([]byte, length)
		size, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptDetail, err)
		}
		if uint64(size) != length {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorruptDetail, length, size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %d", ErrCorruptDetail, blob[0])
	}
}
