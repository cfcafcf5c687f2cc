package chainstate

import (
	"context"
	"errors"
)

var (
	ErrDBClosed    = errors.New("database is closed")
	ErrKeyNotFound = errors.New("key not found")

	ErrUnknownEngine = errors.New("unknown chain state engine")
)

type opType int

const (
	opPut opType = iota
	opDelete
)

type batchOp struct {
	typ   opType
	key   []byte
	value []byte
}

// engine is the key-value store a chain state lives in.
type engine interface {
	read(ctx context.Context, key []byte) ([]byte, error)
	has(ctx context.Context, key []byte) (bool, error)
	batch(ctx context.Context, ops []batchOp) error
	// scan calls fn for every entry whose key starts with prefix, in key
	// order. The slices passed to fn are only valid during the call.
	scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error
	close() error
}

// Supported engines.
const (
	EnginePebble  = "pebble"
	EngineLevelDB = "leveldb"
)

func hasKey(ctx context.Context, e engine, key []byte) (bool, error) {
	_, err := e.read(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
