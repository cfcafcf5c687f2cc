package chainstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// pebbleEngine is a thin context-aware wrapper around a pebble instance.
type pebbleEngine struct {
	pdb  *pebble.DB
	sync *pebble.WriteOptions
}

func openPebble(path string, sync bool) (*pebbleEngine, error) {
	opts := &pebble.Options{}
	if path == "" {
		opts.FS = vfs.NewMem()
	}
	pdb, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}

	writeOpts := pebble.NoSync
	if sync {
		writeOpts = pebble.Sync
	}
	return &pebbleEngine{pdb: pdb, sync: writeOpts}, nil
}

func (d *pebbleEngine) read(ctx context.Context, key []byte) ([]byte, error) {
	if d.pdb == nil {
		return nil, ErrDBClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	val, closer, err := d.pdb.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	// Copy the value out
	valCopy := make([]byte, len(val))
	copy(valCopy, val)
	return valCopy, nil
}

func (d *pebbleEngine) has(ctx context.Context, key []byte) (bool, error) {
	return hasKey(ctx, d, key)
}

func (d *pebbleEngine) batch(ctx context.Context, ops []batchOp) error {
	if d.pdb == nil {
		return ErrDBClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b := d.pdb.NewBatch()
	defer b.Close()

	for _, op := range ops {
		switch op.typ {
		case opPut:
			if err := b.Set(op.key, op.value, nil); err != nil {
				return err
			}
		case opDelete:
			if err := b.Delete(op.key, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.typ)
		}
	}

	return b.Commit(d.sync)
}

func (d *pebbleEngine) scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	if d.pdb == nil {
		return ErrDBClosed
	}

	iter, err := d.pdb.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (d *pebbleEngine) close() error {
	if d.pdb == nil {
		return ErrDBClosed
	}
	err := d.pdb.Close()
	d.pdb = nil
	return err
}
