package chainstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// levelEngine stores the chain state in LevelDB.
type levelEngine struct {
	ldb  *leveldb.DB
	sync *opt.WriteOptions
}

func openLevelDB(path string, sync bool) (*levelEngine, error) {
	var (
		ldb *leveldb.DB
		err error
	)
	if path == "" {
		ldb, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		ldb, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	return &levelEngine{ldb: ldb, sync: &opt.WriteOptions{Sync: sync}}, nil
}

func (d *levelEngine) read(ctx context.Context, key []byte) ([]byte, error) {
	if d.ldb == nil {
		return nil, ErrDBClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Get returns a fresh slice
	val, err := d.ldb.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (d *levelEngine) has(ctx context.Context, key []byte) (bool, error) {
	return hasKey(ctx, d, key)
}

func (d *levelEngine) batch(ctx context.Context, ops []batchOp) error {
	if d.ldb == nil {
		return ErrDBClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b := new(leveldb.Batch)
	for _, op := range ops {
		switch op.typ {
		case opPut:
			b.Put(op.key, op.value)
		case opDelete:
			b.Delete(op.key)
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.typ)
		}
	}
	return d.ldb.Write(b, d.sync)
}

func (d *levelEngine) scan(ctx context.Context, prefix []byte, fn func(key, value []byte) error) error {
	if d.ldb == nil {
		return ErrDBClosed
	}

	iter := d.ldb.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (d *levelEngine) close() error {
	if d.ldb == nil {
		return ErrDBClosed
	}
	err := d.ldb.Close()
	d.ldb = nil
	return err
}
