package storage

import (
	"github.com/pkg/errors"
	"github.com/xujiajun/nutsdb"
)

// Backend is a durable keyed store with get/put/remove semantics keyed
// by (scope, storage id). The engine does not mandate a layout; the
// nutsdb implementation maps scopes to buckets.
type Backend interface {
	Put(scope string, id string, payload []byte) error
	Get(scope string, id string) ([]byte, bool, error)
	Delete(scope string, id string) error
	DropScope(scope string) error
	Close() error
}

type nutsBackend struct {
	db *nutsdb.DB
}

// NewNutsBackend opens (or reopens) a nutsdb database under dir and
// serves storage payloads from it.
func NewNutsBackend(dir string) (Backend, error) {
	opts := nutsdb.DefaultOptions
	opts.Dir = dir
	db, err := nutsdb.Open(opts)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to open storage backend")
	}
	return &nutsBackend{db: db}, nil
}

func (b *nutsBackend) Put(scope string, id string, payload []byte) error {
	return b.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(scope, []byte(id), payload, 0)
	})
}

func (b *nutsBackend) Get(scope string, id string) ([]byte, bool, error) {
	var payload []byte
	found := false
	err := b.db.View(func(tx *nutsdb.Tx) error {
		entry, err := tx.Get(scope, []byte(id))
		if err != nil {
			//missing bucket and missing key both surface as errors
			return nil
		}
		payload = append([]byte(nil), entry.Value...)
		found = true
		return nil
	})
	return payload, found, err
}

func (b *nutsBackend) Delete(scope string, id string) error {
	return b.db.Update(func(tx *nutsdb.Tx) error {
		if err := tx.Delete(scope, []byte(id)); err != nil {
			return nil
		}
		return nil
	})
}

func (b *nutsBackend) DropScope(scope string) error {
	return b.db.Update(func(tx *nutsdb.Tx) error {
		if err := tx.DeleteBucket(nutsdb.DataStructureBPTree, scope); err != nil {
			return nil
		}
		return nil
	})
}

func (b *nutsBackend) Close() error {
	return b.db.Close()
}
