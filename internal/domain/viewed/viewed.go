// Package viewed tracks the products a client looked at most recently.
package viewed

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/glass-bazaar/internal/storage"
)

const (
	// StorageKey is the key holding the list within a client namespace.
	StorageKey = "recentlyViewed"
	// Limit is the maximum number of remembered products.
	Limit = 8
)

// List returns the remembered product ids, newest first. A missing or
// unreadable list is empty.
func List(ctx context.Context, kv storage.KV) ([]int64, error) {
	data, err := kv.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, errors.Wrap(err, "load recently viewed")
	}

	ids, err := decode(data)
	if err != nil {
		return nil, nil
	}
	return ids, nil
}

// Record moves id to the front of the list, dropping the oldest entries
// beyond Limit.
func Record(ctx context.Context, kv storage.KV, id int64) ([]int64, error) {
	ids, err := List(ctx, kv)
	if err != nil {
		return nil, err
	}

	ids = slices.DeleteFunc(ids, func(v int64) bool { return v == id })
	ids = slices.Insert(ids, 0, id)
	if len(ids) > Limit {
		ids = ids[:Limit]
	}

	if err := kv.Set(ctx, StorageKey, encode(ids)); err != nil {
		return nil, errors.Wrap(err, "save recently viewed")
	}
	return ids, nil
}

func encode(ids []int64) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, id := range ids {
		e.Int64(id)
	}
	e.ArrEnd()
	return e.Bytes()
}

func decode(data []byte) ([]int64, error) {
	var ids []int64
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		id, err := d.Int64()
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	return ids, err
}
