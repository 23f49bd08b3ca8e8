package store

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// Scalar values (session flags) live beside the collections under their own prefix.

func valueKey(key string) []byte {
	return []byte(keyPrefix + "session/" + key)
}

func (b *BadgerBackend) Value(key string) (string, bool, error) {
	var out string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(valueKey(key))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		out = string(val)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("read "+key, err)
	}
	return out, true, nil
}

func (b *BadgerBackend) SetValue(key, value string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(valueKey(key), []byte(value))
	})
	if err != nil {
		return unavailable("write "+key, err)
	}
	return nil
}

func (b *BadgerBackend) DeleteValue(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(valueKey(key))
	})
	if err != nil {
		return unavailable("delete "+key, err)
	}
	return nil
}
