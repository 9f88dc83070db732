// Package store caches datasets in a leveldb database, one json document per row.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grexie/smogn/pkg/dataset"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var ErrNotFound = errors.New("dataset not found")

type Store struct {
	db *leveldb.DB
}

func Open(path string) (*Store, error) {
	if db, err := leveldb.OpenFile(path, nil); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	} else {
		return &Store{db: db}, nil
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func schemaKey(name string) []byte {
	return fmt.Appendf([]byte{}, "%s-schema", name)
}

func rowPrefix(name string) []byte {
	return fmt.Appendf([]byte{}, "%s-row-", name)
}

func rowKey(name string, i int) []byte {
	return fmt.Appendf([]byte{}, "%s-row-%012d", name, i)
}

// Put replaces the dataset stored under name.
func (s *Store) Put(name string, frame *dataset.Frame) error {
	batch := new(leveldb.Batch)

	iter := s.db.NewIterator(util.BytesPrefix(rowPrefix(name)), nil)
	for iter.Next() {
		batch.Delete(append([]byte{}, iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	if b, err := json.Marshal(frame.Schema); err != nil {
		return fmt.Errorf("failed to cache schema: %w", err)
	} else {
		batch.Put(schemaKey(name), b)
	}

	for i, row := range frame.Rows {
		if b, err := json.Marshal(row); err != nil {
			return fmt.Errorf("failed to cache row %d: %w", i, err)
		} else {
			batch.Put(rowKey(name, i), b)
		}
	}

	return s.db.Write(batch, nil)
}

func (s *Store) Get(name string) (*dataset.Frame, error) {
	var schema dataset.Schema
	if b, err := s.db.Get(schemaKey(name), nil); errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	} else if err != nil {
		return nil, err
	} else if err := json.Unmarshal(b, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode schema of %s: %w", name, err)
	}

	frame := dataset.NewFrame(schema)
	iter := s.db.NewIterator(util.BytesPrefix(rowPrefix(name)), nil)
	defer iter.Release()
	for iter.Next() {
		var row dataset.Row
		if err := json.Unmarshal(iter.Value(), &row); err != nil {
			return nil, fmt.Errorf("failed to decode row %s: %w", iter.Key(), err)
		}
		frame.Append(row)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}

	return frame, frame.Check()
}

func (s *Store) Has(name string) (bool, error) {
	return s.db.Has(schemaKey(name), nil)
}
