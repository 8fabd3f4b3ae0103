package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// LevelDBStorage persists items in a LevelDB directory.
type LevelDBStorage struct {
	once sync.Once
	db   *leveldb.DB
}

// NewLevelDBStorage opens (or creates) the database at dir.
func NewLevelDBStorage(dir string) (*LevelDBStorage, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB: %w", err)
	}
	return &LevelDBStorage{db: db}, nil
}

func (s *LevelDBStorage) GetItem(key string) (string, bool, error) {
	value, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(value), true, nil
}

func (s *LevelDBStorage) SetItem(key, value string) error {
	return s.db.Put([]byte(key), []byte(value), nil)
}

func (s *LevelDBStorage) RemoveItem(key string) error {
	return s.db.Delete([]byte(key), nil)
}

// Close is safe to call more than once.
func (s *LevelDBStorage) Close() error {
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})
	return err
}
