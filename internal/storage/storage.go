package storage

import (
	"fmt"

	"OmnichainNexus/internal/jsonx"
	"OmnichainNexus/internal/logx"
)

// Storage is a string key-value store with local-storage semantics:
// a missing key is not an error.
type Storage interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
	Close() error
}

// LoadJSON decodes the blob under key into v. It reports false when the key is
// absent or the blob is malformed; malformed blobs are logged, not returned.
func LoadJSON(s Storage, key string, v interface{}) (bool, error) {
	raw, ok, err := s.GetItem(key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := jsonx.Unmarshal([]byte(raw), v); err != nil {
		logx.Error("STORAGE", fmt.Sprintf("discarding malformed %s: %v", key, err))
		return false, nil
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(s Storage, key string, v interface{}) error {
	data, err := jsonx.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetItem(key, string(data))
}
