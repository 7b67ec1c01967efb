package cache

import (
	"adc-catalog-go/logcolors"
	"adc-catalog-go/utils"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const bucketName = "cache"

// BoltStore persists entries in a BoltDB file and keeps an in-memory copy of
// every entry it has seen for fast reads.
type BoltStore struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	compressionEnabled bool
	now                func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// boltEntry is the on-disk representation of a cached value.
type boltEntry struct {
	Value      []byte `json:"value"`
	ExpiresAt  int64  `json:"expires_at"` // unix nanoseconds, 0 = never
	Compressed bool   `json:"compressed,omitempty"`
}

func (e boltEntry) expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.UnixNano() > e.ExpiresAt
}

// NewBoltStore opens (or creates) the cache database at dbPath.
func NewBoltStore(dbPath string, compressionEnabled bool) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	if info, err := os.Stat(dbPath); err == nil {
		log.Infof("%s Found existing cache database at: %s (size: %d bytes)", logcolors.LogCacheInit, dbPath, info.Size())
	} else {
		log.Infof("%s Creating new cache database at: %s", logcolors.LogCacheInit, dbPath)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	s := &BoltStore{
		db:                 db,
		dbPath:             dbPath,
		compressionEnabled: compressionEnabled,
		now:                time.Now,
		stop:               make(chan struct{}),
	}

	log.Infof("%s Bolt cache store ready at %s (compression: %v)", logcolors.LogCacheInit, dbPath, compressionEnabled)
	return s, nil
}

// Get retrieves a value, checking memory first and then disk.
func (s *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := s.memCache.Load(key); ok {
		return s.unwrap(key, v.(boltEntry))
	}

	var e boltEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return nil, err
	}

	s.memCache.Store(key, e)
	return s.unwrap(key, e)
}

func (s *BoltStore) unwrap(key string, e boltEntry) ([]byte, error) {
	if e.expired(s.now()) {
		if err := s.Delete(context.Background(), key); err != nil {
			log.Warnf("%s Failed to drop expired key %s: %v", logcolors.LogCache, key, err)
		}
		return nil, ErrNotFound
	}
	if !e.Compressed {
		return e.Value, nil
	}
	value, err := utils.DecompressBytes(e.Value)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value in memory and on disk.
func (s *BoltStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := boltEntry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = s.now().Add(ttl).UnixNano()
	}
	if s.compressionEnabled {
		compressed, err := utils.CompressBytes(value)
		if err != nil {
			return fmt.Errorf("compress %s: %w", key, err)
		}
		e.Value = compressed
		e.Compressed = true
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put([]byte(key), data)
	})
	if err != nil {
		return err
	}

	s.memCache.Store(key, e)
	return nil
}

// Delete removes a key from memory and disk.
func (s *BoltStore) Delete(_ context.Context, key string) error {
	s.memCache.Delete(key)

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Keys lists live keys with the given prefix in key order.
func (s *BoltStore) Keys(_ context.Context, prefix string) ([]string, error) {
	now := s.now()
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			var e boltEntry
			if err := json.Unmarshal(v, &e); err != nil || e.expired(now) {
				continue
			}
			keys = append(keys, string(k))
		}
		return nil
	})
	return keys, err
}

// Clear drops every entry.
func (s *BoltStore) Clear(_ context.Context) error {
	s.memCache.Range(func(key, _ interface{}) bool {
		s.memCache.Delete(key)
		return true
	})

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
}

// Sweep deletes expired entries and returns how many were removed.
func (s *BoltStore) Sweep() (int, error) {
	now := s.now()
	var expired [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var e boltEntry
			if err := json.Unmarshal(v, &e); err != nil || e.expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil || len(expired) == 0 {
		return 0, err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
			s.memCache.Delete(string(k))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}

// StartSweeper runs Sweep every interval until Close.
func (s *BoltStore) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := s.Sweep()
				if err != nil {
					log.Warnf("%s Sweep failed: %v", logcolors.LogCacheSweep, err)
				} else if n > 0 {
					log.Infof("%s Deleted %d expired entries", logcolors.LogCacheSweep, n)
				}
			case <-s.stop:
				return
			}
		}
	}()
	log.Infof("%s Started expiry sweep every %v", logcolors.LogCacheSweep, interval)
}

// Close stops the sweeper and closes the database.
func (s *BoltStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
