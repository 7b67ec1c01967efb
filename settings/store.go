package settings

import (
	"adc-catalog-go/lang"
	"adc-catalog-go/logcolors"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	optionsBucket = "options"
	orderBucket   = "order"
	settingsKey   = "settings"
)

var ErrInvalidLanguage = lang.ErrInvalidLanguage

// Store persists Settings and program orders. Reads are served from memory.
type Store struct {
	db       *bolt.DB
	dbPath   string
	mu       sync.RWMutex
	current  Settings
	newToken func() string
}

// Open opens the settings database at dbPath. On first run seed is
// normalized, given a webhook token and saved.
func Open(dbPath string, seed Settings) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{optionsBucket, orderBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create settings buckets: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath, newToken: uuid.NewString}
	if err := s.load(seed); err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("%s Settings store initialized at %s", logcolors.LogSettings, dbPath)
	return s, nil
}

func (s *Store) load(seed Settings) error {
	var stored *Settings
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(optionsBucket)).Get([]byte(settingsKey))
		if data == nil {
			return nil
		}
		var st Settings
		if err := json.Unmarshal(data, &st); err != nil {
			return err
		}
		stored = &st
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if stored != nil {
		s.current = stored.Normalize()
		if s.current.WebhookToken != "" {
			return nil
		}
	} else {
		s.current = seed.Normalize()
		log.Infof("%s No stored settings, seeding from environment", logcolors.LogSettings)
	}

	if s.current.WebhookToken == "" {
		s.current.WebhookToken = s.newToken()
	}
	return s.write(s.current)
}

func (s *Store) write(st Settings) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(optionsBucket)).Put([]byte(settingsKey), data)
	})
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save normalizes and persists next. The webhook token is never changed by a save.
func (s *Store) Save(next Settings) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next = next.Normalize()
	next.WebhookToken = s.current.WebhookToken

	if err := s.write(next); err != nil {
		return s.current, fmt.Errorf("failed to save settings: %w", err)
	}
	s.current = next
	log.Infof("%s Settings saved (cache: %v, %vh)", logcolors.LogSettings, next.CacheEnabled, next.CacheHours)
	return next, nil
}

// Order returns the persisted program order of l; nil when none is stored.
func (s *Store) Order(l lang.Language) ([]int, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, l)
	}

	var ids []int
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(orderBucket)).Get([]byte(l))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &ids)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s order: %w", l, err)
	}
	return ids, nil
}

// SetOrder persists the program order of l. Non-positive and repeated ids
// are dropped; an empty list clears the custom order. It returns the stored list.
func (s *Store) SetOrder(l lang.Language, ids []int) ([]int, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, l)
	}

	seen := make(map[int]bool, len(ids))
	clean := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		clean = append(clean, id)
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(orderBucket))
		if len(clean) == 0 {
			return b.Delete([]byte(l))
		}
		data, err := json.Marshal(clean)
		if err != nil {
			return err
		}
		return b.Put([]byte(l), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s order: %w", l, err)
	}

	log.Infof("%s Saved %s program order (%d ids)", logcolors.LogSettings, l, len(clean))
	return clean, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
