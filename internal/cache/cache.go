package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/gensec-template/gensec-template/internal/lab"
)

const (
	// DefaultDir is where the cache database lives unless configured otherwise
	DefaultDir = "~/.cache/gensec-template"
	// DefaultTTL is how long scraped data stays fresh
	DefaultTTL = 24 * time.Hour

	fileName   = "cache.db"
	bucketName = "cache"

	indexKey  = "lab_index"
	labPrefix = "lab:"
)

// envelope wraps every stored value with its lifetime
type envelope struct {
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	Value     json.RawMessage `json:"value"`
}

func (e envelope) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Cache is a TTL cache of lab data backed by bbolt
type Cache struct {
	db  *bolt.DB
	dir string
	ttl time.Duration
	now func() time.Time
}

// Open opens (creating if needed) the cache database in dir.
// A leading "~/" in dir is expanded to the user's home directory.
// It is up to the caller to Close the cache when it is no longer needed.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	dir, err := ExpandDir(dir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating cache directory")
	}

	db, err := bolt.Open(filepath.Join(dir, fileName), 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache database in %s", dir)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close() // nolint:errcheck
		return nil, errors.Wrap(err, "failed to create cache bucket")
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Cache{
		db:  db,
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}, nil
}

// ExpandDir resolves a leading "~/" to the user's home directory
func ExpandDir(dir string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "getting home directory")
		}
		dir = filepath.Join(home, dir[2:])
	}
	return dir, nil
}

// Dir returns the directory holding the cache database
func (c *Cache) Dir() string {
	return c.dir
}

// TTL returns how long entries stay fresh
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Close closes the database
func (c *Cache) Close() error {
	return c.db.Close()
}

// get decodes the value stored under key into v.
// It reports false when the key is missing or expired.
func (c *Cache) get(key string, v interface{}) (bool, error) {
	var (
		env   envelope
		found bool
	)

	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &env)
	})
	if err != nil {
		return false, errors.Wrapf(err, "reading cache entry %s", key)
	}
	if !found {
		return false, nil
	}

	if env.expired(c.now()) {
		if err := c.delete(key); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := json.Unmarshal(env.Value, v); err != nil {
		return false, errors.Wrapf(err, "decoding cache entry %s", key)
	}
	return true, nil
}

func (c *Cache) put(key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding cache entry %s", key)
	}

	now := c.now().UTC()
	raw, err := json.Marshal(envelope{
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttl),
		Value:     value,
	})
	if err != nil {
		return errors.Wrapf(err, "encoding cache entry %s", key)
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), raw)
	})
	return errors.Wrapf(err, "writing cache entry %s", key)
}

func (c *Cache) delete(key string) error {
	err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
	return errors.Wrapf(err, "deleting cache entry %s", key)
}

// Index returns the cached lab index, or nil if it is missing or expired
func (c *Cache) Index() (*lab.Index, error) {
	var idx lab.Index
	ok, err := c.get(indexKey, &idx)
	if err != nil || !ok {
		return nil, err
	}
	return &idx, nil
}

// SetIndex stores the lab index
func (c *Cache) SetIndex(idx *lab.Index) error {
	return c.put(indexKey, idx)
}

// Lab returns the cached lab with the given ID, or nil if it is missing or expired
func (c *Cache) Lab(id string) (*lab.Lab, error) {
	var l lab.Lab
	ok, err := c.get(labPrefix+id, &l)
	if err != nil || !ok {
		return nil, err
	}
	return &l, nil
}

// SetLab stores a fully scraped lab under its ID
func (c *Cache) SetLab(l *lab.Lab) error {
	if l.ID == "" {
		return errors.Errorf("caching lab %q: missing ID", l.Number)
	}
	return c.put(labPrefix+l.ID, l)
}

// Clear removes every entry and returns how many were removed
func (c *Cache) Clear() (int, error) {
	var removed int
	err := c.db.Update(func(tx *bolt.Tx) error {
		removed = tx.Bucket([]byte(bucketName)).Stats().KeyN
		if err := tx.DeleteBucket([]byte(bucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketName))
		return err
	})
	if err != nil {
		return 0, errors.Wrap(err, "clearing cache")
	}
	return removed, nil
}

// CleanExpired removes expired entries and returns how many were removed
func (c *Cache) CleanExpired() (int, error) {
	now := c.now()
	var expired [][]byte

	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var env envelope
			// undecodable entries are dropped with the expired ones
			if err := json.Unmarshal(v, &env); err != nil || env.expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil {
		return 0, errors.Wrap(err, "scanning cache")
	}
	if len(expired) == 0 {
		return 0, nil
	}

	err = c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "removing expired entries")
	}
	return len(expired), nil
}

// Len returns the number of stored entries, expired or not
func (c *Cache) Len() int {
	var count int
	c.db.View(func(tx *bolt.Tx) error { // nolint:errcheck
		count = tx.Bucket([]byte(bucketName)).Stats().KeyN
		return nil
	})
	return count
}

// Info describes the cache contents
type Info struct {
	Directory   string        `json:"directory"`
	SizeBytes   int64         `json:"size_bytes"`
	EntryCount  int           `json:"entry_count"`
	IndexCached bool          `json:"index_cached"`
	IndexAge    time.Duration `json:"index_age,omitempty"`
	CachedLabs  []string      `json:"cached_labs"`
}

// Info reports what the cache holds. Expired entries are not counted.
func (c *Cache) Info() (*Info, error) {
	now := c.now()
	info := &Info{
		Directory:  c.dir,
		CachedLabs: []string{},
	}

	if st, err := os.Stat(c.db.Path()); err == nil {
		info.SizeBytes = st.Size()
	}

	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var env envelope
			if err := json.Unmarshal(v, &env); err != nil || env.expired(now) {
				return nil
			}
			info.EntryCount++

			key := string(k)
			switch {
			case key == indexKey:
				info.IndexCached = true
				info.IndexAge = now.Sub(env.StoredAt)
			case strings.HasPrefix(key, labPrefix):
				info.CachedLabs = append(info.CachedLabs, strings.TrimPrefix(key, labPrefix))
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading cache info")
	}

	sort.Strings(info.CachedLabs)
	return info, nil
}

// FormatAge renders an entry age the way cache-info prints it
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d days ago", int(d/(24*time.Hour)))
	}
}
