package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var cacheBucket = []byte("sql_generations")

type cachedResponse struct {
	Result   string    `json:"result"`
	CachedAt time.Time `json:"cached_at"`
	Model    string    `json:"model"`
}

// Cache stores generated SQL in a bolt file keyed by provider, model and
// prompt. The file is opened per call so several processes can share it.
type Cache struct {
	path string
}

// NewCache returns nil for an empty path; a nil *Cache never hits.
func NewCache(path string) *Cache {
	if path == "" {
		return nil
	}
	if strings.HasPrefix(path, "~") {
		if h, err := os.UserHomeDir(); err == nil {
			path = strings.Replace(path, "~", h, 1)
		}
	}
	return &Cache{path: path}
}

func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

func (c *Cache) key(provider, model, prompt string) []byte {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte("\n"))
	h.Write([]byte(model))
	h.Write([]byte("\n"))
	h.Write([]byte(prompt))
	return []byte(hex.EncodeToString(h.Sum(nil)))
}

func (c *Cache) open() (*bolt.DB, error) {
	if dir := filepath.Dir(c.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	return bolt.Open(c.path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
}

func (c *Cache) Get(provider, model, prompt string) (string, bool) {
	if c == nil {
		return "", false
	}
	db, err := c.open()
	if err != nil {
		return "", false
	}
	defer db.Close()

	var result string
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(cacheBucket)
		if bucket == nil {
			return nil
		}
		v := bucket.Get(c.key(provider, model, prompt))
		if v == nil {
			return nil
		}
		var cr cachedResponse
		if err := json.Unmarshal(v, &cr); err != nil {
			return nil
		}
		result = cr.Result
		return nil
	})
	if err != nil || result == "" {
		return "", false
	}
	return result, true
}

func (c *Cache) Put(provider, model, prompt, result string) error {
	if c == nil {
		return nil
	}
	db, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	v, err := json.Marshal(cachedResponse{Result: result, CachedAt: time.Now(), Model: model})
	if err != nil {
		return err
	}
	return db.Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists(cacheBucket)
		if err != nil {
			return err
		}
		return bkt.Put(c.key(provider, model, prompt), v)
	})
}
