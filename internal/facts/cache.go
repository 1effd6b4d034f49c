package facts

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Cache is the flat file holding the last saved Collection.
// There is no locking; two writers racing on the same path is accepted.
type Cache struct {
	path   string
	codec  Codec
	logger *slog.Logger
}

// NewCache returns a cache at path. A nil codec is chosen from the file
// extension, a nil logger resolves to the default logger.
func NewCache(path string, codec Codec, logger *slog.Logger) *Cache {
	if codec == nil {
		codec = CodecForPath(path)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		path:   path,
		codec:  codec,
		logger: logger.With("component", "facts.cache"),
	}
}

// Path returns the cache file location.
func (c *Cache) Path() string { return c.path }

// Codec returns the encoding used for the file.
func (c *Cache) Codec() Codec { return c.codec }

// Load reads the cached snapshot. Any failure, including a missing or
// corrupt file, is reported as "no cached snapshot".
func (c *Cache) Load() (*Collection, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("no facts cache", "path", c.path)
		} else {
			c.logger.Warn("cannot read facts cache", "path", c.path, "error", err)
		}
		return nil, false
	}

	var coll Collection
	if err := c.codec.Unmarshal(data, &coll); err != nil {
		c.logger.Warn("corrupt facts cache ignored", "path", c.path, "format", c.codec.Name(), "error", err)
		return nil, false
	}
	if coll.Facts == nil {
		coll.Facts = Facts{}
	}
	return &coll, true
}

// Save writes coll atomically: a temp file in the same directory is
// renamed over the cache path.
func (c *Cache) Save(coll *Collection) error {
	data, err := c.codec.Marshal(coll)
	if err != nil {
		return fmt.Errorf("encode facts cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}

	c.logger.Debug("facts cache saved", "path", c.path, "facts", len(coll.Facts))
	return nil
}

// Remove deletes the cache file. A missing file is not an error.
func (c *Cache) Remove() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove facts cache: %w", err)
	}
	return nil
}
