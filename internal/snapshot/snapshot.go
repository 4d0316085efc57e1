package snapshot

import (
	"errors"
	"sync"

	"github.com/opendv/site-config/internal/siteconfig"
)

var (
	// ErrNotResolved indicates the configuration has not been stored yet.
	ErrNotResolved = errors.New("site configuration has not been resolved")
	// ErrAlreadySet indicates a second attempt to store the configuration.
	ErrAlreadySet = errors.New("site configuration is already set")
	// ErrNilConfig indicates an attempt to store a nil snapshot.
	ErrNilConfig = errors.New("site configuration must not be nil")
)

// Store provides access to the process-wide resolved configuration.
type Store interface {
	Get() (*siteconfig.Resolved, error)
	Set(cfg *siteconfig.Resolved) error
}

// Cell is a single-assignment Store guarded by a RWMutex.
type Cell struct {
	mu    sync.RWMutex
	value *siteconfig.Resolved
}

// NewCell returns an empty Cell.
func NewCell() *Cell {
	return &Cell{}
}

// Get returns the stored snapshot.
func (c *Cell) Get() (*siteconfig.Resolved, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.value == nil {
		return nil, ErrNotResolved
	}
	return c.value, nil
}

// Set stores cfg. Only the first call succeeds.
func (c *Cell) Set(cfg *siteconfig.Resolved) error {
	if cfg == nil {
		return ErrNilConfig
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.value != nil {
		return ErrAlreadySet
	}
	c.value = cfg
	return nil
}
