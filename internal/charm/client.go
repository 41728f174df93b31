// ABOUTME: Charm KV backend for the record store using the transactional Do API.
// ABOUTME: Short-lived connections so the CLI, server, and MCP process can share the database.

package charm

import (
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	charmproto "github.com/charmbracelet/charm/proto"
	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"
	"github.com/harper/sam/internal/store"
)

const (
	// DBName is the name of the charm kv database for sam.
	DBName = "sam"
)

// Config holds charm sync settings.
type Config struct {
	// Host is the charm server; empty keeps the charm default.
	Host           string
	AutoSync       bool
	StaleThreshold time.Duration
}

// Client implements store.KV. It does NOT hold a persistent connection:
// each operation opens the database, performs the operation, and closes it.
type Client struct {
	dbName         string
	autoSync       bool
	staleThreshold time.Duration
	log            *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDBName sets the database name.
func WithDBName(name string) Option {
	return func(c *Client) {
		c.dbName = name
	}
}

// WithLogger routes sync chatter to logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

var _ store.KV = (*Client)(nil)

// NewClient creates a new client from cfg.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Host != "" {
		if err := os.Setenv("CHARM_HOST", cfg.Host); err != nil {
			return nil, err
		}
	}

	c := &Client{
		dbName:         DBName,
		autoSync:       cfg.AutoSync,
		staleThreshold: cfg.StaleThreshold,
		log:            log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get retrieves a value by key (read-only, no lock contention).
func (c *Client) Get(key []byte) ([]byte, error) {
	if err := c.SyncIfStale(); err != nil {
		c.log.Warn("stale sync failed, reading local copy", "err", err)
	}
	var val []byte
	err := kv.DoReadOnly(c.dbName, func(k *kv.KV) error {
		var err error
		val, err = k.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrKeyNotFound
	}
	return val, err
}

// Set stores a value with the given key.
func (c *Client) Set(key, value []byte) error {
	return c.Do(func(k *kv.KV) error {
		return k.Set(key, value)
	})
}

// Delete removes a key.
func (c *Client) Delete(key []byte) error {
	err := c.Do(func(k *kv.KV) error {
		return k.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Do executes a function with write access to the database.
func (c *Client) Do(fn func(k *kv.KV) error) error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if c.autoSync {
			return k.Sync()
		}
		return nil
	})
}

// Sync triggers a manual sync with the charm server.
func (c *Client) Sync() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Sync()
	})
}

// LastSyncTime returns the timestamp of the last sync operation.
func (c *Client) LastSyncTime() time.Time {
	var lastSync time.Time
	_ = kv.DoReadOnly(c.dbName, func(k *kv.KV) error {
		lastSync = k.LastSyncTime()
		return nil
	})
	return lastSync
}

// IsStale checks if the data is stale based on the configured threshold.
func (c *Client) IsStale() bool {
	if c.staleThreshold == 0 {
		return false
	}
	var isStale bool
	_ = kv.DoReadOnly(c.dbName, func(k *kv.KV) error {
		isStale = k.IsStale(c.staleThreshold)
		return nil
	})
	return isStale
}

// SyncIfStale syncs with the charm server if data is stale.
func (c *Client) SyncIfStale() error {
	if !c.IsStale() {
		return nil
	}
	c.log.Info("data stale, syncing", "threshold", c.staleThreshold)
	return c.Sync()
}

// Reset clears all local data.
func (c *Client) Reset() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Reset()
	})
}

// User returns the current charm user information.
func (c *Client) User() (*charmproto.User, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return nil, err
	}
	return cc.Bio()
}

// Link initiates the charm linking process for this device.
func (c *Client) Link() error {
	_, err := c.User()
	return err
}

// Unlink removes the charm account association from this device.
func (c *Client) Unlink() error {
	return c.Reset()
}

// Close is a no-op; connections close after each operation.
func (c *Client) Close() error {
	return nil
}
