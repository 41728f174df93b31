// ABOUTME: CouchDB-backed KV store for sharing records across machines.
// ABOUTME: Each key is a document holding the raw value.

package store

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"
)

const couchTimeout = 10 * time.Second

type couchDoc struct {
	Value []byte `json:"value"`
}

type CouchKV struct {
	client *kivik.Client
	db     *kivik.DB
}

// OpenCouch connects to url and creates dbName when it does not exist yet.
func OpenCouch(ctx context.Context, url, dbName string) (*CouchKV, error) {
	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, fmt.Errorf("connect to couchdb: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return nil, fmt.Errorf("create database: %w", err)
		}
	}

	return &CouchKV{client: client, db: client.DB(dbName)}, nil
}

func (c *CouchKV) Get(key []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), couchTimeout)
	defer cancel()

	var doc couchDoc
	if err := c.db.Get(ctx, string(key)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return doc.Value, nil
}

func (c *CouchKV) Set(key, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), couchTimeout)
	defer cancel()

	doc := map[string]interface{}{"value": value}
	rev, err := c.db.GetRev(ctx, string(key))
	if err == nil {
		doc["_rev"] = rev
	} else if kivik.HTTPStatus(err) != http.StatusNotFound {
		return err
	}

	_, err = c.db.Put(ctx, string(key), doc)
	return err
}

func (c *CouchKV) Delete(key []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), couchTimeout)
	defer cancel()

	rev, err := c.db.GetRev(ctx, string(key))
	if kivik.HTTPStatus(err) == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = c.db.Delete(ctx, string(key), rev)
	return err
}

func (c *CouchKV) Close() error {
	return c.client.Close()
}
