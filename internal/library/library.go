// Package library keeps named scene scripts in a single bbolt file.
package library

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/ivlev/animstage/internal/director"
)

var scriptsBucket = []byte("scripts")

// ErrNotFound is returned for names the library does not hold
var ErrNotFound = errors.New("scene not found")

type Library struct {
	db *bolt.DB
}

// Open opens or creates the library file at path
func Open(path string) (*Library, error) {
	db, err := bolt.Open(path, 0666, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open library %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(scriptsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Library{db: db}, nil
}

func (l *Library) Close() error {
	return l.db.Close()
}

// Save stores script under name, replacing any previous version
func (l *Library) Save(name string, script *director.Script) error {
	key, err := keyOf(name)
	if err != nil {
		return err
	}
	if err := script.Validate(); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	data, err := director.Marshal(script)
	if err != nil {
		return err
	}

	err = l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(scriptsBucket).Put(key, data)
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	log.WithFields(log.Fields{"name": name, "objects": len(script.Objects)}).Debug("Scene saved")
	return nil
}

// Load returns the script stored under name
func (l *Library) Load(name string) (*director.Script, error) {
	key, err := keyOf(name)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = l.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(scriptsBucket).Get(key)
		if v == nil {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		// Values are only valid inside the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	script, err := director.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return script, nil
}

// List returns the stored names in key order
func (l *Library) List() ([]string, error) {
	var names []string
	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(scriptsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// Delete removes name from the library
func (l *Library) Delete(name string) error {
	key, err := keyOf(name)
	if err != nil {
		return err
	}

	return l.db.Update(func(tx *bolt.Tx) error {
		buck := tx.Bucket(scriptsBucket)
		if buck.Get(key) == nil {
			return fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return buck.Delete(key)
	})
}

func keyOf(name string) ([]byte, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty scene name")
	}
	return []byte(name), nil
}
