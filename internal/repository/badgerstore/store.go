package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/google/uuid"

	"github.com/medpal/assist-api/internal/model"
	"github.com/medpal/assist-api/internal/repository"
)

var keyPrefix = []byte("reminders:")

// Store persists each owner's reminder collection as a single serialized
// JSON value, mirroring the load-everything/save-everything lifecycle of a
// local key-value store. Malformed stored data degrades to an empty
// collection instead of failing startup.
type Store struct {
	db       *badger.DB
	cancelGC func()
	wg       sync.WaitGroup
}

// New opens a badger instance at the given path.
func New(path string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db at path %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		db:       db,
		cancelGC: cancel,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for s.db.RunValueLogGC(0.5) == nil && ctx.Err() == nil {
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return s, nil
}

// Close the store
func (s *Store) Close() error {
	s.cancelGC()
	s.wg.Wait()

	return s.db.Close()
}

func ownerKey(userID uuid.UUID) []byte {
	return append(append([]byte{}, keyPrefix...), userID[:]...)
}

// Load returns the stored collection for userID. A missing key or a value
// that fails to parse yields an empty collection, never an error to the
// caller's startup path.
func (s *Store) Load(userID uuid.UUID) ([]*model.Reminder, error) {
	var reminders []*model.Reminder

	err := s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(ownerKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get reminders for user %s: %w", userID, err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &reminders); err != nil {
				// Corrupt value: treat as no reminders.
				reminders = nil
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return reminders, nil
}

// Save replaces the stored collection for userID.
func (s *Store) Save(userID uuid.UUID, reminders []*model.Reminder) error {
	return s.db.Update(func(tx *badger.Txn) error {
		data, err := json.Marshal(reminders)
		if err != nil {
			return fmt.Errorf("failed to JSON marshal reminders: %w", err)
		}

		return tx.Set(ownerKey(userID), data)
	})
}

// Owners lists every user id with a stored reminder collection.
func (s *Store) Owners() ([]uuid.UUID, error) {
	var owners []uuid.UUID

	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.PrefetchValues = false

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			raw := key[len(keyPrefix):]

			id, err := uuid.FromBytes(raw)
			if err != nil {
				continue
			}
			owners = append(owners, id)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return owners, nil
}

var _ repository.ReminderStore = (*Store)(nil)
