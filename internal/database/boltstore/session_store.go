package boltstore

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"tangled.org/lewlew.social/lewctl/internal/models"
)

// SessionKey is the fixed key the session projection is serialized under.
const SessionKey = "admin-session"

// SessionStore persists the non-secret session projection (authenticated
// flag plus user profile). The raw token is never written here; it lives
// in the credential store.
type SessionStore struct {
	db *bolt.DB
}

// Load retrieves the persisted projection. Returns (nil, nil) when no
// projection has been saved.
func (s *SessionStore) Load() (*models.SessionProjection, error) {
	var projection *models.SessionProjection

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		data := bucket.Get([]byte(SessionKey))
		if data == nil {
			return nil
		}

		var p models.SessionProjection
		if err := json.Unmarshal(data, &p); err != nil {
			// A malformed projection is treated as absent rather than
			// locking the user out of the console.
			return nil
		}
		projection = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return projection, nil
}

// Save persists the projection (upsert operation).
func (s *SessionStore) Save(p models.SessionProjection) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal session projection: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		return bucket.Put([]byte(SessionKey), data)
	})
}

// Delete removes the persisted projection.
func (s *SessionStore) Delete() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}

		return bucket.Delete([]byte(SessionKey))
	})
}
