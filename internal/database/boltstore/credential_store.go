package boltstore

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"tangled.org/lewlew.social/lewctl/internal/gateway"
)

// TokenKey is the fixed key the raw bearer token lives under. Every
// authenticated gateway call reads this key; login overwrites it and
// logout deletes it.
const TokenKey = "adminToken"

// CredentialStore persists the raw bearer token.
type CredentialStore struct {
	db *bolt.DB
}

// Ensure CredentialStore satisfies the gateway contract
var _ gateway.CredentialStore = (*CredentialStore)(nil)

// Token returns the stored token, or "" when none is stored.
func (s *CredentialStore) Token() (string, error) {
	var token string

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		if data := bucket.Get([]byte(TokenKey)); data != nil {
			token = string(data)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// SetToken stores the token under the fixed key (upsert operation).
func (s *CredentialStore) SetToken(token string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		return bucket.Put([]byte(TokenKey), []byte(token))
	})
}

// DeleteToken removes the stored token. Deleting an absent token is not an
// error.
func (s *CredentialStore) DeleteToken() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketCredentials)
		if bucket == nil {
			return fmt.Errorf("credentials bucket not found")
		}

		return bucket.Delete([]byte(TokenKey))
	})
}
