package storage

import (
	"context"
	"fmt"

	"docanalyzer/internal/crypto"
)

// SealedStore encrypts blobs before they reach the wrapped store. Listed
// sizes are those of the sealed bytes.
type SealedStore struct {
	Store
	sealer *crypto.Sealer
}

func NewSealedStore(inner Store, sealer *crypto.Sealer) *SealedStore {
	return &SealedStore{Store: inner, sealer: sealer}
}

func (s *SealedStore) Put(ctx context.Context, container, key string, data []byte) error {
	sealed, err := s.sealer.Seal(data)
	if err != nil {
		return fmt.Errorf("sealing object: %w", err)
	}
	return s.Store.Put(ctx, container, key, sealed)
}

func (s *SealedStore) Get(ctx context.Context, container, key string) ([]byte, error) {
	sealed, err := s.Store.Get(ctx, container, key)
	if err != nil {
		return nil, err
	}
	data, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("opening object %s: %w", key, err)
	}
	return data, nil
}
