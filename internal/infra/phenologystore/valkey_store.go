package phenologystore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/phenology/internal/domain/phenology"
)

// ValkeyStore persists histograms in a Valkey-compatible database without expiry.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "phenology"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (phenology.Histogram, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return phenology.Histogram{}, false, nil
		}
		return phenology.Histogram{}, false, err
	}
	return decode([]byte(payload))
}

func (s *ValkeyStore) Put(ctx context.Context, key string, histogram phenology.Histogram) error {
	payload, err := json.Marshal(histogram)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload)).Build()
	return s.client.Do(ctx, cmd).Error()
}

// Close releases the underlying client.
func (s *ValkeyStore) Close() {
	s.client.Close()
}

func (s *ValkeyStore) entryKey(key string) string {
	return fmt.Sprintf("%s:hist:%s", s.prefix, key)
}

var _ phenology.Store = (*ValkeyStore)(nil)
