package phenologystore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/phenology/internal/domain/phenology"
)

// ObjectStore keeps histograms as JSON objects in an S3-compatible bucket (R2, MinIO, S3).
type ObjectStore struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewObjectStore constructs the storage adapter.
func NewObjectStore(endpoint, accessKey, secretKey, bucket, region, prefix string, logger *slog.Logger) (*ObjectStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "phenology"
	}
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(endpoint)), "http://")
	client, err := minio.New(sanitizeEndpoint(endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		Region:       region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init object store client: %w", err)
	}
	return &ObjectStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
		logger: logger.With("component", "phenologystore.object"),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	return nil
}

func (s *ObjectStore) Get(ctx context.Context, key string) (phenology.Histogram, bool, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.objectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return phenology.Histogram{}, false, err
	}
	defer obj.Close()
	payload, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return phenology.Histogram{}, false, nil
		}
		return phenology.Histogram{}, false, err
	}
	return decode(payload)
}

func (s *ObjectStore) Put(ctx context.Context, key string, histogram phenology.Histogram) error {
	payload, err := json.Marshal(histogram)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, s.objectKey(key), bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType:      "application/json",
		DisableMultipart: true,
	})
	if err != nil {
		return err
	}
	s.logger.Debug("histogram stored", "key", key, "bytes", len(payload))
	return nil
}

// objectKey hashes the cache key: geography filters contain characters unsafe in object names.
func (s *ObjectStore) objectKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return s.prefix + "/" + hex.EncodeToString(sum[:]) + ".json"
}

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if idx := strings.Index(raw, "/"); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

var _ phenology.Store = (*ObjectStore)(nil)
