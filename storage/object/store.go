// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package object implements S3-compatible object storage for catalog
// images using the minio-go SDK.
package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/poiesic/lookbook/storage"
)

// Config holds the connection settings for an S3-compatible endpoint.
type Config struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	UseSSL          bool
	// PublicBaseURL is the prefix for URLs returned by Upload. Falls back
	// to EndpointURL/Bucket when empty.
	PublicBaseURL string
}

// Store implements storage.ObjectStore on MinIO/S3.
type Store struct {
	client *minio.Client
	cfg    Config
}

var _ storage.ObjectStore = (*Store)(nil)

// NewStore connects to the endpoint and ensures the bucket exists.
func NewStore(ctx context.Context, cfg Config) (storage.ObjectStore, error) {
	if cfg.EndpointURL == "" {
		return nil, errors.New("endpoint URL is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	u, err := url.Parse(cfg.EndpointURL)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint URL: %w", err)
	}
	endpoint := u.Host
	if endpoint == "" {
		endpoint = cfg.EndpointURL
	}
	useSSL := cfg.UseSSL || u.Scheme == "https"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	s := &Store{client: client, cfg: cfg}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	err = s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

// Upload writes an object and returns its public URL.
func (s *Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", errors.New("object key is required")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, reader, int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

func (s *Store) publicURL(key string) string {
	base := s.cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("%s/%s", s.cfg.EndpointURL, s.cfg.Bucket)
	}
	return fmt.Sprintf("%s/%s", base, key)
}

// Download reads an object's bytes.
// Returns storage.ErrNotFound when the key doesn't exist.
func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapObjectError(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapObjectError(key, err)
	}
	return data, nil
}

// Delete removes an object.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.cfg.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return mapObjectError(key, err)
	}
	return nil
}

// Exists reports whether an object is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.cfg.Bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, mapObjectError(key, err)
	}
	return true, nil
}

// Healthy reports whether the bucket is reachable.
func (s *Store) Healthy(ctx context.Context) bool {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	return err == nil && exists
}

func isNotFound(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
	}
	return false
}

func mapObjectError(key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: object %s", storage.ErrNotFound, key)
	}
	return fmt.Errorf("object storage: %s: %w", key, err)
}
