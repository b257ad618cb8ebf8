package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/imtrack-backend/internal/platform/logger"
	"github.com/yungbote/imtrack-backend/internal/platform/objectstore"
)

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{"invalid mode", &objectstore.ConfigError{Code: objectstore.ConfigErrorInvalidMode, Mode: "ftp"}, StorageProviderBootstrapErrorInvalidMode},
		{"missing bucket", &objectstore.ConfigError{Code: objectstore.ConfigErrorMissingBucket, Mode: "s3"}, StorageProviderBootstrapErrorMissingBucket},
		{"partial credentials", &objectstore.ConfigError{Code: objectstore.ConfigErrorPartialCredentials}, StorageProviderBootstrapErrorInvalidConfig},
		{"wrapped", errors.Join(errors.New("validate"), &objectstore.ConfigError{Code: objectstore.ConfigErrorMissingEmulatorHost}), StorageProviderBootstrapErrorInvalidConfig},
		{"connect", errors.New("dial tcp: connection refused"), StorageProviderBootstrapErrorConnectFailed},
	}
	for _, tc := range cases {
		got := classifyStorageProviderBootstrapError(objectstore.Config{Mode: objectstore.ModeS3}, tc.err)
		if got.Code != tc.want {
			t.Fatalf("%s: code want=%q got=%q", tc.name, tc.want, got.Code)
		}
		if !errors.Is(got, tc.err) {
			t.Fatalf("%s: cause not preserved", tc.name)
		}
	}
}

func TestResolveObjectStoreInvalidMode(t *testing.T) {
	_, err := resolveObjectStore(context.Background(), logger.Nop(), objectstore.Config{Mode: "invalid"})
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) {
		t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
	}
	if got.Code != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorInvalidMode, got.Code)
	}
}

func TestResolveObjectStoreMemory(t *testing.T) {
	s, err := resolveObjectStore(context.Background(), logger.Nop(), objectstore.Config{Mode: objectstore.ModeMemory})
	if err != nil {
		t.Fatalf("resolveObjectStore: %v", err)
	}
	if _, ok := s.(*objectstore.Memory); !ok {
		t.Fatalf("expected memory store, got %T", s)
	}
}

func TestResolveObjectStoreConnectFailure(t *testing.T) {
	prev := openObjectStore
	t.Cleanup(func() { openObjectStore = prev })
	openObjectStore = func(context.Context, *logger.Logger, objectstore.Config) (objectstore.Store, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, err := resolveObjectStore(context.Background(), logger.Nop(), objectstore.Config{Mode: objectstore.ModeS3, Bucket: "im"})
	var got *StorageProviderBootstrapError
	if !errors.As(err, &got) || got.Code != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("expected connect_failed, got %v", err)
	}
}
