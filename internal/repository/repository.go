package repository

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// KVRepository is the durable key-value storage behind a session.
// Values are opaque JSON documents; namespace is the session id.
type KVRepository interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Delete(ctx context.Context, namespace, key string) error
}

func checkKey(namespace, key string) error {
	if namespace == "" || key == "" {
		return fmt.Errorf("namespace and key are required (namespace=%q key=%q)", namespace, key)
	}
	return nil
}
