// Package storage provides object storage for snapshot archives.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrPutFailed      = errors.New("put failed")
	ErrGetFailed      = errors.New("get failed")
	ErrDeleteFailed   = errors.New("delete failed")
)

// ObjectStorage abstracts where snapshot archives live.
// Implementations include S3 and the local filesystem.
type ObjectStorage interface {
	// Put uploads the local file at localPath to objectPath.
	Put(ctx context.Context, localPath, objectPath string) error

	// Get downloads the object at objectPath to localPath.
	Get(ctx context.Context, objectPath, localPath string) error

	// Delete removes the object at objectPath.
	Delete(ctx context.Context, objectPath string) error

	// Exists reports whether an object exists at objectPath.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// List returns all object paths under the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
