// Package attach stores the binary content behind attachment and file-link
// typed properties. The ontology tables only hold the file name; the bytes
// live here, keyed by container and object URI so object deletion can sweep
// them.
package attach

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Driver identifies a concrete attachment backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default, dev)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// PutOptions carries optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored attachment.
type Info struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	Metadata     map[string]string
	LastModified time.Time
}

// Store is the attachment backend seam. Semantics mirror a minimal subset of
// S3 so the S3 adapter is nearly 1:1 and the filesystem adapter can emulate
// them.
type Store interface {
	// Put stores new content at key and fails if the key already exists.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get retrieves content and metadata.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)
	// Delete removes content. Returns (false, nil) when the key is absent.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns stored attachments under prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	// Driver reports the configured backend.
	Driver() Driver
}

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = errors.New("attach: unsupported operation")

// Key builds the storage key for one attachment of one object property. The
// object URI is hashed so LSIDs with escaped characters stay path-safe.
func Key(container, objectURI, fileName string) string {
	sum := sha256.Sum256([]byte(objectURI))
	return container + "/" + hex.EncodeToString(sum[:16]) + "/" + fileName
}

// ObjectPrefix returns the key prefix covering every attachment of an object,
// for deletion sweeps.
func ObjectPrefix(container, objectURI string) string {
	sum := sha256.Sum256([]byte(objectURI))
	return container + "/" + hex.EncodeToString(sum[:16]) + "/"
}

// Open selects a Store implementation from environment variables.
//
//	ONTOCORE_ATTACH_DRIVER: fs|s3|memory (default fs)
//	ONTOCORE_ATTACH_FS_ROOT: directory root when driver=fs (default ./attachdata)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("ONTOCORE_ATTACH_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("ONTOCORE_ATTACH_FS_ROOT"))
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("attach: unknown driver %s", driver)
	}
}
