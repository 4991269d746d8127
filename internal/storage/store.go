package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// ErrNoSnapshot is returned by Load when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store persists one kernel snapshot.
type Store interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snapshot []byte) error

	// Load returns the stored snapshot or ErrNoSnapshot.
	Load(ctx context.Context) ([]byte, error)

	Close() error
}

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
	BackendS3     Backend = "s3"
)

// Config selects and configures a backend.
type Config struct {
	Backend Backend

	// Path is the snapshot file for the file backend and the database
	// directory for badger. An empty badger path keeps the database in
	// memory.
	Path string

	Bucket   string
	Key      string
	Region   string
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string
}

// Open creates the configured backend. Snapshots are zstd compressed on
// every backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		inner Store
		err   error
	)
	switch cfg.Backend {
	case BackendMemory, "":
		inner = NewMemoryStore()
	case BackendFile:
		inner, err = NewFileStore(cfg.Path)
	case BackendBadger:
		inner, err = NewBadgerStore(cfg.Path)
	case BackendS3:
		var client ObjectAPI
		client, err = NewS3Client(ctx, cfg)
		if err == nil {
			inner, err = NewS3Store(client, cfg.Bucket, cfg.Key)
		}
		if err == nil {
			inner = Guarded(inner, DefaultBreaker(string(cfg.Backend)))
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Backend, err)
	}
	return Compressed(inner)
}

// compressed zstd-encodes snapshots on their way into the wrapped store.
type compressed struct {
	Store
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Compressed wraps s so that snapshots are stored zstd compressed.
func Compressed(s Store) (Store, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &compressed{Store: s, enc: enc, dec: dec}, nil
}

func (c *compressed) Save(ctx context.Context, snapshot []byte) error {
	return c.Store.Save(ctx, c.enc.EncodeAll(snapshot, nil))
}

func (c *compressed) Load(ctx context.Context) ([]byte, error) {
	data, err := c.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	out, err := c.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("corrupt snapshot: %w", err)
	}
	return out, nil
}

func (c *compressed) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		return err
	}
	return c.Store.Close()
}
