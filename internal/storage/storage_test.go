package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/kernel/internal/infrastructure/resilience"
)

// fakeObjects is an in-memory ObjectAPI.
type fakeObjects struct {
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNoSnapshot)

	require.NoError(t, s.Save(ctx, []byte(`{"fs":{}}`)))
	require.NoError(t, s.Save(ctx, []byte(`{"fs":{"/":{}}}`)))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"fs":{"/":{}}}`, string(got))
}

func TestBackends(t *testing.T) {
	tests := []struct {
		name string
		open func(t *testing.T) Store
	}{
		{"memory", func(t *testing.T) Store { return NewMemoryStore() }},
		{"file", func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "state", "snapshot.zst"))
			require.NoError(t, err)
			return s
		}},
		{"badger", func(t *testing.T) Store {
			s, err := NewBadgerStore("")
			require.NoError(t, err)
			return s
		}},
		{"s3", func(t *testing.T) Store {
			s, err := NewS3Store(newFakeObjects(), "bucket", "")
			require.NoError(t, err)
			return s
		}},
		{"guarded", func(t *testing.T) Store {
			return Guarded(NewMemoryStore(), DefaultBreaker("memory"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.open(t)
			defer s.Close()
			exerciseStore(t, s)
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot")
	ctx := context.Background()

	s, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, []byte("one")))

	again, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := again.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))
}

func TestCompressedAtRest(t *testing.T) {
	objects := newFakeObjects()
	inner, err := NewS3Store(objects, "bucket", "snap")
	require.NoError(t, err)
	s, err := Compressed(inner)
	require.NoError(t, err)
	defer s.Close()

	payload := bytes.Repeat([]byte(`{"type":"directory","owner":"root"}`), 200)
	require.NoError(t, s.Save(context.Background(), payload))

	raw := objects.objects["bucket/snap"]
	assert.Less(t, len(raw), len(payload))
	assert.NotEqual(t, payload, raw)

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	objects.objects["bucket/snap"] = []byte("not zstd")
	_, err = s.Load(context.Background())
	assert.ErrorContains(t, err, "corrupt snapshot")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{})
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Config{Backend: BackendFile, Path: filepath.Join(t.TempDir(), "snap")})
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Backend: "tape"})
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = Open(ctx, Config{Backend: BackendFile})
	assert.Error(t, err)

	_, err = Open(ctx, Config{Backend: BackendS3, Bucket: "b"})
	assert.ErrorContains(t, err, "region is required")
}

// flakyStore fails every Save until healed.
type flakyStore struct {
	*MemoryStore
	healed bool
	saves  int
}

func (f *flakyStore) Save(ctx context.Context, snapshot []byte) error {
	f.saves++
	if !f.healed {
		return errors.New("connection reset")
	}
	return f.MemoryStore.Save(ctx, snapshot)
}

func TestGuardedFailsFast(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	s := Guarded(inner, DefaultBreaker("s3"))

	// Missing snapshots do not count against the store.
	for i := 0; i < 5; i++ {
		_, err := s.Load(ctx)
		require.ErrorIs(t, err, ErrNoSnapshot)
	}

	for i := 0; i < 3; i++ {
		assert.EqualError(t, s.Save(ctx, []byte("x")), "connection reset")
	}
	inner.healed = true
	assert.ErrorIs(t, s.Save(ctx, []byte("x")), resilience.ErrCircuitOpen)
	assert.Equal(t, 3, inner.saves)
}
