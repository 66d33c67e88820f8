package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memArchive struct {
	objects map[string][]byte
	err     error
}

func (m *memArchive) Archive(ctx context.Context, key string, body []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

type memSessions struct {
	sess domain.Session
}

func (m *memSessions) LoadSession(ctx context.Context) (*domain.Session, error) {
	s := m.sess
	return &s, nil
}

func (m *memSessions) SaveSession(ctx context.Context, s *domain.Session) error {
	m.sess = *s
	return nil
}

func TestBackupSync(t *testing.T) {
	ctx := context.Background()
	backup := filepath.Join(t.TempDir(), "genome.go.bak")
	arch := &memArchive{}
	sessions := &memSessions{}
	bs := NewBackupSync(arch, sessions, zap.NewNop())
	bs.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	key, err := bs.Sync(ctx, backup)
	require.NoError(t, err)
	assert.Empty(t, key, "no backup yet")

	require.NoError(t, os.WriteFile(backup, []byte("package genome\n"), 0o644))
	key, err = bs.Sync(ctx, backup)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "20260301T120000Z-"), key)
	assert.Equal(t, []byte("package genome\n"), arch.objects[key])
	assert.Len(t, sessions.sess.ArchivedBackup, 64)

	key, err = bs.Sync(ctx, backup)
	require.NoError(t, err)
	assert.Empty(t, key, "same content is archived once")

	require.NoError(t, os.WriteFile(backup, []byte("package genome\n\nconst X = 1\n"), 0o644))
	key, err = bs.Sync(ctx, backup)
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	assert.Len(t, arch.objects, 2)
}

func TestBackupSync_ArchiveFailureKeepsDigest(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "genome.go.bak")
	require.NoError(t, os.WriteFile(backup, []byte("package genome\n"), 0o644))
	sessions := &memSessions{sess: domain.Session{ArchivedBackup: "old"}}

	_, err := NewBackupSync(&memArchive{err: errors.New("offline")}, sessions, zap.NewNop()).Sync(context.Background(), backup)
	require.Error(t, err)
	assert.Equal(t, "old", sessions.sess.ArchivedBackup)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Archive(context.Background(), "k", []byte("v")))
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	auth    string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, _ := io.ReadAll(req.Body)
	f.mu.Lock()
	f.objects[req.URL.Path] = body
	f.types[req.URL.Path] = req.Header.Get("Content-Type")
	f.auth = req.Header.Get("Authorization")
	f.mu.Unlock()
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
}

func TestS3Archiver_PutsUnderPrefix(t *testing.T) {
	rt := &fakeS3{objects: make(map[string][]byte), types: make(map[string]string)}
	a, err := NewS3(context.Background(), Config{
		Bucket:          "lumen-archive",
		Prefix:          "agents/one",
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
	})
	require.NoError(t, err)

	require.NoError(t, a.Archive(context.Background(), "v1.go.bak", []byte("package genome\n")))

	body, ok := rt.objects["/lumen-archive/agents/one/v1.go.bak"]
	require.True(t, ok, "objects: %v", rt.objects)
	assert.Contains(t, string(body), "package genome")
	assert.Equal(t, "text/x-go", rt.types["/lumen-archive/agents/one/v1.go.bak"])
	assert.Contains(t, rt.auth, "Credential=AKIA/")
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), Config{})
	assert.Error(t, err)
}
