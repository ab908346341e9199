package storage

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/iliyamo/returns-desk/internal/config"
)

func TestCleanRel(t *testing.T) {
	for _, bad := range []string{"", "/etc/passwd", "../x", "a/../../x", "..", ".", `a\b`} {
		_, err := cleanRel(bad)
		assert.ErrorIs(t, err, ErrBadPath, bad)
	}
	got, err := cleanRel("sheets/4/./a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "sheets/4/a.pdf", got)
}

func TestLocalStoreRoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "sheets/1/x.txt", []byte("hello")))
	b, err := s.Get(ctx, "sheets/1/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	require.NoError(t, s.Delete(ctx, "sheets/1/x.txt"))
	_, err = s.Get(ctx, "sheets/1/x.txt")
	assert.ErrorIs(t, err, ErrNotExist)
	assert.ErrorIs(t, s.Delete(ctx, "sheets/1/x.txt"), ErrNotExist)
}

type fakeConn struct {
	mu     sync.Mutex
	files  map[string][]byte
	fail   int
	closed bool
}

func (f *fakeConn) WriteFile(p string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail > 0 {
		f.fail--
		return errors.New("connection lost")
	}
	f.files[p] = data
	return nil
}

func (f *fakeConn) ReadFile(p string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[p]
	if !ok {
		return nil, ErrNotExist
	}
	return b, nil
}

func (f *fakeConn) Remove(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, p)
	return nil
}

func (f *fakeConn) Close() error { f.closed = true; return nil }

func newFakeSFTP(conns ...*fakeConn) (*SFTPStore, *int) {
	s := NewSFTPStore(config.StorageConfig{SFTPRoot: "/rma"})
	dials := 0
	s.dial = func(context.Context) (sftpConn, error) {
		if dials >= len(conns) {
			return nil, errors.New("no more connections")
		}
		c := conns[dials]
		dials++
		return c, nil
	}
	return s, &dials
}

func TestSFTPStoreRetriesOnFreshConnection(t *testing.T) {
	first := &fakeConn{files: map[string][]byte{}, fail: 1}
	second := &fakeConn{files: map[string][]byte{}}
	s, dials := newFakeSFTP(first, second)

	require.NoError(t, s.Put(context.Background(), "sheets/9/a.pdf", []byte("pdf")))
	assert.Equal(t, 2, *dials)
	assert.True(t, first.closed)
	assert.Equal(t, []byte("pdf"), second.files["/rma/sheets/9/a.pdf"])
}

func TestSFTPStoreGivesUpAfterOneRetry(t *testing.T) {
	first := &fakeConn{files: map[string][]byte{}, fail: 1}
	second := &fakeConn{files: map[string][]byte{}, fail: 1}
	s, dials := newFakeSFTP(first, second, &fakeConn{files: map[string][]byte{}})

	err := s.Put(context.Background(), "a.txt", []byte("x"))
	require.Error(t, err)
	assert.Equal(t, 2, *dials)
}

func TestSFTPStoreMissingFileIsNotRetried(t *testing.T) {
	c := &fakeConn{files: map[string][]byte{}}
	s, dials := newFakeSFTP(c, &fakeConn{files: map[string][]byte{}})

	_, err := s.Get(context.Background(), "nope.txt")
	assert.ErrorIs(t, err, ErrNotExist)
	assert.Equal(t, 1, *dials)
	assert.False(t, c.closed)
}

func TestSFTPStoreUnconfigured(t *testing.T) {
	s := NewSFTPStore(config.StorageConfig{})
	err := s.Put(context.Background(), "a.txt", []byte("x"))
	assert.ErrorIs(t, err, config.ErrNotConfigured)
}

func testHostKey(t *testing.T) ssh.PublicKey {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	pk, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return pk
}

func TestHostKeyCallbackPinnedKey(t *testing.T) {
	server, impostor := testHostKey(t), testHostKey(t)
	remote := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 22}

	cb, err := hostKeyCallback(config.StorageConfig{SFTPHostKey: string(ssh.MarshalAuthorizedKey(server))})
	require.NoError(t, err)
	assert.NoError(t, cb("127.0.0.1:22", remote, server))
	assert.Error(t, cb("127.0.0.1:22", remote, impostor))

	_, err = hostKeyCallback(config.StorageConfig{SFTPHostKey: "not a key"})
	assert.Error(t, err)
}

func TestHostKeyCallbackKnownHosts(t *testing.T) {
	server, impostor := testHostKey(t), testHostKey(t)
	remote := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 22}
	file := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, os.WriteFile(file, []byte(knownhosts.Line([]string{"127.0.0.1:22"}, server)+"\n"), 0o600))

	cb, err := hostKeyCallback(config.StorageConfig{SFTPKnownHosts: file})
	require.NoError(t, err)
	assert.NoError(t, cb("127.0.0.1:22", remote, server))
	assert.Error(t, cb("127.0.0.1:22", remote, impostor))
}

func TestSFTPStoreRefusesUnverifiedHost(t *testing.T) {
	s := NewSFTPStore(config.StorageConfig{SFTPHost: "sftp.example", SFTPPort: 22, SFTPUser: "rma"})
	err := s.Put(context.Background(), "a.txt", []byte("x"))
	assert.ErrorIs(t, err, config.ErrNotConfigured)
	assert.Contains(t, err.Error(), "SFTP_HOST_KEY")
}
