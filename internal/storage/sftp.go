package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/iliyamo/returns-desk/internal/config"
)

// SFTPStore keeps one shared connection, dialled on first use.  Any
// operation that fails for a reason other than a missing file drops the
// connection and is retried once on a fresh one.
type SFTPStore struct {
	cfg  config.StorageConfig
	dial func(ctx context.Context) (sftpConn, error)

	mu   sync.Mutex
	conn sftpConn
}

// sftpConn is one live session.  Implementations report a missing file
// as ErrNotExist.
type sftpConn interface {
	WriteFile(p string, data []byte) error
	ReadFile(p string) ([]byte, error)
	Remove(p string) error
	Close() error
}

type sshSFTP struct {
	client *sftp.Client
	ssh    *ssh.Client
}

func (c *sshSFTP) WriteFile(p string, data []byte) error {
	if err := c.client.MkdirAll(path.Dir(p)); err != nil {
		return fmt.Errorf("sftp: mkdir %s: %w", path.Dir(p), err)
	}
	f, err := c.client.Create(p)
	if err != nil {
		return fmt.Errorf("sftp: create %s: %w", p, err)
	}
	if _, err := f.ReadFrom(bytes.NewReader(data)); err != nil {
		_ = f.Close()
		return fmt.Errorf("sftp: write %s: %w", p, err)
	}
	return f.Close()
}

func (c *sshSFTP) ReadFile(p string) ([]byte, error) {
	f, err := c.client.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("sftp: open %s: %w", p, err)
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("sftp: read %s: %w", p, err)
	}
	return buf.Bytes(), nil
}

func (c *sshSFTP) Remove(p string) error {
	if err := c.client.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("sftp: remove %s: %w", p, err)
	}
	return nil
}

func (c *sshSFTP) Close() error {
	err := c.client.Close()
	if cerr := c.ssh.Close(); err == nil {
		err = cerr
	}
	return err
}

func NewSFTPStore(cfg config.StorageConfig) *SFTPStore {
	s := &SFTPStore{cfg: cfg}
	s.dial = s.dialSSH
	return s
}

// hostKeyCallback verifies the server against the pinned SFTP_HOST_KEY or,
// failing that, the SFTP_KNOWN_HOSTS file.  With neither set the store
// refuses to dial.
func hostKeyCallback(cfg config.StorageConfig) (ssh.HostKeyCallback, error) {
	if k := strings.TrimSpace(cfg.SFTPHostKey); k != "" {
		pk, _, _, _, err := ssh.ParseAuthorizedKey([]byte(k))
		if err != nil {
			return nil, fmt.Errorf("sftp: SFTP_HOST_KEY: %w", err)
		}
		return ssh.FixedHostKey(pk), nil
	}
	if cfg.SFTPKnownHosts != "" {
		cb, err := knownhosts.New(cfg.SFTPKnownHosts)
		if err != nil {
			return nil, fmt.Errorf("sftp: SFTP_KNOWN_HOSTS: %w", err)
		}
		return cb, nil
	}
	return nil, fmt.Errorf("sftp: SFTP_HOST_KEY/SFTP_KNOWN_HOSTS: %w", config.ErrNotConfigured)
}

func (s *SFTPStore) dialSSH(ctx context.Context) (sftpConn, error) {
	addr, err := s.cfg.SFTPAddr()
	if err != nil {
		return nil, err
	}
	verify, err := hostKeyCallback(s.cfg)
	if err != nil {
		return nil, err
	}
	sc := &ssh.ClientConfig{
		User:            s.cfg.SFTPUser,
		Auth:            []ssh.AuthMethod{ssh.Password(s.cfg.SFTPPass)},
		HostKeyCallback: verify,
		Timeout:         s.cfg.DialTimeout,
	}
	type result struct {
		c   *ssh.Client
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := ssh.Dial("tcp", addr, sc)
		ch <- result{c, err}
	}()
	var sshClient *ssh.Client
	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.c != nil {
				_ = r.c.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("sftp: dial %s: %w", addr, r.err)
		}
		sshClient = r.c
	}
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("sftp: open session: %w", err)
	}
	return &sshSFTP{client: client, ssh: sshClient}, nil
}

func (s *SFTPStore) remote(p string) (string, error) {
	rel, err := cleanRel(p)
	if err != nil {
		return "", err
	}
	return path.Join(s.cfg.SFTPRoot, rel), nil
}

// do runs op on the shared connection, reconnecting once on failure.
func (s *SFTPStore) do(ctx context.Context, op func(c sftpConn) error) error {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		c, err := s.client(ctx)
		if err != nil {
			lastErr = err
			if errors.Is(err, config.ErrNotConfigured) || ctx.Err() != nil {
				return err
			}
			continue
		}
		err = op(c)
		if err == nil || errors.Is(err, ErrNotExist) {
			return err
		}
		lastErr = err
		s.drop(c)
	}
	return lastErr
}

func (s *SFTPStore) client(ctx context.Context) (sftpConn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	c, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	s.conn = c
	return c, nil
}

// drop closes c if it is still the shared connection.
func (s *SFTPStore) drop(c sftpConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == c {
		_ = c.Close()
		s.conn = nil
	}
}

func (s *SFTPStore) Put(ctx context.Context, p string, data []byte) error {
	rp, err := s.remote(p)
	if err != nil {
		return err
	}
	return s.do(ctx, func(c sftpConn) error { return c.WriteFile(rp, data) })
}

func (s *SFTPStore) Get(ctx context.Context, p string) ([]byte, error) {
	rp, err := s.remote(p)
	if err != nil {
		return nil, err
	}
	var out []byte
	err = s.do(ctx, func(c sftpConn) error {
		b, err := c.ReadFile(rp)
		out = b
		return err
	})
	return out, err
}

func (s *SFTPStore) Delete(ctx context.Context, p string) error {
	rp, err := s.remote(p)
	if err != nil {
		return err
	}
	return s.do(ctx, func(c sftpConn) error { return c.Remove(rp) })
}

// Close releases the shared connection, if any.
func (s *SFTPStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
