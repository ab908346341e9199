package config

import (
	"errors"
	"fmt"
	"time"
)

// StorageConfig selects and configures the attachment blob store.  Driver is
// "sftp" (default) or "local".  SFTP values are only validated when the
// store is first used.
type StorageConfig struct {
	Driver   string
	LocalDir string
	SFTPHost string
	SFTPPort int
	SFTPUser string
	SFTPPass string
	SFTPRoot string
	// SFTPHostKey pins the server key (authorized_keys format).
	SFTPHostKey string
	// SFTPKnownHosts is a known_hosts file, used when no key is pinned.
	SFTPKnownHosts string
	DialTimeout    time.Duration
}

func LoadStorageConfig() StorageConfig {
	return StorageConfig{
		Driver:         envStr("STORAGE_DRIVER", "sftp"),
		LocalDir:       envStr("STORAGE_LOCAL_DIR", "uploads"),
		SFTPHost:       envStr("SFTP_HOST", ""),
		SFTPPort:       envInt("SFTP_PORT", 22),
		SFTPUser:       envStr("SFTP_USER", ""),
		SFTPPass:       envStr("SFTP_PASSWORD", ""),
		SFTPRoot:       envStr("SFTP_ROOT", "/rma"),
		SFTPHostKey:    envStr("SFTP_HOST_KEY", ""),
		SFTPKnownHosts: envStr("SFTP_KNOWN_HOSTS", ""),
		DialTimeout:    envDur("SFTP_DIAL_TIMEOUT", 10*time.Second),
	}
}

// ErrNotConfigured is returned by lazily validated settings.
var ErrNotConfigured = errors.New("not configured")

// SFTPAddr returns host:port or ErrNotConfigured when host or user is unset.
func (s StorageConfig) SFTPAddr() (string, error) {
	if s.SFTPHost == "" || s.SFTPUser == "" {
		return "", fmt.Errorf("sftp: SFTP_HOST/SFTP_USER: %w", ErrNotConfigured)
	}
	return fmt.Sprintf("%s:%d", s.SFTPHost, s.SFTPPort), nil
}
