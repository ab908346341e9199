package service

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Upload is one file of a multipart request.  Open is called at most once.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// FileError reports why one file of a batch was not stored.
type FileError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// readUpload loads u fully into memory, refusing anything over max bytes,
// and sniffs its content type.
func readUpload(u Upload, max int64) ([]byte, string, error) {
	if max > 0 && u.Size > max {
		return nil, "", fmt.Errorf("file exceeds %d bytes", max)
	}
	r, err := u.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer r.Close()
	src := io.Reader(r)
	if max > 0 {
		src = io.LimitReader(r, max+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if max > 0 && int64(len(data)) > max {
		return nil, "", fmt.Errorf("file exceeds %d bytes", max)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("file is empty")
	}
	return data, mimetype.Detect(data).String(), nil
}

var safeExt = regexp.MustCompile(`^\.[A-Za-z0-9]{1,10}$`)

// storedName is a fresh random name keeping the original extension when
// it is harmless.
func storedName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !safeExt.MatchString(ext) {
		ext = ""
	}
	return uuid.NewString() + ext
}

var storedNamePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9]{1,10})?$`)

// validStoredName reports whether name could have come from storedName.
func validStoredName(name string) bool {
	return storedNamePattern.MatchString(name)
}

// cleanOriginalName drops any directory part a browser sent.
func cleanOriginalName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
