// Package filex has file helpers for the CLI: private data directories and
// bounded reads of user-supplied files.
package filex

import (
	"fmt"
	"io"
	"net/http"
	"os"
)

// EnsureDir creates dir (and parents) readable only by the current user.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ReadLimited reads the file at path, failing when it is larger than max
// bytes. The content type is sniffed from the first 512 bytes.
func ReadLimited(path string, max int64) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > max {
		return nil, "", fmt.Errorf("%s is larger than %d bytes", path, max)
	}
	return data, http.DetectContentType(data), nil
}
