// Package blob stores document binaries. Only the returned reference is
// persisted, as a metadata row next to the owning employee.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

type Store interface {
	Upload(ctx context.Context, objectPath string, r io.Reader) (ref string, err error)
}

// DocumentPath builds <employee>/<unixnano>.<ext> from the original file name.
func DocumentPath(employeeID, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%d.%s", employeeID, now.UnixNano(), Ext(fileName))
}

// Ext returns the lower-cased extension without the dot, or "bin".
func Ext(fileName string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(fileName)), ".")
	if ext == "" {
		return "bin"
	}
	return ext
}

// Disk keeps blobs under a root directory.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Disk{root: root}, nil
}

func (d *Disk) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + objectPath)
	full := filepath.Join(d.root, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return strings.TrimPrefix(filepath.ToSlash(clean), "/"), nil
}
