package memorycard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Deliverer hands a finished document to the user.
type Deliverer interface {
	// Deliver stores data under name and returns where it went.
	Deliver(ctx context.Context, name string, data []byte) (string, error)
}

// FileDeliverer writes documents into Dir. A document is written to a
// temporary file first and renamed, so readers never see a partial file.
type FileDeliverer struct {
	Dir  string
	Perm os.FileMode // 0644 when zero
}

// Deliver implements Deliverer.
func (d FileDeliverer) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	perm := d.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return path, nil
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, name string, data []byte) (string, error)

// Deliver implements Deliverer.
func (f DelivererFunc) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	return f(ctx, name, data)
}
