package memorycard

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDeliverer(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	d := FileDeliverer{Dir: dir}

	path, err := d.Deliver(context.Background(), "card.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "card.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	// overwrite in place, no temporary files left behind
	_, err = d.Deliver(context.Background(), "card.pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileDelivererRejects(t *testing.T) {
	d := FileDeliverer{Dir: t.TempDir()}
	for _, name := range []string{"", "../escape.pdf", "a/b.pdf"} {
		_, err := d.Deliver(context.Background(), name, nil)
		assert.Error(t, err, name)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Deliver(ctx, "card.pdf", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
