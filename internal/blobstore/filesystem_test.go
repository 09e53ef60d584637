package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/mira/internal/model"
)

func TestFilesystemStore_Put(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir, "http://localhost:8080/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "mira-voice/1700000000000-abc.mp3", []byte("audio"), "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/mira-voice/1700000000000-abc.mp3", url)

	data, err := os.ReadFile(filepath.Join(dir, "mira-voice", "1700000000000-abc.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))
}

func TestFilesystemStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir(), "")
	require.NoError(t, err)

	for _, key := range []string{"", "/", "../etc/passwd", "a/../../b"} {
		_, err := s.Put(context.Background(), key, []byte("x"), "text/plain")
		var ve *model.ValidationError
		assert.ErrorAs(t, err, &ve, "key %q", key)
	}
}

func TestFilesystemStore_CanceledContext(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "a.mp3", []byte("x"), "audio/mpeg")
	assert.ErrorIs(t, err, context.Canceled)
}
