package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Uthmaanravat/UROps-sub001/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), 1024)
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := s.Upload(ctx, "company/project", "Voice Note.WEBM", "audio/webm", strings.NewReader("audio-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Path, "company/project/"))
	assert.True(t, strings.HasSuffix(obj.Path, ".webm"))
	assert.Equal(t, int64(11), obj.Size)

	rc, err := s.Open(ctx, obj.Path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "audio-bytes", string(data))

	require.NoError(t, s.Delete(ctx, obj.Path))
	_, err = s.Open(ctx, obj.Path)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, obj.Path), "deleting twice is not an error")
}

func TestLocalStorage_RejectsOversizedUpload(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), 8)
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "c", "big.mp3", "audio/mpeg", bytes.NewReader(make([]byte, 64)))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = s.Open(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestNewStorage_UnknownMode(t *testing.T) {
	_, err := NewStorage(&config.StorageConfig{Mode: "floppy"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewStorage(&config.StorageConfig{Mode: "azure"}, zap.NewNop())
	assert.Error(t, err)
}
