package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/lanchat/internal/model"
	"github.com/templui/lanchat/internal/repository"
)

type memStorage struct {
	objects map[string]string
	deleted []string
	saveErr error
	presign error
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string]string{}}
}

func (m *memStorage) Save(ctx context.Context, path, contentType string, body io.Reader) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[path] = contentType + ":" + string(b)
	return nil
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	delete(m.objects, path)
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *memStorage) URL(ctx context.Context, path string, public bool) (string, error) {
	return "https://bucket.example/" + path, m.presign
}

type memFiles struct {
	files     map[string]*model.File
	createErr error
}

func newMemFiles() *memFiles {
	return &memFiles{files: map[string]*model.File{}}
}

func (m *memFiles) Create(ctx context.Context, file *model.File) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.files[file.ID] = file
	return nil
}

func (m *memFiles) ByID(ctx context.Context, id string) (*model.File, error) {
	f, ok := m.files[id]
	if !ok {
		return nil, repository.ErrFileNotFound
	}
	return f, nil
}

func (m *memFiles) Files(ctx context.Context, ownerType, ownerID string) ([]*model.File, error) {
	var out []*model.File
	for _, f := range m.files {
		if f.OwnerType == ownerType && f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFiles) UserFiles(ctx context.Context, userID string) ([]*model.File, error) {
	var out []*model.File
	for _, f := range m.files {
		if f.UserID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memFiles) Delete(ctx context.Context, id string) error {
	delete(m.files, id)
	return nil
}

func photoUpload() Upload {
	return Upload{
		UserID:       "u1",
		OwnerType:    model.OwnerTypeUser,
		OwnerID:      "u1",
		Type:         model.FileTypePhoto,
		OriginalName: "me.png",
		MimeType:     "image/png",
		Extension:    ".png",
		Size:         3,
		Public:       true,
	}
}

func TestFileUpload(t *testing.T) {
	ctx := context.Background()
	store, files := newMemStorage(), newMemFiles()
	s := NewFileService(files, store)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	file, err := s.Upload(ctx, photoUpload(), strings.NewReader("png"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(file.StoragePath, "public/photos/"))
	assert.True(t, strings.HasSuffix(file.StoragePath, ".png"))
	assert.Equal(t, "image/png:png", store.objects[file.StoragePath])
	assert.Equal(t, file, files.files[file.ID])
	assert.Equal(t, "https://bucket.example/"+file.StoragePath, s.URL(ctx, file))

	private := photoUpload()
	private.Type = model.FileTypeMessageImage
	private.Public = false
	file, err = s.Upload(ctx, private, strings.NewReader("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file.StoragePath, "private/message_images/"))

	mine, err := s.UserFiles(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestFileUpload_CleansUpOnRecordFailure(t *testing.T) {
	store, files := newMemStorage(), newMemFiles()
	files.createErr = assert.AnError
	s := NewFileService(files, store)

	_, err := s.Upload(context.Background(), photoUpload(), strings.NewReader("png"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, store.objects)
	assert.Len(t, store.deleted, 1)
}

func TestFileUpload_StorageFailure(t *testing.T) {
	store, files := newMemStorage(), newMemFiles()
	store.saveErr = assert.AnError
	s := NewFileService(files, store)

	_, err := s.Upload(context.Background(), photoUpload(), strings.NewReader("png"))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Empty(t, files.files)
}

func TestFileURL_PresignFailureFallsBack(t *testing.T) {
	store := newMemStorage()
	store.presign = assert.AnError
	s := NewFileService(newMemFiles(), store)

	assert.Equal(t, "https://bucket.example/public/photos/a.png", s.URL(context.Background(), &model.File{StoragePath: "public/photos/a.png"}))
	assert.Equal(t, "", s.URL(context.Background(), nil))
}

func TestFileDelete(t *testing.T) {
	ctx := context.Background()
	store, files := newMemStorage(), newMemFiles()
	s := NewFileService(files, store)
	file, err := s.Upload(ctx, photoUpload(), strings.NewReader("png"))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Delete(ctx, "someone-else", file.ID), ErrForbidden)
	assert.Contains(t, files.files, file.ID)

	require.NoError(t, s.Delete(ctx, "u1", file.ID))
	assert.NotContains(t, files.files, file.ID)
	assert.NotContains(t, store.objects, file.StoragePath)

	assert.ErrorIs(t, s.Delete(ctx, "u1", file.ID), repository.ErrFileNotFound)
}
