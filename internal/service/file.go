package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/templui/lanchat/internal/model"
	"github.com/templui/lanchat/internal/repository"
	"github.com/templui/lanchat/internal/storage"
)

// ErrForbidden is returned when a user touches someone else's file.
var ErrForbidden = errors.New("forbidden")

// Upload describes a validated media file.
type Upload struct {
	UserID       string
	OwnerType    string
	OwnerID      string
	Type         string // model.FileTypePhoto or model.FileTypeMessageImage
	OriginalName string
	MimeType     string
	Extension    string
	Size         int64
	Public       bool
}

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
	now      func() time.Time
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
		now:      time.Now,
	}
}

// Upload stores body and records it. Validation of type and size is the
// caller's job.
func (s *FileService) Upload(ctx context.Context, up Upload, body io.Reader) (*model.File, error) {
	filename := uuid.New().String() + up.Extension

	prefix := "private"
	if up.Public {
		prefix = "public"
	}
	storagePath := path.Join(prefix, up.Type+"s", filename)

	err := s.storage.Save(ctx, storagePath, up.MimeType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	file := &model.File{
		ID:           uuid.New().String(),
		UserID:       up.UserID,
		OwnerType:    up.OwnerType,
		OwnerID:      up.OwnerID,
		Type:         up.Type,
		Filename:     filename,
		OriginalName: up.OriginalName,
		MimeType:     up.MimeType,
		Size:         up.Size,
		StoragePath:  storagePath,
		Public:       up.Public,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}

	err = s.fileRepo.Create(ctx, file)
	if err != nil {
		delErr := s.storage.Delete(ctx, storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("media uploaded", "user_id", up.UserID, "file_id", file.ID, "type", up.Type)
	return file, nil
}

// URL returns a readable link for file, falling back to the direct object
// URL when presigning fails.
func (s *FileService) URL(ctx context.Context, file *model.File) string {
	if file == nil {
		return ""
	}
	url, err := s.storage.URL(ctx, file.StoragePath, file.Public)
	if err != nil {
		slog.Warn("failed to presign file url", "error", err, "file_id", file.ID)
	}
	return url
}

// Delete removes one of userID's files from storage and the database.
func (s *FileService) Delete(ctx context.Context, userID, fileID string) error {
	file, err := s.fileRepo.ByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}
	if file.UserID != userID {
		return ErrForbidden
	}

	delErr := s.storage.Delete(ctx, file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err = s.fileRepo.Delete(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	return nil
}

func (s *FileService) UserFiles(ctx context.Context, userID string) ([]*model.File, error) {
	return s.fileRepo.UserFiles(ctx, userID)
}
