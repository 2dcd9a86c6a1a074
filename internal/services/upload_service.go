package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"livedesk/internal/storage"
	livedesk_errors "livedesk/pkg/errors"

	"github.com/google/uuid"
)

const maxAttachmentBytes = 25 << 20

type UploadService struct {
	storage *storage.Client
}

type PresignInput struct {
	UploaderID  uuid.UUID
	FileName    string
	ContentType string
	FileSize    int64
}

type PresignResult struct {
	UploadURL string            `json:"upload_url"`
	ObjectKey string            `json:"object_key"`
	FileURL   string            `json:"file_url"`
	Headers   map[string]string `json:"headers"`
}

func NewUploadService(storage *storage.Client) *UploadService {
	return &UploadService{storage: storage}
}

// CreatePresignedUpload hands the client a short-lived PUT URL for an
// attachment. The resulting file URL goes onto a FILE message afterwards.
func (s *UploadService) CreatePresignedUpload(ctx context.Context, in PresignInput) (PresignResult, error) {
	if s.storage == nil {
		return PresignResult{}, fmt.Errorf("s3 storage is not configured")
	}
	if in.UploaderID == uuid.Nil || in.FileName == "" || in.ContentType == "" || in.FileSize <= 0 {
		return PresignResult{}, livedesk_errors.ErrInvalidInput
	}
	if in.FileSize > maxAttachmentBytes {
		return PresignResult{}, livedesk_errors.ErrInvalidInput
	}
	if err := s.storage.ValidateContentType(in.ContentType); err != nil {
		return PresignResult{}, livedesk_errors.ErrInvalidInput
	}

	key := buildObjectKey(in.UploaderID, in.FileName)

	uploadURL, headers, err := s.storage.PresignPut(ctx, key, in.ContentType, in.FileSize)
	if err != nil {
		return PresignResult{}, err
	}

	return PresignResult{
		UploadURL: uploadURL,
		ObjectKey: key,
		FileURL:   s.storage.FileURL(key),
		Headers:   headers,
	}, nil
}

func buildObjectKey(uploaderID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("attachments/%s/%d-%s%s",
		uploaderID, time.Now().UnixNano(), uuid.NewString()[:8], ext)
}
