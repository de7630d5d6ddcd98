package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/learnhub/api/internal/client"
	"github.com/learnhub/api/internal/model"
)

const signedURLExpiry = time.Hour

// UploadRequest is a video upload into the intake area.
type UploadRequest struct {
	FileName    string
	Title       string
	ContentType string
	Size        int64
	Body        io.Reader
	Transcode   bool
}

// ContentService is the operator surface over content records.
type ContentService struct {
	store   ContentStore
	storage client.StorageClient
	cleanup *CleanupHandler
	paths   Paths
	logger  *slog.Logger
}

func NewContentService(store ContentStore, storage client.StorageClient, cleanup *CleanupHandler, paths Paths, logger *slog.Logger) *ContentService {
	return &ContentService{
		store:   store,
		storage: storage,
		cleanup: cleanup,
		paths:   paths,
		logger:  loggerOrDefault(logger),
	}
}

func (s *ContentService) Create(ctx context.Context, req *model.CreateContentRequest) (*model.ContentResponse, error) {
	content := &model.Content{
		ID:    uuid.New().String(),
		Path:  req.Path,
		Type:  req.Type,
		Title: req.Title,
	}
	if err := s.store.Create(ctx, content); err != nil {
		return nil, err
	}
	return s.view(content), nil
}

// Upload registers a video record and writes the object under the intake
// prefix. Transcoding starts when the storage event for the object arrives.
func (s *ContentService) Upload(ctx context.Context, req *UploadRequest) (*model.UploadContentResponse, error) {
	if s.storage == nil {
		return nil, model.ErrStorageUnavailable
	}
	objectPath := s.paths.IntakePrefix + uuid.New().String() + "-" + sanitizeFileName(req.FileName)
	content := &model.Content{
		ID:    uuid.New().String(),
		Path:  objectPath,
		Type:  model.ContentTypeVideo,
		Title: req.Title,
	}
	if err := s.store.Create(ctx, content); err != nil {
		return nil, err
	}

	objectURL, err := s.storage.Upload(ctx, objectPath, req.Body, client.UploadOptions{
		ContentType: req.ContentType,
		Size:        req.Size,
		Metadata:    map[string]string{MetadataTranscode: strconv.FormatBool(req.Transcode)},
	})
	if err != nil {
		if _, derr := s.store.Delete(ctx, content.ID); derr != nil {
			s.logger.Error("failed to remove record after upload failure", "content_id", content.ID, "error", derr)
		}
		return nil, fmt.Errorf("upload video: %w", err)
	}

	s.logger.Info("video uploaded", "content_id", content.ID, "path", objectPath, "transcode", req.Transcode)
	return &model.UploadContentResponse{
		Content:   *s.view(content),
		ObjectURL: objectURL,
		Transcode: req.Transcode,
	}, nil
}

func (s *ContentService) Get(ctx context.Context, id string) (*model.ContentResponse, error) {
	content, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(content), nil
}

// Delete removes the record and reclaims its transcoded artifacts.
func (s *ContentService) Delete(ctx context.Context, id string) error {
	content, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.logger.Info("content deleted", "content_id", id, "path", content.Path)
	if s.cleanup != nil {
		s.cleanup.HandleDelete(ctx, content)
	}
	return nil
}

// SourceURL returns a presigned download link for the original upload.
func (s *ContentService) SourceURL(ctx context.Context, id string) (*model.SignedURLResponse, error) {
	if s.storage == nil {
		return nil, model.ErrStorageUnavailable
	}
	content, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	url, err := s.storage.GetSignedURL(ctx, content.Path, signedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign source url: %w", err)
	}
	return &model.SignedURLResponse{URL: url, ExpiresAt: time.Now().Add(signedURLExpiry)}, nil
}

func (s *ContentService) view(content *model.Content) *model.ContentResponse {
	resp := &model.ContentResponse{Content: *content}
	if content.HLSURL != "" {
		resp.PlaybackURL = content.HLSURL
		if s.storage != nil {
			resp.PlaybackURL = s.storage.GetPublicURL(s.paths.ObjectPath(content.HLSURL))
		}
	}
	return resp
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
	if name == "" || name == "." || name == "/" {
		return "video"
	}
	return name
}
