package service

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/metrics"
	"saarthi-chat/internal/storage"
)

// MaxAttachmentBytes es el tamaño máximo aceptado por archivo (10 MB).
const MaxAttachmentBytes int64 = 10 * 1024 * 1024

const uploadConcurrency = 4

var (
	ErrUnsupportedType = fmt.Errorf("%w: unsupported file type", domain.ErrValidation)
	ErrTooLarge        = fmt.Errorf("%w: file exceeds 10MB", domain.ErrValidation)
	ErrPathForbidden   = fmt.Errorf("%w: attachment belongs to another user", domain.ErrUnauthorized)
	ErrStorageDisabled = fmt.Errorf("%w: attachment storage is not configured", domain.ErrProvider)
)

var allowedAttachmentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/gif":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// FileInput es un archivo candidato. Size es el tamaño declarado; si el
// archivo supera el límite, Data puede venir vacío.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// UploadedFile es la referencia estable de un adjunto subido.
type UploadedFile struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileID   string `json:"fileId"`
	FileSize int64  `json:"fileSize"`
	FileType string `json:"fileType"`
	Path     string `json:"path"`
}

// Attachment la convierte en la referencia que viaja dentro de un Message.
func (f UploadedFile) Attachment() domain.Attachment {
	return domain.Attachment{
		ID:          f.FileID,
		Name:        f.FileName,
		URL:         f.URL,
		ContentType: f.FileType,
		Size:        f.FileSize,
	}
}

// UploadResult es el resultado de un archivo del lote: File o Err.
type UploadResult struct {
	File *UploadedFile
	Err  error
}

type AttachmentService struct {
	logger  *zap.Logger
	store   storage.ObjectStore
	metrics *metrics.Chat
}

func NewAttachmentService(logger *zap.Logger, store storage.ObjectStore, m *metrics.Chat) *AttachmentService {
	return &AttachmentService{logger: logger, store: store, metrics: m}
}

// Upload valida todo el lote antes de tocar la red y después sube en paralelo
// los archivos aceptados. Cada resultado se reporta por separado y los que
// sí subieron no se revierten si otro falla.
func (s *AttachmentService) Upload(ctx context.Context, ident domain.Identity, threadID string, files []FileInput) ([]UploadResult, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if threadID != "" {
		if err := domain.ValidateThreadID(threadID); err != nil {
			return nil, err
		}
	}
	results := make([]UploadResult, len(files))
	types := make([]string, len(files))
	for i, f := range files {
		ct, err := ValidateFile(f)
		if err != nil {
			results[i].Err = err
			s.metrics.Upload(metrics.OutcomeRejected)
			continue
		}
		types[i] = ct
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i := range files {
		if results[i].Err != nil {
			continue
		}
		g.Go(func() error {
			file, err := s.put(gctx, ident.UserID, threadID, files[i], types[i])
			if err != nil {
				s.logger.Warn("attachment upload failed",
					zap.String("user_id", ident.UserID),
					zap.String("file_name", files[i].Name),
					zap.Error(err),
				)
				results[i].Err = fmt.Errorf("%w: uploading %s: %v", domain.ErrProvider, files[i].Name, err)
				s.metrics.Upload(metrics.OutcomeError)
				return nil
			}
			results[i].File = &file
			s.metrics.Upload(metrics.OutcomeOK)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

func (s *AttachmentService) put(ctx context.Context, ownerID, threadID string, f FileInput, contentType string) (UploadedFile, error) {
	fileID := uuid.NewString()
	path := storage.AttachmentPath(ownerID, threadID, fileID, f.Name)
	url, err := s.store.Put(ctx, path, contentType, f.Data)
	if err != nil {
		return UploadedFile{}, err
	}
	return UploadedFile{
		URL:      url,
		FileName: f.Name,
		FileID:   fileID,
		FileSize: int64(len(f.Data)),
		FileType: contentType,
		Path:     path,
	}, nil
}

// Delete borra un blob siempre que esté bajo el namespace del usuario.
func (s *AttachmentService) Delete(ctx context.Context, ident domain.Identity, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%w: path is required", domain.ErrValidation)
	}
	if !storage.OwnedBy(path, ident.UserID) {
		return ErrPathForbidden
	}
	if s.store == nil {
		return ErrStorageDisabled
	}
	if err := s.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("%w: deleting attachment: %v", domain.ErrProvider, err)
	}
	return nil
}

// ValidateFile devuelve el content type efectivo o ErrTooLarge / ErrUnsupportedType.
// Si el tipo declarado falta o es genérico se detecta por contenido.
func ValidateFile(f FileInput) (string, error) {
	ct := normalizeContentType(f.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		ct = normalizeContentType(mimetype.Detect(f.Data).String())
	}
	if !allowedAttachmentTypes[ct] {
		return "", ErrUnsupportedType
	}
	size := f.Size
	if n := int64(len(f.Data)); n > size {
		size = n
	}
	if size > MaxAttachmentBytes {
		return "", ErrTooLarge
	}
	return ct, nil
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		ct = parsed
	}
	return strings.ToLower(ct)
}
