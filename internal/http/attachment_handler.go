package http

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"saarthi-chat/internal/service"
)

// AttachmentHandler expone el Attachment Uploader.
type AttachmentHandler struct {
	logger      *zap.Logger
	attachments *service.AttachmentService
}

func NewAttachmentHandler(logger *zap.Logger, attachments *service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{logger: logger, attachments: attachments}
}

type uploadResponseItem struct {
	FileName string                `json:"fileName"`
	File     *service.UploadedFile `json:"file,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// Upload maneja POST /api/attachments (multipart, campo "files" y threadId opcional).
// Cada archivo trae su propio resultado.
func (h *AttachmentHandler) Upload(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.logger.Warn("invalid upload request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	inputs := make([]service.FileInput, 0, len(headers))
	for _, fh := range headers {
		in, err := readUpload(fh)
		if err != nil {
			h.logger.Warn("could not read uploaded file", zap.String("file_name", fh.Filename), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read " + fh.Filename})
			return
		}
		inputs = append(inputs, in)
	}

	results, err := h.attachments.Upload(c.Request.Context(), ident, c.PostForm("threadId"), inputs)
	if err != nil {
		respondError(c, h.logger, err, "could not upload files")
		return
	}
	items := make([]uploadResponseItem, len(results))
	for i, r := range results {
		items[i] = uploadResponseItem{FileName: inputs[i].Name, File: r.File}
		if r.Err != nil {
			items[i].Error = errorMessage(r.Err, errorStatus(r.Err), "upload failed")
		}
	}
	c.JSON(http.StatusOK, gin.H{"files": items})
}

// Delete maneja DELETE /api/attachments?path=...
func (h *AttachmentHandler) Delete(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	if err := h.attachments.Delete(c.Request.Context(), ident, c.Query("path")); err != nil {
		respondError(c, h.logger, err, "could not delete attachment")
		return
	}
	c.Status(http.StatusNoContent)
}

// readUpload no lee el contenido de archivos que ya exceden el límite; el
// servicio los rechaza por tamaño declarado.
func readUpload(fh *multipart.FileHeader) (service.FileInput, error) {
	in := service.FileInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
	}
	if fh.Size > service.MaxAttachmentBytes {
		return in, nil
	}
	f, err := fh.Open()
	if err != nil {
		return service.FileInput{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, service.MaxAttachmentBytes+1))
	if err != nil {
		return service.FileInput{}, err
	}
	in.Data = data
	return in, nil
}
