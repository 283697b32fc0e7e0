package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/adapters/http/middleware"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/document"
)

// DocumentUseCase はドキュメントハンドラーが依存するユースケースです。
type DocumentUseCase interface {
	Upload(ctx context.Context, in document.UploadInput) (*document.Document, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*document.Document, error)
	MissingRequiredDocuments(ctx context.Context, employeeID string) (int, error)
}

// DocumentHandler はドキュメントアップロードの HTTP ハンドラーです。
type DocumentHandler struct {
	documents DocumentUseCase
	maxSize   int64
}

// NewDocumentHandler は DocumentHandler を生成します。
func NewDocumentHandler(documents DocumentUseCase, maxSize int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxSize: maxSize}
}

type documentView struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
	StorageType string `json:"storage_type"`
	Description string `json:"description,omitempty"`
	Archived    bool   `json:"archived"`
	UploadedBy  string `json:"uploaded_by"`
}

// Upload は multipart フォームからドキュメントを受け取り保存します。
// フォームフィールド: file, type, description。
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if h.maxSize > 0 && fileHeader.Size > h.maxSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": document.ErrFileTooLarge.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}

	actor, _ := middleware.ActorFrom(c)
	uploaded, err := h.documents.Upload(c.Request.Context(), document.UploadInput{
		EmployeeID:  c.Param("id"),
		Type:        document.Type(c.PostForm("type")),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		Description: c.PostForm("description"),
		UploadedBy:  actor.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toDocumentView(uploaded))
}

// List は社員のドキュメント一覧と必須種別の残数を返します。
func (h *DocumentHandler) List(c *gin.Context) {
	employeeID := c.Param("id")

	docs, err := h.documents.ListByEmployee(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, err)
		return
	}

	missing, err := h.documents.MissingRequiredDocuments(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]documentView, 0, len(docs))
	for _, d := range docs {
		views = append(views, toDocumentView(d))
	}
	c.JSON(http.StatusOK, gin.H{
		"documents":        views,
		"missing_required": missing,
	})
}

func toDocumentView(d *document.Document) documentView {
	return documentView{
		ID:          d.ID,
		Type:        string(d.Type),
		FileName:    d.FileName,
		FileSize:    d.FileSize,
		ContentType: d.ContentType,
		StorageType: string(d.StorageType),
		Description: d.Description,
		Archived:    d.Archived,
		UploadedBy:  d.UploadedBy,
	}
}
