package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

const maxDescriptionLength = 500

// 拡張子と MIME の許可リスト。どちらか一方でも外れる場合は拒否します。
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".doc":  true,
	".docx": true,
}

var allowedContentTypes = map[string]bool{
	"application/pdf":    true,
	"image/png":          true,
	"image/jpeg":         true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

var unsafeDescriptionMarkers = []string{"<script", "javascript:", "onerror=", "onload="}

// Service はドキュメントのアップロード・完了判定・アーカイブをまとめます。
// プライマリストアの書き込み失敗時はフォールバックストアを 1 回だけ試行します。
type Service struct {
	repo          Repository
	primary       BlobStore
	fallback      BlobStore
	audits        audit.Repository
	clock         Clock
	maxUploadSize int64
}

// UseCase はドキュメントユースケースの公開インターフェースです。
type UseCase interface {
	Upload(ctx context.Context, in UploadInput) (*Document, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]*Document, error)
	MissingRequiredDocuments(ctx context.Context, employeeID string) (int, error)
	ArchiveAll(ctx context.Context, employeeID string) error
}

// NewService は Service を生成します。fallback は nil でも構いません。
func NewService(repo Repository, primary, fallback BlobStore, audits audit.Repository, clock Clock, maxUploadSize int64) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if maxUploadSize <= 0 {
		maxUploadSize = 10 << 20
	}
	return &Service{
		repo:          repo,
		primary:       primary,
		fallback:      fallback,
		audits:        audits,
		clock:         clock,
		maxUploadSize: maxUploadSize,
	}
}

// UploadInput はアップロード時の入力です。
type UploadInput struct {
	EmployeeID  string
	Type        Type
	FileName    string
	ContentType string
	Data        []byte
	Description string
	UploadedBy  string
}

// Upload は検証済みのドキュメントを保存します。
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Document, error) {
	if !IsValidType(in.Type) {
		return nil, fmt.Errorf("%q: %w", in.Type, ErrInvalidType)
	}

	fileName, err := sanitizeFileName(in.FileName)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(path.Ext(fileName))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("extension %q: %w", ext, ErrDisallowedContentType)
	}
	if !allowedContentTypes[strings.ToLower(in.ContentType)] {
		return nil, fmt.Errorf("mime %q: %w", in.ContentType, ErrDisallowedContentType)
	}

	if int64(len(in.Data)) > s.maxUploadSize {
		return nil, fmt.Errorf("%d bytes (limit %d): %w", len(in.Data), s.maxUploadSize, ErrFileTooLarge)
	}

	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(in.Data)
	key := hex.EncodeToString(sum[:]) + ext

	storageType, err := s.store(ctx, key, in.Data)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	created, err := s.repo.Create(ctx, &Document{
		EmployeeID:  in.EmployeeID,
		Type:        in.Type,
		FileName:    fileName,
		FileSize:    int64(len(in.Data)),
		ContentType: in.ContentType,
		StorageType: storageType,
		StorageKey:  key,
		Description: strings.TrimSpace(in.Description),
		UploadedBy:  in.UploadedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.audits.Record(ctx, &audit.Entry{
		EntityType:  "document",
		EntityID:    created.ID,
		Action:      audit.ActionUpload,
		PerformedBy: in.UploadedBy,
		Details:     map[string]any{"employee_id": in.EmployeeID, "type": string(in.Type), "file_name": fileName},
		CreatedAt:   now,
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// ListByEmployee は社員のドキュメント一覧を返します。
func (s *Service) ListByEmployee(ctx context.Context, employeeID string) ([]*Document, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

// MissingRequiredDocuments は未提出の必須ドキュメント数を永続化済みデータから導出します。
// クライアント申告の完了フラグは一切信用しません。
func (s *Service) MissingRequiredDocuments(ctx context.Context, employeeID string) (int, error) {
	types, err := s.repo.DistinctUnarchivedTypes(ctx, employeeID)
	if err != nil {
		return 0, err
	}

	uploaded := make(map[Type]bool, len(types))
	for _, t := range types {
		uploaded[t] = true
	}

	missing := 0
	for _, required := range RequiredTypes {
		if !uploaded[required] {
			missing++
		}
	}
	return missing, nil
}

// ArchiveAll は社員のドキュメントを一括アーカイブします。却下遷移と同一トランザクションで呼ばれます。
func (s *Service) ArchiveAll(ctx context.Context, employeeID string) error {
	return s.repo.ArchiveByEmployee(ctx, employeeID)
}

func (s *Service) store(ctx context.Context, key string, data []byte) (StorageType, error) {
	primaryErr := s.primary.Put(ctx, key, data)
	if primaryErr == nil {
		return StorageLocal, nil
	}

	if s.fallback == nil {
		return "", fmt.Errorf("%w: %v", ErrStorageFailed, primaryErr)
	}

	log.Printf("document: primary store failed, trying fallback: %v", primaryErr)
	if err := s.fallback.Put(ctx, key, data); err != nil {
		return "", fmt.Errorf("%w: primary: %v, fallback: %v", ErrStorageFailed, primaryErr, err)
	}
	return StorageRemote, nil
}

func sanitizeFileName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidFileName
	}
	if strings.ContainsAny(trimmed, "/\\") || strings.Contains(trimmed, "..") {
		return "", ErrInvalidFileName
	}
	for _, r := range trimmed {
		if r < 0x20 || r == 0x7f {
			return "", ErrInvalidFileName
		}
	}
	return trimmed, nil
}

func validateDescription(desc string) error {
	if len(desc) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	lower := strings.ToLower(desc)
	for _, marker := range unsafeDescriptionMarkers {
		if strings.Contains(lower, marker) {
			return ErrUnsafeDescription
		}
	}
	return nil
}
