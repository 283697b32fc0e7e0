package document

import "errors"

var (
	// ErrDocumentNotFound はドキュメントが存在しない場合に返却されます。
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidType は未定義のドキュメント種別に返却されます。
	ErrInvalidType = errors.New("invalid document type")
	// ErrInvalidFileName はファイル名が不正な場合に返却されます。
	ErrInvalidFileName = errors.New("invalid file name")
	// ErrFileTooLarge はサイズ上限超過時に返却されます。
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")
	// ErrDisallowedContentType は許可されない MIME/拡張子に返却されます。
	ErrDisallowedContentType = errors.New("disallowed content type")
	// ErrDescriptionTooLong は説明文の長さ上限超過時に返却されます。
	ErrDescriptionTooLong = errors.New("description too long")
	// ErrUnsafeDescription はスクリプト断片を含む説明文に返却されます。
	ErrUnsafeDescription = errors.New("description contains unsafe content")
	// ErrStorageFailed は全ての保存バックエンドが失敗した場合に返却されます。
	ErrStorageFailed = errors.New("document storage failed")
)
