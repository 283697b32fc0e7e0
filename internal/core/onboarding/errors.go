package onboarding

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDraftNotFound はドラフトが存在しない場合に返却されます。
	ErrDraftNotFound = errors.New("onboarding draft not found")
	// ErrUnknownStep は未定義のステップ番号に返却されます。
	ErrUnknownStep = errors.New("unknown onboarding step")
	// ErrAlreadySubmitted は提出済み社員への編集・再提出時に返却されます。
	ErrAlreadySubmitted = errors.New("onboarding already submitted")
	// ErrNotSubmittable は提出可能な状態にない社員への提出時に返却されます。
	ErrNotSubmittable = errors.New("employee is not in a submittable state")
	// ErrDocumentsIncomplete は必須ドキュメント未提出時に返却されます。残数付きでラップされます。
	ErrDocumentsIncomplete = errors.New("required documents are incomplete")
	// ErrFormsIncomplete は必須フォーム未完了時に返却されます。残数付きでラップされます。
	ErrFormsIncomplete = errors.New("required forms are incomplete")
	// ErrFormNotFound は未定義のフォーム種別に返却されます。
	ErrFormNotFound = errors.New("required form not found")
)

// FieldError は 1 フィールド分の検証エラーです。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors はフィールド単位の検証エラー集合です。空でない場合のみ error として扱います。
type FieldErrors []FieldError

// Error は error インターフェースを満たします。
func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation passed"
	}
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add はエラーを追記します。
func (e *FieldErrors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// AsFieldErrors は err が FieldErrors の場合に取り出します。
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
