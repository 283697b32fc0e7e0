package document

import "time"

// Type はドキュメント種別の閉じた列挙です。
type Type string

const (
	TypeGovernmentID       Type = "government_id"
	TypeResume             Type = "resume"
	TypeDegreeCertificate  Type = "degree_certificate"
	TypeLicenseCopy        Type = "license_copy"
	TypeMalpracticeHistory Type = "malpractice_history"
	TypeVoidedCheck        Type = "voided_check"
	TypeOther              Type = "other"
)

// RequiredTypes はオンボーディング完了に必須の種別です。
var RequiredTypes = []Type{
	TypeGovernmentID,
	TypeResume,
	TypeDegreeCertificate,
	TypeLicenseCopy,
}

// IsValidType は種別値の妥当性を返します。
func IsValidType(t Type) bool {
	switch t {
	case TypeGovernmentID, TypeResume, TypeDegreeCertificate, TypeLicenseCopy, TypeMalpracticeHistory, TypeVoidedCheck, TypeOther:
		return true
	default:
		return false
	}
}

// StorageType は保存先バックエンドの種別です。
type StorageType string

const (
	StorageLocal  StorageType = "local"
	StorageRemote StorageType = "remote"
)

// Document は社員が所有するドキュメントのメタデータです。
type Document struct {
	ID          string
	EmployeeID  string
	Type        Type
	FileName    string
	FileSize    int64
	ContentType string
	StorageType StorageType
	StorageKey  string
	Description string
	Archived    bool
	UploadedBy  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
