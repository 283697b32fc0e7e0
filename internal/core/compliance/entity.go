package compliance

import "time"

// LicenseKind は有効期限を持つ資格の種別です。
type LicenseKind string

const (
	KindStateLicense       LicenseKind = "state_license"
	KindDEALicense         LicenseKind = "dea_license"
	KindBoardCertification LicenseKind = "board_certification"
)

// LicenseRecord は種別をまたいだ資格の統一ビューです。
type LicenseRecord struct {
	ID             string      `json:"id"`
	Kind           LicenseKind `json:"kind"`
	EmployeeID     string      `json:"employee_id"`
	EmployeeName   string      `json:"employee_name"`
	Identifier     string      `json:"identifier"`
	State          string      `json:"state,omitempty"`
	ExpirationDate time.Time   `json:"expiration_date"`
	Status         string      `json:"status"`
}

// Bucket は有効期限の分類です。
type Bucket string

const (
	BucketExpired  Bucket = "expired"
	BucketWithin30 Bucket = "within_30"
	BucketWithin60 Bucket = "within_60"
	BucketWithin90 Bucket = "within_90"
	BucketOK       Bucket = "ok"
)

// DaysUntil は now の日付から expiration の日付までの日数を返します。
// 期限切れは負数になります。
func DaysUntil(expiration, now time.Time) int {
	exp := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24)
}

// Classify は有効期限を重複しない区分へ分類します。各窓の上限は両端含みで、
// within_60 は 31〜60 日、within_90 は 61〜90 日を指します。
func Classify(expiration, now time.Time) Bucket {
	days := DaysUntil(expiration, now)
	switch {
	case days < 0:
		return BucketExpired
	case days <= 30:
		return BucketWithin30
	case days <= 60:
		return BucketWithin60
	case days <= 90:
		return BucketWithin90
	default:
		return BucketOK
	}
}

// Severity はアラートの重大度です。
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// SeverityFor は残日数から重大度を導出します。期限切れと残 15 日以内は high、
// 残 30 日以内は medium、それ以外の監視対象は low です。
func SeverityFor(days int) Severity {
	switch {
	case days < 0 || days <= 15:
		return SeverityHigh
	case days <= 30:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Report は期限区分ごとの資格一覧です。
type Report struct {
	Expired  []LicenseRecord `json:"expired"`
	Within30 []LicenseRecord `json:"within_30"`
	Within60 []LicenseRecord `json:"within_60"`
	Within90 []LicenseRecord `json:"within_90"`
}

// Dashboard はコンプライアンス状況の集計です。Score は有効資格の割合 (0〜100) です。
type Dashboard struct {
	TotalLicenses  int `json:"total_licenses"`
	ActiveLicenses int `json:"active_licenses"`
	Expired        int `json:"expired"`
	Within30       int `json:"expiring_within_30"`
	Within60       int `json:"expiring_within_60"`
	Within90       int `json:"expiring_within_90"`
	Score          int `json:"compliance_score"`
}

// Alert は 1 件の失効警告です。
type Alert struct {
	Severity       Severity    `json:"severity"`
	Kind           LicenseKind `json:"kind"`
	EmployeeID     string      `json:"employee_id"`
	EmployeeName   string      `json:"employee_name"`
	Identifier     string      `json:"identifier"`
	ExpirationDate time.Time   `json:"expiration_date"`
	DaysUntil      int         `json:"days_until"`
	Message        string      `json:"message"`
}
