package employee

import (
	"strings"
	"time"
)

// Status は社員のライフサイクル状態を表します。active と rejected が終端状態です。
type Status string

const (
	StatusProspective       Status = "prospective"
	StatusPendingApproval   Status = "pending_approval"
	StatusInformationNeeded Status = "information_needed"
	StatusActive            Status = "active"
	StatusRejected          Status = "rejected"
	StatusInactive          Status = "inactive"
)

// IsTerminal は遷移不能な終端状態かどうかを返します。
func (s Status) IsTerminal() bool {
	return s == StatusActive || s == StatusRejected
}

// Employee は社員集約のルートです。SSN は生値で保持され、読み取り経路では必ず View を介してマスクされます。
type Employee struct {
	ID          string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	SSN         string
	Email       string
	Phone       string
	Address     string

	WorkEmail string
	NPI       *string
	Position  string
	HireDate  *time.Time

	Status                   Status
	BackgroundCheckCompleted bool

	ApprovedBy       *string
	ApprovedAt       *time.Time
	ApprovalComments string

	RejectedBy      *string
	RejectedAt      *time.Time
	RejectionReason string

	InfoRequestedAt    *time.Time
	InfoRequestedItems []string
	InfoDueDate        *time.Time
	InfoMessage        string

	AccountID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Education は学歴エントリです。
type Education struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	Institution    string `json:"institution"`
	Degree         string `json:"degree"`
	FieldOfStudy   string `json:"field_of_study,omitempty"`
	GraduationYear int    `json:"graduation_year"`
}

// Employment は職歴エントリです。
type Employment struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Employer   string     `json:"employer"`
	Title      string     `json:"title"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// StateLicense は州免許です。Status は有効期限から導出されるキャッシュ値です。
type StateLicense struct {
	ID             string    `json:"id"`
	EmployeeID     string    `json:"employee_id"`
	State          string    `json:"state"`
	LicenseNumber  string    `json:"license_number"`
	ExpirationDate time.Time `json:"expiration_date"`
	Status         string    `json:"status,omitempty"`
}

// DEALicense は DEA 登録です。
type DEALicense struct {
	ID             string    `json:"id"`
	EmployeeID     string    `json:"employee_id"`
	Number         string    `json:"number"`
	ExpirationDate time.Time `json:"expiration_date"`
	Status         string    `json:"status,omitempty"`
}

// BoardCertification は専門医認定です。
type BoardCertification struct {
	ID                  string    `json:"id"`
	EmployeeID          string    `json:"employee_id"`
	Board               string    `json:"board"`
	CertificationNumber string    `json:"certification_number"`
	ExpirationDate      time.Time `json:"expiration_date"`
	Status              string    `json:"status,omitempty"`
}

// PeerReference は推薦者情報です。
type PeerReference struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// EmergencyContact は緊急連絡先です。
type EmergencyContact struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// TaxForm は税務フォームの進捗です。
type TaxForm struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employee_id"`
	FormType    string     `json:"form_type"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Training は研修受講記録です。
type Training struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employee_id"`
	Name        string     `json:"name"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// PayerEnrollment は保険者登録です。
type PayerEnrollment struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employee_id"`
	Payer      string     `json:"payer"`
	Status     string     `json:"status,omitempty"`
	EnrolledAt *time.Time `json:"enrolled_at,omitempty"`
}

// Collections は社員が排他的に所有する子エンティティ群です。
type Collections struct {
	Educations          []Education          `json:"educations"`
	Employments         []Employment         `json:"employments"`
	StateLicenses       []StateLicense       `json:"state_licenses"`
	DEALicenses         []DEALicense         `json:"dea_licenses"`
	BoardCertifications []BoardCertification `json:"board_certifications"`
	PeerReferences      []PeerReference      `json:"peer_references"`
	EmergencyContacts   []EmergencyContact   `json:"emergency_contacts"`
	TaxForms            []TaxForm            `json:"tax_forms"`
	Trainings           []Training           `json:"trainings"`
	PayerEnrollments    []PayerEnrollment    `json:"payer_enrollments"`
}

// MaskSSN は SSN を下 4 桁のみ可視の形式に変換します。
func MaskSSN(ssn string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ssn)
	if len(digits) < 4 {
		if digits == "" {
			return ""
		}
		return "***-**-****"
	}
	return "***-**-" + digits[len(digits)-4:]
}

// View は API へ返却する社員表現です。SSN は常にマスクされます。
type View struct {
	ID                 string     `json:"id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	DateOfBirth        *time.Time `json:"date_of_birth,omitempty"`
	SSN                string     `json:"ssn,omitempty"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Address            string     `json:"address,omitempty"`
	WorkEmail          string     `json:"work_email"`
	NPI                *string    `json:"npi,omitempty"`
	Position           string     `json:"position,omitempty"`
	HireDate           *time.Time `json:"hire_date,omitempty"`
	Status             Status     `json:"status"`
	ApprovedBy         *string    `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	ApprovalComments   string     `json:"approval_comments,omitempty"`
	RejectedBy         *string    `json:"rejected_by,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty"`
	InfoRequestedAt    *time.Time `json:"info_requested_at,omitempty"`
	InfoRequestedItems []string   `json:"info_requested_items,omitempty"`
	InfoDueDate        *time.Time `json:"info_due_date,omitempty"`
	InfoMessage        string     `json:"info_message,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ToView はマスク済み表現へ変換します。
func (e *Employee) ToView() *View {
	if e == nil {
		return nil
	}
	return &View{
		ID:                 e.ID,
		FirstName:          e.FirstName,
		LastName:           e.LastName,
		DateOfBirth:        e.DateOfBirth,
		SSN:                MaskSSN(e.SSN),
		Email:              e.Email,
		Phone:              e.Phone,
		Address:            e.Address,
		WorkEmail:          e.WorkEmail,
		NPI:                e.NPI,
		Position:           e.Position,
		HireDate:           e.HireDate,
		Status:             e.Status,
		ApprovedBy:         e.ApprovedBy,
		ApprovedAt:         e.ApprovedAt,
		ApprovalComments:   e.ApprovalComments,
		RejectedBy:         e.RejectedBy,
		RejectedAt:         e.RejectedAt,
		RejectionReason:    e.RejectionReason,
		InfoRequestedAt:    e.InfoRequestedAt,
		InfoRequestedItems: e.InfoRequestedItems,
		InfoDueDate:        e.InfoDueDate,
		InfoMessage:        e.InfoMessage,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}
