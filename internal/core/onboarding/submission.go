package onboarding

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/employee"
)

// submissionPayload は検証済みドラフトを型付きで受けるための中間表現です。
// ドラフトの JSON キー (camelCase) をそのまま受け取ります。
type submissionPayload struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	SSN         string `json:"ssn"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`

	WorkEmail string `json:"workEmail"`
	NPI       string `json:"npi"`
	Position  string `json:"position"`
	HireDate  string `json:"hireDate"`

	Educations []struct {
		Institution    string `json:"institution"`
		Degree         string `json:"degree"`
		FieldOfStudy   string `json:"fieldOfStudy"`
		GraduationYear int    `json:"graduationYear"`
	} `json:"educations"`

	Employments []struct {
		Employer  string `json:"employer"`
		Title     string `json:"title"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"employments"`

	StateLicenses []struct {
		State          string `json:"state"`
		LicenseNumber  string `json:"licenseNumber"`
		ExpirationDate string `json:"expirationDate"`
	} `json:"stateLicenses"`

	DEALicenses []struct {
		Number         string `json:"number"`
		ExpirationDate string `json:"expirationDate"`
	} `json:"deaLicenses"`

	BoardCertifications []struct {
		Board               string `json:"board"`
		CertificationNumber string `json:"certificationNumber"`
		ExpirationDate      string `json:"expirationDate"`
	} `json:"boardCertifications"`

	PeerReferences []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"peerReferences"`

	EmergencyContacts []struct {
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
		Phone        string `json:"phone"`
	} `json:"emergencyContacts"`
}

// decodeSubmission はドラフトのマップ表現を JSON 経由で型付き表現へ変換します。
// スキーマ検証済みのデータに対してのみ呼ばれます。
func decodeSubmission(data map[string]any) (*submissionPayload, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode draft: %w", err)
	}

	var payload submissionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}

	return &payload, nil
}

// applyRoot は提出データを社員ルートへ書き込みます。検証ツール用のプレースホルダー
// NPI は破棄されます。
func applyRoot(e *employee.Employee, p *submissionPayload, now time.Time) {
	e.FirstName = p.FirstName
	e.LastName = p.LastName
	e.DateOfBirth = parseDate(p.DateOfBirth)
	e.SSN = p.SSN
	e.Email = p.Email
	e.Phone = p.Phone
	e.Address = p.Address

	e.WorkEmail = p.WorkEmail
	e.Position = p.Position
	e.HireDate = parseDate(p.HireDate)

	e.NPI = nil
	if p.NPI != "" && p.NPI != placeholderNPI {
		npi := p.NPI
		e.NPI = &npi
	}

	e.UpdatedAt = now
}

// collections は提出データから子コレクション全体を組み立てます。
func (p *submissionPayload) collections(employeeID string) *employee.Collections {
	c := &employee.Collections{}

	for _, edu := range p.Educations {
		c.Educations = append(c.Educations, employee.Education{
			EmployeeID:     employeeID,
			Institution:    edu.Institution,
			Degree:         edu.Degree,
			FieldOfStudy:   edu.FieldOfStudy,
			GraduationYear: edu.GraduationYear,
		})
	}

	for _, emp := range p.Employments {
		c.Employments = append(c.Employments, employee.Employment{
			EmployeeID: employeeID,
			Employer:   emp.Employer,
			Title:      emp.Title,
			StartDate:  parseDate(emp.StartDate),
			EndDate:    parseDate(emp.EndDate),
		})
	}

	for _, lic := range p.StateLicenses {
		c.StateLicenses = append(c.StateLicenses, employee.StateLicense{
			EmployeeID:     employeeID,
			State:          lic.State,
			LicenseNumber:  lic.LicenseNumber,
			ExpirationDate: parseDateValue(lic.ExpirationDate),
		})
	}

	for _, lic := range p.DEALicenses {
		c.DEALicenses = append(c.DEALicenses, employee.DEALicense{
			EmployeeID:     employeeID,
			Number:         lic.Number,
			ExpirationDate: parseDateValue(lic.ExpirationDate),
		})
	}

	for _, cert := range p.BoardCertifications {
		c.BoardCertifications = append(c.BoardCertifications, employee.BoardCertification{
			EmployeeID:          employeeID,
			Board:               cert.Board,
			CertificationNumber: cert.CertificationNumber,
			ExpirationDate:      parseDateValue(cert.ExpirationDate),
		})
	}

	for _, ref := range p.PeerReferences {
		c.PeerReferences = append(c.PeerReferences, employee.PeerReference{
			EmployeeID: employeeID,
			Name:       ref.Name,
			Email:      ref.Email,
			Phone:      ref.Phone,
		})
	}

	for _, contact := range p.EmergencyContacts {
		c.EmergencyContacts = append(c.EmergencyContacts, employee.EmergencyContact{
			EmployeeID:   employeeID,
			Name:         contact.Name,
			Relationship: contact.Relationship,
			Phone:        contact.Phone,
		})
	}

	return c
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil
	}
	return &t
}

func parseDateValue(raw string) time.Time {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
