package onboarding

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// GateKind は完了フラグで制御されるステップの種別です。スキーマ検証の代わりに
// 永続化済みデータから導出された完了状態で通過可否が決まります。
type GateKind int

const (
	GateNone GateKind = iota
	GateDocuments
	GateForms
)

// Step は 1 ステップ分の記述子です。Validate が nil のステップはゲート制御です。
type Step struct {
	Number   int
	ID       string
	Validate func(data map[string]any) FieldErrors
	Gate     GateKind
}

// Steps はウィザードの全ステップを順序付きで保持するディスパッチ表です。
var Steps = []Step{
	{Number: 1, ID: "personal", Validate: validatePersonal},
	{Number: 2, ID: "professional", Validate: validateProfessional},
	{Number: 3, ID: "educations", Validate: validateEducations},
	{Number: 4, ID: "employments", Validate: validateEmployments},
	{Number: 5, ID: "licenses", Validate: validateLicenses},
	{Number: 6, ID: "certifications", Validate: validateCertifications},
	{Number: 7, ID: "documents", Gate: GateDocuments},
	{Number: 8, ID: "forms", Gate: GateForms},
}

// StepByNumber はステップ番号で記述子を引きます。
func StepByNumber(n int) (Step, bool) {
	for _, s := range Steps {
		if s.Number == n {
			return s, true
		}
	}
	return Step{}, false
}

const dateLayout = "2006-01-02"

// placeholderNPI はテスト用のセンチネル値で、提出時に破棄されます。
const placeholderNPI = "0000000000"

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9()+\-. ]+$`)
	npiPattern   = regexp.MustCompile(`^[0-9]{10}$`)
	ssnPattern   = regexp.MustCompile(`^[0-9]{9}$`)
)

func validatePersonal(data map[string]any) FieldErrors {
	var errs FieldErrors

	requireString(&errs, data, "firstName", "first name is required")
	requireString(&errs, data, "lastName", "last name is required")

	if dob := stringField(data, "dateOfBirth"); dob == "" {
		errs.Add("dateOfBirth", "date of birth is required")
	} else if _, err := time.Parse(dateLayout, dob); err != nil {
		errs.Add("dateOfBirth", "date of birth must be formatted YYYY-MM-DD")
	}

	if ssn := digitsOnly(stringField(data, "ssn")); ssn == "" {
		errs.Add("ssn", "ssn is required")
	} else if !ssnPattern.MatchString(ssn) {
		errs.Add("ssn", "ssn must contain exactly 9 digits")
	}

	if email := stringField(data, "email"); email == "" {
		errs.Add("email", "email is required")
	} else if !emailPattern.MatchString(email) {
		errs.Add("email", "email is not valid")
	}

	if phone := stringField(data, "phone"); phone == "" {
		errs.Add("phone", "phone is required")
	} else if !phonePattern.MatchString(phone) || len(digitsOnly(phone)) < 7 {
		errs.Add("phone", "phone may contain only digits and standard punctuation")
	}

	return errs
}

func validateProfessional(data map[string]any) FieldErrors {
	var errs FieldErrors

	if workEmail := stringField(data, "workEmail"); workEmail == "" {
		errs.Add("workEmail", "work email is required")
	} else if !emailPattern.MatchString(workEmail) {
		errs.Add("workEmail", "work email is not valid")
	}

	requireString(&errs, data, "position", "position is required")

	if hireDate := stringField(data, "hireDate"); hireDate == "" {
		errs.Add("hireDate", "hire date is required")
	} else if _, err := time.Parse(dateLayout, hireDate); err != nil {
		errs.Add("hireDate", "hire date must be formatted YYYY-MM-DD")
	}

	// NPI は任意項目。存在する場合のみ 10 桁を強制します。
	if npi := stringField(data, "npi"); npi != "" && !npiPattern.MatchString(npi) {
		errs.Add("npi", "npi must contain exactly 10 digits")
	}

	return errs
}

func validateEducations(data map[string]any) FieldErrors {
	var errs FieldErrors

	entries := listField(data, "educations")
	if len(entries) == 0 {
		errs.Add("educations", "at least one education entry is required")
		return errs
	}

	for i, entry := range entries {
		prefix := fmt.Sprintf("educations[%d]", i)
		if stringField(entry, "institution") == "" {
			errs.Add(prefix+".institution", "institution is required")
		}
		if stringField(entry, "degree") == "" {
			errs.Add(prefix+".degree", "degree is required")
		}
		if year := intField(entry, "graduationYear"); year <= 0 {
			errs.Add(prefix+".graduationYear", "graduation year is required")
		}
	}

	return errs
}

func validateEmployments(data map[string]any) FieldErrors {
	var errs FieldErrors

	// 職歴は 0 件を許容します。存在するエントリのみ検証します。
	for i, entry := range listField(data, "employments") {
		prefix := fmt.Sprintf("employments[%d]", i)
		if stringField(entry, "employer") == "" {
			errs.Add(prefix+".employer", "employer is required")
		}
		if stringField(entry, "title") == "" {
			errs.Add(prefix+".title", "title is required")
		}
	}

	return errs
}

func validateLicenses(data map[string]any) FieldErrors {
	var errs FieldErrors

	for i, entry := range listField(data, "stateLicenses") {
		prefix := fmt.Sprintf("stateLicenses[%d]", i)
		if stringField(entry, "licenseNumber") == "" {
			errs.Add(prefix+".licenseNumber", "license number is required")
		}
		if stringField(entry, "state") == "" {
			errs.Add(prefix+".state", "state is required")
		}
		requireDate(&errs, entry, "expirationDate", prefix+".expirationDate")
	}

	for i, entry := range listField(data, "deaLicenses") {
		prefix := fmt.Sprintf("deaLicenses[%d]", i)
		if stringField(entry, "number") == "" {
			errs.Add(prefix+".number", "dea number is required")
		}
		requireDate(&errs, entry, "expirationDate", prefix+".expirationDate")
	}

	return errs
}

func validateCertifications(data map[string]any) FieldErrors {
	var errs FieldErrors

	for i, entry := range listField(data, "boardCertifications") {
		prefix := fmt.Sprintf("boardCertifications[%d]", i)
		if stringField(entry, "board") == "" {
			errs.Add(prefix+".board", "board is required")
		}
		if stringField(entry, "certificationNumber") == "" {
			errs.Add(prefix+".certificationNumber", "certification number is required")
		}
		requireDate(&errs, entry, "expirationDate", prefix+".expirationDate")
	}

	return errs
}

func requireString(errs *FieldErrors, data map[string]any, key, message string) {
	if stringField(data, key) == "" {
		errs.Add(key, message)
	}
}

func requireDate(errs *FieldErrors, data map[string]any, key, field string) {
	if raw := stringField(data, key); raw == "" {
		errs.Add(field, "expiration date is required")
	} else if _, err := time.Parse(dateLayout, raw); err != nil {
		errs.Add(field, "expiration date must be formatted YYYY-MM-DD")
	}
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	s, _ := data[key].(string)
	return strings.TrimSpace(s)
}

func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func listField(data map[string]any, key string) []map[string]any {
	if data == nil {
		return nil
	}
	raw, ok := data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
