package onboarding

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/employee"
)

type stubClock struct {
	now time.Time
}

func (c stubClock) Now() time.Time {
	return c.now
}

type fakeDraftRepo struct {
	drafts map[string]*Draft
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: make(map[string]*Draft)}
}

func (r *fakeDraftRepo) Get(_ context.Context, employeeID string) (*Draft, error) {
	d, ok := r.drafts[employeeID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDraftRepo) Save(_ context.Context, d *Draft) (*Draft, error) {
	copied := *d
	r.drafts[d.EmployeeID] = &copied
	result := copied
	return &result, nil
}

func (r *fakeDraftRepo) Delete(_ context.Context, employeeID string) error {
	delete(r.drafts, employeeID)
	return nil
}

type fakeFormRepo struct {
	forms map[string]map[string]bool
}

func newFakeFormRepo() *fakeFormRepo {
	return &fakeFormRepo{forms: make(map[string]map[string]bool)}
}

func (r *fakeFormRepo) Seed(_ context.Context, employeeID string, formTypes []string, _ time.Time) error {
	if r.forms[employeeID] == nil {
		r.forms[employeeID] = make(map[string]bool)
	}
	for _, ft := range formTypes {
		if _, ok := r.forms[employeeID][ft]; !ok {
			r.forms[employeeID][ft] = false
		}
	}
	return nil
}

func (r *fakeFormRepo) List(_ context.Context, employeeID string) ([]*RequiredForm, error) {
	var out []*RequiredForm
	for _, ft := range RequiredFormTypes {
		completed, ok := r.forms[employeeID][ft]
		if !ok {
			continue
		}
		out = append(out, &RequiredForm{EmployeeID: employeeID, FormType: ft, Completed: completed})
	}
	return out, nil
}

func (r *fakeFormRepo) PendingCount(_ context.Context, employeeID string) (int, error) {
	count := 0
	for _, completed := range r.forms[employeeID] {
		if !completed {
			count++
		}
	}
	return count, nil
}

func (r *fakeFormRepo) Complete(_ context.Context, employeeID, formType string, _ time.Time) error {
	byType, ok := r.forms[employeeID]
	if !ok {
		return ErrFormNotFound
	}
	if _, ok := byType[formType]; !ok {
		return ErrFormNotFound
	}
	byType[formType] = true
	return nil
}

func (r *fakeFormRepo) completeAll(employeeID string) {
	if r.forms[employeeID] == nil {
		r.forms[employeeID] = make(map[string]bool)
	}
	for _, ft := range RequiredFormTypes {
		r.forms[employeeID][ft] = true
	}
}

type fakeEmployeeRepo struct {
	employees   map[string]*employee.Employee
	collections map[string]*employee.Collections
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{
		employees:   make(map[string]*employee.Employee),
		collections: make(map[string]*employee.Collections),
	}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	copied := *e
	r.employees[e.ID] = &copied
	result := copied
	return &result, nil
}

func (r *fakeEmployeeRepo) UpdateRoot(_ context.Context, e *employee.Employee) (*employee.Employee, error) {
	stored, ok := r.employees[e.ID]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	status := stored.Status
	copied := *e
	copied.Status = status
	r.employees[e.ID] = &copied
	result := copied
	return &result, nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *fakeEmployeeRepo) FindByWorkEmail(_ context.Context, workEmail string) (*employee.Employee, error) {
	for _, e := range r.employees {
		if e.WorkEmail == workEmail {
			copied := *e
			return &copied, nil
		}
	}
	return nil, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) List(context.Context, employee.ListFilter) ([]*employee.Employee, error) {
	return nil, nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id string) error {
	delete(r.employees, id)
	delete(r.collections, id)
	return nil
}

func (r *fakeEmployeeRepo) TransitionStatus(_ context.Context, e *employee.Employee, from employee.Status) (*employee.Employee, error) {
	stored, ok := r.employees[e.ID]
	if !ok {
		return nil, employee.ErrEmployeeNotFound
	}
	if stored.Status != from {
		return nil, employee.ErrNotPendingApproval
	}
	copied := *e
	r.employees[e.ID] = &copied
	result := copied
	return &result, nil
}

func (r *fakeEmployeeRepo) ReplaceCollections(_ context.Context, employeeID string, c *employee.Collections) error {
	if _, ok := r.employees[employeeID]; !ok {
		return employee.ErrEmployeeNotFound
	}
	r.collections[employeeID] = c
	return nil
}

func (r *fakeEmployeeRepo) FindCollections(_ context.Context, employeeID string) (*employee.Collections, error) {
	c, ok := r.collections[employeeID]
	if !ok {
		return &employee.Collections{}, nil
	}
	return c, nil
}

func (r *fakeEmployeeRepo) CountExpiredLicenses(context.Context, string, time.Time) (int, error) {
	return 0, nil
}

type stubDocumentGate struct {
	missing int
	err     error
}

func (g stubDocumentGate) MissingRequiredDocuments(context.Context, string) (int, error) {
	return g.missing, g.err
}

type fakeAuditRepo struct {
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Record(_ context.Context, entry *audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]*audit.Entry, error) {
	var out []*audit.Entry
	for _, e := range r.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	published []audit.NotificationKind
	err       error
}

func (n *recordingNotifier) Publish(_ context.Context, kind audit.NotificationKind, _ map[string]any) error {
	if n.err != nil {
		return n.err
	}
	n.published = append(n.published, kind)
	return nil
}

type onboardingFixture struct {
	service   *Service
	drafts    *fakeDraftRepo
	forms     *fakeFormRepo
	employees *fakeEmployeeRepo
	documents *stubDocumentGate
	audits    *fakeAuditRepo
	notifier  *recordingNotifier
	now       time.Time
}

func newOnboardingFixture(t *testing.T, status employee.Status) *onboardingFixture {
	t.Helper()

	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	drafts := newFakeDraftRepo()
	forms := newFakeFormRepo()
	employees := newFakeEmployeeRepo()
	documents := &stubDocumentGate{}
	audits := &fakeAuditRepo{}
	notifier := &recordingNotifier{}

	employees.employees["emp-1"] = &employee.Employee{
		ID:     "emp-1",
		Email:  "aiko@example.com",
		Status: status,
	}

	service := NewService(drafts, forms, employees, documents, audits, notifier, stubClock{now: now}, nil)

	return &onboardingFixture{
		service:   service,
		drafts:    drafts,
		forms:     forms,
		employees: employees,
		documents: documents,
		audits:    audits,
		notifier:  notifier,
		now:       now,
	}
}

func completeDraftData() map[string]any {
	return map[string]any{
		"firstName":   "Aiko",
		"lastName":    "Tanaka",
		"dateOfBirth": "1990-04-01",
		"ssn":         "123456789",
		"email":       "aiko@example.com",
		"phone":       "555-010-0100",
		"workEmail":   "aiko@clinic.example.com",
		"position":    "Physician",
		"hireDate":    "2026-09-01",
		"npi":         "1234567890",
		"educations": []any{
			map[string]any{
				"institution":    "State University",
				"degree":         "MD",
				"graduationYear": float64(2015),
			},
		},
		"stateLicenses": []any{
			map[string]any{
				"state":          "TX",
				"licenseNumber":  "TX-1234",
				"expirationDate": "2027-06-30",
			},
		},
	}
}

func TestSaveDraft_MergesWithoutClobbering(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)

	if _, err := f.service.SaveDraft(context.Background(), "emp-1", map[string]any{
		"firstName": "Aiko",
		"ssn":       "123456789",
	}); err != nil {
		t.Fatalf("first SaveDraft: %v", err)
	}

	saved, err := f.service.SaveDraft(context.Background(), "emp-1", map[string]any{
		"phone": "555-010-0100",
	})
	if err != nil {
		t.Fatalf("second SaveDraft: %v", err)
	}

	if saved.Data["firstName"] != "Aiko" {
		t.Errorf("firstName = %v, want Aiko", saved.Data["firstName"])
	}
	if saved.Data["ssn"] != "123456789" {
		t.Errorf("ssn = %v, want preserved", saved.Data["ssn"])
	}
	if saved.Data["phone"] != "555-010-0100" {
		t.Errorf("phone = %v, want 555-010-0100", saved.Data["phone"])
	}
}

func TestSaveDraft_RejectedWhilePendingApproval(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusPendingApproval)

	_, err := f.service.SaveDraft(context.Background(), "emp-1", map[string]any{"firstName": "Aiko"})
	if !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("err = %v, want ErrAlreadySubmitted", err)
	}
}

func TestSaveDraft_SeedsRequiredForms(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)

	if _, err := f.service.SaveDraft(context.Background(), "emp-1", map[string]any{"firstName": "Aiko"}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	pending, err := f.forms.PendingCount(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("PendingCount: %v", err)
	}
	if pending != len(RequiredFormTypes) {
		t.Errorf("pending forms = %d, want %d", pending, len(RequiredFormTypes))
	}
}

func TestAdvanceStep_ValidStepAdvances(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: validPersonalData(), CurrentStep: 1}

	result, err := f.service.AdvanceStep(context.Background(), "emp-1", 1)
	if err != nil {
		t.Fatalf("AdvanceStep: %v", err)
	}
	if result.NextStep != 2 {
		t.Errorf("NextStep = %d, want 2", result.NextStep)
	}
	if f.drafts.drafts["emp-1"].CurrentStep != 2 {
		t.Errorf("persisted CurrentStep = %d, want 2", f.drafts.drafts["emp-1"].CurrentStep)
	}
}

func TestAdvanceStep_ValidationFailureReturnsFieldErrors(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)
	data := validPersonalData()
	delete(data, "ssn")
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: data, CurrentStep: 1}

	_, err := f.service.AdvanceStep(context.Background(), "emp-1", 1)
	fieldErrs, ok := AsFieldErrors(err)
	if !ok {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if !hasFieldError(fieldErrs, "ssn") {
		t.Errorf("errors = %v, want field \"ssn\"", fieldErrs)
	}
}

func TestAdvanceStep_UnknownStep(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)

	_, err := f.service.AdvanceStep(context.Background(), "emp-1", 42)
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("err = %v, want ErrUnknownStep", err)
	}
}

func TestAdvanceStep_DocumentGateReportsRemainingCount(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)
	f.documents.missing = 3
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: map[string]any{}, CurrentStep: 7}

	_, err := f.service.AdvanceStep(context.Background(), "emp-1", 7)
	if !errors.Is(err, ErrDocumentsIncomplete) {
		t.Fatalf("err = %v, want ErrDocumentsIncomplete", err)
	}
	if !strings.Contains(err.Error(), "3 required document(s)") {
		t.Errorf("err message %q should include the remaining count", err.Error())
	}
}

func TestAdvanceStep_FormGatePassesAfterCompletion(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: map[string]any{}, CurrentStep: 8}

	if _, err := f.service.SaveDraft(context.Background(), "emp-1", map[string]any{}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	_, err := f.service.AdvanceStep(context.Background(), "emp-1", 8)
	if !errors.Is(err, ErrFormsIncomplete) {
		t.Fatalf("err = %v, want ErrFormsIncomplete", err)
	}

	for _, ft := range RequiredFormTypes {
		if err := f.service.CompleteForm(context.Background(), "emp-1", ft); err != nil {
			t.Fatalf("CompleteForm(%s): %v", ft, err)
		}
	}

	if _, err := f.service.AdvanceStep(context.Background(), "emp-1", 8); err != nil {
		t.Errorf("AdvanceStep after completing forms: %v", err)
	}
}

func TestSubmit_Success(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: completeDraftData(), CurrentStep: 8}
	f.forms.completeAll("emp-1")

	submitted, err := f.service.Submit(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if submitted.Status != employee.StatusPendingApproval {
		t.Errorf("Status = %s, want %s", submitted.Status, employee.StatusPendingApproval)
	}
	if submitted.WorkEmail != "aiko@clinic.example.com" {
		t.Errorf("WorkEmail = %q, want aiko@clinic.example.com", submitted.WorkEmail)
	}
	if submitted.NPI == nil || *submitted.NPI != "1234567890" {
		t.Errorf("NPI = %v, want 1234567890", submitted.NPI)
	}

	c := f.employees.collections["emp-1"]
	if c == nil || len(c.Educations) != 1 {
		t.Fatalf("collections not replaced: %+v", c)
	}
	if c.Educations[0].Institution != "State University" {
		t.Errorf("education institution = %q", c.Educations[0].Institution)
	}
	if len(c.StateLicenses) != 1 || c.StateLicenses[0].LicenseNumber != "TX-1234" {
		t.Errorf("state licenses = %+v", c.StateLicenses)
	}

	if len(f.audits.entries) != 1 || f.audits.entries[0].Action != audit.ActionSubmit {
		t.Errorf("audit entries = %+v, want one SUBMIT", f.audits.entries)
	}
	if len(f.notifier.published) != 1 || f.notifier.published[0] != audit.NotifySubmitted {
		t.Errorf("notifications = %v, want [%s]", f.notifier.published, audit.NotifySubmitted)
	}
}

func TestSubmit_EmptyEducationsFailsValidation(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)
	data := completeDraftData()
	delete(data, "educations")
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: data, CurrentStep: 8}
	f.forms.completeAll("emp-1")

	_, err := f.service.Submit(context.Background(), "emp-1")
	fieldErrs, ok := AsFieldErrors(err)
	if !ok {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if !hasFieldError(fieldErrs, "educations") {
		t.Errorf("errors = %v, want field \"educations\"", fieldErrs)
	}

	if f.employees.employees["emp-1"].Status != employee.StatusProspective {
		t.Errorf("status changed on failed submit: %s", f.employees.employees["emp-1"].Status)
	}
	if len(f.notifier.published) != 0 {
		t.Errorf("no notifications expected, got %v", f.notifier.published)
	}
}

func TestSubmit_PlaceholderNPIIsDropped(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)
	data := completeDraftData()
	data["npi"] = placeholderNPI
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: data, CurrentStep: 8}
	f.forms.completeAll("emp-1")

	submitted, err := f.service.Submit(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.NPI != nil {
		t.Errorf("NPI = %q, want nil", *submitted.NPI)
	}
}

func TestSubmit_IncompleteDocumentsBlocks(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)
	f.documents.missing = 2
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: completeDraftData(), CurrentStep: 8}
	f.forms.completeAll("emp-1")

	_, err := f.service.Submit(context.Background(), "emp-1")
	if !errors.Is(err, ErrDocumentsIncomplete) {
		t.Errorf("err = %v, want ErrDocumentsIncomplete", err)
	}
}

func TestSubmit_ResubmissionAfterInformationNeeded(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusInformationNeeded)
	f.drafts.drafts["emp-1"] = &Draft{EmployeeID: "emp-1", Data: completeDraftData(), CurrentStep: 8}
	f.forms.completeAll("emp-1")

	submitted, err := f.service.Submit(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if submitted.Status != employee.StatusPendingApproval {
		t.Errorf("Status = %s, want %s", submitted.Status, employee.StatusPendingApproval)
	}
	if len(f.audits.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audits.entries))
	}
	if resub, _ := f.audits.entries[0].Details["resubmission"].(bool); !resub {
		t.Error("audit detail resubmission = false, want true")
	}
}

func TestSubmit_TerminalStatusRejected(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusActive)

	_, err := f.service.Submit(context.Background(), "emp-1")
	if !errors.Is(err, ErrNotSubmittable) {
		t.Errorf("err = %v, want ErrNotSubmittable", err)
	}
}

func TestGetDraft_MissingDraftReturnsEmpty(t *testing.T) {
	f := newOnboardingFixture(t, employee.StatusProspective)

	draft, err := f.service.GetDraft(context.Background(), "emp-1")
	if err != nil {
		t.Fatalf("GetDraft: %v", err)
	}
	if draft.CurrentStep != 1 || len(draft.Data) != 0 {
		t.Errorf("draft = %+v, want empty at step 1", draft)
	}
}
