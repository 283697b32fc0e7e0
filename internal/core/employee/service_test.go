package employee

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/account"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees map[string]*Employee
	children  map[string]*Collections
	expired   map[string]int
	sequence  int
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{
		employees: make(map[string]*Employee),
		children:  make(map[string]*Collections),
		expired:   make(map[string]int),
	}
}

func cloneEmployee(e *Employee) *Employee {
	clone := *e
	if e.InfoRequestedItems != nil {
		clone.InfoRequestedItems = append([]string(nil), e.InfoRequestedItems...)
	}
	return &clone
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *Employee) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := cloneEmployee(e)
	r.sequence++
	clone.ID = fmt.Sprintf("emp-%d", r.sequence)
	r.employees[clone.ID] = clone
	return cloneEmployee(clone), nil
}

func (r *fakeEmployeeRepo) UpdateRoot(_ context.Context, e *Employee) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[e.ID]; !ok {
		return nil, ErrEmployeeNotFound
	}
	r.employees[e.ID] = cloneEmployee(e)
	return cloneEmployee(e), nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, id string) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.employees[id]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return cloneEmployee(e), nil
}

func (r *fakeEmployeeRepo) FindByWorkEmail(_ context.Context, workEmail string) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.employees {
		if e.WorkEmail == workEmail {
			return cloneEmployee(e), nil
		}
	}
	return nil, ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) List(_ context.Context, filter ListFilter) ([]*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Employee, 0, len(r.employees))
	for _, e := range r.employees {
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		out = append(out, cloneEmployee(e))
	}
	return out, nil
}

func (r *fakeEmployeeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(r.employees, id)
	delete(r.children, id)
	return nil
}

// TransitionStatus mirrors the conditional-update semantics of the postgres
// repository: the guard and the write happen under one lock.
func (r *fakeEmployeeRepo) TransitionStatus(_ context.Context, e *Employee, from Status) (*Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.employees[e.ID]
	if !ok {
		return nil, ErrEmployeeNotFound
	}

	if current.Status != from {
		switch current.Status {
		case StatusActive:
			return nil, ErrAlreadyApproved
		case StatusRejected:
			return nil, ErrAlreadyRejected
		default:
			return nil, ErrNotPendingApproval
		}
	}

	r.employees[e.ID] = cloneEmployee(e)
	return cloneEmployee(e), nil
}

func (r *fakeEmployeeRepo) ReplaceCollections(_ context.Context, employeeID string, c *Collections) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.children[employeeID] = c
	return nil
}

func (r *fakeEmployeeRepo) FindCollections(_ context.Context, employeeID string) (*Collections, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.children[employeeID]
	if !ok {
		return &Collections{}, nil
	}
	return c, nil
}

func (r *fakeEmployeeRepo) CountExpiredLicenses(_ context.Context, employeeID string, _ time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.expired[employeeID], nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
	sequence int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*account.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, a *account.Account) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *a
	r.sequence++
	clone.ID = fmt.Sprintf("acct-%d", r.sequence)
	r.accounts[clone.ID] = &clone
	copied := clone
	return &copied, nil
}

func (r *fakeAccountRepo) FindByID(_ context.Context, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAccountRepo) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.Email == email {
			clone := *a
			return &clone, nil
		}
	}
	return nil, account.ErrAccountNotFound
}

func (r *fakeAccountRepo) SetRoleAndActivation(_ context.Context, id string, role account.Role, active bool) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	a.Role = role
	a.Active = active
	clone := *a
	return &clone, nil
}

type stubDocumentGate struct {
	missing  int
	archived []string
}

func (g *stubDocumentGate) MissingRequiredDocuments(_ context.Context, _ string) (int, error) {
	return g.missing, nil
}

func (g *stubDocumentGate) ArchiveAll(_ context.Context, employeeID string) error {
	g.archived = append(g.archived, employeeID)
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Record(_ context.Context, entry *audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, _, _ string) ([]*audit.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.entries, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	kinds []audit.NotificationKind
}

func (n *recordingNotifier) Publish(_ context.Context, kind audit.NotificationKind, _ map[string]any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.kinds = append(n.kinds, kind)
	return nil
}

type lifecycleFixture struct {
	svc      *Service
	repo     *fakeEmployeeRepo
	accounts *fakeAccountRepo
	docs     *stubDocumentGate
	audits   *fakeAuditRepo
	notifier *recordingNotifier
	clock    *stubClock
}

func newLifecycleFixture(policy Policy) *lifecycleFixture {
	repo := newFakeEmployeeRepo()
	accounts := newFakeAccountRepo()
	docs := &stubDocumentGate{}
	audits := &fakeAuditRepo{}
	notifier := &recordingNotifier{}
	clock := &stubClock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}

	svc := NewService(repo, accounts, docs, audits, notifier, clock, nil, policy)
	return &lifecycleFixture{svc: svc, repo: repo, accounts: accounts, docs: docs, audits: audits, notifier: notifier, clock: clock}
}

func (f *lifecycleFixture) seedPending(t *testing.T) *Employee {
	t.Helper()

	acct, err := f.accounts.Create(context.Background(), &account.Account{
		Email:  "jane@x.com",
		Name:   "Jane Doe",
		Role:   account.RoleOnboarding,
		Active: true,
	})
	if err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	created, err := f.repo.Create(context.Background(), &Employee{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		WorkEmail: "jane.doe@clinic.example",
		Status:    StatusPendingApproval,
		AccountID: &acct.ID,
	})
	if err != nil {
		t.Fatalf("failed to seed employee: %v", err)
	}
	return created
}

func TestApprove_Success(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	approved, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "all checks passed"})
	if err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}

	if approved.Status != StatusActive {
		t.Errorf("expected active status, got %s", approved.Status)
	}

	if approved.ApprovedBy == nil || *approved.ApprovedBy != "hr-1" {
		t.Errorf("expected approval metadata, got %+v", approved.ApprovedBy)
	}

	acct, err := f.accounts.FindByID(context.Background(), *pending.AccountID)
	if err != nil {
		t.Fatalf("account lookup failed: %v", err)
	}
	if acct.Role != account.RoleEmployee || !acct.Active {
		t.Errorf("expected account promoted to active employee role, got %+v", acct)
	}

	if len(f.audits.entries) != 1 || f.audits.entries[0].Action != audit.ActionApprove {
		t.Errorf("expected APPROVE audit entry, got %+v", f.audits.entries)
	}

	if len(f.notifier.kinds) != 1 || f.notifier.kinds[0] != audit.NotifyApproved {
		t.Errorf("expected approval notification, got %v", f.notifier.kinds)
	}
}

func TestApprove_RequiresComments(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	_, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "   "})
	if !errors.Is(err, ErrCommentsRequired) {
		t.Fatalf("expected ErrCommentsRequired, got %v", err)
	}
}

func TestApprove_SecondCallConflicts(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	if _, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "ok"}); err != nil {
		t.Fatalf("first Approve returned error: %v", err)
	}

	_, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-2", Comments: "ok"})
	if !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved on second call, got %v", err)
	}
}

func TestReject_ThenApproveConflicts(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	rejected, err := f.svc.Reject(context.Background(), RejectInput{ID: pending.ID, Actor: "hr-1", Reason: "failed background check"})
	if err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}

	if rejected.Status != StatusRejected {
		t.Errorf("expected rejected status, got %s", rejected.Status)
	}

	acct, err := f.accounts.FindByID(context.Background(), *pending.AccountID)
	if err != nil {
		t.Fatalf("account lookup failed: %v", err)
	}
	if acct.Active {
		t.Errorf("expected account deactivated after rejection")
	}

	_, err = f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-2", Comments: "ok"})
	if !errors.Is(err, ErrAlreadyRejected) {
		t.Fatalf("expected ErrAlreadyRejected, got %v", err)
	}
}

func TestReject_RequiresReason(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	_, err := f.svc.Reject(context.Background(), RejectInput{ID: pending.ID, Actor: "hr-1"})
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
}

func TestReject_ArchivesDocumentsWhenConfigured(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{ArchiveDocumentsOnReject: true})
	pending := f.seedPending(t)

	if _, err := f.svc.Reject(context.Background(), RejectInput{ID: pending.ID, Actor: "hr-1", Reason: "incomplete"}); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}

	if len(f.docs.archived) != 1 || f.docs.archived[0] != pending.ID {
		t.Errorf("expected documents archived for %s, got %v", pending.ID, f.docs.archived)
	}
}

func TestApprove_Preconditions(t *testing.T) {
	t.Parallel()

	t.Run("documents incomplete", func(t *testing.T) {
		t.Parallel()

		f := newLifecycleFixture(Policy{RequireDocumentsComplete: true})
		f.docs.missing = 2
		pending := f.seedPending(t)

		_, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "ok"})
		if !errors.Is(err, ErrDocumentsIncomplete) {
			t.Fatalf("expected ErrDocumentsIncomplete, got %v", err)
		}
	})

	t.Run("licenses expired", func(t *testing.T) {
		t.Parallel()

		f := newLifecycleFixture(Policy{RequireValidLicenses: true})
		pending := f.seedPending(t)
		f.repo.expired[pending.ID] = 1

		_, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "ok"})
		if !errors.Is(err, ErrLicensesExpired) {
			t.Fatalf("expected ErrLicensesExpired, got %v", err)
		}
	})

	t.Run("background check incomplete", func(t *testing.T) {
		t.Parallel()

		f := newLifecycleFixture(Policy{RequireBackgroundCheckComplete: true})
		pending := f.seedPending(t)

		_, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "ok"})
		if !errors.Is(err, ErrBackgroundCheckIncomplete) {
			t.Fatalf("expected ErrBackgroundCheckIncomplete, got %v", err)
		}
	})
}

func TestApprove_NotPending(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	created, err := f.repo.Create(context.Background(), &Employee{FirstName: "P", Status: StatusProspective})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err = f.svc.Approve(context.Background(), ApproveInput{ID: created.ID, Actor: "hr-1", Comments: "ok"})
	if !errors.Is(err, ErrNotPendingApproval) {
		t.Fatalf("expected ErrNotPendingApproval, got %v", err)
	}
}

func TestConcurrentApproveReject_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		f := newLifecycleFixture(Policy{})
		pending := f.seedPending(t)

		var wg sync.WaitGroup
		var approveErr, rejectErr error

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, approveErr = f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "ok"})
		}()
		go func() {
			defer wg.Done()
			_, rejectErr = f.svc.Reject(context.Background(), RejectInput{ID: pending.ID, Actor: "hr-2", Reason: "no"})
		}()
		wg.Wait()

		successes := 0
		if approveErr == nil {
			successes++
		}
		if rejectErr == nil {
			successes++
		}
		if successes != 1 {
			t.Fatalf("expected exactly one winner, approve=%v reject=%v", approveErr, rejectErr)
		}

		final, err := f.repo.FindByID(context.Background(), pending.ID)
		if err != nil {
			t.Fatalf("final lookup failed: %v", err)
		}
		if final.Status != StatusActive && final.Status != StatusRejected {
			t.Fatalf("expected terminal status, got %s", final.Status)
		}

		loserErr := approveErr
		if approveErr == nil {
			loserErr = rejectErr
		}
		if !errors.Is(loserErr, ErrAlreadyApproved) && !errors.Is(loserErr, ErrAlreadyRejected) {
			t.Fatalf("expected already-processed error for loser, got %v", loserErr)
		}
	}
}

func TestConcurrentApproveApprove_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	for i := 0; i < 2; i++ {
		i := i
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: fmt.Sprintf("hr-%d", i), Comments: "ok"})
		}()
	}
	wg.Wait()

	if (errs[0] == nil) == (errs[1] == nil) {
		t.Fatalf("expected exactly one success, got %v and %v", errs[0], errs[1])
	}

	loser := errs[0]
	if loser == nil {
		loser = errs[1]
	}
	if !errors.Is(loser, ErrAlreadyApproved) {
		t.Fatalf("expected already approved error, got %v", loser)
	}
}

func TestRequestInfo_TransitionsAndKeepsTerminalSlot(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	due := f.clock.now.Add(72 * time.Hour)
	updated, err := f.svc.RequestInfo(context.Background(), RequestInfoInput{
		ID:      pending.ID,
		Actor:   "hr-1",
		Items:   []string{"dea_license"},
		DueDate: &due,
		Message: "please upload your DEA license",
	})
	if err != nil {
		t.Fatalf("RequestInfo returned error: %v", err)
	}

	if updated.Status != StatusInformationNeeded {
		t.Errorf("expected information_needed, got %s", updated.Status)
	}

	// Simulate resubmission, then the terminal decision is still available.
	resubmitted := cloneEmployee(updated)
	resubmitted.Status = StatusPendingApproval
	if _, err := f.repo.TransitionStatus(context.Background(), resubmitted, StatusInformationNeeded); err != nil {
		t.Fatalf("resubmission transition failed: %v", err)
	}

	if _, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "ok"}); err != nil {
		t.Fatalf("approve after resubmission failed: %v", err)
	}
}

func TestBatchApprove_PartialSuccess(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	active, err := f.repo.Create(context.Background(), &Employee{FirstName: "A", Status: StatusActive})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	result := f.svc.BatchApprove(context.Background(), BatchApproveInput{
		IDs:      []string{pending.ID, active.ID, "emp-99999"},
		Actor:    "hr-1",
		Comments: "bulk onboarding",
	})

	if result.Approved != 1 || result.Failed != 2 {
		t.Fatalf("expected approved=1 failed=2, got %+v", result)
	}

	if len(result.Results) != 3 {
		t.Fatalf("expected 3 per-id results, got %d", len(result.Results))
	}

	if !result.Results[0].OK {
		t.Errorf("expected first id approved, got %+v", result.Results[0])
	}

	if result.Results[1].OK || result.Results[1].Error == "" {
		t.Errorf("expected already-approved failure for %s, got %+v", active.ID, result.Results[1])
	}

	if result.Results[2].OK || result.Results[2].Error == "" {
		t.Errorf("expected not-found failure, got %+v", result.Results[2])
	}
}

func TestDeactivate_SoftTransition(t *testing.T) {
	t.Parallel()

	f := newLifecycleFixture(Policy{})
	pending := f.seedPending(t)

	if _, err := f.svc.Approve(context.Background(), ApproveInput{ID: pending.ID, Actor: "hr-1", Comments: "ok"}); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}

	updated, err := f.svc.Deactivate(context.Background(), pending.ID, "admin-1")
	if err != nil {
		t.Fatalf("Deactivate returned error: %v", err)
	}

	if updated.Status != StatusInactive {
		t.Errorf("expected inactive status, got %s", updated.Status)
	}

	acct, err := f.accounts.FindByID(context.Background(), *pending.AccountID)
	if err != nil {
		t.Fatalf("account lookup failed: %v", err)
	}
	if acct.Active {
		t.Errorf("expected account deactivated")
	}
}

func TestMaskSSN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"123-45-6789", "***-**-6789"},
		{"123456789", "***-**-6789"},
		{"", ""},
		{"12", "***-**-****"},
	}

	for _, tc := range cases {
		if got := MaskSSN(tc.in); got != tc.want {
			t.Errorf("MaskSSN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
