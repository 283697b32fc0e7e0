package invitation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/audit"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type stubTokenSource struct {
	tokens []string
	index  int
}

func (s *stubTokenSource) NewToken() string {
	if s.index >= len(s.tokens) {
		return fmt.Sprintf("token-%d", s.index)
	}
	token := s.tokens[s.index]
	s.index++
	return token
}

type fakeInvitationRepo struct {
	invitations map[string]*Invitation
	sequence    int
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[string]*Invitation)}
}

func cloneInvitation(inv *Invitation) *Invitation {
	clone := *inv
	if inv.AcceptedAt != nil {
		t := *inv.AcceptedAt
		clone.AcceptedAt = &t
	}
	return &clone
}

func (r *fakeInvitationRepo) Create(_ context.Context, inv *Invitation) (*Invitation, error) {
	clone := cloneInvitation(inv)
	r.sequence++
	clone.ID = fmt.Sprintf("inv-%d", r.sequence)
	r.invitations[clone.ID] = clone
	return cloneInvitation(clone), nil
}

func (r *fakeInvitationRepo) Update(_ context.Context, inv *Invitation) (*Invitation, error) {
	if _, ok := r.invitations[inv.ID]; !ok {
		return nil, ErrInvitationNotFound
	}
	r.invitations[inv.ID] = cloneInvitation(inv)
	return cloneInvitation(inv), nil
}

func (r *fakeInvitationRepo) FindByID(_ context.Context, id string) (*Invitation, error) {
	inv, ok := r.invitations[id]
	if !ok {
		return nil, ErrInvitationNotFound
	}
	return cloneInvitation(inv), nil
}

func (r *fakeInvitationRepo) FindByToken(_ context.Context, token string) (*Invitation, error) {
	for _, inv := range r.invitations {
		if inv.Token == token {
			return cloneInvitation(inv), nil
		}
	}
	return nil, ErrTokenNotFound
}

func (r *fakeInvitationRepo) FindActiveByEmail(_ context.Context, email string, now time.Time) (*Invitation, error) {
	for _, inv := range r.invitations {
		if inv.Email == email && inv.Status == StatusPending && now.Before(inv.ExpiresAt) {
			return cloneInvitation(inv), nil
		}
	}
	return nil, ErrInvitationNotFound
}

func (r *fakeInvitationRepo) Accept(_ context.Context, token string, now time.Time) (*Invitation, error) {
	for _, inv := range r.invitations {
		if inv.Token != token {
			continue
		}
		if inv.Status == StatusAccepted {
			return nil, ErrTokenAlreadyUsed
		}
		if inv.Status != StatusPending || now.After(inv.ExpiresAt) {
			return nil, ErrTokenExpired
		}
		inv.Status = StatusAccepted
		accepted := now
		inv.AcceptedAt = &accepted
		inv.UpdatedAt = now
		return cloneInvitation(inv), nil
	}
	return nil, ErrTokenNotFound
}

func (r *fakeInvitationRepo) List(_ context.Context, filter ListFilter) ([]*Invitation, error) {
	out := make([]*Invitation, 0, len(r.invitations))
	for _, inv := range r.invitations {
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		out = append(out, cloneInvitation(inv))
	}
	return out, nil
}

type fakeAuditRepo struct {
	entries []*audit.Entry
}

func (r *fakeAuditRepo) Record(_ context.Context, entry *audit.Entry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityType, entityID string) ([]*audit.Entry, error) {
	return r.entries, nil
}

type stubProvisioner struct {
	employeeID string
	email      string
	err        error
}

func (p *stubProvisioner) ProvisionProspect(_ context.Context, email, _ string) (string, error) {
	p.email = email
	return p.employeeID, p.err
}

type recordingNotifier struct {
	kinds []audit.NotificationKind
}

func (n *recordingNotifier) Publish(_ context.Context, kind audit.NotificationKind, _ map[string]any) error {
	n.kinds = append(n.kinds, kind)
	return nil
}

func newTestService(repo *fakeInvitationRepo, clock Clock, tokens TokenSource) (*Service, *fakeAuditRepo, *recordingNotifier, *stubProvisioner) {
	audits := &fakeAuditRepo{}
	notifier := &recordingNotifier{}
	provisioner := &stubProvisioner{employeeID: "emp-1"}
	svc := NewService(repo, provisioner, audits, notifier, clock, nil, tokens)
	return svc, audits, notifier, provisioner
}

func TestCreateInvitation_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeInvitationRepo()
	svc, audits, notifier, _ := newTestService(repo, &stubClock{now: now}, &stubTokenSource{tokens: []string{"tok-1"}})

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{
		Email:     "Jane@X.com",
		Name:      "Jane Doe",
		InvitedBy: "hr-1",
	})
	if err != nil {
		t.Fatalf("CreateInvitation returned error: %v", err)
	}

	if inv.Email != "jane@x.com" {
		t.Errorf("expected lowercased email, got %s", inv.Email)
	}

	if inv.Token != "tok-1" {
		t.Errorf("unexpected token: %s", inv.Token)
	}

	if !inv.ExpiresAt.Equal(now.Add(defaultInvitationTTL)) {
		t.Errorf("unexpected expiry: %v", inv.ExpiresAt)
	}

	if len(audits.entries) != 1 || audits.entries[0].Action != audit.ActionCreate {
		t.Errorf("expected one CREATE audit entry, got %+v", audits.entries)
	}

	if len(notifier.kinds) != 1 || notifier.kinds[0] != audit.NotifyInvitationCreated {
		t.Errorf("expected invitation_created notification, got %v", notifier.kinds)
	}
}

func TestCreateInvitation_DuplicateActive(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeInvitationRepo()
	svc, _, _, _ := newTestService(repo, &stubClock{now: now}, nil)

	if _, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{Email: "jane@x.com", Name: "Jane", InvitedBy: "hr-1"}); err != nil {
		t.Fatalf("first CreateInvitation returned error: %v", err)
	}

	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{Email: "jane@x.com", Name: "Jane", InvitedBy: "hr-1"})
	if !errors.Is(err, ErrActiveInvitationExists) {
		t.Fatalf("expected ErrActiveInvitationExists, got %v", err)
	}
}

func TestCreateInvitation_AllowedAfterCancel(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeInvitationRepo()
	svc, _, _, _ := newTestService(repo, &stubClock{now: now}, nil)

	first, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{Email: "jane@x.com", Name: "Jane", InvitedBy: "hr-1"})
	if err != nil {
		t.Fatalf("CreateInvitation returned error: %v", err)
	}

	if _, err := svc.CancelInvitation(context.Background(), CancelInvitationInput{ID: first.ID, Actor: "hr-1"}); err != nil {
		t.Fatalf("CancelInvitation returned error: %v", err)
	}

	if _, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{Email: "jane@x.com", Name: "Jane", InvitedBy: "hr-1"}); err != nil {
		t.Fatalf("expected new invitation after cancel, got %v", err)
	}
}

func TestCreateInvitation_InvalidEmail(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestService(newFakeInvitationRepo(), nil, nil)

	_, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{Email: "not-an-email", Name: "Jane", InvitedBy: "hr-1"})
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestRedeemToken_States(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &stubClock{now: now}
	repo := newFakeInvitationRepo()
	svc, _, _, _ := newTestService(repo, clock, &stubTokenSource{tokens: []string{"tok-1"}})

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{Email: "jane@x.com", Name: "Jane", InvitedBy: "hr-1"})
	if err != nil {
		t.Fatalf("CreateInvitation returned error: %v", err)
	}

	found, err := svc.RedeemToken(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("RedeemToken returned error: %v", err)
	}
	if found.ID != inv.ID {
		t.Errorf("unexpected invitation: %s", found.ID)
	}

	if _, err := svc.RedeemToken(context.Background(), "unknown"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}

	clock.now = now.Add(defaultInvitationTTL + time.Hour)
	if _, err := svc.RedeemToken(context.Background(), "tok-1"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestAcceptInvitation_SingleUse(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	repo := newFakeInvitationRepo()
	svc, _, _, provisioner := newTestService(repo, &stubClock{now: now}, &stubTokenSource{tokens: []string{"tok-1"}})

	if _, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{Email: "jane@x.com", Name: "Jane", InvitedBy: "hr-1"}); err != nil {
		t.Fatalf("CreateInvitation returned error: %v", err)
	}

	result, err := svc.AcceptInvitation(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("AcceptInvitation returned error: %v", err)
	}

	if result.EmployeeID != "emp-1" {
		t.Errorf("unexpected employee id: %s", result.EmployeeID)
	}

	if provisioner.email != "jane@x.com" {
		t.Errorf("provisioner received email %s", provisioner.email)
	}

	if result.Invitation.Status != StatusAccepted {
		t.Errorf("expected accepted status, got %s", result.Invitation.Status)
	}

	if _, err := svc.AcceptInvitation(context.Background(), "tok-1"); !errors.Is(err, ErrTokenAlreadyUsed) {
		t.Fatalf("expected ErrTokenAlreadyUsed on reuse, got %v", err)
	}

	if _, err := svc.RedeemToken(context.Background(), "tok-1"); !errors.Is(err, ErrTokenAlreadyUsed) {
		t.Fatalf("expected ErrTokenAlreadyUsed on redeem after accept, got %v", err)
	}
}

func TestResendInvitation_RotatesToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &stubClock{now: now}
	repo := newFakeInvitationRepo()
	svc, _, _, _ := newTestService(repo, clock, &stubTokenSource{tokens: []string{"tok-1", "tok-2"}})

	inv, err := svc.CreateInvitation(context.Background(), CreateInvitationInput{Email: "jane@x.com", Name: "Jane", InvitedBy: "hr-1"})
	if err != nil {
		t.Fatalf("CreateInvitation returned error: %v", err)
	}

	clock.now = now.Add(24 * time.Hour)
	resent, err := svc.ResendInvitation(context.Background(), ResendInvitationInput{ID: inv.ID, Actor: "hr-1"})
	if err != nil {
		t.Fatalf("ResendInvitation returned error: %v", err)
	}

	if resent.Token != "tok-2" {
		t.Errorf("expected rotated token, got %s", resent.Token)
	}

	if !resent.ExpiresAt.Equal(clock.now.Add(defaultInvitationTTL)) {
		t.Errorf("expected extended expiry, got %v", resent.ExpiresAt)
	}

	if _, err := svc.RedeemToken(context.Background(), "tok-1"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected old token to be unusable, got %v", err)
	}
}
