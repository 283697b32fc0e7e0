package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nmadhukar/WorkforceNexus-sub003/internal/core/invitation"
	pgdb "github.com/nmadhukar/WorkforceNexus-sub003/internal/platform/db/postgres"
)

const invitationColumns = `id, email, name, token, status, expires_at, invited_by, accepted_at, created_at, updated_at`

// InvitationRepository は PostgreSQL を利用した招待永続化の実装です。
type InvitationRepository struct {
	pool pgdb.Queryer
}

// NewInvitationRepository は InvitationRepository を生成します。
func NewInvitationRepository(pool pgdb.Queryer) *InvitationRepository {
	return &InvitationRepository{pool: pool}
}

// Create は招待を新規作成します。
func (r *InvitationRepository) Create(ctx context.Context, inv *invitation.Invitation) (*invitation.Invitation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO invitations (email, name, token, status, expires_at, invited_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+invitationColumns+`
    `,
		inv.Email,
		inv.Name,
		inv.Token,
		string(inv.Status),
		inv.ExpiresAt,
		inv.InvitedBy,
		inv.CreatedAt,
		inv.UpdatedAt,
	)

	created, err := scanInvitation(row)
	if err != nil {
		return nil, translateInvitationPgError(err)
	}
	return created, nil
}

// Update は招待を更新します。トークンローテーションと取り消しで利用されます。
func (r *InvitationRepository) Update(ctx context.Context, inv *invitation.Invitation) (*invitation.Invitation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE invitations
           SET token = $1,
               status = $2,
               expires_at = $3,
               accepted_at = $4,
               updated_at = $5
         WHERE id = $6
        RETURNING `+invitationColumns+`
    `,
		inv.Token,
		string(inv.Status),
		inv.ExpiresAt,
		inv.AcceptedAt,
		inv.UpdatedAt,
		inv.ID,
	)

	updated, err := scanInvitation(row)
	if err != nil {
		return nil, translateInvitationPgError(err)
	}
	return updated, nil
}

// FindByID は ID で招待を取得します。
func (r *InvitationRepository) FindByID(ctx context.Context, id string) (*invitation.Invitation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+invitationColumns+`
          FROM invitations
         WHERE id = $1
         LIMIT 1
    `, id)

	found, err := scanInvitation(row)
	if err != nil {
		return nil, translateInvitationPgError(err)
	}
	return found, nil
}

// FindByToken はトークンで招待を取得します。
func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*invitation.Invitation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+invitationColumns+`
          FROM invitations
         WHERE token = $1
         LIMIT 1
    `, token)

	found, err := scanInvitation(row)
	if err != nil {
		if errors.Is(err, invitation.ErrInvitationNotFound) {
			return nil, invitation.ErrTokenNotFound
		}
		return nil, translateInvitationPgError(err)
	}
	return found, nil
}

// FindActiveByEmail は pending かつ未期限切れの招待を返します。
func (r *InvitationRepository) FindActiveByEmail(ctx context.Context, email string, now time.Time) (*invitation.Invitation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+invitationColumns+`
          FROM invitations
         WHERE email = $1 AND status = $2 AND expires_at > $3
         ORDER BY created_at DESC
         LIMIT 1
    `, email, string(invitation.StatusPending), now)

	found, err := scanInvitation(row)
	if err != nil {
		return nil, translateInvitationPgError(err)
	}
	return found, nil
}

// Accept はトークンを単回使用として消費します。pending かつ未期限切れの行のみを
// 条件付き更新で accepted に遷移させ、0 行の場合は現在状態から競合を分類します。
func (r *InvitationRepository) Accept(ctx context.Context, token string, now time.Time) (*invitation.Invitation, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE invitations
           SET status = $1,
               accepted_at = $2,
               updated_at = $2
         WHERE token = $3 AND status = $4 AND expires_at > $2
        RETURNING `+invitationColumns+`
    `, string(invitation.StatusAccepted), now, token, string(invitation.StatusPending))

	accepted, err := scanInvitation(row)
	if err == nil {
		return accepted, nil
	}
	if !errors.Is(err, invitation.ErrInvitationNotFound) && !errors.Is(err, pgx.ErrNoRows) {
		return nil, translateInvitationPgError(err)
	}

	existing, err := r.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch {
	case existing.Status == invitation.StatusAccepted:
		return nil, invitation.ErrTokenAlreadyUsed
	case existing.Status == invitation.StatusCancelled:
		return nil, invitation.ErrTokenNotFound
	case existing.Expired(now):
		return nil, invitation.ErrTokenExpired
	default:
		return nil, invitation.ErrTokenNotFound
	}
}

// List は招待の一覧を取得します。
func (r *InvitationRepository) List(ctx context.Context, filter invitation.ListFilter) ([]*invitation.Invitation, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		whereClause = " WHERE status = $1"
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limit)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, offset)

	query := `
        SELECT ` + invitationColumns + `
          FROM invitations` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder + `
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translateInvitationPgError(err)
	}
	defer rows.Close()

	invitations := make([]*invitation.Invitation, 0, limit)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, translateInvitationPgError(err)
		}
		invitations = append(invitations, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, translateInvitationPgError(err)
	}

	return invitations, nil
}

func scanInvitation(row pgx.Row) (*invitation.Invitation, error) {
	var (
		inv    invitation.Invitation
		status string
	)

	if err := row.Scan(
		&inv.ID,
		&inv.Email,
		&inv.Name,
		&inv.Token,
		&status,
		&inv.ExpiresAt,
		&inv.InvitedBy,
		&inv.AcceptedAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invitation.ErrInvitationNotFound
		}
		return nil, err
	}

	inv.Status = invitation.Status(status)
	return &inv, nil
}

func translateInvitationPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return invitation.ErrInvitationNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return invitation.ErrActiveInvitationExists
		}
	}

	return err
}
