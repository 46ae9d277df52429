package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gavel/internal/kyc/models"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
	txcontext "gavel/pkg/platform/tx"
)

// Postgres persists submissions with the same optimistic-concurrency rule as
// the account store: review writes are conditional on the version read in the
// same Execute call, so two reviewers deciding the same submission cannot
// both win.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q returns the caller's enlisted transaction when one is in flight,
// otherwise the pool.
func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.Pgx(ctx); ok {
		return tx
	}
	return s.pool
}

const submissionColumns = `id, account_id, status, rejection_reason,
	reviewed_by, document_urls, version, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, submission *models.Submission) error {
	tag, err := s.q(ctx).Exec(ctx, `
		INSERT INTO kyc_submissions (`+submissionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`,
		submission.ID.String(), submission.AccountID.String(), string(submission.Status),
		submission.RejectionReason, reviewedByValue(submission.ReviewedBy),
		submission.DocumentURLs, submission.Version,
		submission.CreatedAt, submission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The account already has its one submission.
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, submissionID domain.SubmissionID) (*models.Submission, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM kyc_submissions WHERE id = $1`,
		submissionID.String(),
	)
	return scanSubmission(row)
}

func (s *Postgres) FindByAccount(ctx context.Context, accountID domain.AccountID) (*models.Submission, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM kyc_submissions WHERE account_id = $1`,
		accountID.String(),
	)
	return scanSubmission(row)
}

func (s *Postgres) ListPending(ctx context.Context) ([]*models.Submission, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT `+submissionColumns+`
		FROM kyc_submissions
		WHERE status = $1
		ORDER BY updated_at`,
		string(domain.KYCPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}
	defer rows.Close()

	var pending []*models.Submission
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, submission)
	}
	return pending, rows.Err()
}

func (s *Postgres) Execute(
	ctx context.Context,
	submissionID domain.SubmissionID,
	validate func(*models.Submission) error,
	mutate func(*models.Submission),
) (*models.Submission, error) {
	submission, err := s.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	readVersion := submission.Version
	if err := validate(submission); err != nil {
		return nil, err
	}
	mutate(submission)
	submission.Version = readVersion + 1

	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE kyc_submissions SET
			status = $1, rejection_reason = $2, reviewed_by = $3,
			document_urls = $4, version = $5, updated_at = $6
		WHERE id = $7 AND version = $8`,
		string(submission.Status), submission.RejectionReason,
		reviewedByValue(submission.ReviewedBy), submission.DocumentURLs,
		submission.Version, submission.UpdatedAt,
		submissionID.String(), readVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("update submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// A concurrent reviewer advanced the version between read and write.
		return nil, sentinel.ErrConflict
	}

	return submission, nil
}

func (s *Postgres) Delete(ctx context.Context, submissionID domain.SubmissionID) error {
	tag, err := s.q(ctx).Exec(ctx, `
		DELETE FROM kyc_submissions WHERE id = $1`,
		submissionID.String(),
	)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func reviewedByValue(reviewedBy *domain.PrincipalID) *string {
	if reviewedBy == nil {
		return nil
	}
	raw := reviewedBy.String()
	return &raw
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		submission models.Submission
		rawID      string
		rawAccount string
		rawStatus  string
		reviewedBy *string
	)
	err := row.Scan(
		&rawID, &rawAccount, &rawStatus, &submission.RejectionReason,
		&reviewedBy, &submission.DocumentURLs, &submission.Version,
		&submission.CreatedAt, &submission.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan submission: %w", err)
	}

	submissionID, err := domain.ParseSubmissionID(rawID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored submission id is invalid")
	}
	submission.ID = submissionID

	accountID, err := domain.ParseAccountID(rawAccount)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored account id is invalid")
	}
	submission.AccountID = accountID

	status, err := domain.ParseKYCStatus(rawStatus)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored submission status is invalid")
	}
	submission.Status = status

	if reviewedBy != nil {
		reviewer, err := domain.ParsePrincipalID(*reviewedBy)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored reviewer id is invalid")
		}
		submission.ReviewedBy = &reviewer
	}

	return &submission, nil
}
