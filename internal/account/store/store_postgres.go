package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gavel/internal/account/models"
	"gavel/pkg/domain"
	dErrors "gavel/pkg/domain-errors"
	"gavel/pkg/platform/sentinel"
	txcontext "gavel/pkg/platform/tx"
)

// Postgres persists accounts with optimistic concurrency: every moderation
// write is conditional on the version read in the same Execute call, so the
// first writer wins and the loser sees sentinel.ErrConflict. The backend is
// not trusted to serialize moderation on its own.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
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

const accountColumns = `id, email, external_identity_id, status, kyc_status,
	suspension_reason, terminated_permanently, version, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, account *models.Account) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`,
		account.ID.String(), account.Email, account.ExternalIdentityID,
		string(account.Status), string(account.KYCStatus),
		account.SuspensionReason, account.TerminatedPermanently,
		account.Version, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, accountID domain.AccountID) (*models.Account, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE id = $1`,
		accountID.String(),
	)
	return scanAccount(row)
}

func (s *Postgres) Execute(
	ctx context.Context,
	accountID domain.AccountID,
	validate func(*models.Account) error,
	mutate func(*models.Account),
) (*models.Account, error) {
	account, err := s.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	readVersion := account.Version
	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)
	account.Version = readVersion + 1

	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE accounts SET
			status = $1, kyc_status = $2, suspension_reason = $3,
			terminated_permanently = $4, version = $5, updated_at = $6
		WHERE id = $7 AND version = $8`,
		string(account.Status), string(account.KYCStatus), account.SuspensionReason,
		account.TerminatedPermanently, account.Version, account.UpdatedAt,
		accountID.String(), readVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// A concurrent writer advanced the version between read and write.
		return nil, sentinel.ErrConflict
	}

	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account   models.Account
		rawID     string
		status    string
		kycStatus string
	)
	err := row.Scan(
		&rawID, &account.Email, &account.ExternalIdentityID, &status, &kycStatus,
		&account.SuspensionReason, &account.TerminatedPermanently,
		&account.Version, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	accountID, err := domain.ParseAccountID(rawID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored account id is invalid")
	}
	account.ID = accountID

	parsedStatus, err := models.ParseStatus(status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored account status is invalid")
	}
	account.Status = parsedStatus

	parsedKYC, err := domain.ParseKYCStatus(kycStatus)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "stored kyc status is invalid")
	}
	account.KYCStatus = parsedKYC

	return &account, nil
}
