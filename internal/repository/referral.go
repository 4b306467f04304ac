package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"referral-intake-service/constants"
	"referral-intake-service/internal/common"
	"referral-intake-service/internal/entity"
)

// ReferralUpdate carries the clinical text fields a reviewer may edit
// after ingestion. Nil means "leave unchanged".
type ReferralUpdate struct {
	PatientName  *string
	ReferredBy   *string
	ReferredTo   *string
	Diagnosis    *string
	DOB          *string
	ReferralDate *string
	Notes        *string
}

// ReferralRepository is the record store the pipeline persists into.
type ReferralRepository interface {
	// Create inserts a new record. The caller intends "create", so an
	// existing id fails with common.ErrConflict instead of overwriting.
	Create(ctx context.Context, r *entity.Referral) error
	GetByID(ctx context.Context, id string) (*entity.Referral, error)
	// List returns all referrals newest-first.
	List(ctx context.Context) ([]*entity.Referral, error)
	// UpdateStatus applies a guarded workflow transition.
	UpdateStatus(ctx context.Context, id string, to constants.ReferralStatus) (*entity.Referral, error)
	// UpdateFields edits the reviewable text fields of a record.
	UpdateFields(ctx context.Context, id string, upd ReferralUpdate) (*entity.Referral, error)
	// Archive removes a record from the store (explicit archive action).
	Archive(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type referralRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewReferralRepository(db *sql.DB, logger *slog.Logger) ReferralRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &referralRepo{db: db, logger: logger}
}

var referralColumns = []string{
	"id", "patient_name", "referred_by", "referred_to", "diagnosis",
	"dob", "referral_date", "notes", "file_path", "mime_type",
	"status", "storage_kind", "created_at", "updated_at",
}

func scanReferral(row sq.RowScanner) (*entity.Referral, error) {
	var r entity.Referral
	var status, kind string
	err := row.Scan(
		&r.ID, &r.PatientName, &r.ReferredBy, &r.ReferredTo, &r.Diagnosis,
		&r.DOB, &r.ReferralDate, &r.Notes, &r.FilePath, &r.MimeType,
		&status, &kind, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = constants.ReferralStatus(status)
	r.StorageKind = entity.StorageKind(kind)
	return &r, nil
}

func (s *referralRepo) Create(ctx context.Context, r *entity.Referral) error {
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	query, args, err := sq.Insert("referrals").
		Columns(referralColumns...).
		Values(
			r.ID, r.PatientName, r.ReferredBy, r.ReferredTo, r.Diagnosis,
			r.DOB, r.ReferralDate, r.Notes, r.FilePath, r.MimeType,
			string(r.Status), string(r.StorageKind), r.CreatedAt, r.UpdatedAt,
		).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		// PRIMARY KEY violation on id: the insert itself is the
		// concurrency-safe duplicate guard, no prior read needed.
		if strings.Contains(err.Error(), "constraint") {
			s.logger.Error("refusing to overwrite existing referral", "id", r.ID)
			return fmt.Errorf("%w: referral %s", common.ErrConflict, r.ID)
		}
		s.logger.Error("failed to create referral", "id", r.ID, "error", err)
		return err
	}
	return nil
}

func (s *referralRepo) GetByID(ctx context.Context, id string) (*entity.Referral, error) {
	query, args, err := sq.Select(referralColumns...).
		From("referrals").
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	r, err := scanReferral(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: referral %s", common.ErrNotFound, id)
	}
	if err != nil {
		s.logger.Error("failed to get referral", "id", id, "error", err)
		return nil, err
	}
	return r, nil
}

func (s *referralRepo) List(ctx context.Context) ([]*entity.Referral, error) {
	query, args, err := sq.Select(referralColumns...).
		From("referrals").
		OrderBy("created_at DESC", "id DESC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list referrals", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.Referral
	for rows.Next() {
		r, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *referralRepo) UpdateStatus(ctx context.Context, id string, to constants.ReferralStatus) (*entity.Referral, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !constants.CanTransition(r.Status, to) {
		return nil, fmt.Errorf("%w: cannot move referral %s from %s to %s", common.ErrInvalidInput, id, r.Status, to)
	}

	now := time.Now().UTC()
	query, args, err := sq.Update("referrals").
		Set("status", string(to)).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error("failed to update referral status", "id", id, "to", to, "error", err)
		return nil, err
	}
	r.Status = to
	r.UpdatedAt = now
	return r, nil
}

func (s *referralRepo) UpdateFields(ctx context.Context, id string, upd ReferralUpdate) (*entity.Referral, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	b := sq.Update("referrals").Set("updated_at", time.Now().UTC())
	set := func(col string, v *string) {
		if v != nil {
			b = b.Set(col, *v)
		}
	}
	set("patient_name", upd.PatientName)
	set("referred_by", upd.ReferredBy)
	set("referred_to", upd.ReferredTo)
	set("diagnosis", upd.Diagnosis)
	set("dob", upd.DOB)
	set("referral_date", upd.ReferralDate)
	set("notes", upd.Notes)

	query, args, err := b.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		s.logger.Error("failed to update referral fields", "id", id, "error", err)
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *referralRepo) Archive(ctx context.Context, id string) error {
	query, args, err := sq.Delete("referrals").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to archive referral", "id", id, "error", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: referral %s", common.ErrNotFound, id)
	}
	s.logger.Info("referral archived", "id", id)
	return nil
}

func (s *referralRepo) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From("referrals").ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
