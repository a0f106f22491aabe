package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
    id, organization_id, organization_name, tier, status, start_date, end_date,
    requested_by, requested_at, approved_by, approved_at, status_reason,
    current_users, max_users, current_patients, max_patients,
    features, billing, payments, updated_at`

func (s *Store) CreateRequest(ctx context.Context, org Organization, sub Subscription) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
    INSERT INTO organizations (id, name, email, phone, address, created_at)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, org.ID, org.Name, org.Email, org.Phone, org.Address, org.CreatedAt); err != nil {
		return err
	}

	features, billing, payments, err := encodeSubscription(sub)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO subscriptions (`+subscriptionColumns+`)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
  `, sub.ID, sub.OrganizationID, sub.OrganizationName, sub.Tier, sub.Status, sub.StartDate, sub.EndDate,
		sub.RequestedBy, sub.RequestedAt, sub.ApprovedBy, sub.ApprovedAt, sub.StatusReason,
		sub.Usage.CurrentUsers, sub.Usage.MaxUsers, sub.Usage.CurrentPatients, sub.Usage.MaxPatients,
		features, billing, payments, sub.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (Subscription, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscription{}, newError(ErrNotFound, id, "")
	}
	return sub, err
}

func (s *Store) GetOrganization(ctx context.Context, id string) (Organization, error) {
	var org Organization
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''), created_at
    FROM organizations
    WHERE id = $1
  `, id).Scan(&org.ID, &org.Name, &org.Email, &org.Phone, &org.Address, &org.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Organization{}, newError(ErrNotFound, id, "organization")
	}
	return org, err
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Tier != "" {
		args = append(args, filter.Tier)
		query += fmt.Sprintf(" AND tier = $%d", len(args))
	}
	query += fmt.Sprintf(" ORDER BY requested_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return s.query(ctx, query, args...)
}

func (s *Store) ListDue(ctx context.Context, now time.Time) ([]Subscription, error) {
	return s.query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE status = $1 AND end_date < $2 ORDER BY id`,
		StatusActive, now)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Subscription, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) Update(ctx context.Context, sub Subscription) error {
	features, billing, payments, err := encodeSubscription(sub)
	if err != nil {
		return err
	}
	tag, err := s.DB.Exec(ctx, `
    UPDATE subscriptions
    SET tier = $2, status = $3, start_date = $4, end_date = $5, approved_by = $6, approved_at = $7,
        status_reason = $8, current_users = $9, max_users = $10, current_patients = $11, max_patients = $12,
        features = $13, billing = $14, payments = $15, updated_at = $16
    WHERE id = $1
  `, sub.ID, sub.Tier, sub.Status, sub.StartDate, sub.EndDate, sub.ApprovedBy, sub.ApprovedAt,
		sub.StatusReason, sub.Usage.CurrentUsers, sub.Usage.MaxUsers, sub.Usage.CurrentPatients, sub.Usage.MaxPatients,
		features, billing, payments, sub.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return newError(ErrNotFound, sub.ID, "")
	}
	return nil
}

func (s *Store) MarkExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE subscriptions
    SET status = $2, updated_at = $4
    WHERE id = $1 AND status = $3 AND end_date < $4
  `, id, StatusExpired, StatusActive, now)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func encodeSubscription(sub Subscription) (features, billing, payments []byte, err error) {
	if features, err = json.Marshal(sub.Features); err != nil {
		return nil, nil, nil, err
	}
	if billing, err = json.Marshal(sub.Billing); err != nil {
		return nil, nil, nil, err
	}
	if payments, err = json.Marshal(sub.Payments); err != nil {
		return nil, nil, nil, err
	}
	return features, billing, payments, nil
}

func scanSubscription(row pgx.Row) (Subscription, error) {
	var sub Subscription
	var features, billing, payments []byte
	err := row.Scan(&sub.ID, &sub.OrganizationID, &sub.OrganizationName, &sub.Tier, &sub.Status, &sub.StartDate, &sub.EndDate,
		&sub.RequestedBy, &sub.RequestedAt, &sub.ApprovedBy, &sub.ApprovedAt, &sub.StatusReason,
		&sub.Usage.CurrentUsers, &sub.Usage.MaxUsers, &sub.Usage.CurrentPatients, &sub.Usage.MaxPatients,
		&features, &billing, &payments, &sub.UpdatedAt)
	if err != nil {
		return Subscription{}, err
	}
	if err := json.Unmarshal(features, &sub.Features); err != nil {
		return Subscription{}, err
	}
	if err := json.Unmarshal(billing, &sub.Billing); err != nil {
		return Subscription{}, err
	}
	if len(payments) > 0 {
		if err := json.Unmarshal(payments, &sub.Payments); err != nil {
			return Subscription{}, err
		}
	}
	return sub, nil
}
