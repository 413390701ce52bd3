package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach/internal/domain"
	"github.com/ignite/outreach/internal/tracking"
)

// TrackingRepo implements tracking.Store plus the record-creation and
// event-feed queries against PostgreSQL.
type TrackingRepo struct{ db *sql.DB }

// NewTrackingRepo creates a Postgres-backed tracking repository.
func NewTrackingRepo(db *sql.DB) *TrackingRepo { return &TrackingRepo{db: db} }

func (r *TrackingRepo) CreateRecord(ctx context.Context, rec *domain.TrackingRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_records (tracking_id, batch_id, contact_name, email, sent_at, open_count, click_count)
		VALUES ($1, $2, $3, $4, $5, 0, 0)
	`, rec.TrackingID, rec.BatchID, rec.ContactName, rec.Email, rec.SentAt)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (r *TrackingRepo) Record(ctx context.Context, trackingID string) (*domain.TrackingRecord, error) {
	rec := &domain.TrackingRecord{}
	err := r.db.QueryRowContext(ctx, `
		SELECT tracking_id, batch_id, contact_name, email, sent_at, opened_at, open_count, click_count
		FROM tracking_records WHERE tracking_id = $1
	`, trackingID).Scan(&rec.TrackingID, &rec.BatchID, &rec.ContactName, &rec.Email,
		&rec.SentAt, &rec.OpenedAt, &rec.OpenCount, &rec.ClickCount)
	if err == sql.ErrNoRows {
		return nil, tracking.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

func (r *TrackingRepo) UpdateRecord(ctx context.Context, rec *domain.TrackingRecord) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tracking_records
		SET opened_at = $2, open_count = $3, click_count = $4
		WHERE tracking_id = $1
	`, rec.TrackingID, rec.OpenedAt, rec.OpenCount, rec.ClickCount)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

func (r *TrackingRepo) AppendEvent(ctx context.Context, evt *domain.TrackingEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tracking_events
			(id, tracking_id, event_type, occurred_at, ip_address, user_agent,
			 device_type, browser, platform, country, region, url, is_genuine)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, evt.ID, evt.TrackingID, evt.EventType, evt.OccurredAt, evt.IPAddress, evt.UserAgent,
		evt.DeviceType, evt.Browser, evt.Platform, evt.Country, evt.Region, evt.URL, evt.IsGenuine)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *TrackingRepo) BatchRecords(ctx context.Context, batchID string) ([]domain.TrackingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tracking_id, batch_id, contact_name, email, sent_at, opened_at, open_count, click_count
		FROM tracking_records WHERE batch_id = $1
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("batch records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *TrackingRepo) UpdateBatchEngagement(ctx context.Context, batchID string, opened, clicked int, openRate, clickRate float64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE batches SET opened = $2, clicked = $3, open_rate = $4, click_rate = $5
		WHERE id = $1
	`, batchID, opened, clicked, openRate, clickRate)
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}
	return nil
}

func (r *TrackingRepo) BatchDelivered(ctx context.Context, batchID string) (int, error) {
	var delivered int
	err := r.db.QueryRowContext(ctx, `SELECT delivered FROM batches WHERE id = $1`, batchID).Scan(&delivered)
	if err != nil {
		return 0, fmt.Errorf("batch delivered: %w", err)
	}
	return delivered, nil
}

// RecentEvents returns events newer than since, newest first, for the
// dashboard's activity feed.
func (r *TrackingRepo) RecentEvents(ctx context.Context, since time.Time, limit int) ([]domain.TrackingEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, tracking_id, event_type, occurred_at, ip_address, user_agent,
		       device_type, browser, platform, country, region, url, is_genuine
		FROM tracking_events
		WHERE occurred_at > $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("recent events: %w", err)
	}
	defer rows.Close()

	var out []domain.TrackingEvent
	for rows.Next() {
		var evt domain.TrackingEvent
		if err := rows.Scan(&evt.ID, &evt.TrackingID, &evt.EventType, &evt.OccurredAt,
			&evt.IPAddress, &evt.UserAgent, &evt.DeviceType, &evt.Browser, &evt.Platform,
			&evt.Country, &evt.Region, &evt.URL, &evt.IsGenuine); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]domain.TrackingRecord, error) {
	var out []domain.TrackingRecord
	for rows.Next() {
		var rec domain.TrackingRecord
		if err := rows.Scan(&rec.TrackingID, &rec.BatchID, &rec.ContactName, &rec.Email,
			&rec.SentAt, &rec.OpenedAt, &rec.OpenCount, &rec.ClickCount); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
