// Package postgres implements the service-layer repository interfaces
// against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/outreach/internal/domain"
	"github.com/ignite/outreach/internal/service/batch"
)

// BatchRepo implements batch.Repository and the outreach pipeline's batch
// store against PostgreSQL.
type BatchRepo struct{ db *sql.DB }

// NewBatchRepo creates a Postgres-backed batch repository.
func NewBatchRepo(db *sql.DB) *BatchRepo { return &BatchRepo{db: db} }

// contactExtras carries the optional prompt-context columns as one JSONB
// value; the ingestion columns get real columns.
type contactExtras struct {
	ProductName     string `json:"product_name,omitempty"`
	CTAGoal         string `json:"cta_goal,omitempty"`
	ProductOneliner string `json:"product_oneliner,omitempty"`
	ProductUsers    string `json:"product_core_users,omitempty"`
	ProductFeatures string `json:"product_features,omitempty"`
	ProductOutcomes string `json:"product_outcomes,omitempty"`
	ProductCaselets string `json:"product_caselets,omitempty"`
	PublicNotes     string `json:"recipient_public_notes,omitempty"`
	BusinessMap     string `json:"recipient_business_map,omitempty"`
	ICPGeos         string `json:"recipient_icp_geos,omitempty"`
	Offers          string `json:"recipient_offers,omitempty"`
	RelevantTrigger string `json:"relevant_trigger,omitempty"`
	Pain            string `json:"recipient_pain,omitempty"`
	LeadSource      string `json:"lead_source,omitempty"`
	Persona         string `json:"prospect_persona,omitempty"`
}

func extrasFrom(c domain.Contact) contactExtras {
	return contactExtras{
		ProductName: c.ProductName, CTAGoal: c.CTAGoal, ProductOneliner: c.ProductOneliner,
		ProductUsers: c.ProductUsers, ProductFeatures: c.ProductFeatures,
		ProductOutcomes: c.ProductOutcomes, ProductCaselets: c.ProductCaselets,
		PublicNotes: c.PublicNotes, BusinessMap: c.BusinessMap, ICPGeos: c.ICPGeos,
		Offers: c.Offers, RelevantTrigger: c.RelevantTrigger, Pain: c.Pain,
		LeadSource: c.LeadSource, Persona: c.Persona,
	}
}

func (e contactExtras) apply(c *domain.Contact) {
	c.ProductName, c.CTAGoal, c.ProductOneliner = e.ProductName, e.CTAGoal, e.ProductOneliner
	c.ProductUsers, c.ProductFeatures = e.ProductUsers, e.ProductFeatures
	c.ProductOutcomes, c.ProductCaselets = e.ProductOutcomes, e.ProductCaselets
	c.PublicNotes, c.BusinessMap, c.ICPGeos = e.PublicNotes, e.BusinessMap, e.ICPGeos
	c.Offers, c.RelevantTrigger, c.Pain = e.Offers, e.RelevantTrigger, e.Pain
	c.LeadSource, c.Persona = e.LeadSource, e.Persona
}

func (r *BatchRepo) Create(ctx context.Context, b *domain.Batch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO batches (id, upload_time, csv_name, total_emails, delivered, opened, clicked, open_rate, click_rate)
		VALUES ($1, $2, $3, $4, 0, 0, 0, 0, 0)
	`, b.ID, b.UploadTime, b.CSVName, b.TotalEmails)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for i, c := range b.Contacts {
		extras, err := json.Marshal(extrasFrom(c))
		if err != nil {
			return fmt.Errorf("marshal contact extras: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO contacts (batch_id, position, country, region, name, designation, email, university, extras)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, b.ID, i, c.Country, c.Region, c.Name, c.Designation, c.Email, c.University, extras)
		if err != nil {
			return fmt.Errorf("insert contact %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *BatchRepo) Get(ctx context.Context, id string) (*domain.Batch, error) {
	b := &domain.Batch{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, upload_time, csv_name, total_emails, delivered, opened, clicked, open_rate, click_rate
		FROM batches WHERE id = $1
	`, id).Scan(&b.ID, &b.UploadTime, &b.CSVName, &b.TotalEmails,
		&b.Delivered, &b.Opened, &b.Clicked, &b.OpenRate, &b.ClickRate)
	if err == sql.ErrNoRows {
		return nil, batch.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT country, region, name, designation, email, university, extras
		FROM contacts WHERE batch_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Contact
		var rawExtras []byte
		if err := rows.Scan(&c.Country, &c.Region, &c.Name, &c.Designation, &c.Email, &c.University, &rawExtras); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		if len(rawExtras) > 0 {
			var extras contactExtras
			if err := json.Unmarshal(rawExtras, &extras); err != nil {
				return nil, fmt.Errorf("unmarshal contact extras: %w", err)
			}
			extras.apply(&c)
		}
		b.Contacts = append(b.Contacts, c)
	}
	return b, rows.Err()
}

func (r *BatchRepo) List(ctx context.Context) ([]domain.Batch, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, upload_time, csv_name, total_emails, delivered, opened, clicked, open_rate, click_rate
		FROM batches ORDER BY upload_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []domain.Batch
	for rows.Next() {
		var b domain.Batch
		if err := rows.Scan(&b.ID, &b.UploadTime, &b.CSVName, &b.TotalEmails,
			&b.Delivered, &b.Opened, &b.Clicked, &b.OpenRate, &b.ClickRate); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete cascades to contacts, tracking records, and tracking events via
// the schema's foreign keys.
func (r *BatchRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if n == 0 {
		return batch.ErrNotFound
	}
	return nil
}

func (r *BatchRepo) Records(ctx context.Context, batchID string) ([]domain.TrackingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT tracking_id, batch_id, contact_name, email, sent_at, opened_at, open_count, click_count
		FROM tracking_records WHERE batch_id = $1 ORDER BY sent_at DESC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// UpdateDelivered sets the delivered count and recomputes the derived
// rates from the engagement counters already on the row.
func (r *BatchRepo) UpdateDelivered(ctx context.Context, batchID string, delivered int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE batches SET
			delivered = $2,
			open_rate = CASE WHEN $2 > 0 THEN opened * 100.0 / $2 ELSE 0 END,
			click_rate = CASE WHEN $2 > 0 THEN clicked * 100.0 / $2 ELSE 0 END
		WHERE id = $1
	`, batchID, delivered)
	if err != nil {
		return fmt.Errorf("update delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update delivered: %w", err)
	}
	if n == 0 {
		return batch.ErrNotFound
	}
	return nil
}
