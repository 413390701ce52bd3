package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/outreach/internal/domain"
)

// SettingsRepo persists the single-row dashboard settings.
type SettingsRepo struct{ db *sql.DB }

// NewSettingsRepo creates a Postgres-backed settings repository.
func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{db: db} }

// Get returns the stored settings, or zero-valued settings when nothing has
// been saved yet.
func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	s := &domain.Settings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT openai_api_key, email, app_password, cc_recipients,
		       sender_name, sender_designation, sender_phone, sender_company
		FROM settings WHERE id = 1
	`).Scan(&s.OpenAIAPIKey, &s.Email, &s.AppPassword, &s.CCRecipients,
		&s.Sender.Name, &s.Sender.Designation, &s.Sender.Phone, &s.Sender.Company)
	if err == sql.ErrNoRows {
		return &domain.Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// Save upserts the settings row.
func (r *SettingsRepo) Save(ctx context.Context, s *domain.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings
			(id, openai_api_key, email, app_password, cc_recipients,
			 sender_name, sender_designation, sender_phone, sender_company, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			openai_api_key = EXCLUDED.openai_api_key,
			email = EXCLUDED.email,
			app_password = EXCLUDED.app_password,
			cc_recipients = EXCLUDED.cc_recipients,
			sender_name = EXCLUDED.sender_name,
			sender_designation = EXCLUDED.sender_designation,
			sender_phone = EXCLUDED.sender_phone,
			sender_company = EXCLUDED.sender_company,
			updated_at = EXCLUDED.updated_at
	`, s.OpenAIAPIKey, s.Email, s.AppPassword, s.CCRecipients,
		s.Sender.Name, s.Sender.Designation, s.Sender.Phone, s.Sender.Company, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
