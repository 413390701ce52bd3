package outreach

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/outreach/internal/compose"
	"github.com/ignite/outreach/internal/delivery"
	"github.com/ignite/outreach/internal/domain"
	"github.com/ignite/outreach/internal/generate"
	"github.com/ignite/outreach/internal/tracking"
)

// Service runs the generate and send pipeline for one batch at a time.
type Service struct {
	batches   BatchStore
	settings  SettingsStore
	records   TrackingStore
	composer  *compose.Composer
	generator Generator
	injector  *tracking.Injector
	sender    Sender

	delay time.Duration
	sleep func(context.Context, time.Duration) error
	now   func() time.Time
}

func NewService(
	batches BatchStore,
	settings SettingsStore,
	records TrackingStore,
	composer *compose.Composer,
	generator Generator,
	injector *tracking.Injector,
	sender Sender,
	delay time.Duration,
) *Service {
	return &Service{
		batches:   batches,
		settings:  settings,
		records:   records,
		composer:  composer,
		generator: generator,
		injector:  injector,
		sender:    sender,
		delay:     delay,
		sleep:     sleepCtx,
		now:       time.Now,
	}
}

// Failure names one contact the pipeline could not process and why.
type Failure struct {
	Name   string `json:"name,omitempty"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// GenerateReport is the outcome of a generation run.
type GenerateReport struct {
	Emails   []domain.GeneratedEmail `json:"emails"`
	Failures []Failure               `json:"failures,omitempty"`
}

// Generate produces a personalized email for every contact in the batch
// that has an address. Contacts whose generation fails are reported and
// skipped; the run continues.
func (s *Service) Generate(ctx context.Context, batchID, customPrompt string) (*GenerateReport, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if settings.OpenAIAPIKey == "" {
		return nil, ErrNotConfigured
	}

	b, err := s.batches.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	report := &GenerateReport{}
	for _, contact := range b.Contacts {
		if contact.Email == "" {
			report.Failures = append(report.Failures, Failure{
				Name: contact.Name, Reason: "contact has no email address",
			})
			continue
		}

		prompt, err := s.composer.Compose(contact, settings.Sender, customPrompt)
		if err != nil {
			report.Failures = append(report.Failures, Failure{
				Name: contact.Name, Email: contact.Email, Reason: fmt.Sprintf("compose prompt: %v", err),
			})
			continue
		}

		result := s.generator.Generate(ctx, settings.OpenAIAPIKey, generate.ContactData{
			Name:            contact.Name,
			University:      contact.University,
			ProductName:     contact.ProductName,
			SenderName:      settings.Sender.Name,
			SenderSignature: signature(settings.Sender),
		}, prompt)
		if result == nil {
			report.Failures = append(report.Failures, Failure{
				Name: contact.Name, Email: contact.Email, Reason: "generation failed",
			})
			continue
		}

		subject := ""
		if len(result.SubjectOptions) > 0 {
			subject = result.SubjectOptions[0]
		}
		report.Emails = append(report.Emails, domain.GeneratedEmail{
			ID:             uuid.New().String(),
			ContactName:    contact.Name,
			University:     contact.University,
			Email:          contact.Email,
			Subject:        subject,
			SubjectOptions: result.SubjectOptions,
			TextContent:    result.Body,
			TrackingID:     uuid.New().String(),
			CC:             splitCC(settings.CCRecipients),
		})
	}

	log.Printf("[outreach] generated %d emails for batch %s (%d failures)",
		len(report.Emails), batchID, len(report.Failures))
	return report, nil
}

// SendReport is the outcome of a send run.
type SendReport struct {
	Delivered int       `json:"delivered"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Send delivers the reviewed emails of a batch. Credentials are verified
// once up front; after that each message sinks or swims on its own, with a
// pacing delay between sends. Every successful delivery creates a tracking
// record, and the batch delivered count is updated at the end.
func (s *Service) Send(ctx context.Context, batchID string, emails []domain.GeneratedEmail) (*SendReport, error) {
	if len(emails) == 0 {
		return nil, ErrNoRecipients
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.Configured() {
		return nil, ErrNotConfigured
	}

	if _, err := s.batches.Get(ctx, batchID); err != nil {
		return nil, err
	}

	creds := delivery.Credentials{Email: settings.Email, AppPassword: settings.AppPassword}
	if err := s.sender.Verify(ctx, creds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerifyFailed, err)
	}

	report := &SendReport{}
	for i, email := range emails {
		if i > 0 && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return report, err
			}
		}

		if email.Email == "" {
			report.Failures = append(report.Failures, Failure{Name: email.ContactName, Reason: "missing recipient address"})
			continue
		}

		subject := email.Subject
		if subject == "" && len(email.SubjectOptions) > 0 {
			subject = email.SubjectOptions[0]
		}

		trackingID := email.TrackingID
		if trackingID == "" {
			trackingID = uuid.New().String()
		}

		htmlDoc, text, err := s.injector.Build(email.TextContent, trackingID)
		if err != nil {
			report.Failures = append(report.Failures, Failure{
				Name: email.ContactName, Email: email.Email, Reason: fmt.Sprintf("render: %v", err),
			})
			continue
		}

		msg := &delivery.Message{
			FromName:  settings.Sender.Name,
			FromEmail: settings.Email,
			To:        email.Email,
			CC:        email.CC,
			Subject:   subject,
			HTMLBody:  htmlDoc,
			TextBody:  text,
		}
		if !s.sender.Send(ctx, creds, msg) {
			report.Failures = append(report.Failures, Failure{
				Name: email.ContactName, Email: email.Email, Reason: "delivery failed",
			})
			continue
		}

		rec := &domain.TrackingRecord{
			TrackingID:  trackingID,
			BatchID:     batchID,
			ContactName: email.ContactName,
			Email:       email.Email,
			SentAt:      s.now().UTC(),
		}
		if err := s.records.CreateRecord(ctx, rec); err != nil {
			log.Printf("[outreach] tracking record for %s: %v", email.Email, err)
		}
		report.Delivered++
	}

	if err := s.batches.UpdateDelivered(ctx, batchID, report.Delivered); err != nil {
		log.Printf("[outreach] update delivered for %s: %v", batchID, err)
	}

	log.Printf("[outreach] batch %s: delivered %d of %d", batchID, report.Delivered, len(emails))
	return report, nil
}

func splitCC(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func signature(s domain.SenderIdentity) string {
	var lines []string
	if s.Designation != "" {
		lines = append(lines, s.Designation)
	}
	if s.Company != "" {
		lines = append(lines, s.Company)
	}
	if s.Phone != "" {
		lines = append(lines, s.Phone)
	}
	return strings.Join(lines, "\n")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
