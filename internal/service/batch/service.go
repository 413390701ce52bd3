package batch

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/outreach/internal/domain"
	"github.com/ignite/outreach/internal/ingest"
)

// Service implements batch business logic on top of the repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a batch service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateResult reports what an upload produced: the stored batch and how
// many rows were skipped during parsing.
type CreateResult struct {
	Batch   *domain.Batch `json:"batch"`
	Skipped int           `json:"skipped"`
}

// CreateFromCSV parses a CSV upload and stores it as a new batch. Rows that
// fail validation are skipped and reported; structural problems (missing
// columns, no valid rows, too many rows) fail the whole upload.
func (s *Service) CreateFromCSV(ctx context.Context, csvName, content string) (*CreateResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyCSV
	}

	parsed, err := ingest.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", csvName, err)
	}

	b := &domain.Batch{
		ID:          uuid.New().String(),
		UploadTime:  s.now().UTC(),
		CSVName:     csvName,
		TotalEmails: len(parsed.Contacts),
		Contacts:    parsed.Contacts,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("store batch: %w", err)
	}

	log.Printf("[batch] created %s from %s: %d contacts, %d skipped",
		b.ID, csvName, len(parsed.Contacts), parsed.Skipped)
	return &CreateResult{Batch: b, Skipped: parsed.Skipped}, nil
}

// History returns all batches, newest first, without contact lists.
func (s *Service) History(ctx context.Context) ([]domain.Batch, error) {
	return s.repo.List(ctx)
}

// Details returns one batch with its contacts and tracking records.
func (s *Service) Details(ctx context.Context, id string) (*domain.Batch, []domain.TrackingRecord, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.repo.Records(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return b, records, nil
}

// Delete removes a batch and everything hanging off it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("[batch] deleted %s", id)
	return nil
}

// Overview aggregates every batch into the dashboard headline numbers.
// Recent figures cover the last 30 days.
func (s *Service) Overview(ctx context.Context) (*domain.OverviewStats, error) {
	batches, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.OverviewStats{}
	cutoff := s.now().AddDate(0, 0, -30)
	var opened int
	for _, b := range batches {
		stats.TotalSent += b.TotalEmails
		stats.TotalDelivered += b.Delivered
		opened += b.Opened
		if b.UploadTime.After(cutoff) {
			stats.RecentBatches++
			stats.RecentSent += b.TotalEmails
		}
	}
	stats.TotalOpened = opened
	stats.AverageOpenRate = domain.Rate(opened, stats.TotalDelivered)
	return stats, nil
}

// Monthly buckets batches by upload month for the dashboard chart, oldest
// month first.
func (s *Service) Monthly(ctx context.Context) ([]domain.MonthlyStats, error) {
	batches, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*domain.MonthlyStats)
	for _, b := range batches {
		month := b.UploadTime.Format("2006-01")
		m, ok := byMonth[month]
		if !ok {
			m = &domain.MonthlyStats{Month: month}
			byMonth[month] = m
		}
		m.Sent += b.TotalEmails
		m.Delivered += b.Delivered
		m.Opened += b.Opened
	}

	out := make([]domain.MonthlyStats, 0, len(byMonth))
	for _, m := range byMonth {
		m.OpenRate = domain.Rate(m.Opened, m.Delivered)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}
