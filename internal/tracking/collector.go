package tracking

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/outreach/internal/domain"
)

// ErrRecordNotFound is returned by Store implementations when no tracking
// record exists for a tracking ID.
var ErrRecordNotFound = errors.New("tracking record not found")

// Store is the persistence port the collector needs. Implemented by
// repository/postgres and by in-memory fakes in tests.
type Store interface {
	Record(ctx context.Context, trackingID string) (*domain.TrackingRecord, error)
	UpdateRecord(ctx context.Context, rec *domain.TrackingRecord) error
	AppendEvent(ctx context.Context, evt *domain.TrackingEvent) error
	BatchRecords(ctx context.Context, batchID string) ([]domain.TrackingRecord, error)
	UpdateBatchEngagement(ctx context.Context, batchID string, opened, clicked int, openRate, clickRate float64) error
	BatchDelivered(ctx context.Context, batchID string) (int, error)
}

// Collector records open and click events against tracking records and
// keeps batch aggregates consistent.
type Collector struct {
	store Store
	now   func() time.Time
}

func NewCollector(store Store) *Collector {
	return &Collector{store: store, now: time.Now}
}

// Hit describes one inbound tracking request.
type Hit struct {
	TrackingID string
	IPAddress  string
	UserAgent  string
	URL        string // clicks only
}

// RecordOpen stores an open event. Only genuine opens move the counters;
// OpenedAt is set on the first genuine open and never again.
func (c *Collector) RecordOpen(ctx context.Context, hit Hit) error {
	rec, err := c.store.Record(ctx, hit.TrackingID)
	if err != nil {
		return err
	}

	evt := c.newEvent(rec.TrackingID, domain.EventOpen, hit)
	if err := c.store.AppendEvent(ctx, evt); err != nil {
		return err
	}
	if !evt.IsGenuine {
		log.Printf("[tracking] filtered open id=%s ua=%q ip=%s", rec.TrackingID, hit.UserAgent, hit.IPAddress)
		return nil
	}

	rec.OpenCount++
	if rec.OpenedAt == nil {
		t := evt.OccurredAt
		rec.OpenedAt = &t
	}
	if err := c.store.UpdateRecord(ctx, rec); err != nil {
		return err
	}

	log.Printf("[tracking] open id=%s batch=%s count=%d", rec.TrackingID, rec.BatchID, rec.OpenCount)
	return c.recomputeBatch(ctx, rec.BatchID)
}

// RecordClick stores a click event. A click implies the message was opened,
// so a first genuine click also backfills OpenedAt.
func (c *Collector) RecordClick(ctx context.Context, hit Hit) error {
	rec, err := c.store.Record(ctx, hit.TrackingID)
	if err != nil {
		return err
	}

	evt := c.newEvent(rec.TrackingID, domain.EventClick, hit)
	if err := c.store.AppendEvent(ctx, evt); err != nil {
		return err
	}
	if !evt.IsGenuine {
		log.Printf("[tracking] filtered click id=%s ua=%q ip=%s", rec.TrackingID, hit.UserAgent, hit.IPAddress)
		return nil
	}

	rec.ClickCount++
	if rec.OpenedAt == nil {
		t := evt.OccurredAt
		rec.OpenedAt = &t
	}
	if err := c.store.UpdateRecord(ctx, rec); err != nil {
		return err
	}

	log.Printf("[tracking] click id=%s batch=%s url=%s", rec.TrackingID, rec.BatchID, hit.URL)
	return c.recomputeBatch(ctx, rec.BatchID)
}

func (c *Collector) newEvent(trackingID string, kind domain.TrackingEventType, hit Hit) *domain.TrackingEvent {
	ua := parseUserAgent(hit.UserAgent)
	return &domain.TrackingEvent{
		ID:         uuid.New().String(),
		TrackingID: trackingID,
		EventType:  kind,
		OccurredAt: c.now().UTC(),
		IPAddress:  hit.IPAddress,
		UserAgent:  hit.UserAgent,
		DeviceType: ua.device,
		Browser:    ua.browser,
		Platform:   ua.platform,
		Region:     regionFromIP(hit.IPAddress),
		URL:        hit.URL,
		IsGenuine:  IsGenuine(hit.UserAgent, hit.IPAddress),
	}
}

// recomputeBatch rebuilds the batch's engagement aggregates from all of its
// tracking records rather than incrementing, so repeated events and partial
// failures cannot drift the totals.
func (c *Collector) recomputeBatch(ctx context.Context, batchID string) error {
	records, err := c.store.BatchRecords(ctx, batchID)
	if err != nil {
		return err
	}
	delivered, err := c.store.BatchDelivered(ctx, batchID)
	if err != nil {
		return err
	}

	var opened, clicked int
	for _, rec := range records {
		if rec.OpenCount > 0 {
			opened++
		}
		if rec.ClickCount > 0 {
			clicked++
		}
	}

	return c.store.UpdateBatchEngagement(ctx, batchID,
		opened, clicked,
		domain.Rate(opened, delivered), domain.Rate(clicked, delivered))
}

type uaInfo struct {
	device   string
	browser  string
	platform string
}

// parseUserAgent is a best-effort sniff for the events feed, not a full UA
// parser.
func parseUserAgent(userAgent string) uaInfo {
	ua := strings.ToLower(userAgent)
	info := uaInfo{device: "desktop", browser: "other", platform: "other"}

	switch {
	case strings.Contains(ua, "ipad") || strings.Contains(ua, "tablet"):
		info.device = "tablet"
	case strings.Contains(ua, "mobile") || strings.Contains(ua, "iphone") || strings.Contains(ua, "android"):
		info.device = "mobile"
	}

	switch {
	case strings.Contains(ua, "edg/") || strings.Contains(ua, "edge"):
		info.browser = "edge"
	case strings.Contains(ua, "chrome"):
		info.browser = "chrome"
	case strings.Contains(ua, "safari"):
		info.browser = "safari"
	case strings.Contains(ua, "firefox"):
		info.browser = "firefox"
	case strings.Contains(ua, "outlook"):
		info.browser = "outlook"
	}

	switch {
	case strings.Contains(ua, "windows"):
		info.platform = "windows"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad") || strings.Contains(ua, "ios"):
		info.platform = "ios"
	case strings.Contains(ua, "mac"):
		info.platform = "macos"
	case strings.Contains(ua, "android"):
		info.platform = "android"
	case strings.Contains(ua, "linux"):
		info.platform = "linux"
	}

	return info
}
