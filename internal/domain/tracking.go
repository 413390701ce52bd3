package domain

import "time"

// TrackingEventType enumerates the types of email engagement events.
type TrackingEventType string

const (
	EventOpen  TrackingEventType = "open"
	EventClick TrackingEventType = "click"
)

// TrackingRecord correlates one sent email with its later open/click events.
// Created when the send succeeds; mutated by every subsequent event. OpenedAt
// is set on the first genuine open only and never overwritten.
type TrackingRecord struct {
	TrackingID  string     `json:"tracking_id"`
	BatchID     string     `json:"batch_id"`
	ContactName string     `json:"contact_name"`
	Email       string     `json:"email"`
	SentAt      time.Time  `json:"sent_at"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	OpenCount   int        `json:"open_count"`
	ClickCount  int        `json:"click_count"`
}

// TrackingEvent is one append-only open or click hit, genuine or not.
// Non-genuine events (bots, prefetchers, security scanners) are kept for
// analytics but never increment the record's counters.
type TrackingEvent struct {
	ID         string            `json:"id"`
	TrackingID string            `json:"tracking_id"`
	EventType  TrackingEventType `json:"event_type"`
	OccurredAt time.Time         `json:"occurred_at"`
	IPAddress  string            `json:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	DeviceType string            `json:"device_type,omitempty"`
	Browser    string            `json:"browser,omitempty"`
	Platform   string            `json:"platform,omitempty"`
	Country    string            `json:"country,omitempty"`
	Region     string            `json:"region,omitempty"`
	URL        string            `json:"url,omitempty"` // clicks only
	IsGenuine  bool              `json:"is_genuine"`
}
