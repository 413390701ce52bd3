package domain

import "time"

// Batch is one CSV upload and its resulting contact set plus aggregate
// send/open statistics. Delivered is set by the delivery engine; Opened,
// Clicked, and the rates are recomputed by the tracking collector from the
// batch's tracking records.
type Batch struct {
	ID          string    `json:"id"`
	UploadTime  time.Time `json:"upload_time"`
	CSVName     string    `json:"csv_name"`
	TotalEmails int       `json:"total_emails"`
	Delivered   int       `json:"delivered"`
	Opened      int       `json:"opened"`
	Clicked     int       `json:"clicked"`
	OpenRate    float64   `json:"open_rate"`
	ClickRate   float64   `json:"click_rate"`
	Contacts    []Contact `json:"contacts,omitempty"`
}

// Rate returns opened-or-clicked count over delivered as a percentage,
// 0 when nothing has been delivered.
func Rate(count, delivered int) float64 {
	if delivered <= 0 {
		return 0
	}
	return float64(count) / float64(delivered) * 100
}

// OverviewStats aggregates across all batches for the dashboard.
type OverviewStats struct {
	TotalSent       int     `json:"total_sent"`
	TotalDelivered  int     `json:"total_delivered"`
	TotalOpened     int     `json:"total_opened"`
	AverageOpenRate float64 `json:"average_open_rate"`
	RecentBatches   int     `json:"recent_batches"`
	RecentSent      int     `json:"recent_sent"`
}

// MonthlyStats is one month's bucket for the dashboard chart.
type MonthlyStats struct {
	Month     string  `json:"month"` // "2026-08"
	Sent      int     `json:"sent"`
	Delivered int     `json:"delivered"`
	Opened    int     `json:"opened"`
	OpenRate  float64 `json:"open_rate"`
}
