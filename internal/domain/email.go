package domain

// GeneratedEmail is a personalized email held between generation and send.
// It is not persisted until the send succeeds, at which point a
// TrackingRecord is created under TrackingID.
type GeneratedEmail struct {
	ID          string `json:"id"`
	ContactName string `json:"contact_name"`
	University  string `json:"university,omitempty"`
	Email       string `json:"email"`
	// Subject holds the selected subject line; SubjectOptions carries the
	// alternatives offered for review.
	Subject        string   `json:"subject"`
	SubjectOptions []string `json:"subject_options,omitempty"`
	HTMLContent    string   `json:"html_content"`
	TextContent    string   `json:"text_content"`
	TrackingID     string   `json:"tracking_id"`
	CC             []string `json:"cc,omitempty"`
}

// SenderIdentity is the signature block interpolated into prompts and
// default email bodies.
type SenderIdentity struct {
	Name        string `json:"sender_name"`
	Designation string `json:"sender_designation"`
	Phone       string `json:"sender_phone"`
	Company     string `json:"sender_company"`
}

// Settings is the single-user dashboard configuration persisted in the store.
type Settings struct {
	OpenAIAPIKey string         `json:"openai_api_key"`
	Email        string         `json:"email"`
	AppPassword  string         `json:"app_password"`
	CCRecipients string         `json:"cc_recipients,omitempty"` // comma-separated
	Sender       SenderIdentity `json:"sender"`
}

// Configured reports whether the settings carry everything needed to
// generate and send a batch.
func (s Settings) Configured() bool {
	return s.OpenAIAPIKey != "" && s.Email != "" && s.AppPassword != ""
}
