package outreach

import "errors"

// Sentinel errors for the outreach pipeline.
var (
	ErrNotConfigured = errors.New("settings are incomplete: OpenAI key, sender email and app password are required")
	ErrNoRecipients  = errors.New("no emails to send")
	ErrVerifyFailed  = errors.New("SMTP credential verification failed")
)
