// Package outreach orchestrates the generate-and-send pipeline: composing
// prompts per contact, generating personalized emails, injecting tracking,
// and delivering the batch over SMTP at a steady pace.
//
// Per-contact failures never abort a run. Generation failures skip the
// contact, delivery failures skip the recipient, and both are collected
// into the report the caller gets back.
package outreach
