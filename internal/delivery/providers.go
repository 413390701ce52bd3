package delivery

import (
	"log"
	"strings"

	"github.com/ignite/outreach/internal/config"
)

// resolveProfile picks the submission host for a sender address by its
// domain. Unknown domains fall through to the default profile, which works
// for most providers but is logged so misroutes are diagnosable.
func resolveProfile(cfg config.SMTPConfig, senderEmail string) config.SMTPProfile {
	_, domain, found := strings.Cut(senderEmail, "@")
	if !found || domain == "" {
		log.Printf("[delivery] sender %q has no domain, using default SMTP profile", senderEmail)
		return cfg.Default
	}

	domain = strings.ToLower(domain)
	for _, d := range cfg.ConsumerDomains {
		if domain == strings.ToLower(d) {
			return cfg.Consumer
		}
	}

	if !hostServesDomain(cfg.Default.Host, domain) {
		log.Printf("[delivery] no SMTP profile for domain %s, using %s", domain, cfg.Default.Host)
	}
	return cfg.Default
}

// hostServesDomain reports whether a submission host belongs to the sender's
// domain, e.g. smtp.gmail.com serves gmail.com. Senders on the default
// profile's own domain are routed correctly and need no warning.
func hostServesDomain(host, domain string) bool {
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
