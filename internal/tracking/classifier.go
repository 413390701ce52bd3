package tracking

import "strings"

// Security scanners and inbox-provider proxies fetch tracking pixels the
// moment a message is delivered, long before a human sees it. Events from
// those fetchers are stored for audit but never counted.
var botUserAgents = []string{
	"googleimageproxy",
	"cloudmark",
	"symantec",
	"mimecast",
	"proofpoint",
	"barracuda",
	"spam",
	"filter",
	"crawler",
	"bot",
	"spider",
	"preview",
	"monitoring",
	"validator",
	"checker",
	"scanner",
	"monitor",
	"prefetch",
	"preload",
}

var privateIPPrefixes = []string{
	"127.0.0.1",
	"192.168.",
	"10.",
	"172.16.",
	"::1",
}

// IsGenuine reports whether an open or click looks like a human acting on
// the email rather than automated mail infrastructure.
func IsGenuine(userAgent, ip string) bool {
	ua := strings.ToLower(userAgent)
	for _, marker := range botUserAgents {
		if strings.Contains(ua, marker) {
			return false
		}
	}
	for _, prefix := range privateIPPrefixes {
		if strings.HasPrefix(ip, prefix) {
			return false
		}
	}
	return true
}
