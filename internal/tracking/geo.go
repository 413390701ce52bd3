package tracking

import (
	"strconv"
	"strings"
)

// regionFromIP buckets an IPv4 address into a coarse region by first octet.
// It is a heuristic, not a GeoIP lookup; unknown and non-IPv4 addresses
// report as Unknown.
func regionFromIP(ip string) string {
	octet, _, found := strings.Cut(ip, ".")
	if !found {
		return "Unknown"
	}
	n, err := strconv.Atoi(octet)
	if err != nil {
		return "Unknown"
	}
	switch {
	case n >= 1 && n <= 126:
		return "North America"
	case n >= 127 && n <= 191:
		return "Europe"
	case n >= 192 && n <= 223:
		return "Asia"
	default:
		return "Unknown"
	}
}
