package tracking

import "testing"

func TestIsGenuine(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		ip   string
		want bool
	}{
		{"browser from public ip", humanUA, "34.120.5.9", true},
		{"google image proxy", "Mozilla/5.0 (via ggpht.com GoogleImageProxy)", "66.102.8.1", false},
		{"mimecast scanner", "Mimecast-Checker/2.1", "195.1.2.3", false},
		{"generic bot", "SomeBot/1.0", "34.120.5.9", false},
		{"spider", "web-spider", "34.120.5.9", false},
		{"link preview", "SkypeUriPreview", "34.120.5.9", false},
		{"case insensitive", "BARRACUDA-FILTER", "34.120.5.9", false},
		{"loopback", humanUA, "127.0.0.1", false},
		{"rfc1918 class c", humanUA, "192.168.0.44", false},
		{"rfc1918 class a", humanUA, "10.0.0.5", false},
		{"rfc1918 172.16", humanUA, "172.16.9.1", false},
		{"ipv6 loopback", humanUA, "::1", false},
		{"empty user agent", "", "34.120.5.9", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsGenuine(tt.ua, tt.ip); got != tt.want {
				t.Errorf("IsGenuine(%q, %q) = %v, want %v", tt.ua, tt.ip, got, tt.want)
			}
		})
	}
}

func TestRegionFromIP(t *testing.T) {
	tests := []struct {
		ip   string
		want string
	}{
		{"34.120.5.9", "North America"},
		{"126.255.0.1", "North America"},
		{"151.101.1.1", "Europe"},
		{"203.0.113.7", "Asia"},
		{"224.0.0.1", "Unknown"},
		{"::1", "Unknown"},
		{"not-an-ip", "Unknown"},
		{"", "Unknown"},
	}
	for _, tt := range tests {
		if got := regionFromIP(tt.ip); got != tt.want {
			t.Errorf("regionFromIP(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}
