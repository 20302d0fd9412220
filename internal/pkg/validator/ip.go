package validator

import (
	"net"
	"strings"
)

// UnknownIP stands in for a client address gin could not determine
const UnknownIP = "unknown"

// IsValidIP reports whether ip parses as IPv4 or IPv6
func IsValidIP(ip string) bool {
	if ip == "" {
		return false
	}
	return net.ParseIP(ip) != nil
}

// NormalizeIP strips an IPv6 zone (fe80::1%eth0 -> fe80::1) and, for
// IPv4-mapped addresses, returns the plain IPv4 form so both spellings share
// one rate limit bucket.
func NormalizeIP(ip string) string {
	if idx := strings.IndexByte(ip, '%'); idx != -1 {
		ip = ip[:idx]
	}
	if parsed := net.ParseIP(ip); parsed != nil {
		if v4 := parsed.To4(); v4 != nil {
			return v4.String()
		}
		return parsed.String()
	}
	return ip
}

// GetIPOrDefault returns the normalized ip, or defaultIP when it is invalid
func GetIPOrDefault(ip, defaultIP string) string {
	normalized := NormalizeIP(ip)
	if IsValidIP(normalized) {
		return normalized
	}
	return defaultIP
}
