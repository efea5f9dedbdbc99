package logic

import (
	"strconv"
	"strings"
)

// IsValidIP accepts a dotted-quad IPv4 address or an IPv6 address written
// as eight colon-separated groups of one to four hex digits. Compressed IPv6
// ("::") and zone suffixes are rejected.
func IsValidIP(s string) bool {
	return isDottedQuad(s) || isExpandedIPv6(s)
}

func isDottedQuad(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) == 0 || len(p) > 3 || !allDigits(p) {
			return false
		}
		if n, err := strconv.Atoi(p); err != nil || n > 255 {
			return false
		}
	}
	return true
}

func isExpandedIPv6(s string) bool {
	groups := strings.Split(s, ":")
	if len(groups) != 8 {
		return false
	}
	for _, g := range groups {
		if len(g) == 0 || len(g) > 4 {
			return false
		}
		if _, err := strconv.ParseUint(g, 16, 16); err != nil {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
