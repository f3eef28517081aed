package utils

import (
	"net/mail"
	"strings"
)

// domains whose mailboxes ignore dots in the local part
var dotInsensitiveDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
}

// NormalizeEmail lower-cases and trims an address, and strips dots from the
// local part for providers that ignore them
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]
	if dotInsensitiveDomains[domain] {
		local = strings.ReplaceAll(local, ".", "")
	}
	return local + "@" + domain
}

// ValidEmail reports whether s parses as a bare address
func ValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".")
}
