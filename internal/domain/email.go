package domain

import (
	"fmt"
	"strings"
)

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RequireInstitutionalEmail rejects addresses outside the institution's mail domain.
func RequireInstitutionalEmail(email, institutionDomain string) error {
	suffix := "@" + strings.ToLower(institutionDomain)
	if len(email) <= len(suffix) || !strings.HasSuffix(email, suffix) {
		return fmt.Errorf("email must end with %s: %w", suffix, ErrInvalidEmailDomain)
	}
	return nil
}

// StudentIDFromEmail strips the leading character of the local part,
// e.g. e1234567@metu.edu.tr -> 1234567.
func StudentIDFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if len(local) < 2 {
		return ""
	}
	return local[1:]
}
