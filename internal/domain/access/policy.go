// Package access decides which catalog rows a user may see.
package access

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/botivate/systems-dashboard/internal/domain/auth"
	"github.com/botivate/systems-dashboard/internal/domain/model"
)

// Policy decides whether a user may see a system.
type Policy interface {
	IsAccessible(user auth.UserRecord, system model.SystemRecord) bool
}

// SubstringPolicy grants access when a grant token and the system name
// contain one another, ignoring case. Admins see everything.
//
// The containment test runs in both directions so that the credential sheet
// and the systems sheet may name the same system differently. Short grant
// tokens can therefore over-grant (a "pipe" token matches "Pipeline Tracker").
type SubstringPolicy struct{}

var _ Policy = SubstringPolicy{}

// IsAccessible implements Policy.
func (SubstringPolicy) IsAccessible(user auth.UserRecord, system model.SystemRecord) bool {
	if user.IsAdmin() {
		return true
	}
	name := lower(system.Name)
	for _, token := range ParseGrant(user.AccessGrant) {
		if strings.Contains(name, token) || strings.Contains(token, name) {
			return true
		}
	}
	return false
}

// ParseGrant splits a comma-separated access grant into lower-cased,
// trimmed, non-empty tokens.
func ParseGrant(grant string) []string {
	parts := strings.Split(grant, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := lower(strings.TrimSpace(p)); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Filter returns the systems the user may see, preserving order.
func Filter(p Policy, user auth.UserRecord, systems []model.SystemRecord) []model.SystemRecord {
	out := make([]model.SystemRecord, 0, len(systems))
	for _, s := range systems {
		if p.IsAccessible(user, s) {
			out = append(out, s)
		}
	}
	return out
}

// lower uses a fresh Caser per call; Casers are stateful and not goroutine safe.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}
