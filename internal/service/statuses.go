package service

import (
	"strings"

	"ticketdesk/internal/models"
)

// DefaultStatuses is used when no status file is configured.
var DefaultStatuses = []string{"open", "in progress", "resolved", "closed"}

// StatusVocabulary is the closed set of ticket statuses. Matching ignores case
// and surrounding space; the stored form is the configured spelling.
type StatusVocabulary struct {
	values []string
}

// NewStatusVocabulary builds a vocabulary from values, dropping blanks and
// case-insensitive duplicates. "open" is always present since new tickets
// start there.
func NewStatusVocabulary(values []string) *StatusVocabulary {
	v := &StatusVocabulary{}
	for _, s := range append([]string{models.StatusOpen}, values...) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := v.Canonical(s); ok {
			continue
		}
		v.values = append(v.values, s)
	}
	return v
}

// Canonical returns the configured spelling of s.
func (v *StatusVocabulary) Canonical(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, c := range v.values {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

func (v *StatusVocabulary) Values() []string {
	return append([]string(nil), v.values...)
}
