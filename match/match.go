// Package match decides whether a caller-supplied identity corresponds to one
// of the scraped agent records.
package match

import (
	"strings"
	"unicode"

	"github.com/use-agent/agentscrape/models"
	"golang.org/x/text/cases"
)

// field pairs a query value with the accessor and normalizer used for it.
type field struct {
	query     string
	candidate func(models.AgentRecord) string
	normalize func(string) string
}

// FindMatch returns the first candidate, in input order, for which every
// non-empty query field equals the candidate's field after normalization.
// A query with no fields never matches.
func FindMatch(query models.PartialIdentity, candidates []models.AgentRecord) (models.AgentRecord, bool) {
	fields := activeFields(query)
	if len(fields) == 0 {
		return models.AgentRecord{}, false
	}

	for _, c := range candidates {
		if matchesAll(fields, c) {
			return c, true
		}
	}
	return models.AgentRecord{}, false
}

func activeFields(q models.PartialIdentity) []field {
	all := []field{
		{q.Name, func(r models.AgentRecord) string { return r.Name }, NormalizeText},
		{q.Email, func(r models.AgentRecord) string { return r.Email }, NormalizeText},
		{q.Phone, func(r models.AgentRecord) string { return r.Phone }, NormalizePhone},
		{q.License, func(r models.AgentRecord) string { return r.License }, NormalizeText},
	}

	active := all[:0]
	for _, f := range all {
		if f.query != "" {
			active = append(active, f)
		}
	}
	return active
}

func matchesAll(fields []field, c models.AgentRecord) bool {
	for _, f := range fields {
		got := f.normalize(f.candidate(c))
		if got == "" || got != f.normalize(f.query) {
			return false
		}
	}
	return true
}

// NormalizeText trims surrounding whitespace and case-folds s. Used for
// names, emails and license numbers.
func NormalizeText(s string) string {
	// A Caser carries state, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// NormalizePhone drops whitespace, hyphens, parentheses and plus signs, then
// case-folds what is left so that extensions like "x12" compare equal.
func NormalizePhone(s string) string {
	stripped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r), r == '-', r == '(', r == ')', r == '+':
			return -1
		}
		return r
	}, s)
	return cases.Fold().String(stripped)
}
