package extract

import (
	"strings"

	"proxysweep/pkg/models"
)

// NormalizeResult reports what Normalize kept and dropped.
type NormalizeResult struct {
	Text              string // newline-joined canonical lines
	Kept              int
	DuplicatesRemoved int
	AmbiguousDropped  int
}

// Normalize deduplicates tokenized endpoints and serializes the
// survivors back to one canonical layout: ip:port:user:pass when both
// credentials are present, ip:port otherwise. Bare-IP matches are
// dropped here; callers surface them separately so the user can fix
// the missing ports. First occurrence wins and input order is kept,
// so normalizing already-normalized text changes nothing.
func Normalize(matches []models.EndpointMatch) NormalizeResult {
	var res NormalizeResult
	seen := make(map[string]struct{}, len(matches))
	var lines []string

	for _, m := range matches {
		if m.Port == "" {
			res.AmbiguousDropped++
			continue
		}
		key := m.Key()
		if _, dup := seen[key]; dup {
			res.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}

		if m.User != "" && m.Pass != "" {
			lines = append(lines, m.IP+":"+m.Port+":"+m.User+":"+m.Pass)
		} else {
			lines = append(lines, m.IP+":"+m.Port)
		}
	}

	res.Kept = len(lines)
	res.Text = strings.Join(lines, "\n")
	return res
}

// NormalizeText tokenizes and normalizes in one step.
func NormalizeText(text string) NormalizeResult {
	return Normalize(Tokenize(text))
}
