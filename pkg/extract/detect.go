package extract

import (
	"regexp"
	"strings"

	"proxysweep/pkg/models"
)

// looseIPRe is intentionally permissive; DetectFormat only needs to
// tell which column looks like an address, not validate octets.
var looseIPRe = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// detectSample bounds how many non-blank lines DetectFormat inspects.
const detectSample = 5

// detectOrder fixes the tie-break: earlier layouts win equal counts.
var detectOrder = []models.Format{
	models.FormatIPPort,
	models.FormatIPPortUserPass,
	models.FormatUserPassAtIP,
	models.FormatUserPassIPPort,
}

// DetectFormat guesses the dominant line layout from the first few
// non-blank lines of text. The guess is advisory only: it is surfaced
// to the user ("Detected format: ...") and never written back into
// stored configuration.
func DetectFormat(text string) models.Format {
	var sample []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) == detectSample {
			break
		}
	}
	if len(sample) == 0 {
		return models.FormatUnknown
	}

	counts := make(map[models.Format]int, len(detectOrder))
	for _, line := range sample {
		if strings.Contains(line, "@") {
			counts[models.FormatUserPassAtIP]++
		}
		parts := strings.Split(line, ":")
		switch len(parts) {
		case 2:
			counts[models.FormatIPPort]++
		case 4:
			// Four columns are ambiguous between the two
			// credential layouts; the IP column decides.
			if looseIPRe.MatchString(parts[0]) {
				counts[models.FormatIPPortUserPass]++
			} else if looseIPRe.MatchString(parts[2]) {
				counts[models.FormatUserPassIPPort]++
			}
		}
	}

	best := detectOrder[0]
	for _, f := range detectOrder[1:] {
		if counts[f] > counts[best] {
			best = f
		}
	}
	return best
}
