// Package validate checks raw proxy text and run settings against a
// user-chosen delimiter and field order, producing severity-tagged
// issues. Unlike package extract it parses strictly: each line is
// split on the configured delimiter and fields are read at the fixed
// positions the field order declares.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"proxysweep/pkg/models"
)

// Input is everything one validation pass looks at. All values are the
// raw strings the user typed; numeric settings are parsed here so a
// non-integer surfaces as a validation error, not a parse failure.
type Input struct {
	ProxyText   string
	Delimiter   string
	FieldOrder  string
	CheckURL    string
	Timeout     string
	MaxWorkers  string
	SessionName string
}

const (
	timeoutMin    = 1
	timeoutMax    = 60
	maxWorkersMin = 1
	maxWorkersMax = 200

	// Worker counts above this get a tip, not a warning.
	workersTipThreshold = 50

	// How many malformed line numbers are listed before truncating.
	malformedListLimit = 5

	// How many non-blank lines the delimiter mismatch sampler reads.
	mismatchSample = 10

	sessionNameMax = 60
)

var (
	ipv4Re = regexp.MustCompile(`^(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)(?:\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)){3}$`)
	// RFC 1123-ish: dot-separated labels of letters, digits and
	// inner hyphens.
	hostnameRe = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
)

// Check runs one full validation pass. It is pure and total: the same
// input always yields the same report, independent of prior state.
// Callers debounce per-keystroke input themselves; see runner.Coalescer.
func Check(in Input) models.Report {
	report := models.Report{}

	fields := models.FieldOrderList(in.FieldOrder)
	ipIdx, portIdx := indexOf(fields, "ip"), indexOf(fields, "port")
	hasAuthFields := indexOf(fields, "user") != -1 || indexOf(fields, "pass") != -1

	if ipIdx == -1 || portIdx == -1 {
		report.AddError(models.FieldFieldOrder,
			fmt.Sprintf("Field order %q must include both ip and port", in.FieldOrder))
	}

	delimOK := utf8.RuneCountInString(in.Delimiter) == 1
	if !delimOK {
		report.AddError(models.FieldFieldOrder, "Delimiter must be a single character")
	}

	// Splitting on a bad delimiter would misread every line, so the
	// line pass only runs with a usable one.
	var st lineStats
	if delimOK {
		st = scanLines(in, fields, ipIdx, portIdx, hasAuthFields)
	}
	checkProxyText(in, st, hasAuthFields, report)
	checkURL(in.CheckURL, report)
	checkNumbers(in, st.valid, report)

	if len(in.SessionName) > sessionNameMax {
		report.AddError(models.FieldSessionName,
			fmt.Sprintf("Session name must be %d characters or fewer", sessionNameMax))
	}

	return report
}

// lineStats is what one pass over the proxy text accumulates.
type lineStats struct {
	nonBlank       int
	valid          int
	malformedLines []int // 1-based line numbers
	duplicates     int
	sampled        int
	sampleMismatch int
}

func scanLines(in Input, fields []string, ipIdx, portIdx int, hasAuth bool) lineStats {
	var st lineStats
	if ipIdx == -1 || portIdx == -1 {
		return st
	}
	minParts := ipIdx + 1
	if portIdx >= ipIdx {
		minParts = portIdx + 1
	}

	seen := make(map[string]struct{})
	for n, raw := range strings.Split(in.ProxyText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		st.nonBlank++

		parts := strings.Split(line, in.Delimiter)

		// Delimiter mismatch sampling shares this pass.
		if st.sampled < mismatchSample {
			st.sampled++
			if len(parts) < len(fields) {
				st.sampleMismatch++
			}
		}

		if len(parts) < minParts {
			st.malformedLines = append(st.malformedLines, n+1)
			continue
		}
		ip := strings.TrimSpace(parts[ipIdx])
		port := strings.TrimSpace(parts[portIdx])
		if !ipv4Re.MatchString(ip) && !hostnameRe.MatchString(ip) {
			st.malformedLines = append(st.malformedLines, n+1)
			continue
		}
		p, err := strconv.Atoi(port)
		if err != nil || p < 1 || p > 65535 {
			st.malformedLines = append(st.malformedLines, n+1)
			continue
		}

		st.valid++

		// ip:port alone is not enough to call two entries
		// duplicates under an auth-bearing field order.
		key := strings.ToLower(ip) + ":" + port
		if hasAuth {
			key += "|" + fieldAt(parts, fields, "user") + "|" + fieldAt(parts, fields, "pass")
		}
		if _, dup := seen[key]; dup {
			st.duplicates++
		} else {
			seen[key] = struct{}{}
		}
	}
	return st
}

func checkProxyText(in Input, st lineStats, hasAuth bool, report models.Report) {
	if strings.TrimSpace(in.ProxyText) == "" {
		report.AddError(models.FieldProxyText, "At least one proxy is required")
		return
	}

	if st.nonBlank > 0 && st.valid == 0 {
		report.AddError(models.FieldProxyText,
			fmt.Sprintf("No valid proxy lines found; expected %s separated by %q", in.FieldOrder, in.Delimiter))
	}

	if n := len(st.malformedLines); n > 0 {
		if n <= malformedListLimit {
			report.AddWarning(models.FieldProxyText,
				fmt.Sprintf("Malformed lines: %s", joinInts(st.malformedLines)))
		} else {
			report.AddWarning(models.FieldProxyText,
				fmt.Sprintf("%d malformed lines (first %d: %s)",
					n, malformedListLimit, joinInts(st.malformedLines[:malformedListLimit])))
		}
	}

	if st.duplicates > 0 {
		key := "ip:port"
		if hasAuth {
			key = "ip:port plus credentials"
		}
		report.AddWarning(models.FieldProxyText,
			fmt.Sprintf("%d duplicate %s found (matched by %s)",
				st.duplicates, plural(st.duplicates, "entry", "entries"), key))
	}

	if st.sampled > 0 && st.sampleMismatch*2 > st.sampled {
		report.AddWarning(models.FieldFieldOrder,
			fmt.Sprintf("Most lines don't split into %q fields using delimiter %q; check the field order and delimiter",
				in.FieldOrder, in.Delimiter))
	}
}

func checkURL(rawURL string, report models.Report) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || !u.IsAbs() || !strings.HasPrefix(u.Scheme, "http") {
		report.AddError(models.FieldCheckURL, "Check URL must be an absolute http(s) URL")
	}
}

func checkNumbers(in Input, validProxies int, report models.Report) {
	timeout, err := strconv.Atoi(strings.TrimSpace(in.Timeout))
	if err != nil || timeout < timeoutMin || timeout > timeoutMax {
		report.AddError(models.FieldTimeout,
			fmt.Sprintf("Timeout must be an integer between %d and %d seconds", timeoutMin, timeoutMax))
	}

	workers, err := strconv.Atoi(strings.TrimSpace(in.MaxWorkers))
	if err != nil || workers < maxWorkersMin || workers > maxWorkersMax {
		report.AddError(models.FieldMaxWorkers,
			fmt.Sprintf("Max workers must be an integer between %d and %d", maxWorkersMin, maxWorkersMax))
		return
	}
	if validProxies > 0 && workers > validProxies {
		report.AddWarning(models.FieldMaxWorkers,
			fmt.Sprintf("%d workers for %d %s; extra workers will idle",
				workers, validProxies, plural(validProxies, "proxy", "proxies")))
	}
	if workers > workersTipThreshold {
		report.AddTip(models.FieldMaxWorkers,
			fmt.Sprintf("Counts above %d rarely speed things up; the checked proxies are usually the bottleneck", workersTipThreshold))
	}
}

func fieldAt(parts, fields []string, name string) string {
	idx := indexOf(fields, name)
	if idx == -1 || idx >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[idx])
}

func indexOf(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}

func joinInts(xs []int) string {
	strs := make([]string, len(xs))
	for i, x := range xs {
		strs[i] = strconv.Itoa(x)
	}
	return strings.Join(strs, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
