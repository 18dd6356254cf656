// Package extract recovers proxy endpoints from arbitrary pasted text.
//
// The tokenizer scans for IPv4 literals and infers port and credentials
// from the surrounding characters, supporting the four layouts users
// commonly paste: ip:port, ip:port:user:pass, user:pass@ip:port and
// user:pass:ip:port. Everything here is a pure function over its input.
package extract

import (
	"regexp"
	"strings"

	"proxysweep/pkg/models"
)

var (
	// Strict IPv4 literal, each octet bounded to 0-255. Digit
	// boundaries are checked manually around each candidate.
	ipRe = regexp.MustCompile(`(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`)

	portRe   = regexp.MustCompile(`^:(\d{1,5})`)
	schemeRe = regexp.MustCompile(`(?i)^(?:https?|socks[45])://`)
	credsRe  = regexp.MustCompile(`^([^:\s]+):([^:\s]+)`)
)

// Tokenize scans raw multi-line text and returns every endpoint match
// in document order. Byte offsets refer to the original text so spans
// can be highlighted. Multiple IPs on one line each tokenize
// independently. Deterministic given identical input.
func Tokenize(text string) []models.EndpointMatch {
	var matches []models.EndpointMatch

	offset := 0
	for _, line := range strings.Split(text, "\n") {
		for _, loc := range ipRe.FindAllStringIndex(line, -1) {
			start, end := loc[0], loc[1]

			// Reject candidates glued to surrounding digits,
			// e.g. the "1.2.3.45" inside "61.2.3.456".
			if start > 0 && isDigit(line[start-1]) {
				continue
			}
			if end < len(line) && isDigit(line[end]) {
				continue
			}

			ip := line[start:end]
			if m := tokenizeAt(line, ip, start); m != nil {
				m.Offset += offset
				matches = append(matches, *m)
			}
		}
		offset += len(line) + 1 // +1 for the newline
	}

	return matches
}

// tokenizeAt inspects the text around one IP occurrence within a line
// and builds the match. Offset in the returned match is line-relative.
func tokenizeAt(line, ip string, ipStart int) *models.EndpointMatch {
	afterIP := line[ipStart+len(ip):]
	portLoc := portRe.FindStringSubmatch(afterIP)

	if portLoc == nil {
		// Bare IP: no port to confirm the endpoint with.
		return &models.EndpointMatch{
			IP:           ip,
			OriginalText: ip,
			Offset:       ipStart,
			Length:       len(ip),
			Confidence:   models.ConfidenceAmbiguous,
			Format:       models.FormatUnknown,
		}
	}

	port := portLoc[1]
	var user, pass string
	format := models.FormatIPPort

	var charBefore byte
	if ipStart > 0 {
		charBefore = line[ipStart-1]
	}

	switch charBefore {
	case '@':
		// user:pass@ip:port, possibly behind a scheme prefix.
		auth := authPrefix(line[:ipStart-1])
		auth = schemeRe.ReplaceAllString(auth, "")
		if u, p, ok := lastTwoTokens(auth); ok {
			user, pass = u, p
			format = models.FormatUserPassAtIP
		}
	case ':':
		auth := authPrefix(line[:ipStart-1])
		if u, p, ok := lastTwoTokens(auth); ok {
			user, pass = u, p
			format = models.FormatUserPassIPPort
		}
	}

	// Credentials after the port only count when none were found in
	// front of the IP.
	if user == "" && pass == "" {
		afterPort := afterIP[len(portLoc[0]):]
		if strings.HasPrefix(afterPort, ":") {
			if creds := credsRe.FindStringSubmatch(afterPort[1:]); creds != nil {
				user, pass = creds[1], creds[2]
				format = models.FormatIPPortUserPass
			}
		}
	}

	start := ipStart
	full := ip + ":" + port

	switch format {
	case models.FormatUserPassAtIP:
		if idx := strings.LastIndex(line[:ipStart], user+":"+pass+"@"); idx != -1 {
			start = idx
		}
		full = user + ":" + pass + "@" + ip + ":" + port
	case models.FormatUserPassIPPort:
		if idx := strings.LastIndex(line[:ipStart], user+":"+pass+":"); idx != -1 {
			start = idx
		}
		full = user + ":" + pass + ":" + ip + ":" + port
	case models.FormatIPPortUserPass:
		full = ip + ":" + port + ":" + user + ":" + pass
	}

	return &models.EndpointMatch{
		IP:           ip,
		Port:         port,
		User:         user,
		Pass:         pass,
		OriginalText: full,
		Offset:       start,
		Length:       len(full),
		Confidence:   models.ConfidenceConfirmed,
		Format:       format,
	}
}

// authPrefix trims the candidate credential text down to its nearest
// whitespace boundary so "keep http://u:p@1.2.3.4:80" yields
// "http://u:p".
func authPrefix(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexAny(s, " \t"); idx != -1 {
		s = s[idx+1:]
	}
	return s
}

// lastTwoTokens splits on ':' and returns the final two tokens as
// user/pass. Earlier tokens are discarded, which tolerates noise like
// a leading label glued onto the credentials.
func lastTwoTokens(s string) (user, pass string, ok bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[len(parts)-2], parts[len(parts)-1], true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
