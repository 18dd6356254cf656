package models

import "strings"

// Confidence expresses how complete a tokenized endpoint is.
type Confidence string

const (
	// ConfidenceConfirmed means a port was recovered next to the IP.
	ConfidenceConfirmed Confidence = "confirmed"
	// ConfidenceAmbiguous means a bare IP with no discoverable port.
	ConfidenceAmbiguous Confidence = "ambiguous"
)

// Format names the known line layouts a proxy entry can use.
type Format string

const (
	FormatIPPort         Format = "ip:port"
	FormatIPPortUserPass Format = "ip:port:user:pass"
	FormatUserPassAtIP   Format = "user:pass@ip:port"
	FormatUserPassIPPort Format = "user:pass:ip:port"
	FormatUnknown        Format = "unknown"
)

// EndpointMatch is one proxy endpoint recovered from raw text.
// Offsets are byte offsets into the original text so callers can
// reconstruct highlighted spans. Immutable once produced.
type EndpointMatch struct {
	IP           string
	Port         string
	User         string
	Pass         string
	OriginalText string
	Offset       int
	Length       int
	Confidence   Confidence
	Format       Format
}

// Key is the normalizer's dedupe key. Credentials participate even
// when empty so ip:port and ip:port:user:pass entries stay distinct.
func (m EndpointMatch) Key() string {
	return m.IP + "|" + m.Port + "|" + m.User + "|" + m.Pass
}

// RunConfig carries the settings one check run is started with.
type RunConfig struct {
	CheckURL       string
	TimeoutSeconds int
	MaxWorkers     int
	ProxyType      string // "http" or "socks5"
	Delimiter      string // single character
	FieldOrder     string // e.g. "ip:port:user:pass"
}

// DefaultRunConfig mirrors the defaults the original UI ships with.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		CheckURL:       "https://httpbin.org/ip",
		TimeoutSeconds: 10,
		MaxWorkers:     20,
		ProxyType:      "http",
		Delimiter:      ":",
		FieldOrder:     "ip:port:user:pass",
	}
}

// FieldOrderList splits a field-order declaration such as
// "ip:port:user:pass" into its ordered field names.
func FieldOrderList(fieldOrder string) []string {
	var fields []string
	for _, f := range strings.Split(fieldOrder, ":") {
		f = strings.TrimSpace(f)
		if f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// ProxyResult is one decoded endpoint outcome from the check stream.
// Geo fields may be filled in exactly once by a later geo event.
type ProxyResult struct {
	ID             string `json:"id"`
	ProxyIP        string `json:"proxy_ip"`
	ProxyPort      string `json:"proxy_port"`
	User           string `json:"user"`
	Password       string `json:"password,omitempty"`
	Status         string `json:"status"` // "OK" or "FAIL"
	ExitIP         string `json:"exit_ip"`
	ResponseTimeMs *int   `json:"response_time_ms"`
	Error          string `json:"error"`
	Country        string `json:"country,omitempty"`
	CountryCode    string `json:"country_code,omitempty"`
	City           string `json:"city,omitempty"`

	Progress *Progress `json:"_progress,omitempty"`
}

const (
	StatusOK   = "OK"
	StatusFail = "FAIL"
)

// Progress is the completed/total counter piggybacked on result events.
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
}

// GeoInfo is the enrichment payload a geo event carries per result id.
type GeoInfo struct {
	Country     string `json:"country"`
	CountryCode string `json:"countryCode"`
	City        string `json:"city"`
}

// RunStats summarises a finished (or in-flight) run.
type RunStats struct {
	Total      int            `json:"total"`
	Alive      int            `json:"alive"`
	Dead       int            `json:"dead"`
	AvgLatency *int           `json:"avg_latency"`
	Countries  map[string]int `json:"countries,omitempty"`
}

// RunState is the lifecycle of one check run.
type RunState int

const (
	StateIdle RunState = iota
	StateRunning
	StateDone
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
