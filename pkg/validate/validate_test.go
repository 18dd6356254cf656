package validate

import (
	"strings"
	"testing"

	"proxysweep/pkg/models"
)

func baseInput() Input {
	return Input{
		ProxyText:  "1.2.3.4:80:u:p",
		Delimiter:  ":",
		FieldOrder: "ip:port:user:pass",
		CheckURL:   "https://httpbin.org/ip",
		Timeout:    "10",
		MaxWorkers: "1",
	}
}

func issuesFor(t *testing.T, report models.Report, field models.Field, sev models.Severity) []models.Issue {
	t.Helper()
	var out []models.Issue
	for _, issue := range report[field] {
		if issue.Severity == sev {
			out = append(out, issue)
		}
	}
	return out
}

func TestCheck_CleanInputHasNoIssues(t *testing.T) {
	report := Check(baseInput())
	if len(report) != 0 {
		t.Errorf("expected empty report, got %#v", report)
	}
}

func TestCheck_EmptyProxyText(t *testing.T) {
	in := baseInput()
	in.ProxyText = "   \n\n"
	report := Check(in)
	errs := issuesFor(t, report, models.FieldProxyText, models.SeverityError)
	if len(errs) != 1 || errs[0].Message != "At least one proxy is required" {
		t.Errorf("got %#v", errs)
	}
}

func TestCheck_AllLinesMalformed(t *testing.T) {
	in := baseInput()
	in.ProxyText = "not-a-proxy\nalso bad"
	report := Check(in)
	errs := issuesFor(t, report, models.FieldProxyText, models.SeverityError)
	if len(errs) != 1 || !strings.Contains(errs[0].Message, "No valid proxy lines found") {
		t.Errorf("got %#v", errs)
	}
}

func TestCheck_MalformedLineNumbersListed(t *testing.T) {
	in := baseInput()
	in.ProxyText = "1.2.3.4:80\nbad\n# comment\n\n5.6.7.8:99999"
	report := Check(in)
	warns := issuesFor(t, report, models.FieldProxyText, models.SeverityWarning)
	if len(warns) != 1 {
		t.Fatalf("want one warning, got %#v", warns)
	}
	// Line numbers are positions in the original text, comments and
	// blanks included.
	if warns[0].Message != "Malformed lines: 2, 5" {
		t.Errorf("message = %q", warns[0].Message)
	}
}

func TestCheck_MalformedCountTruncated(t *testing.T) {
	in := baseInput()
	in.ProxyText = strings.Repeat("bad\n", 7) + "1.2.3.4:80"
	report := Check(in)
	warns := issuesFor(t, report, models.FieldProxyText, models.SeverityWarning)
	if len(warns) != 1 {
		t.Fatalf("want one warning, got %#v", warns)
	}
	if !strings.Contains(warns[0].Message, "7 malformed lines") ||
		!strings.Contains(warns[0].Message, "1, 2, 3, 4, 5") {
		t.Errorf("message = %q", warns[0].Message)
	}
}

func TestCheck_DuplicateDetection(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		fieldOrder string
		wantDups   bool
	}{
		{
			name:       "exact duplicate",
			text:       "1.1.1.1:80\n1.1.1.1:80",
			fieldOrder: "ip:port",
			wantDups:   true,
		},
		{
			name:       "case insensitive host",
			text:       "proxy.Example.com:80\nproxy.example.com:80",
			fieldOrder: "ip:port",
			wantDups:   true,
		},
		{
			name:       "different credentials under auth order",
			text:       "1.1.1.1:80:a:b\n1.1.1.1:80:c:d",
			fieldOrder: "ip:port:user:pass",
			wantDups:   false,
		},
		{
			name:       "same credentials under auth order",
			text:       "1.1.1.1:80:a:b\n1.1.1.1:80:a:b",
			fieldOrder: "ip:port:user:pass",
			wantDups:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.ProxyText = tt.text
			in.FieldOrder = tt.fieldOrder
			report := Check(in)
			warns := issuesFor(t, report, models.FieldProxyText, models.SeverityWarning)
			var dupWarn bool
			for _, w := range warns {
				if strings.Contains(w.Message, "duplicate") {
					dupWarn = true
				}
			}
			if dupWarn != tt.wantDups {
				t.Errorf("duplicate warning = %v, want %v (report %#v)", dupWarn, tt.wantDups, report)
			}
		})
	}
}

func TestCheck_TimeoutBounds(t *testing.T) {
	tests := []struct {
		timeout string
		wantErr bool
	}{
		{"0", true},
		{"61", true},
		{"1", false},
		{"60", false},
		{"abc", true},
		{"", true},
	}
	for _, tt := range tests {
		in := baseInput()
		in.Timeout = tt.timeout
		report := Check(in)
		gotErr := len(issuesFor(t, report, models.FieldTimeout, models.SeverityError)) > 0
		if gotErr != tt.wantErr {
			t.Errorf("timeout %q: error = %v, want %v", tt.timeout, gotErr, tt.wantErr)
		}
	}
}

func TestCheck_MaxWorkers(t *testing.T) {
	in := baseInput()
	in.MaxWorkers = "201"
	if !Check(in).HasErrors() {
		t.Error("201 workers should be an error")
	}

	in.MaxWorkers = "60"
	report := Check(in)
	if report.HasErrors() {
		t.Errorf("60 workers should not error: %#v", report)
	}
	if len(issuesFor(t, report, models.FieldMaxWorkers, models.SeverityWarning)) != 1 {
		t.Error("want warning when workers exceed proxy count")
	}
	if len(issuesFor(t, report, models.FieldMaxWorkers, models.SeverityTip)) != 1 {
		t.Error("want tip above 50 workers")
	}
}

func TestCheck_CheckURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://httpbin.org/ip", false},
		{"http://example.com", false},
		{"ftp://example.com", true},
		{"/relative/path", true},
		{"", true},
	}
	for _, tt := range tests {
		in := baseInput()
		in.CheckURL = tt.url
		gotErr := len(issuesFor(t, Check(in), models.FieldCheckURL, models.SeverityError)) > 0
		if gotErr != tt.wantErr {
			t.Errorf("url %q: error = %v, want %v", tt.url, gotErr, tt.wantErr)
		}
	}
}

func TestCheck_DelimiterMismatchWarning(t *testing.T) {
	in := baseInput()
	// Lines are semicolon separated but the delimiter says colon.
	in.Delimiter = ";"
	in.FieldOrder = "ip:port:user:pass"
	in.ProxyText = "1.2.3.4:80:u:p\n5.6.7.8:81:u:p\n9.9.9.9:82:u:p"
	report := Check(in)
	warns := issuesFor(t, report, models.FieldFieldOrder, models.SeverityWarning)
	if len(warns) != 1 {
		t.Fatalf("want delimiter mismatch warning, got %#v", report)
	}
	if !strings.Contains(warns[0].Message, `";"`) {
		t.Errorf("warning should name the delimiter: %q", warns[0].Message)
	}
}

func TestCheck_SessionName(t *testing.T) {
	in := baseInput()
	in.SessionName = strings.Repeat("x", 61)
	if len(issuesFor(t, Check(in), models.FieldSessionName, models.SeverityError)) != 1 {
		t.Error("want session name length error")
	}
	in.SessionName = strings.Repeat("x", 60)
	if len(issuesFor(t, Check(in), models.FieldSessionName, models.SeverityError)) != 0 {
		t.Error("60 characters should be allowed")
	}
}

func TestCheck_WarningsDoNotBlock(t *testing.T) {
	in := baseInput()
	in.ProxyText = "1.1.1.1:80\n1.1.1.1:80"
	in.FieldOrder = "ip:port"
	report := Check(in)
	if report.HasErrors() {
		t.Errorf("duplicates must not block a run: %#v", report)
	}
	if report.Count(models.SeverityWarning) == 0 {
		t.Error("expected a duplicate warning")
	}
}

func TestCheck_DelimiterMustBeSingleCharacter(t *testing.T) {
	tests := []struct {
		name      string
		delimiter string
		wantErr   bool
	}{
		{"empty", "", true},
		{"two characters", "::", true},
		{"colon", ":", false},
		{"multibyte rune", "：", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Delimiter = tt.delimiter
			if tt.delimiter != ":" {
				in.ProxyText = strings.ReplaceAll(in.ProxyText, ":", tt.delimiter)
			}
			report := Check(in)
			errs := issuesFor(t, report, models.FieldFieldOrder, models.SeverityError)
			if tt.wantErr {
				if len(errs) != 1 || errs[0].Message != "Delimiter must be a single character" {
					t.Errorf("got %#v", errs)
				}
				// The bad delimiter is the finding; the line pass
				// must not pile a misleading message on top.
				if len(issuesFor(t, report, models.FieldProxyText, models.SeverityError)) != 0 {
					t.Errorf("unexpected proxy text errors: %#v", report[models.FieldProxyText])
				}
			} else if report.HasErrors() {
				t.Errorf("delimiter %q should be accepted: %#v", tt.delimiter, report)
			}
		})
	}
}
