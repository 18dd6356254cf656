package models

// Severity classifies a validation finding. Errors block starting a
// run; warnings and tips never do.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityTip     Severity = "tip"
)

// Field names the logical input a validation issue belongs to.
type Field string

const (
	FieldProxyText   Field = "proxyText"
	FieldCheckURL    Field = "checkUrl"
	FieldTimeout     Field = "timeout"
	FieldMaxWorkers  Field = "maxWorkers"
	FieldFieldOrder  Field = "fieldOrder"
	FieldSessionName Field = "sessionName"
)

// Issue is a single severity-tagged validation finding.
type Issue struct {
	Severity Severity
	Message  string
}

// Report groups issues per logical field. A report is regenerated
// wholesale on every validation pass, never mutated incrementally.
type Report map[Field][]Issue

// HasErrors reports whether any field carries an error-severity issue.
func (r Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Count returns the number of issues of the given severity across all fields.
func (r Report) Count(sev Severity) int {
	n := 0
	for _, issues := range r {
		for _, issue := range issues {
			if issue.Severity == sev {
				n++
			}
		}
	}
	return n
}

func (r Report) add(field Field, sev Severity, msg string) {
	r[field] = append(r[field], Issue{Severity: sev, Message: msg})
}

// AddError records an error-severity issue on the given field.
func (r Report) AddError(field Field, msg string) { r.add(field, SeverityError, msg) }

// AddWarning records a warning-severity issue on the given field.
func (r Report) AddWarning(field Field, msg string) { r.add(field, SeverityWarning, msg) }

// AddTip records a tip-severity issue on the given field.
func (r Report) AddTip(field Field, msg string) { r.add(field, SeverityTip, msg) }
