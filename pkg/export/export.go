// Package export writes accumulated check results to files for use
// outside the tool, with working/dead/all row filters.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"proxysweep/pkg/models"
)

// Filter selects which result rows are exported.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterWorking Filter = "working"
	FilterDead    Filter = "dead"
)

// ParseFilter validates a user-supplied filter name.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case FilterAll, FilterWorking, FilterDead:
		return Filter(s), nil
	default:
		return "", fmt.Errorf("unknown filter %q (expected working, dead or all)", s)
	}
}

// Apply returns the results matching the filter, preserving order.
func Apply(results []models.ProxyResult, f Filter) []models.ProxyResult {
	if f == FilterAll {
		return results
	}
	var out []models.ProxyResult
	for _, r := range results {
		ok := r.Status == models.StatusOK
		if (f == FilterWorking && ok) || (f == FilterDead && !ok) {
			out = append(out, r)
		}
	}
	return out
}

// WriteCSV writes the filtered results as CSV. The country and city
// columns are present only when at least one row carries geo data, so
// runs without enrichment produce the narrower layout.
func WriteCSV(w io.Writer, results []models.ProxyResult, f Filter) error {
	rows := Apply(results, f)

	withGeo := false
	for _, r := range rows {
		if r.Country != "" || r.City != "" {
			withGeo = true
			break
		}
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"proxy_ip", "proxy_port", "user", "status", "exit_ip", "response_time_ms"}
	if withGeo {
		header = append(header, "country", "city")
	}
	header = append(header, "error")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		latency := ""
		if r.ResponseTimeMs != nil {
			latency = strconv.Itoa(*r.ResponseTimeMs)
		}
		row := []string{r.ProxyIP, r.ProxyPort, r.User, r.Status, r.ExitIP, latency}
		if withGeo {
			row = append(row, r.Country, r.City)
		}
		row = append(row, r.Error)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

// WriteList writes the filtered results as plain proxy lines, one per
// row, in the ip:port or ip:port:user:pass layout. Handy for feeding
// the working subset straight back into another tool.
func WriteList(w io.Writer, results []models.ProxyResult, f Filter) error {
	for _, r := range Apply(results, f) {
		line := r.ProxyIP + ":" + r.ProxyPort
		if r.User != "" && r.Password != "" {
			line += ":" + r.User + ":" + r.Password
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteFile writes results to path in the given format ("csv" or
// "txt").
func WriteFile(path, format string, results []models.ProxyResult, f Filter) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch format {
	case "csv":
		return WriteCSV(file, results, f)
	case "txt":
		return WriteList(file, results, f)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
