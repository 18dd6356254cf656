package runner

import (
	"proxysweep/pkg/models"
)

// resultSet is the accumulated, ordered result collection for one run.
// It is owned by the Runner; all access goes through the Runner's lock.
type resultSet struct {
	results []models.ProxyResult
	byID    map[string]int
}

func newResultSet() *resultSet {
	return &resultSet{byID: make(map[string]int)}
}

func (s *resultSet) append(batch []models.ProxyResult) {
	for _, r := range batch {
		s.byID[r.ID] = len(s.results)
		s.results = append(s.results, r)
	}
}

// applyGeo merges enrichment fields into stored results by id. Unknown
// ids are a silent no-op.
func (s *resultSet) applyGeo(geo map[string]models.GeoInfo) {
	for id, g := range geo {
		idx, ok := s.byID[id]
		if !ok {
			continue
		}
		s.results[idx].Country = g.Country
		s.results[idx].CountryCode = g.CountryCode
		s.results[idx].City = g.City
	}
}

func (s *resultSet) len() int { return len(s.results) }

// snapshot copies the collection so readers never observe later
// in-place geo merges mid-read.
func (s *resultSet) snapshot() []models.ProxyResult {
	out := make([]models.ProxyResult, len(s.results))
	copy(out, s.results)
	return out
}

// DeriveStats computes a live stats snapshot from accumulated results,
// the same aggregation the server performs for the final done event.
// When a run finishes cleanly the two must agree.
func DeriveStats(results []models.ProxyResult) models.RunStats {
	stats := models.RunStats{Total: len(results)}

	var latencySum, latencyCount int
	countries := make(map[string]int)

	for _, r := range results {
		if r.Status == models.StatusOK {
			stats.Alive++
			if r.ResponseTimeMs != nil {
				latencySum += *r.ResponseTimeMs
				latencyCount++
			}
		} else {
			stats.Dead++
		}
		if r.Country != "" {
			countries[r.Country]++
		}
	}

	if latencyCount > 0 {
		avg := int(float64(latencySum)/float64(latencyCount) + 0.5)
		stats.AvgLatency = &avg
	}
	if len(countries) > 0 {
		stats.Countries = countries
	}
	return stats
}
