package runner

import (
	"reflect"
	"testing"

	"proxysweep/pkg/models"
)

func intPtr(n int) *int { return &n }

func TestResultSet_ApplyGeo(t *testing.T) {
	s := newResultSet()
	s.append([]models.ProxyResult{
		{ID: "a", ProxyIP: "1.1.1.1"},
		{ID: "b", ProxyIP: "2.2.2.2"},
	})

	s.applyGeo(map[string]models.GeoInfo{
		"b":       {Country: "France", CountryCode: "FR", City: "Paris"},
		"missing": {Country: "Nowhere"},
	})

	snap := s.snapshot()
	if snap[1].Country != "France" || snap[1].CountryCode != "FR" || snap[1].City != "Paris" {
		t.Errorf("geo not applied: %+v", snap[1])
	}
	if snap[0].Country != "" {
		t.Errorf("untargeted result gained geo: %+v", snap[0])
	}
}

func TestResultSet_SnapshotIsACopy(t *testing.T) {
	s := newResultSet()
	s.append([]models.ProxyResult{{ID: "a"}})

	snap := s.snapshot()
	snap[0].ID = "mutated"
	if s.snapshot()[0].ID != "a" {
		t.Error("mutating a snapshot must not touch the set")
	}
}

func TestDeriveStats(t *testing.T) {
	results := []models.ProxyResult{
		{Status: models.StatusOK, ResponseTimeMs: intPtr(100), Country: "Germany"},
		{Status: models.StatusOK, ResponseTimeMs: intPtr(50), Country: "Germany"},
		{Status: models.StatusFail, ResponseTimeMs: intPtr(900), Country: "France"},
		{Status: models.StatusFail},
	}

	got := DeriveStats(results)
	want := models.RunStats{
		Total:      4,
		Alive:      2,
		Dead:       2,
		AvgLatency: intPtr(75),
		Countries:  map[string]int{"Germany": 2, "France": 1},
	}
	if got.Total != want.Total || got.Alive != want.Alive || got.Dead != want.Dead {
		t.Errorf("DeriveStats() = %+v, want %+v", got, want)
	}
	if got.AvgLatency == nil || *got.AvgLatency != 75 {
		t.Errorf("AvgLatency = %v, want 75 (alive results only)", got.AvgLatency)
	}
	if !reflect.DeepEqual(got.Countries, want.Countries) {
		t.Errorf("Countries = %v, want %v", got.Countries, want.Countries)
	}
}

func TestDeriveStats_Empty(t *testing.T) {
	got := DeriveStats(nil)
	if got.Total != 0 || got.AvgLatency != nil {
		t.Errorf("DeriveStats(nil) = %+v", got)
	}
}
