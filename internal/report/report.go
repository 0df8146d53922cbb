// Package report contains the pure aggregation functions behind the
// admin reports: count/total/average over approved transactions, the
// per-day breakdown, and the keyword-based service categorization.
// Data fetching stays in the service layer; everything here operates
// on plain slices and maps so it can be tested without a database.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/jdelrosario/kiosk-server/internal/models"
)

// Summary is the aggregate over a set of approved transactions.
type Summary struct {
	Count   int
	Total   float64
	Average float64
	Daily   []models.DayTotal
}

// Round2 rounds to two decimals, half away from zero. Totals and
// averages are rounded once at the aggregation boundary, matching the
// kiosk's two-decimal peso display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// InRange reports whether ts falls inside the optional [from, to]
// filter with inclusive day boundaries: from is truncated to the start
// of its day, to is extended to the end of its day.
func InRange(ts time.Time, from, to *time.Time) bool {
	if from != nil {
		start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		if ts.Before(start) {
			return false
		}
	}
	if to != nil {
		end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), to.Location())
		if ts.After(end) {
			return false
		}
	}
	return true
}

// DayBounds widens an optional [from, to] filter to whole days: from
// moves to the start of its day, to moves to the end of its day. Nil
// endpoints pass through unchanged.
func DayBounds(from, to *time.Time) (*time.Time, *time.Time) {
	if from != nil {
		start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
		from = &start
	}
	if to != nil {
		end := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), to.Location())
		to = &end
	}
	return from, to
}

// Aggregate sums the approved transactions whose date_time falls in
// the optional range. totalsByID maps transaction id to its detail
// total; a transaction without a detail row counts with amount zero.
func Aggregate(approved []models.Transaction, totalsByID map[string]float64, from, to *time.Time) Summary {
	var s Summary
	daily := make(map[string]float64)

	for _, tx := range approved {
		if !InRange(tx.DateTime, from, to) {
			continue
		}
		amount := totalsByID[tx.ID]
		s.Count++
		s.Total += amount

		day := tx.DateTime.UTC().Format("2006-01-02")
		daily[day] += amount
	}

	s.Total = Round2(s.Total)
	if s.Count > 0 {
		s.Average = Round2(s.Total / float64(s.Count))
	}

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		s.Daily = append(s.Daily, models.DayTotal{Date: day, Total: Round2(daily[day])})
	}

	return s
}
