package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchoolYearFor(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC), "2025-2026"},
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC), "2025-2026"},
		{time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC), "2026-2027"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SchoolYearFor(tt.date), tt.date.String())
	}
}

func TestTermFor(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.August, "1st Term"},
		{time.October, "1st Term"},
		{time.December, "1st Term"},
		{time.January, "2nd Term"},
		{time.March, "2nd Term"},
		{time.April, "3rd Term"},
		{time.July, "3rd Term"},
	}

	for _, tt := range tests {
		date := time.Date(2026, tt.month, 15, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, tt.want, TermFor(date), tt.month.String())
	}
}
