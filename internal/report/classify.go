package report

import (
	"strings"

	"github.com/jdelrosario/kiosk-server/internal/models"
)

// Category is one of the five fixed report buckets a catalog service
// maps into, or Unclassified for anything else.
type Category string

const (
	CategoryBWPrint       Category = "Black & White Print"
	CategoryBWGraphics    Category = "Black & White Graphics"
	CategoryColorPrint    Category = "Colored Print"
	CategoryColorGraphics Category = "Colored Graphics"
	CategoryFine          Category = "Fine"
	Unclassified          Category = "Unclassified"
)

// Classify maps a service name to its report category by
// case-insensitive keyword match. Services that match none of the
// keywords are Unclassified and excluded from the monthly category
// report.
func Classify(serviceName string) Category {
	name := strings.ToLower(serviceName)

	if strings.Contains(name, "fine") {
		return CategoryFine
	}

	graphics := strings.Contains(name, "graphics")
	bw := strings.Contains(name, "blk") ||
		strings.Contains(name, "black") ||
		strings.Contains(name, "b&w")
	color := strings.Contains(name, "color") // matches "colored" too

	switch {
	case bw && graphics:
		return CategoryBWGraphics
	case color && graphics:
		return CategoryColorGraphics
	case bw:
		return CategoryBWPrint
	case color:
		return CategoryColorPrint
	}

	return Unclassified
}

// CategoryBreakdown sums quantity and amount per category across the
// given details, looking service names up in servicesByID. Line items
// whose service is unknown or unclassified are dropped.
func CategoryBreakdown(details []models.TransactionDetail, servicesByID map[int]models.ServiceType) []models.CategoryCount {
	type bucket struct {
		quantity int
		amount   float64
	}
	buckets := make(map[Category]*bucket)

	for _, detail := range details {
		for _, item := range detail.Services {
			svc, ok := servicesByID[item.ServiceID]
			if !ok {
				continue
			}
			category := Classify(svc.Name)
			if category == Unclassified {
				continue
			}
			b := buckets[category]
			if b == nil {
				b = &bucket{}
				buckets[category] = b
			}
			b.quantity += item.Quantity
			b.amount += item.Total
		}
	}

	// Fixed ordering keeps the report stable run to run.
	order := []Category{
		CategoryBWPrint,
		CategoryBWGraphics,
		CategoryColorPrint,
		CategoryColorGraphics,
		CategoryFine,
	}

	var out []models.CategoryCount
	for _, category := range order {
		if b, ok := buckets[category]; ok {
			out = append(out, models.CategoryCount{
				Category: string(category),
				Quantity: b.quantity,
				Amount:   Round2(b.amount),
			})
		}
	}
	return out
}
