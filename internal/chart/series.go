// Package chart transforms raw weight records into the time-bucketed
// series rendered by the trend chart.
package chart

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"weightlog/internal/domain"
)

// ErrInvalidInput marks a malformed mode or bounds coming off the wire,
// as opposed to an internal failure while building the series.
var ErrInvalidInput = errors.New("invalid chart input")

// Mode selects the aggregation window for a series.
type Mode string

const (
	// ModeDay shows one point per day over the last 30 days.
	ModeDay Mode = "day"
	// ModeMonth shows one averaged point per calendar month over the last year.
	ModeMonth Mode = "month"
	// ModeYear shows one averaged point per calendar year.
	ModeYear Mode = "year"
	// ModeAll shows one point per day over the full record history.
	ModeAll Mode = "all"
	// ModeCustom shows one point per day within explicit date bounds.
	ModeCustom Mode = "custom"
)

// ParseMode validates a mode string coming off the wire.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDay, ModeMonth, ModeYear, ModeAll, ModeCustom:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
}

// Bounds restricts ModeCustom to an inclusive date range. An empty string
// leaves that side unbounded; both empty behaves like ModeAll.
type Bounds struct {
	Start string
	End   string
}

// Point is a single series entry. Weight is nil for gap days, so the chart
// shows a visual break instead of interpolating. For month and year modes
// Date holds the bucket key ("2024-01", "2024") instead of a full date.
type Point struct {
	Date   string         `json:"date"`
	Weight *domain.Weight `json:"weight"`
}

// BuildSeries turns records into an ordered series for the given mode.
// It is deterministic for a fixed now, does not mutate records, and all
// calendar arithmetic happens on UTC dates so the gap-fill loop cannot
// skip or double a day across DST transitions.
func BuildSeries(records []domain.WeightRecord, mode Mode, bounds Bounds, now time.Time) ([]Point, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if mode == ModeCustom {
		if bounds.Start != "" {
			if _, err := domain.ParseDate(bounds.Start); err != nil {
				return nil, fmt.Errorf("%w: start bound: %v", ErrInvalidInput, err)
			}
		}
		if bounds.End != "" {
			if _, err := domain.ParseDate(bounds.End); err != nil {
				return nil, fmt.Errorf("%w: end bound: %v", ErrInvalidInput, err)
			}
		}
	}

	sorted := make([]domain.WeightRecord, len(records))
	copy(sorted, records)
	// Date and time strings are fixed-width, so lexicographic order is
	// chronological order.
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Time < sorted[j].Time
	})

	filtered := filter(sorted, mode, bounds, now)
	if len(filtered) == 0 {
		return []Point{}, nil
	}

	switch mode {
	case ModeMonth:
		return bucketMean(filtered, 7), nil
	case ModeYear:
		return bucketMean(filtered, 4), nil
	default:
		return gapFilledDaily(filtered), nil
	}
}

func filter(sorted []domain.WeightRecord, mode Mode, bounds Bounds, now time.Time) []domain.WeightRecord {
	var from, to string
	switch mode {
	case ModeDay:
		from = now.UTC().AddDate(0, 0, -30).Format("2006-01-02")
	case ModeMonth:
		from = now.UTC().AddDate(-1, 0, 0).Format("2006-01-02")
	case ModeCustom:
		from, to = bounds.Start, bounds.End
	}

	out := make([]domain.WeightRecord, 0, len(sorted))
	for _, r := range sorted {
		if from != "" && r.Date < from {
			continue
		}
		if to != "" && r.Date > to {
			continue
		}
		out = append(out, r)
	}
	return out
}

// bucketMean groups records by a date-string prefix (7 for year-month,
// 4 for year) and averages the weights in each bucket. Input is sorted
// ascending, so buckets come out in ascending key order.
func bucketMean(records []domain.WeightRecord, keyLen int) []Point {
	type bucket struct {
		sum   float64
		count int
	}
	keys := make([]string, 0)
	buckets := make(map[string]*bucket)
	for _, r := range records {
		key := r.Date[:keyLen]
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			keys = append(keys, key)
		}
		b.sum += r.WeightKg.Kilograms()
		b.count++
	}

	points := make([]Point, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		mean, _ := domain.NewWeight(b.sum / float64(b.count))
		w := mean
		points = append(points, Point{Date: key, Weight: &w})
	}
	return points
}

// gapFilledDaily keeps the last record per calendar date (latest
// time-of-day wins) and emits one point for every consecutive day between
// the earliest and latest filtered date, with nil weights on days that
// have no record.
func gapFilledDaily(records []domain.WeightRecord) []Point {
	byDay := make(map[string]domain.Weight, len(records))
	for _, r := range records {
		byDay[r.Date] = r.WeightKg
	}

	first, _ := time.Parse("2006-01-02", records[0].Date)
	last, _ := time.Parse("2006-01-02", records[len(records)-1].Date)

	points := make([]Point, 0, int(last.Sub(first).Hours()/24)+1)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		day := d.Format("2006-01-02")
		p := Point{Date: day}
		if w, ok := byDay[day]; ok {
			p.Weight = &w
		}
		points = append(points, p)
	}
	return points
}
