package domain

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxWeightKg is the largest value the weight_kg column can hold
// (DECIMAL(5,2): three integer digits, two decimal digits).
const MaxWeightKg = 999.99

// Weight is a body weight in kilograms, rounded to two decimal places.
type Weight float64

// NewWeight rounds kg to two decimals and checks the storage range.
func NewWeight(kg float64) (Weight, error) {
	if math.IsNaN(kg) || math.IsInf(kg, 0) {
		return 0, fmt.Errorf("weight must be a number")
	}
	w := Weight(math.Round(kg*100) / 100)
	if w < 0 || w > MaxWeightKg {
		return 0, fmt.Errorf("weight must be between 0 and %.2f kg", MaxWeightKg)
	}
	return w, nil
}

// Kilograms returns the weight as a plain float64.
func (w Weight) Kilograms() float64 {
	return float64(w)
}

// String formats the weight with exactly two decimals, e.g. "85.50".
func (w Weight) String() string {
	return strconv.FormatFloat(float64(w), 'f', 2, 64)
}

// MarshalJSON emits the weight as a fixed two-decimal number.
func (w Weight) MarshalJSON() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string.
func (w *Weight) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid weight %q", string(b))
	}
	parsed, err := NewWeight(v)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// WeightRecord is a single timestamped body-weight measurement owned by a
// user. Date and Time are stored as plain calendar strings ("2006-01-02",
// "15:04:05") so a record can never shift across a day boundary with the
// server's timezone.
type WeightRecord struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	WeightKg  Weight    `json:"weight_kg"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseDate validates and normalises a calendar date string.
func ParseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return t.Format("2006-01-02"), nil
}

// ParseTimeOfDay validates a time-of-day string, accepting "15:04" or
// "15:04:05", and normalises it to "15:04:05".
func ParseTimeOfDay(s string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q", s)
}

// WeightRecordRepository is the port for weight record persistence.
// GetByID returns (nil, nil) when no record exists.
type WeightRecordRepository interface {
	Create(ctx context.Context, rec WeightRecord) (int64, error)
	GetByID(ctx context.Context, id int64) (*WeightRecord, error)
	Update(ctx context.Context, rec WeightRecord) error
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]WeightRecord, error)
}
