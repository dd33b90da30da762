// Package app holds the application services and business logic.
package app

import (
	"context"
	"sort"
	"time"

	"weightlog/internal/domain"
)

// RecordInput carries the writable fields of a weight record. Nil fields
// are absent: on create every field is required, on update absent fields
// keep their current value.
type RecordInput struct {
	Date     *string
	Time     *string
	WeightKg *float64
}

// RecordsService encapsulates the weight record use cases: owner-scoped
// create, update, delete and list.
type RecordsService struct {
	repo  domain.WeightRecordRepository
	cache *ChartCache
}

// NewRecordsService creates a RecordsService backed by the given
// repository. cache may be nil; when set, cached chart series for the
// owner are invalidated on every mutation.
func NewRecordsService(repo domain.WeightRecordRepository, cache *ChartCache) *RecordsService {
	return &RecordsService{repo: repo, cache: cache}
}

// Create validates and stores a new record under ownerID.
func (s *RecordsService) Create(ctx context.Context, ownerID int64, in RecordInput) (*domain.WeightRecord, error) {
	verr := domain.NewValidationError()
	rec := domain.WeightRecord{UserID: ownerID}

	if in.Date == nil {
		verr.Add("date", "date is required")
	} else if d, err := domain.ParseDate(*in.Date); err != nil {
		verr.Add("date", "date must be a valid calendar date")
	} else {
		rec.Date = d
	}

	if in.Time == nil {
		verr.Add("time", "time is required")
	} else if t, err := domain.ParseTimeOfDay(*in.Time); err != nil {
		verr.Add("time", "time must be a valid time of day")
	} else {
		rec.Time = t
	}

	if in.WeightKg == nil {
		verr.Add("weight_kg", "weight_kg is required")
	} else if w, err := domain.NewWeight(*in.WeightKg); err != nil {
		verr.Add("weight_kg", err.Error())
	} else {
		rec.WeightKg = w
	}

	if !verr.Empty() {
		return nil, verr
	}

	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	id, err := s.repo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	s.invalidate(ownerID)
	return &rec, nil
}

// Update applies a partial update to a record after checking that actorID
// owns it. Returns domain.ErrNotFound or domain.ErrForbidden accordingly;
// on validation failure the record is left unchanged.
func (s *RecordsService) Update(ctx context.Context, recordID, actorID int64, in RecordInput) (*domain.WeightRecord, error) {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if !domain.CanModify(actorID, rec.UserID) {
		return nil, domain.ErrForbidden
	}

	verr := domain.NewValidationError()
	if in.Date != nil {
		if d, err := domain.ParseDate(*in.Date); err != nil {
			verr.Add("date", "date must be a valid calendar date")
		} else {
			rec.Date = d
		}
	}
	if in.Time != nil {
		if t, err := domain.ParseTimeOfDay(*in.Time); err != nil {
			verr.Add("time", "time must be a valid time of day")
		} else {
			rec.Time = t
		}
	}
	if in.WeightKg != nil {
		if w, err := domain.NewWeight(*in.WeightKg); err != nil {
			verr.Add("weight_kg", err.Error())
		} else {
			rec.WeightKg = w
		}
	}
	if !verr.Empty() {
		return nil, verr
	}

	rec.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, *rec); err != nil {
		return nil, err
	}
	s.invalidate(rec.UserID)
	return rec, nil
}

// Delete removes a record after the same ownership check as Update.
func (s *RecordsService) Delete(ctx context.Context, recordID, actorID int64) error {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if !domain.CanModify(actorID, rec.UserID) {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, recordID); err != nil {
		return err
	}
	s.invalidate(rec.UserID)
	return nil
}

// ListByOwner returns all of the owner's records, newest first, the way
// the dashboard list renders them.
func (s *RecordsService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.WeightRecord, error) {
	records, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return records[i].Time > records[j].Time
	})
	return records, nil
}

func (s *RecordsService) invalidate(ownerID int64) {
	if s.cache != nil {
		s.cache.Bump(ownerID)
	}
}
