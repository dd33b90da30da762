package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"weightlog/internal/chart"
	"weightlog/internal/domain"
)

// ChartsService builds the aggregated weight series for the trend chart.
type ChartsService struct {
	repo  domain.WeightRecordRepository
	cache *ChartCache
}

// NewChartsService creates a ChartsService backed by the given repository.
// cache may be nil to disable memoization.
func NewChartsService(repo domain.WeightRecordRepository, cache *ChartCache) *ChartsService {
	return &ChartsService{repo: repo, cache: cache}
}

// Series returns the chart series for the owner's records in the given
// mode. Bounds apply only to chart.ModeCustom.
func (s *ChartsService) Series(ctx context.Context, ownerID int64, mode chart.Mode, bounds chart.Bounds) ([]chart.Point, error) {
	if _, err := chart.ParseMode(string(mode)); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if points, ok := s.cache.Get(ownerID, mode, bounds); ok {
			log.Tracef("chart series cache hit: owner %d mode %s", ownerID, mode)
			return points, nil
		}
	}

	records, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	points, err := chart.BuildSeries(records, mode, bounds, time.Now())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ownerID, mode, bounds, points)
	}
	return points, nil
}
