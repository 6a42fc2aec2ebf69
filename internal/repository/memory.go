package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-series/internal/entity"
)

// memorySeries keeps series as encoded blobs, so callers never share
// slices with the stored copy.
type memorySeries struct {
	mu     sync.RWMutex
	series map[string][]byte
}

func NewMemorySeriesRepository() SeriesRepository {
	return &memorySeries{
		series: make(map[string][]byte),
	}
}

func (that *memorySeries) CreateOrUpdate(_ context.Context, series *entity.Series) error {
	seriesJSON, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("could not marshal series: %w", err)
	}

	that.mu.Lock()
	that.series[series.ID] = seriesJSON
	that.mu.Unlock()

	return nil
}

func (that *memorySeries) GetByID(_ context.Context, id string) (*entity.Series, error) {
	that.mu.RLock()
	seriesJSON, ok := that.series[id]
	that.mu.RUnlock()

	if !ok {
		return nil, ErrSeriesNotFound
	}

	var existingSeries entity.Series
	if err := json.Unmarshal(seriesJSON, &existingSeries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal series: %w", err)
	}

	return &existingSeries, nil
}

func (that *memorySeries) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.series[id]; !ok {
		return ErrSeriesNotFound
	}

	delete(that.series, id)

	return nil
}
