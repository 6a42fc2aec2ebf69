package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-series/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-series/internal/entity"
	"github.com/rocketscienceinc/tictactoe-series/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-series/internal/repository"
)

const (
	DefaultResultsLimit = 20
	MaxResultsLimit     = 100

	lockShards       = 64
	subscriberBuffer = 8
)

type seriesRepo interface {
	CreateOrUpdate(ctx context.Context, series *entity.Series) error
	GetByID(ctx context.Context, id string) (*entity.Series, error)
	DeleteByID(ctx context.Context, id string) error
}

type resultRepo interface {
	Save(ctx context.Context, result *entity.SeriesResult) error
	List(ctx context.Context, limit int) ([]entity.SeriesResult, error)
}

// transition mutates a series and reports whether anything changed.
type transition func(series *entity.Series) (bool, error)

// SeriesManager owns one series per browser session. Transitions of the
// same session run one at a time.
type SeriesManager struct {
	logger     *slog.Logger
	seriesRepo seriesRepo
	resultRepo resultRepo

	now func() time.Time

	locks [lockShards]sync.Mutex

	subscribersMutex sync.RWMutex
	subscribers      map[string]map[int]chan entity.View
	nextSubscriber   int
}

func NewSeriesManager(logger *slog.Logger, seriesRepo seriesRepo, resultRepo resultRepo) *SeriesManager {
	return &SeriesManager{
		logger:     logger.With("component", "series_manager"),
		seriesRepo: seriesRepo,
		resultRepo: resultRepo,

		now: time.Now,

		subscribers: make(map[string]map[int]chan entity.View),
	}
}

func (that *SeriesManager) GetOrCreate(ctx context.Context, sessionID string) (entity.View, error) {
	return that.apply(ctx, sessionID, func(*entity.Series) (bool, error) {
		return false, nil
	})
}

func (that *SeriesManager) Configure(ctx context.Context, sessionID string, players entity.Players) (entity.View, error) {
	return that.apply(ctx, sessionID, func(series *entity.Series) (bool, error) {
		return series.Configure(players), nil
	})
}

func (that *SeriesManager) SelectBestOf(ctx context.Context, sessionID string, bestOf int) (entity.View, error) {
	return that.apply(ctx, sessionID, func(series *entity.Series) (bool, error) {
		return series.SelectBestOf(bestOf), nil
	})
}

// Setup applies a whole setup form in one transition.
func (that *SeriesManager) Setup(ctx context.Context, sessionID string, config entity.SeriesConfig) (entity.View, error) {
	return that.apply(ctx, sessionID, func(series *entity.Series) (bool, error) {
		if series.State != entity.StateSetup {
			return false, nil
		}

		if series.Config.BestOf != config.BestOf {
			series.SelectBestOf(config.BestOf)
		}

		return series.Configure(config.Players), nil
	})
}

// Start returns the view together with apperror.ErrInvalidSetup when the
// setup is rejected; the view then carries the validation notice.
func (that *SeriesManager) Start(ctx context.Context, sessionID string) (entity.View, error) {
	return that.apply(ctx, sessionID, func(series *entity.Series) (bool, error) {
		wasSetup := series.State == entity.StateSetup
		if err := series.Start(); err != nil {
			return true, err
		}

		return wasSetup, nil
	})
}

func (that *SeriesManager) Play(ctx context.Context, sessionID string, cell int) (entity.View, error) {
	return that.apply(ctx, sessionID, func(series *entity.Series) (bool, error) {
		return series.Play(cell)
	})
}

func (that *SeriesManager) NextRound(ctx context.Context, sessionID string) (entity.View, error) {
	return that.apply(ctx, sessionID, func(series *entity.Series) (bool, error) {
		return series.NextRound(), nil
	})
}

func (that *SeriesManager) Acknowledge(ctx context.Context, sessionID string) (entity.View, error) {
	return that.apply(ctx, sessionID, func(series *entity.Series) (bool, error) {
		return series.Acknowledge(), nil
	})
}

// Reset abandons whatever the session was doing and goes back to setup.
func (that *SeriesManager) Reset(ctx context.Context, sessionID string) (entity.View, error) {
	lock := that.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	err := that.seriesRepo.DeleteByID(ctx, sessionID)
	if err != nil && !errors.Is(err, repository.ErrSeriesNotFound) {
		return entity.View{}, fmt.Errorf("failed to delete series: %w", err)
	}

	series := entity.NewSeries(sessionID)
	if err = that.seriesRepo.CreateOrUpdate(ctx, series); err != nil {
		return entity.View{}, fmt.Errorf("failed to save series: %w", err)
	}

	view := series.Snapshot()
	that.publish(sessionID, view)

	return view, nil
}

func (that *SeriesManager) Results(ctx context.Context, limit int) ([]entity.SeriesResult, error) {
	switch {
	case limit <= 0:
		limit = DefaultResultsLimit
	case limit > MaxResultsLimit:
		limit = MaxResultsLimit
	}

	results, err := that.resultRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return results, nil
}

// Subscribe registers an observer for every snapshot of the session. The
// returned cancel func must be called to release the channel.
func (that *SeriesManager) Subscribe(sessionID string) (<-chan entity.View, func()) {
	ch := make(chan entity.View, subscriberBuffer)

	that.subscribersMutex.Lock()
	id := that.nextSubscriber
	that.nextSubscriber++
	if that.subscribers[sessionID] == nil {
		that.subscribers[sessionID] = make(map[int]chan entity.View)
	}
	that.subscribers[sessionID][id] = ch
	that.subscribersMutex.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			that.subscribersMutex.Lock()
			defer that.subscribersMutex.Unlock()

			delete(that.subscribers[sessionID], id)
			if len(that.subscribers[sessionID]) == 0 {
				delete(that.subscribers, sessionID)
			}
			close(ch)
		})
	}

	return ch, cancel
}

func (that *SeriesManager) apply(ctx context.Context, sessionID string, fn transition) (entity.View, error) {
	lock := that.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	series, created, err := that.load(ctx, sessionID)
	if err != nil {
		return entity.View{}, err
	}

	wasOver := series.State == entity.StateSeriesOver

	changed, err := fn(series)
	if err != nil && !errors.Is(err, apperror.ErrInvalidSetup) {
		return series.Snapshot(), err
	}

	if changed || created {
		if saveErr := that.seriesRepo.CreateOrUpdate(ctx, series); saveErr != nil {
			return entity.View{}, fmt.Errorf("failed to save series: %w", saveErr)
		}
	}

	if !wasOver && series.State == entity.StateSeriesOver {
		that.archive(ctx, series)
	}

	view := series.Snapshot()
	if changed {
		that.publish(sessionID, view)
	}

	return view, err
}

func (that *SeriesManager) load(ctx context.Context, sessionID string) (*entity.Series, bool, error) {
	series, err := that.seriesRepo.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSeriesNotFound) {
		return entity.NewSeries(sessionID), true, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to get series: %w", err)
	}

	return series, false, nil
}

func (that *SeriesManager) archive(ctx context.Context, series *entity.Series) {
	log := that.logger.With("method", "archive", "sessionID", series.ID)

	result, ok := series.Outcome(pkg.GenerateResultID(), that.now())
	if !ok {
		return
	}

	if err := that.resultRepo.Save(ctx, &result); err != nil {
		log.Error("failed to archive series result", "error", err)
		return
	}

	log.Info("series finished", "result", result.Summary)
}

func (that *SeriesManager) publish(sessionID string, view entity.View) {
	log := that.logger.With("method", "publish", "sessionID", sessionID)

	that.subscribersMutex.RLock()
	defer that.subscribersMutex.RUnlock()

	for id, ch := range that.subscribers[sessionID] {
		select {
		case ch <- view:
		default:
			log.Warn("subscriber is behind, snapshot dropped", "subscriber", id)
		}
	}
}

func (that *SeriesManager) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))

	return &that.locks[h.Sum32()%lockShards]
}
