package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-series/internal/entity"
)

type mockSeriesRepo struct {
	mock.Mock
}

func (that *mockSeriesRepo) CreateOrUpdate(ctx context.Context, series *entity.Series) error {
	args := that.Called(ctx, series)
	return args.Error(0)
}

func (that *mockSeriesRepo) GetByID(ctx context.Context, id string) (*entity.Series, error) {
	args := that.Called(ctx, id)
	series, _ := args.Get(0).(*entity.Series)
	return series, args.Error(1)
}

func (that *mockSeriesRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

type mockResultRepo struct {
	mock.Mock
}

func (that *mockResultRepo) Save(ctx context.Context, result *entity.SeriesResult) error {
	args := that.Called(ctx, result)
	return args.Error(0)
}

func (that *mockResultRepo) List(ctx context.Context, limit int) ([]entity.SeriesResult, error) {
	args := that.Called(ctx, limit)
	results, _ := args.Get(0).([]entity.SeriesResult)
	return results, args.Error(1)
}
