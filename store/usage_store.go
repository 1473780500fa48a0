// Package store 用电记录与预测结果的持久化
package store

import (
	"context"

	"usageforecast/usage"
)

type UsageStore interface {
	List(ctx context.Context) ([]usage.Row, error)
	Insert(ctx context.Context, rows []usage.Row) error

	// SavePredictions 用最新一次预测整体替换旧结果
	SavePredictions(ctx context.Context, preds []usage.Prediction) error
	ListPredictions(ctx context.Context) ([]usage.Prediction, error)
}
