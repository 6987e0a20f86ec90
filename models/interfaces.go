package models

import "context"

// FeatureSource supplies batches of feature vectors to the detection engine
type FeatureSource interface {
	ReferenceBatch(ctx context.Context, n int) ([]FeatureVector, error)
	LiveBatch(ctx context.Context, n int) ([]FeatureVector, error)
}
