package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"circulation-backend/internal/domains/measurement/model"
	"circulation-backend/internal/domains/measurement/repository"
	"circulation-backend/internal/shared/datasource"
)

func newQualityService() (*QualityService, *repository.MemoryRepository) {
	repo := repository.NewMemoryRepository()
	return NewQualityService(repo, nil), repo
}

func TestNormalizePopularityPercentile(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	m := &model.Measurement{
		DataSource: datasource.Overdrive,
		Quantity:   model.QuantityPopularity,
		Value:      5805,
	}
	v, err := svc.Normalize(ctx, m)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 0.99, *v, 1e-9, "top of the table is the 99th percentile")

	low := &model.Measurement{
		DataSource: datasource.Overdrive,
		Quantity:   model.QuantityPopularity,
		Value:      1,
	}
	v, err = svc.Normalize(ctx, low)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 0.0, *v)
}

func TestNormalizeAmazonSalesRankInverted(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	bestseller := &model.Measurement{
		DataSource: datasource.Amazon,
		Quantity:   model.QuantityPopularity,
		Value:      100,
	}
	v, err := svc.Normalize(ctx, bestseller)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 1.0, *v, 1e-9, "a tiny sales rank beats the whole table")

	obscure := &model.Measurement{
		DataSource: datasource.Amazon,
		Quantity:   model.QuantityPopularity,
		Value:      20000000,
	}
	v, err = svc.Normalize(ctx, obscure)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 0.0, *v)
}

func TestNormalizeRatingMinMax(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	m := &model.Measurement{
		DataSource: datasource.Overdrive,
		Quantity:   model.QuantityRating,
		Value:      4,
	}
	v, err := svc.Normalize(ctx, m)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 0.75, *v, 1e-9)
}

func TestNormalizeUnknownScale(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	m := &model.Measurement{
		DataSource: datasource.Web,
		Quantity:   model.QuantityPageCount,
		Value:      350,
	}
	v, err := svc.Normalize(ctx, m)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestOverallQualityBlendsBuckets(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	half := 0.5
	one := 1.0
	measurements := []model.Measurement{
		{Quantity: model.QuantityPopularity, Weight: 1, NormalizedValue: &half},
		{Quantity: model.QuantityRating, Weight: 1, NormalizedValue: &one},
	}

	q, err := svc.OverallQuality(ctx, measurements, DefaultPopularityWeight, DefaultRatingWeight)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*0.3+1.0*0.7, q, 1e-9)
}

func TestOverallQualitySingleBucketIgnoresBlend(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	v := 0.6
	onlyPopularity := []model.Measurement{
		{Quantity: model.QuantityPopularity, Weight: 1, NormalizedValue: &v},
	}
	q, err := svc.OverallQuality(ctx, onlyPopularity, DefaultPopularityWeight, DefaultRatingWeight)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, q, 1e-9)

	onlyRating := []model.Measurement{
		{Quantity: model.QuantityRating, Weight: 1, NormalizedValue: &v},
	}
	q, err = svc.OverallQuality(ctx, onlyRating, DefaultPopularityWeight, DefaultRatingWeight)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, q, 1e-9)
}

func TestOverallQualityNoMeasurements(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	q, err := svc.OverallQuality(ctx, nil, DefaultPopularityWeight, DefaultRatingWeight)
	require.NoError(t, err)
	assert.Equal(t, 0.0, q)
}

func TestOverallQualityRejectsBadWeights(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	_, err := svc.OverallQuality(ctx, nil, 0.5, 0.6)
	assert.Error(t, err)
}

func TestOverallQualityWeightedAverage(t *testing.T) {
	svc, _ := newQualityService()
	ctx := context.Background()

	low, high := 0.2, 0.8
	measurements := []model.Measurement{
		{Quantity: model.QuantityRating, Weight: 3, NormalizedValue: &low},
		{Quantity: model.QuantityRating, Weight: 1, NormalizedValue: &high},
	}

	q, err := svc.OverallQuality(ctx, measurements, DefaultPopularityWeight, DefaultRatingWeight)
	require.NoError(t, err)
	assert.InDelta(t, (0.2*3+0.8*1)/4, q, 1e-9)
}

func TestAddMeasurementSupersedesPrevious(t *testing.T) {
	svc, repo := newQualityService()
	ctx := context.Background()

	require.NoError(t, svc.AddMeasurement(ctx, &model.Measurement{
		IdentifierID: 1,
		DataSource:   datasource.Overdrive,
		Quantity:     model.QuantityRating,
		Value:        3,
	}))
	require.NoError(t, svc.AddMeasurement(ctx, &model.Measurement{
		IdentifierID: 1,
		DataSource:   datasource.Overdrive,
		Quantity:     model.QuantityRating,
		Value:        4,
	}))

	current, err := repo.MostRecentFor(ctx, []int64{1}, []string{model.QuantityRating})
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, 4.0, current[0].Value)
}
