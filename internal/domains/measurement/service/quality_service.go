package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"circulation-backend/internal/domains/measurement/model"
	"circulation-backend/internal/domains/measurement/repository"
)

// Default blend between how widely a book circulates and how well readers
// liked it.
const (
	DefaultPopularityWeight = 0.3
	DefaultRatingWeight     = 0.7
)

// QualityService normalizes raw measurements and folds them into a single
// quality score.
type QualityService struct {
	repo   repository.Repository
	scales *model.Scales
}

func NewQualityService(repo repository.Repository, scales *model.Scales) *QualityService {
	if scales == nil {
		scales = model.DefaultScales()
	}
	return &QualityService{repo: repo, scales: scales}
}

// AddMeasurement records a measurement, superseding the previous most
// recent one of the same quantity from the same source.
func (s *QualityService) AddMeasurement(ctx context.Context, m *model.Measurement) error {
	if err := s.repo.Add(ctx, m); err != nil {
		return err
	}

	log.Debug().
		Int64("identifier_id", m.IdentifierID).
		Str("data_source", m.DataSource).
		Str("quantity", m.Quantity).
		Float64("value", m.Value).
		Msg("Measurement recorded")

	return nil
}

// Normalize maps a measurement's raw value onto a 0..1 scale using the
// calibrated tables, persisting the result back on the row. Returns nil
// when no scale covers the (quantity, source) pair.
func (s *QualityService) Normalize(ctx context.Context, m *model.Measurement) (*float64, error) {
	if m.NormalizedValue != nil {
		return m.NormalizedValue, nil
	}

	var normalized *float64
	switch m.Quantity {
	case model.QuantityPopularity:
		if table, ok := s.scales.Popularity[m.DataSource]; ok {
			v := percentile(table, m.Value)
			normalized = &v
		}
	case model.QuantityDownloads:
		if table, ok := s.scales.Downloads[m.DataSource]; ok {
			v := percentile(table, m.Value)
			normalized = &v
		}
	case model.QuantityRating:
		if scale, ok := s.scales.Ratings[m.DataSource]; ok {
			v := (m.Value - scale.Min) / (scale.Max - scale.Min)
			normalized = &v
		}
	}

	if normalized == nil {
		return nil, nil
	}

	m.NormalizedValue = normalized
	if err := s.repo.SetNormalizedValue(ctx, m.ID, *normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// OverallQuality folds a set of measurements into one score. Popularity and
// download counts pool into one bucket, ratings into another; each bucket
// is averaged with per-measurement weights, then the buckets are blended.
// A work with no usable measurements scores 0.
func (s *QualityService) OverallQuality(ctx context.Context, measurements []model.Measurement, popularityWeight, ratingWeight float64) (float64, error) {
	if popularityWeight+ratingWeight != 1.0 {
		return 0, fmt.Errorf("popularity weight and rating weight must sum to 1 (%.2f + %.2f)",
			popularityWeight, ratingWeight)
	}

	var popularities, ratings []model.Measurement
	for _, m := range measurements {
		switch m.Quantity {
		case model.QuantityPopularity, model.QuantityDownloads:
			popularities = append(popularities, m)
		case model.QuantityRating:
			ratings = append(ratings, m)
		}
	}

	popularity, err := s.averageNormalized(ctx, popularities)
	if err != nil {
		return 0, err
	}
	rating, err := s.averageNormalized(ctx, ratings)
	if err != nil {
		return 0, err
	}

	switch {
	case popularity == nil && rating == nil:
		return 0, nil
	case rating == nil:
		return *popularity, nil
	case popularity == nil:
		return *rating, nil
	}
	return *popularity*popularityWeight + *rating*ratingWeight, nil
}

// QualityFor computes the overall quality over all current popularity,
// download, and rating measurements for the identifiers.
func (s *QualityService) QualityFor(ctx context.Context, identifierIDs []int64, popularityWeight, ratingWeight float64) (float64, error) {
	measurements, err := s.repo.MostRecentFor(ctx, identifierIDs, []string{
		model.QuantityPopularity, model.QuantityDownloads, model.QuantityRating,
	})
	if err != nil {
		return 0, err
	}
	return s.OverallQuality(ctx, measurements, popularityWeight, ratingWeight)
}

func (s *QualityService) averageNormalized(ctx context.Context, measurements []model.Measurement) (*float64, error) {
	var totalWeight, total float64
	for i := range measurements {
		v, err := s.Normalize(ctx, &measurements[i])
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		totalWeight += measurements[i].Weight
		total += *v * measurements[i].Weight
	}
	if totalWeight == 0 {
		return nil, nil
	}
	avg := total / totalWeight
	return &avg, nil
}

// percentile locates a value in a calibration table: a value falling in the
// nth percentile bucket normalizes to n * 0.01.
func percentile(table model.PercentileTable, value float64) float64 {
	if table.Descending {
		// Smaller raw values beat more of the table.
		beaten := 0
		for _, threshold := range table.Values {
			if threshold > value {
				beaten++
			}
		}
		return float64(beaten) * 0.01
	}

	position := sort.SearchFloat64s(table.Values, value)
	return float64(position) * 0.01
}
