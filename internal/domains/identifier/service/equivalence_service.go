package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"circulation-backend/internal/domains/identifier/model"
	"circulation-backend/internal/domains/identifier/repository"
	"circulation-backend/pkg/cache"
)

// Default expansion parameters. Five levels is enough to get from a
// Gutenberg text to an ISBN: Gutenberg ID -> OCLC Work ID -> OCLC Number ->
// ISBN.
const (
	DefaultLevels    = 5
	DefaultThreshold = 0.5
)

// EquivalenceService computes recursive identifier equivalence over the
// weighted assertion graph.
type EquivalenceService struct {
	repo     repository.Repository
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewEquivalenceService(repo repository.Repository, c cache.Cache, cacheTTL time.Duration) *EquivalenceService {
	return &EquivalenceService{repo: repo, cache: c, cacheTTL: cacheTTL}
}

// AssertEquivalence is the sole write path for equivalency edges. Strength
// outside [-1, 1] is a contract violation.
func (s *EquivalenceService) AssertEquivalence(ctx context.Context, dataSource string, inputID, outputID int64, strength float64) (*model.Equivalency, error) {
	if strength < -1 || strength > 1 {
		return nil, model.ErrInvalidStrength
	}

	eq, err := s.repo.UpsertEquivalency(ctx, dataSource, inputID, outputID, strength)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int64("input_id", inputID).
		Int64("output_id", outputID).
		Str("data_source", dataSource).
		Float64("strength", eq.Strength).
		Int("votes", eq.Votes).
		Msg("Equivalency asserted")

	// Any cached closure touching these identifiers is now stale.
	if s.cache != nil {
		if err := s.cache.DeletePattern(ctx, "closure:*"); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate closure cache")
		}
	}
	return eq, nil
}

// RecursivelyEquivalentIDs expands the given seed identifiers through the
// equivalency graph, up to `levels` breadth-first rounds, keeping only
// equivalences whose composed confidence exceeds `threshold`.
//
// Confidence along a multi-hop path is the product of edge strengths: a
// probabilistic AND that deliberately discounts chains of guesses relative
// to direct assertions. Rounds are processed strictly in order; confidence
// composition depends on the best-known estimate at expansion time.
func (s *EquivalenceService) RecursivelyEquivalentIDs(ctx context.Context, seedIDs []int64, levels int, threshold float64) (model.ClosureMap, error) {
	if len(seedIDs) == 0 {
		return model.ClosureMap{}, nil
	}

	equivalents := make(model.ClosureMap, len(seedIDs))
	for _, id := range seedIDs {
		// Every identifier is unshakeably equivalent to itself.
		equivalents[id] = map[int64]model.Equivalent{
			id: {Confidence: 1, Votes: model.SelfVotes},
		}
	}

	working := make(map[int64]bool, len(seedIDs))
	for _, id := range seedIDs {
		working[id] = true
	}
	seenEdges := make(map[int64]bool)
	seenIDs := make(map[int64]bool)

	for level := 0; level < levels && len(working) > 0; level++ {
		for id := range working {
			seenIDs[id] = true
		}

		edges, err := s.repo.EquivalenciesFor(ctx, sortedKeys(working), sortedKeys(seenEdges))
		if err != nil {
			return nil, fmt.Errorf("fetch equivalencies at level %d: %w", level, err)
		}

		newWorking := make(map[int64]bool)
		for _, e := range edges {
			seenEdges[e.ID] = true

			// Signal strength decays monotonically along a path, so an edge
			// already below the threshold can never contribute. Negative
			// strength (asserted non-equivalence) is a hard stop.
			if e.Strength > threshold {
				updateEquivalent(equivalents, e.OutputID, e.InputID, e.Strength, e.Votes)
				updateEquivalent(equivalents, e.InputID, e.OutputID, e.Strength, e.Votes)
			}

			if !seenIDs[e.OutputID] {
				newWorking[e.OutputID] = true
			}
			if !seenIDs[e.InputID] {
				newWorking[e.InputID] = true
			}
		}

		// Prune: keep a newly reached identifier only if it sits within one
		// validated hop of an original seed with composed confidence above
		// the threshold. This stops the working set drifting arbitrarily far
		// from the seeds while still allowing transitive bridges.
		surviving := make(map[int64]bool)
		for _, seed := range seedIDs {
			neighbors := sortedKeys2(equivalents[seed])
			for newID := range newWorking {
				for _, neighbor := range neighbors {
					if neighbor == seed {
						continue
					}
					if neighbor == newID {
						// Directly adjacent to a seed.
						surviving[newID] = true
						continue
					}
					n2new, ok := equivalents[neighbor][newID]
					if !ok {
						continue
					}
					s2n := equivalents[seed][neighbor]
					composed := s2n.Confidence * n2new.Confidence
					if composed > threshold {
						if equivalents[seed] == nil {
							equivalents[seed] = make(map[int64]model.Equivalent)
						}
						equivalents[seed][newID] = model.Equivalent{
							Confidence: composed,
							Votes:      s2n.Votes + n2new.Votes,
						}
						surviving[newID] = true
					}
				}
			}
		}

		working = surviving
	}

	return equivalents, nil
}

// FlatEquivalentIDs returns the flattened closure for the seeds, memoized
// per (seed set, levels, threshold) so repeated aggregation passes over the
// same work don't redo the graph walk.
func (s *EquivalenceService) FlatEquivalentIDs(ctx context.Context, seedIDs []int64, levels int, threshold float64) ([]int64, error) {
	if len(seedIDs) == 0 {
		return nil, nil
	}

	key := closureCacheKey(seedIDs, levels, threshold)
	if s.cache != nil {
		var cached []int64
		if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
			return cached, nil
		}
	}

	closure, err := s.RecursivelyEquivalentIDs(ctx, seedIDs, levels, threshold)
	if err != nil {
		return nil, err
	}

	flat := closure.Flatten()
	sort.Slice(flat, func(i, j int) bool { return flat[i] < flat[j] })

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, flat, s.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache closure")
		}
	}
	return flat, nil
}

// updateEquivalent revises the direct estimate between two identifiers. A
// repeat sighting merges by vote-weighted average.
func updateEquivalent(equivalents model.ClosureMap, fromID, toID int64, strength float64, votes int) {
	if equivalents[fromID] == nil {
		equivalents[fromID] = make(map[int64]model.Equivalent)
	}

	existing, ok := equivalents[fromID][toID]
	if !ok {
		equivalents[fromID][toID] = model.Equivalent{Confidence: strength, Votes: votes}
		return
	}

	totalStrength := existing.Confidence*float64(existing.Votes) + strength*float64(votes)
	totalVotes := existing.Votes + votes
	equivalents[fromID][toID] = model.Equivalent{
		Confidence: totalStrength / float64(totalVotes),
		Votes:      totalVotes,
	}
}

func closureCacheKey(seedIDs []int64, levels int, threshold float64) string {
	sorted := append([]int64(nil), seedIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	h := fnv.New64a()
	for _, id := range sorted {
		fmt.Fprintf(h, "%d,", id)
	}
	return fmt.Sprintf("closure:%x:%d:%.3f", h.Sum64(), levels, threshold)
}

func sortedKeys(set map[int64]bool) []int64 {
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedKeys2(m map[int64]model.Equivalent) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
