// Package merge combines records from the real and synthetic sources into
// one deduplicated, weighted, deterministically ordered result set.
package merge

import (
	"sort"

	"github.com/ecoloop/greenrank/internal/types"
)

// Result is the merger's output: the ordered records plus informational
// provenance counts. Quality is exposed to callers and never used
// internally.
type Result struct {
	Records        []types.MergedRecord
	RealCount      int
	SyntheticCount int
	Quality        types.DataQuality
}

// Merge deduplicates by identity with first-seen-wins semantics: real
// records are concatenated before synthetic ones so genuine data takes
// precedence over a synthetic duplicate of the same identity. Duplicated
// identities keep the real record's fields and are tagged merged. Records
// are then ordered by weight-adjusted score descending (ties broken by
// ascending identity for determinism) and truncated to limit.
//
// The weight multiplies the raw score before ranking. That can reorder
// entries in a way no single combined metric would; the behavior is
// intentional and kept as shipped.
func Merge(real, synthetic []types.MergedRecord, weights types.SourceWeight, limit int) Result {
	seen := make(map[string]int, len(real)+len(synthetic))
	merged := make([]types.MergedRecord, 0, len(real)+len(synthetic))

	for _, r := range real {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		r.DataSource = types.SourceReal
		seen[r.ID] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range synthetic {
		if i, dup := seen[r.ID]; dup {
			// Same identity in both sources: the real record stays, tagged
			// as merged.
			if merged[i].DataSource == types.SourceReal {
				merged[i].DataSource = types.SourceMerged
			}
			continue
		}
		r.DataSource = types.SourceSynthetic
		seen[r.ID] = len(merged)
		merged = append(merged, r)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		si := merged[i].Score * weights.For(merged[i].DataSource)
		sj := merged[j].Score * weights.For(merged[j].DataSource)
		if si != sj {
			return si > sj
		}
		return merged[i].ID < merged[j].ID
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	for i := range merged {
		merged[i].Rank = i + 1
	}

	res := Result{Records: merged}
	for _, r := range merged {
		if r.DataSource == types.SourceSynthetic {
			res.SyntheticCount++
		} else {
			res.RealCount++
		}
	}
	res.Quality = Quality(res.RealCount, len(merged))
	return res
}

// Quality rates the share of real-sourced records in a result of n total.
func Quality(realCount, n int) types.DataQuality {
	if n == 0 {
		return types.QualityPoor
	}
	ratio := float64(realCount) / float64(n)
	switch {
	case ratio > 0.7:
		return types.QualityExcellent
	case ratio > 0.4:
		return types.QualityGood
	case ratio > 0.1:
		return types.QualityFair
	default:
		return types.QualityPoor
	}
}
