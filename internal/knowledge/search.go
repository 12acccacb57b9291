package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"kbassist/internal/storage"
)

// Keyword boost parameters. A collection filter narrows the candidate pool,
// so matches there earn a stronger boost than in the noisier unfiltered case.
const (
	filteredBoostPerMatch = 0.15
	filteredBoostCap      = 0.7

	unfilteredBoostPerMatch = 0.10
	unfilteredBoostCap      = 0.5
)

// Result is one ranked retrieval hit. Distance is 1 minus the blended score,
// so lower is closer; because the blended score is a boosted similarity it
// may exceed 1.0 and Distance may go negative.
type Result struct {
	Content  string
	Metadata storage.ChunkMetadata
	Distance float64
}

// SearchOptions restricts and sizes a search.
type SearchOptions struct {
	Limit      int    // maximum results returned
	Collection string // exact-match collection filter, empty for all
	Category   string // category filter, see Search for its two modes
}

// Search embeds the query, filters candidates, and ranks them by cosine
// similarity plus a keyword boost.
//
// The collection filter is hard: no matching chunks means no results. Under
// an active collection filter, category is a soft preference: if it matches
// nothing the collection-only candidates are kept. Without a collection
// filter, category is hard and returns no results on zero matches.
//
// Absence of results is data, not failure; the only error returned is an
// embedding failure.
func (kb *KnowledgeBase) Search(ctx context.Context, query string, opts SearchOptions) ([]Result, error) {
	if kb.store.Len() == 0 {
		return nil, nil
	}

	queryVec, err := kb.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates := kb.candidates(opts)
	if len(candidates) == 0 {
		return nil, nil
	}

	boostPerMatch, boostCap := unfilteredBoostPerMatch, unfilteredBoostCap
	if opts.Collection != "" {
		boostPerMatch, boostCap = filteredBoostPerMatch, filteredBoostCap
	}

	keywords := queryKeywords(query)

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, i := range candidates {
		sim := cosine(queryVec, kb.store.Embedding(i))
		text := strings.ToLower(kb.store.Document(i))
		matches := 0
		for keyword := range keywords {
			if strings.Contains(text, keyword) {
				matches++
			}
		}
		boost := math.Min(float64(matches)*boostPerMatch, boostCap)
		ranked = append(ranked, scored{idx: i, score: sim + boost})
	}

	// Stable: ties keep original candidate order.
	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	k := min(opts.Limit, len(ranked))
	if k < 0 {
		k = 0
	}
	results := make([]Result, 0, k)
	for _, sc := range ranked[:k] {
		results = append(results, Result{
			Content:  kb.store.Document(sc.idx),
			Metadata: kb.store.Metadata(sc.idx),
			Distance: 1 - sc.score,
		})
	}
	return results, nil
}

// candidates builds the filtered index set for a search.
func (kb *KnowledgeBase) candidates(opts SearchOptions) []int {
	if opts.Collection != "" {
		var byCollection []int
		for i := 0; i < kb.store.Len(); i++ {
			if kb.store.Metadata(i).Collection == opts.Collection {
				byCollection = append(byCollection, i)
			}
		}
		if len(byCollection) == 0 {
			return nil
		}
		if opts.Category != "" {
			var byCategory []int
			for _, i := range byCollection {
				if kb.store.Metadata(i).Category == opts.Category {
					byCategory = append(byCategory, i)
				}
			}
			if len(byCategory) > 0 {
				kb.logger.Info("category filter applied", "category", opts.Category, "candidates", len(byCategory))
				return byCategory
			}
			kb.logger.Info("no documents in category, keeping collection candidates", "category", opts.Category)
		}
		return byCollection
	}

	if opts.Category != "" {
		var byCategory []int
		for i := 0; i < kb.store.Len(); i++ {
			if kb.store.Metadata(i).Category == opts.Category {
				byCategory = append(byCategory, i)
			}
		}
		if len(byCategory) == 0 {
			kb.logger.Info("no documents in category", "category", opts.Category)
		}
		return byCategory
	}

	all := make([]int, kb.store.Len())
	for i := range all {
		all[i] = i
	}
	return all
}

// queryKeywords lower-cases and whitespace-splits the query into a keyword
// set. An empty set (query is only punctuation or blank) degrades ranking to
// pure cosine similarity.
func queryKeywords(query string) map[string]struct{} {
	keywords := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(query)) {
		keywords[field] = struct{}{}
	}
	return keywords
}

// cosine is dot(a,b) / (||a||*||b||), defined as 0 when either norm is zero.
func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
