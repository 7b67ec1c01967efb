package catalog

import (
	"adc-catalog-go/utils"
	"sort"
	"strings"
)

const (
	// DefaultFallbackLimit caps relevance fallback results.
	DefaultFallbackLimit = 12
	// GroupThreshold is the result count above which results are grouped by category.
	GroupThreshold = 6
	// fallbackPrograms caps the programs sampled when nothing is relevant.
	fallbackPrograms = 3

	weightTitle    = 10
	weightCategory = 5
	weightText     = 1
)

// Hit is a search result with the program it links to.
type Hit struct {
	Material    Material `json:"material"`
	ProgramID   int      `json:"program_id,omitempty"`
	ProgramName string   `json:"program_name,omitempty"`
	ProgramSlug string   `json:"program_slug,omitempty"`
	Score       int      `json:"score,omitempty"`
}

// Group is a category section of the search results.
type Group struct {
	Category string
	Hits     []Hit
}

// SearchResult is what the search page renders.
type SearchResult struct {
	Term     string `json:"term"`
	Hits     []Hit  `json:"hits"`
	Fallback bool   `json:"fallback"`
	Random   bool   `json:"random"`
}

// Score rates a material against folded keywords: 10 per keyword in the
// title, 5 in the category, 1 in the description.
func Score(m Material, keywords []string) int {
	if len(keywords) == 0 {
		return 0
	}
	title := utils.Fold(m.Title)
	category := utils.Fold(m.Category)
	text := utils.Fold(m.Description)

	score := 0
	for _, k := range keywords {
		if strings.Contains(title, k) {
			score += weightTitle
		}
		if strings.Contains(category, k) {
			score += weightCategory
		}
		if strings.Contains(text, k) {
			score += weightText
		}
	}
	return score
}

// Rank scores every candidate and keeps the top limit with a positive score,
// highest first. Equal scores keep candidate order.
func Rank(candidates []Hit, keywords []string, limit int) []Hit {
	if limit <= 0 {
		limit = DefaultFallbackLimit
	}
	var scored []Hit
	for _, h := range candidates {
		if s := Score(h.Material, keywords); s > 0 {
			h.Score = s
			scored = append(scored, h)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// GroupByCategory splits hits into category sections, largest first, ties
// broken by first appearance. Hits without category share one unnamed group.
func GroupByCategory(hits []Hit) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, h := range hits {
		i, ok := index[h.Material.Category]
		if !ok {
			i = len(groups)
			index[h.Material.Category] = i
			groups = append(groups, Group{Category: h.Material.Category})
		}
		groups[i].Hits = append(groups[i].Hits, h)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return len(groups[a].Hits) > len(groups[b].Hits)
	})
	return groups
}

// ShouldGroup reports whether n results are shown grouped by category.
func ShouldGroup(n int) bool {
	return n > GroupThreshold
}
