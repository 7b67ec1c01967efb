package catalog

import (
	"adc-catalog-go/adc"
	"sort"
)

type (
	Program  = adc.Program
	Material = adc.Material
)

// DefaultRelatedLimit is the number of related videos shown under a video.
const DefaultRelatedLimit = 8

// ApplyOrder returns programs sorted by the persisted id order. Programs not
// listed in order keep their API order after the listed ones; unknown ids are ignored.
func ApplyOrder(programs []Program, order []int) []Program {
	if len(order) == 0 {
		return programs
	}

	byID := make(map[int]Program, len(programs))
	for _, p := range programs {
		byID[p.ID] = p
	}

	out := make([]Program, 0, len(programs))
	placed := make(map[int]bool, len(order))
	for _, id := range order {
		p, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		out = append(out, p)
	}
	for _, p := range programs {
		if !placed[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// IsComingSoon reports whether a program is announced but has no videos yet.
func IsComingSoon(p Program, materialCount int) bool {
	return p.Cover != "" && materialCount == 0
}

// Season is one section of a program page.
type Season struct {
	Number    int
	Materials []Material
}

// GroupBySeason buckets materials by season number, ascending. Material order
// inside a season is the fetch order.
func GroupBySeason(materials []Material) []Season {
	index := make(map[int]int)
	var seasons []Season
	for _, m := range materials {
		i, ok := index[m.Season]
		if !ok {
			i = len(seasons)
			index[m.Season] = i
			seasons = append(seasons, Season{Number: m.Season})
		}
		seasons[i].Materials = append(seasons[i].Materials, m)
	}
	sort.SliceStable(seasons, func(a, b int) bool {
		return seasons[a].Number < seasons[b].Number
	})
	return seasons
}

// NextMaterial returns the item after idx in fetch order. Seasons are ignored.
func NextMaterial(list []Material, idx int) (Material, bool) {
	if idx < 0 || idx+1 >= len(list) {
		return Material{}, false
	}
	return list[idx+1], true
}

// RelatedMaterials picks up to limit other videos of the list. Short lists
// return every other item in order; longer ones wrap around starting after idx.
func RelatedMaterials(list []Material, idx, limit int) []Material {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	n := len(list)
	if n == 0 {
		return nil
	}

	out := make([]Material, 0, min(limit, n))
	if n <= limit+1 {
		for i, m := range list {
			if i != idx {
				out = append(out, m)
			}
		}
		return out
	}

	for step := 1; step < n && len(out) < limit; step++ {
		i := (idx + step) % n
		if i < 0 {
			i += n
		}
		if i == idx {
			continue
		}
		out = append(out, list[i])
	}
	return out
}
