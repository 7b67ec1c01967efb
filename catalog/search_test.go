package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	m := Material{Title: "Parashá Bereshit", Category: "Torah semanal", Description: "La creación del mundo"}

	assert.Equal(t, 10, Score(m, []string{"bereshit"}))
	assert.Equal(t, 5, Score(m, []string{"torah"}))
	assert.Equal(t, 1, Score(m, []string{"creacion"}))
	assert.Equal(t, 16, Score(m, []string{"bereshit", "torah", "mundo"}))
	assert.Equal(t, 0, Score(m, []string{"shabat"}))
	assert.Equal(t, 0, Score(m, nil))
}

func TestRankTitleBeatsDescription(t *testing.T) {
	candidates := []Hit{
		{Material: Material{ID: 1, Title: "Otro", Description: "habla de shabat"}},
		{Material: Material{ID: 2, Title: "Shabat en casa"}},
		{Material: Material{ID: 3, Title: "Nada"}},
	}

	ranked := Rank(candidates, []string{"shabat"}, 12)
	require.Len(t, ranked, 2)
	assert.Equal(t, []int{2, 1}, ids(ranked))
	assert.Equal(t, 10, ranked[0].Score)
	assert.Equal(t, 1, ranked[1].Score)
}

func TestRankIsStable(t *testing.T) {
	var candidates []Hit
	for i := 1; i <= 5; i++ {
		candidates = append(candidates, Hit{Material: Material{ID: i, Title: "Jánuca"}})
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(Rank(candidates, []string{"januca"}, 12)))
	assert.Equal(t, []int{1, 2}, ids(Rank(candidates, []string{"januca"}, 2)))
}

func TestGroupByCategory(t *testing.T) {
	hits := []Hit{
		{Material: Material{ID: 1, Category: "A"}},
		{Material: Material{ID: 2, Category: "B"}},
		{Material: Material{ID: 3, Category: "B"}},
		{Material: Material{ID: 4, Category: "C"}},
		{Material: Material{ID: 5, Category: "A"}},
		{Material: Material{ID: 6, Category: "D"}},
		{Material: Material{ID: 7, Category: "B"}},
	}

	groups := GroupByCategory(hits)
	require.Len(t, groups, 4)

	var names []string
	for _, g := range groups {
		names = append(names, g.Category)
	}
	assert.Equal(t, []string{"B", "A", "C", "D"}, names)
	assert.Equal(t, []int{2, 3, 7}, ids(groups[0].Hits))
}

func TestShouldGroup(t *testing.T) {
	assert.False(t, ShouldGroup(6))
	assert.True(t, ShouldGroup(7))
}
