// Package catalog serves programs, videos and search results of one language
// track, cached through the policy layer and resolved by slug.
package catalog

import (
	"adc-catalog-go/cache"
	"adc-catalog-go/lang"
	"adc-catalog-go/logcolors"
	"adc-catalog-go/notifier"
	"adc-catalog-go/stats"
	"adc-catalog-go/utils"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// API is the part of the remote client the catalog needs.
type API interface {
	Configured() bool
	Programs(ctx context.Context, l lang.Language) ([]Program, error)
	Materials(ctx context.Context, programID int) ([]Material, error)
	SearchMaterials(ctx context.Context, l lang.Language, text string) ([]Material, error)
}

// OrderStore returns the persisted program order of a language.
type OrderStore interface {
	Order(l lang.Language) ([]int, error)
}

type Service struct {
	api   API
	cache *cache.Layer
	order OrderStore
	stats *stats.Stats

	shuffle func(n int, swap func(i, j int))

	// reported holds slug conflicts already logged, so each is reported once.
	reported sync.Map
}

func NewService(api API, layer *cache.Layer, order OrderStore) *Service {
	return &Service{
		api:     api,
		cache:   layer,
		order:   order,
		stats:   stats.Get(),
		shuffle: rand.Shuffle,
	}
}

// Configured reports whether the remote API is set up.
func (s *Service) Configured() bool {
	return s.api.Configured()
}

// Programs returns the programs of l in the persisted order. The order is
// applied after the cache so a reorder shows up immediately.
func (s *Service) Programs(ctx context.Context, l lang.Language) ([]Program, error) {
	programs, err := cache.Fetch(ctx, s.cache, lang.CacheKey(l, "programs"), s.cache.TTL(),
		func(ctx context.Context) ([]Program, error) {
			return s.api.Programs(ctx, l)
		})
	if err != nil {
		return nil, err
	}

	var order []int
	if s.order != nil {
		order, err = s.order.Order(l)
		if err != nil {
			log.Warnf("%s Could not load %s program order, using API order: %v", logcolors.LogCatalog, l, err)
		}
	}
	return ApplyOrder(programs, order), nil
}

// Materials returns the videos of a program in fetch order.
func (s *Service) Materials(ctx context.Context, l lang.Language, programID int) ([]Material, error) {
	return cache.Fetch(ctx, s.cache, lang.CacheKey(l, "materials", strconv.Itoa(programID)), s.cache.TTL(),
		func(ctx context.Context) ([]Material, error) {
			return s.api.Materials(ctx, programID)
		})
}

// Card is one tile of the program grid.
type Card struct {
	Program    Program `json:"program"`
	Slug       string  `json:"slug"`
	Count      int     `json:"count"`
	ComingSoon bool    `json:"coming_soon"`
}

// Cards builds the program grid. A program whose videos cannot be loaded is
// shown with a zero count but never marked coming soon.
func (s *Service) Cards(ctx context.Context, l lang.Language) ([]Card, error) {
	programs, err := s.Programs(ctx, l)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(programs))
	for _, p := range programs {
		card := Card{Program: p, Slug: utils.Slugify(p.Name)}
		materials, err := s.Materials(ctx, l, p.ID)
		if err != nil {
			log.Warnf("%s Videos of program %d unavailable: %v", logcolors.LogCatalog, p.ID, err)
		} else {
			card.Count = len(materials)
			card.ComingSoon = IsComingSoon(p, card.Count)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// ProgramBySlug resolves a program slug of l. The first program with a slug wins.
func (s *Service) ProgramBySlug(ctx context.Context, l lang.Language, slug string) (Program, bool, error) {
	slug = utils.Slugify(slug)
	programs, err := s.Programs(ctx, l)
	if err != nil {
		return Program{}, false, err
	}

	var found *Program
	for i := range programs {
		p := programs[i]
		if utils.Slugify(p.Name) != slug {
			continue
		}
		if found == nil {
			found = &programs[i]
			continue
		}
		s.reportConflict(l, "program", slug, found.ID, p.ID)
	}
	if found == nil {
		return Program{}, false, nil
	}
	return *found, true, nil
}

// VideoMatch is a resolved video with its position in the program listing.
type VideoMatch struct {
	Program   Program
	Material  Material
	Index     int
	Materials []Material
}

// VideoBySlug resolves a video slug inside a program. The first match wins.
func (s *Service) VideoBySlug(ctx context.Context, l lang.Language, programSlug, videoSlug string) (VideoMatch, bool, error) {
	program, ok, err := s.ProgramBySlug(ctx, l, programSlug)
	if err != nil || !ok {
		return VideoMatch{}, false, err
	}
	videoSlug = utils.Slugify(videoSlug)

	materials, err := s.Materials(ctx, l, program.ID)
	if err != nil {
		return VideoMatch{}, false, err
	}

	match := VideoMatch{Program: program, Index: -1, Materials: materials}
	for i, m := range materials {
		if utils.Slugify(m.Title) != videoSlug {
			continue
		}
		if match.Index < 0 {
			match.Index = i
			match.Material = m
			continue
		}
		s.reportConflict(l, "material", videoSlug, match.Material.ID, m.ID)
	}
	if match.Index < 0 {
		return VideoMatch{}, false, nil
	}
	return match, true, nil
}

func (s *Service) reportConflict(l lang.Language, kind, slug string, keptID, droppedID int) {
	key := fmt.Sprintf("%s|%s|%s|%d", l, kind, slug, droppedID)
	if _, seen := s.reported.LoadOrStore(key, true); seen {
		return
	}
	s.stats.SlugConflicts.Add(1)
	log.Warnf("%s Duplicate %s slug %q in %s: keeping id %d, id %d is unreachable",
		logcolors.LogSlug, kind, slug, l, keptID, droppedID)
	notifier.PublishSlugConflict(string(l), kind, slug, keptID, droppedID)
}

// ValidateProgram reports whether slug names a program of l.
func (s *Service) ValidateProgram(ctx context.Context, l lang.Language, slug string) (bool, error) {
	_, ok, err := s.ProgramBySlug(ctx, l, slug)
	return ok, err
}

// ValidateVideo reports whether videoSlug names a video of the program.
func (s *Service) ValidateVideo(ctx context.Context, l lang.Language, programSlug, videoSlug string) (bool, error) {
	_, ok, err := s.VideoBySlug(ctx, l, programSlug, videoSlug)
	return ok, err
}

// Search runs the literal API search and falls back to keyword relevance
// over the whole catalog when it finds nothing.
func (s *Service) Search(ctx context.Context, l lang.Language, term string) (SearchResult, error) {
	term = strings.TrimSpace(term)
	result := SearchResult{Term: term}
	if term == "" {
		return result, nil
	}
	discriminator := searchKey(term)

	found, err := cache.Fetch(ctx, s.cache, lang.CacheKey(l, "search", discriminator), s.cache.SearchTTL(),
		func(ctx context.Context) ([]Material, error) {
			return s.api.SearchMaterials(ctx, l, term)
		})
	if err != nil {
		return result, err
	}

	if len(found) > 0 {
		result.Hits = s.linkHits(ctx, l, found)
		log.Debugf("%s %q in %s: %d results", logcolors.LogSearch, term, l, len(found))
		return result, nil
	}

	fallback, err := cache.Fetch(ctx, s.cache, lang.CacheKey(l, "fallback", discriminator), s.cache.FallbackTTL(),
		func(ctx context.Context) (SearchResult, error) {
			return s.Fallback(ctx, l, term, DefaultFallbackLimit)
		})
	if err != nil {
		return result, err
	}
	return fallback, nil
}

// searchKey identifies a search term in cache keys. Terms that differ only in
// case or surrounding space share a key; any other difference does not.
func searchKey(term string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(term))))
	return hex.EncodeToString(sum[:])
}

// linkHits attaches each API search result to the program named by its category.
func (s *Service) linkHits(ctx context.Context, l lang.Language, materials []Material) []Hit {
	bySlug := make(map[string]Program)
	if programs, err := s.Programs(ctx, l); err == nil {
		for _, p := range programs {
			slug := utils.Slugify(p.Name)
			if _, exists := bySlug[slug]; !exists {
				bySlug[slug] = p
			}
		}
	}

	hits := make([]Hit, 0, len(materials))
	for _, m := range materials {
		h := Hit{Material: m}
		if p, ok := bySlug[utils.Slugify(m.Category)]; ok {
			h.ProgramID = p.ID
			h.ProgramName = p.Name
			h.ProgramSlug = utils.Slugify(p.Name)
		}
		hits = append(hits, h)
	}
	return hits
}

// Fallback scores every video of every program of l against the keywords of
// term. When nothing scores, it returns a random sample drawn from up to
// three programs so the page is never empty.
func (s *Service) Fallback(ctx context.Context, l lang.Language, term string, limit int) (SearchResult, error) {
	if limit <= 0 {
		limit = DefaultFallbackLimit
	}
	result := SearchResult{Term: term, Fallback: true}

	programs, err := s.Programs(ctx, l)
	if err != nil {
		return result, err
	}

	var candidates []Hit
	perProgram := make(map[int][]Hit)
	var withVideos []Program
	for _, p := range programs {
		materials, err := s.Materials(ctx, l, p.ID)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return result, err
			}
			log.Warnf("%s Skipping program %d: %v", logcolors.LogFallback, p.ID, err)
			continue
		}
		if len(materials) == 0 {
			continue
		}
		withVideos = append(withVideos, p)
		slug := utils.Slugify(p.Name)
		for _, m := range materials {
			h := Hit{Material: m, ProgramID: p.ID, ProgramName: p.Name, ProgramSlug: slug}
			candidates = append(candidates, h)
			perProgram[p.ID] = append(perProgram[p.ID], h)
		}
	}

	keywords := utils.Keywords(term)
	if ranked := Rank(candidates, keywords, limit); len(ranked) > 0 {
		result.Hits = ranked
		log.Debugf("%s %q in %s: %d relevant of %d videos", logcolors.LogFallback, term, l, len(ranked), len(candidates))
		return result, nil
	}

	s.shuffle(len(withVideos), func(i, j int) { withVideos[i], withVideos[j] = withVideos[j], withVideos[i] })
	var sample []Hit
	for _, p := range withVideos[:min(fallbackPrograms, len(withVideos))] {
		sample = append(sample, perProgram[p.ID]...)
	}
	s.shuffle(len(sample), func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
	if len(sample) > limit {
		sample = sample[:limit]
	}

	result.Hits = sample
	result.Random = true
	log.Debugf("%s %q in %s: nothing relevant, sampled %d videos", logcolors.LogFallback, term, l, len(sample))
	return result, nil
}
