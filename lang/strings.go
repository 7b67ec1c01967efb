package lang

import "strconv"

var messages = map[Language]map[string]string{
	Spanish: {
		"catalog_title":   "Programas",
		"coming_soon":     "Próximamente",
		"not_configured":  "El catálogo todavía no está configurado.",
		"unavailable":     "El catálogo no está disponible en este momento. Inténtelo más tarde.",
		"cache_title":     "Caché",
		"no_videos":       "Este programa todavía no tiene videos.",
		"search_title":    "Resultados de búsqueda",
		"search_for":      "Resultados para",
		"search_fallback": "No encontramos coincidencias exactas. Quizás le interesen estos videos:",
		"no_results":      "No se encontraron resultados.",
		"search_label":    "Buscar",
		"search_hint":     "Buscar videos...",
		"related_videos":  "Videos relacionados",
		"next_video":      "Siguiente video",
		"next_in":         "El siguiente video comienza en",
		"cancel":          "Cancelar",
		"back_to_program": "Volver al programa",
		"home":            "Inicio",
		"duration":        "Duración",
		"cache_cleared":   "La caché fue vaciada correctamente.",
		"season":          "Temporada",
	},
	English: {
		"catalog_title":   "Programs",
		"coming_soon":     "Coming soon",
		"not_configured":  "The catalog is not configured yet.",
		"unavailable":     "The catalog is not available right now. Please try again later.",
		"cache_title":     "Cache",
		"no_videos":       "This program has no videos yet.",
		"search_title":    "Search results",
		"search_for":      "Results for",
		"search_fallback": "We found no exact matches. You may like these videos:",
		"no_results":      "No results found.",
		"search_label":    "Search",
		"search_hint":     "Search videos...",
		"related_videos":  "Related videos",
		"next_video":      "Next video",
		"next_in":         "Next video starts in",
		"cancel":          "Cancel",
		"back_to_program": "Back to program",
		"home":            "Home",
		"duration":        "Duration",
		"cache_cleared":   "The cache was cleared successfully.",
		"season":          "Season",
	},
}

// T returns the localized string for key, falling back to the default
// language and finally to the key itself.
func T(l Language, key string) string {
	if m, ok := messages[l]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := messages[Default][key]; ok {
		return s
	}
	return key
}

var seasonLabels = map[Language]map[int]string{
	Spanish: {
		0:  "Episodios",
		1:  "Primera temporada",
		2:  "Segunda temporada",
		3:  "Tercera temporada",
		4:  "Cuarta temporada",
		5:  "Quinta temporada",
		6:  "Sexta temporada",
		7:  "Séptima temporada",
		8:  "Octava temporada",
		9:  "Novena temporada",
		10: "Décima temporada",
	},
	English: {
		0:  "Episodes",
		1:  "First season",
		2:  "Second season",
		3:  "Third season",
		4:  "Fourth season",
		5:  "Fifth season",
		6:  "Sixth season",
		7:  "Seventh season",
		8:  "Eighth season",
		9:  "Ninth season",
		10: "Tenth season",
	},
}

// SeasonLabel returns the heading of a season section, "Season N" when unmapped.
func SeasonLabel(l Language, season int) string {
	if m, ok := seasonLabels[l]; ok {
		if s, ok := m[season]; ok {
			return s
		}
	}
	return T(l, "season") + " " + strconv.Itoa(season)
}
