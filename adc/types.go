package adc

import (
	"bytes"
	"encoding/json"
	"path"
	"strconv"
	"strings"
)

// Envelope is the response wrapper every endpoint returns.
type Envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   bool            `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Program is a category of the video platform (a show).
type Program struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Cover       string `json:"cover,omitempty"`
	Clip        string `json:"clip,omitempty"`
	Description string `json:"description,omitempty"`
}

// Material is a single video of a program.
type Material struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Duration    string `json:"duration,omitempty"`
	Video       string `json:"video,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Season      int    `json:"season"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// wireProgram and wireMaterial accept the loose typing of the API: ids and
// seasons arrive as numbers, numeric strings or null.
type wireProgram struct {
	ID          flexInt `json:"id"`
	Name        string  `json:"name"`
	Cover       string  `json:"cover"`
	Clip        string  `json:"clip"`
	Description string  `json:"description"`
}

type wireMaterial struct {
	ID          flexInt `json:"id"`
	Title       string  `json:"title"`
	Duration    string  `json:"duration"`
	Video       string  `json:"video"`
	Thumbnail   string  `json:"thumbnail"`
	Season      flexInt `json:"season"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		fl, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		i = int64(fl)
	}
	*f = flexInt(i)
	return nil
}

func decodePrograms(data json.RawMessage) ([]Program, error) {
	if isEmpty(data) {
		return []Program{}, nil
	}
	var wire []wireProgram
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	out := make([]Program, 0, len(wire))
	for _, w := range wire {
		out = append(out, Program{
			ID:          int(w.ID),
			Name:        strings.TrimSpace(w.Name),
			Cover:       w.Cover,
			Clip:        w.Clip,
			Description: w.Description,
		})
	}
	return out, nil
}

func decodeMaterials(data json.RawMessage) ([]Material, error) {
	if isEmpty(data) {
		return []Material{}, nil
	}
	var wire []wireMaterial
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	out := make([]Material, 0, len(wire))
	for _, w := range wire {
		out = append(out, Material{
			ID:          int(w.ID),
			Title:       strings.TrimSpace(w.Title),
			Duration:    w.Duration,
			Video:       w.Video,
			Thumbnail:   w.Thumbnail,
			Season:      int(w.Season),
			Category:    w.Category,
			Description: w.Description,
		})
	}
	return out, nil
}

func isEmpty(data json.RawMessage) bool {
	t := bytes.TrimSpace(data)
	return len(t) == 0 || string(t) == "null"
}

// coverMatches reports whether the cover file name (without extension) ends
// with suffix. Programs without a cover always match.
func coverMatches(cover, suffix string) bool {
	if cover == "" || suffix == "" {
		return true
	}
	p := cover
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	return strings.HasSuffix(strings.ToLower(base), strings.ToLower(suffix))
}
