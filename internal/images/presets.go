// Package images produces the resized JPEG variants served by the site.
package images

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// Preset is one output size. Width is the maximum width in pixels.
type Preset struct {
	Name    string `toml:"name"`
	Width   int    `toml:"width"`
	Quality int    `toml:"quality"`
}

var DefaultPresets = []Preset{
	{Name: "thumb", Width: 480, Quality: 75},
	{Name: "medium", Width: 1280, Quality: 80},
	{Name: "large", Width: 1920, Quality: 82},
}

type presetFile struct {
	Preset []Preset `toml:"preset"`
}

// LoadPresets reads [[preset]] tables from a TOML file. An empty path
// returns DefaultPresets.
func LoadPresets(path string) ([]Preset, error) {
	if path == "" {
		return append([]Preset(nil), DefaultPresets...), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return ParsePresets(string(raw))
}

// ParsePresets decodes and validates a presets document.
func ParsePresets(doc string) ([]Preset, error) {
	var f presetFile
	if _, err := toml.Decode(doc, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	if len(f.Preset) == 0 {
		return nil, errors.New("presets: no [[preset]] entries")
	}
	seen := map[string]bool{}
	for i := range f.Preset {
		p := &f.Preset[i]
		if p.Name == "" || p.Width <= 0 {
			return nil, fmt.Errorf("presets: entry %d needs a name and a positive width", i+1)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("presets: duplicate name %q", p.Name)
		}
		seen[p.Name] = true
		if p.Quality <= 0 || p.Quality > 100 {
			p.Quality = 80
		}
	}
	sort.SliceStable(f.Preset, func(i, j int) bool { return f.Preset[i].Width < f.Preset[j].Width })
	return f.Preset, nil
}

// Find returns the preset called name.
func Find(presets []Preset, name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}
