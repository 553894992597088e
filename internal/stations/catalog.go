// Package stations holds the fixed topology of the line: the ordered list of
// station identifiers, their display labels, and the venues known near each
// stop. A Catalog is immutable once loaded; all accessors return copies.
package stations

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Station is a stop on the line.
type Station struct {
	ID    string `json:"id"    yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Venue is a suggested meeting place near a station.
type Venue struct {
	Name     string `json:"name"     yaml:"name"`
	Category string `json:"category" yaml:"category"`
}

// Catalog is the ordered station list plus the venue registry.
type Catalog struct {
	line     string
	stations []Station
	index    map[string]int
	venues   map[string][]Venue
}

// document is the on-disk YAML shape.
type document struct {
	Line     string `yaml:"line"`
	Stations []struct {
		Station `yaml:",inline"`
		Venues  []Venue `yaml:"venues"`
	} `yaml:"stations"`
}

// Parse decodes a YAML catalog. Station ids must be non-empty and unique;
// the list must not be empty.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("stations: decode catalog: %w", err)
	}
	if len(doc.Stations) == 0 {
		return nil, errors.New("stations: catalog has no stations")
	}

	c := &Catalog{
		line:     doc.Line,
		stations: make([]Station, 0, len(doc.Stations)),
		index:    make(map[string]int, len(doc.Stations)),
		venues:   make(map[string][]Venue),
	}
	for i, s := range doc.Stations {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("stations: entry %d has empty id", i)
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("stations: duplicate id %q", id)
		}
		label := s.Label
		if label == "" {
			label = id
		}
		c.index[id] = len(c.stations)
		c.stations = append(c.stations, Station{ID: id, Label: label})
		if len(s.Venues) > 0 {
			c.venues[id] = append([]Venue(nil), s.Venues...)
		}
	}
	return c, nil
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// Load returns the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Line returns the line name (e.g. "L").
func (c *Catalog) Line() string { return c.line }

// Index returns the position of id along the line.
func (c *Catalog) Index(id string) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// Contains reports whether id is a station of the line.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Order returns the station ids in line order.
func (c *Catalog) Order() []string {
	out := make([]string, len(c.stations))
	for i, s := range c.stations {
		out[i] = s.ID
	}
	return out
}

// Stations returns the stations in line order.
func (c *Catalog) Stations() []Station {
	return append([]Station(nil), c.stations...)
}

// Label returns the display label for id, or id itself when unknown.
func (c *Catalog) Label(id string) string {
	if i, ok := c.index[id]; ok {
		return c.stations[i].Label
	}
	return id
}

// Venues returns the venues registered for id (nil when none).
func (c *Catalog) Venues(id string) []Venue {
	v := c.venues[id]
	if len(v) == 0 {
		return nil
	}
	return append([]Venue(nil), v...)
}
