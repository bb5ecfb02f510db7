package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed venues.yml
var defaultVenues []byte

// Adapter families a venue can belong to.
const (
	FamilyOJS         = "ojs"
	FamilyCVF         = "cvf"
	FamilyECVA        = "ecva"
	FamilyProceedings = "proceedings"
	FamilyOpenReview  = "openreview"
)

// IssueRange is a contiguous block of issue ids used when a listing index
// yields no track links.
type IssueRange struct {
	First int `yaml:"first"`
	Count int `yaml:"count"`
}

// Selectors locate entries and their fields on a single-page proceedings listing.
type Selectors struct {
	Entry   string `yaml:"entry"`
	Title   string `yaml:"title"`
	Authors string `yaml:"authors"`
	Links   string `yaml:"links"`
}

// Venue describes how to harvest one publication venue.
type Venue struct {
	Code           string             `yaml:"-"`
	Family         string             `yaml:"family"`
	Name           string             `yaml:"name"`
	BaseURL        string             `yaml:"base_url,omitempty"`
	IndexURL       string             `yaml:"index_url,omitempty"`
	Volumes        map[int]int        `yaml:"volumes,omitempty"`
	VolumeOffset   int                `yaml:"volume_offset,omitempty"`
	TrackPattern   string             `yaml:"track_pattern,omitempty"`
	ItemMarker     string             `yaml:"item_marker,omitempty"`
	DropTrailing   int                `yaml:"drop_trailing,omitempty"`
	FallbackURL    string             `yaml:"fallback_url,omitempty"`
	FallbackIssues map[int]IssueRange `yaml:"fallback_issues,omitempty"`
	PagingSince    int                `yaml:"paging_since,omitempty"`
	VenueID        string             `yaml:"venue_id,omitempty"`
	V2Since        int                `yaml:"v2_since,omitempty"`
	Selectors      Selectors          `yaml:"selectors,omitempty"`
	Legacy         *Era               `yaml:"legacy,omitempty"`
}

// Era replaces the listing layout fields for years before Before, for venues
// whose site structure changed.
type Era struct {
	Before       int       `yaml:"before"`
	BaseURL      string    `yaml:"base_url,omitempty"`
	TrackPattern string    `yaml:"track_pattern,omitempty"`
	ItemMarker   string    `yaml:"item_marker,omitempty"`
	DropTrailing int       `yaml:"drop_trailing,omitempty"`
	Selectors    Selectors `yaml:"selectors,omitempty"`
}

// ForYear returns the venue with the legacy layout applied when year falls
// before the era boundary.
func (v Venue) ForYear(year int) Venue {
	if v.Legacy == nil || year >= v.Legacy.Before {
		return v
	}
	out := v
	if v.Legacy.BaseURL != "" {
		out.BaseURL = v.Legacy.BaseURL
	}
	out.TrackPattern = v.Legacy.TrackPattern
	out.ItemMarker = v.Legacy.ItemMarker
	out.DropTrailing = v.Legacy.DropTrailing
	out.Selectors = v.Legacy.Selectors
	out.Legacy = nil
	return out
}

// Volume returns the proceedings volume number for a year. Explicit entries
// win over the offset rule; 0 means unknown.
func (v Venue) Volume(year int) int {
	if vol, ok := v.Volumes[year]; ok {
		return vol
	}
	if v.VolumeOffset > 0 && year > v.VolumeOffset {
		return year - v.VolumeOffset
	}
	return 0
}

// ListingURL expands the index URL template for a year.
func (v Venue) ListingURL(year int) (string, error) {
	if v.IndexURL == "" {
		return "", fmt.Errorf("venue %s has no index url", v.Code)
	}
	return v.expand(v.IndexURL, year)
}

// Base expands the base URL template for a year.
func (v Venue) Base(year int) string {
	s, err := v.expand(v.BaseURL, year)
	if err != nil {
		return v.BaseURL
	}
	return s
}

// VenueIDFor expands the OpenReview venue id for a year.
func (v Venue) VenueIDFor(year int) string {
	return strings.ReplaceAll(v.VenueID, "{year}", strconv.Itoa(year))
}

// UsesV2 reports whether the OpenReview v2 schema applies to a year.
func (v Venue) UsesV2(year int) bool {
	return year >= v.V2Since
}

// FallbackURLs lists the issue pages to try when the index yields nothing.
func (v Venue) FallbackURLs(year int) []string {
	r, ok := v.FallbackIssues[year]
	if !ok || v.FallbackURL == "" {
		return nil
	}
	urls := make([]string, 0, r.Count)
	for id := r.First; id < r.First+r.Count; id++ {
		urls = append(urls, strings.ReplaceAll(v.FallbackURL, "{id}", strconv.Itoa(id)))
	}
	return urls
}

func (v Venue) expand(tmpl string, year int) (string, error) {
	s := strings.ReplaceAll(tmpl, "{year}", strconv.Itoa(year))
	if strings.Contains(s, "{volume}") {
		vol := v.Volume(year)
		if vol == 0 {
			return "", fmt.Errorf("no volume known for %s %d; pass --url", v.Code, year)
		}
		s = strings.ReplaceAll(s, "{volume}", strconv.Itoa(vol))
	}
	return s, nil
}

// Catalog maps venue codes to their harvesting configuration.
type Catalog struct {
	venues map[string]Venue
}

// LoadCatalog parses the embedded catalog and applies the override file, if
// it exists. Override entries replace embedded entries with the same code.
func LoadCatalog(overridePath string) (*Catalog, error) {
	c, err := ParseCatalog(defaultVenues)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded venues: %w", err)
	}

	if overridePath == "" {
		return c, nil
	}
	data, err := os.ReadFile(overridePath)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading venue override: %w", err)
	}

	override, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", overridePath, err)
	}
	for key, v := range override.venues {
		c.venues[key] = v
	}
	return c, nil
}

// ParseCatalog decodes a YAML venue catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw map[string]Venue
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	c := &Catalog{venues: make(map[string]Venue, len(raw))}
	for code, v := range raw {
		v.Code = code
		switch v.Family {
		case FamilyOJS, FamilyCVF, FamilyECVA, FamilyProceedings, FamilyOpenReview:
		default:
			return nil, fmt.Errorf("venue %s: unknown family %q", code, v.Family)
		}
		c.venues[strings.ToUpper(code)] = v
	}
	return c, nil
}

// Lookup finds a venue by code, case-insensitively.
func (c *Catalog) Lookup(code string) (Venue, bool) {
	v, ok := c.venues[strings.ToUpper(strings.TrimSpace(code))]
	return v, ok
}

// Venues returns all venues sorted by code.
func (c *Catalog) Venues() []Venue {
	out := make([]Venue, 0, len(c.venues))
	for _, v := range c.venues {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Codes returns the venue codes sorted alphabetically.
func (c *Catalog) Codes() []string {
	var codes []string
	for _, v := range c.Venues() {
		codes = append(codes, v.Code)
	}
	return codes
}
