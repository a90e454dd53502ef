// Package catalog holds the static list of reportable locations and rewards.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ragno-typhojem/libocculus/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is read-only after Load.
type Catalog struct {
	Locations []domain.Location `yaml:"locations"`
	Rewards   []domain.Reward   `yaml:"rewards"`

	locations map[string]domain.Location
	rewards   map[string]domain.Reward
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Default returns the embedded catalog. It panics if the embedded file is invalid.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	c.locations = make(map[string]domain.Location, len(c.Locations))
	for _, l := range c.Locations {
		if l.ID == "" {
			return nil, fmt.Errorf("catalog: location without id")
		}
		if l.Kind != domain.ReportLibrary && l.Kind != domain.ReportCafeteria {
			return nil, fmt.Errorf("catalog: location %q has unknown kind %q", l.ID, l.Kind)
		}
		if _, dup := c.locations[l.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate location %q", l.ID)
		}
		c.locations[l.ID] = l
	}
	c.rewards = make(map[string]domain.Reward, len(c.Rewards))
	for _, r := range c.Rewards {
		if r.RewardID == "" || r.PointCost <= 0 {
			return nil, fmt.Errorf("catalog: invalid reward %q", r.RewardID)
		}
		if _, dup := c.rewards[r.RewardID]; dup {
			return nil, fmt.Errorf("catalog: duplicate reward %q", r.RewardID)
		}
		c.rewards[r.RewardID] = r
	}
	return &c, nil
}

// Location returns the location with id if it exists and is of kind.
func (c *Catalog) Location(id string, kind domain.ReportKind) (domain.Location, bool) {
	l, ok := c.locations[id]
	if !ok || l.Kind != kind {
		return domain.Location{}, false
	}
	return l, true
}

func (c *Catalog) Reward(id string) (domain.Reward, bool) {
	r, ok := c.rewards[id]
	return r, ok
}
