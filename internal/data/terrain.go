package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TerrainType describes one tile ID in the terrain index sent with snapshots.
type TerrainType struct {
	ID       uint16 `yaml:"id"`
	Name     string `yaml:"name"`
	Walkable bool   `yaml:"walkable"`
	SpriteID string `yaml:"sprite_id"`
}

// FeatureType describes one placed-feature ID in the feature index.
type FeatureType struct {
	ID             uint16 `yaml:"id"`
	Name           string `yaml:"name"`
	BlocksMovement bool   `yaml:"blocks_movement"`
	SpriteID       string `yaml:"sprite_id"`
}

type TerrainTable struct {
	Terrain  []TerrainType
	Features []FeatureType
}

type terrainFile struct {
	Terrain  []TerrainType `yaml:"terrain"`
	Features []FeatureType `yaml:"features"`
}

// LoadTerrainTable reads the terrain and feature indexes from one YAML file.
func LoadTerrainTable(path string) (*TerrainTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read terrain table %s: %w", path, err)
	}
	var f terrainFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse terrain table %s: %w", path, err)
	}
	if len(f.Terrain) == 0 {
		return nil, fmt.Errorf("terrain table %s: no terrain entries", path)
	}
	return &TerrainTable{Terrain: f.Terrain, Features: f.Features}, nil
}

func (t *TerrainTable) Count() int { return len(t.Terrain) + len(t.Features) }

// WalkableSet returns tile ID → walkable, for movement clamping.
func (t *TerrainTable) WalkableSet() map[uint16]bool {
	m := make(map[uint16]bool, len(t.Terrain))
	for _, tt := range t.Terrain {
		m[tt.ID] = tt.Walkable
	}
	return m
}

// BlockingFeatureSet returns feature ID → blocks movement.
func (t *TerrainTable) BlockingFeatureSet() map[uint16]bool {
	m := make(map[uint16]bool, len(t.Features))
	for _, ft := range t.Features {
		m[ft.ID] = ft.BlocksMovement
	}
	return m
}

// TerrainIDs returns the walkable-preferred tile ID list handed to the map
// producer (walkable tiles first so generated terrain is mostly passable).
func (t *TerrainTable) TerrainIDs() []uint16 {
	ids := make([]uint16, 0, len(t.Terrain))
	for _, tt := range t.Terrain {
		if tt.Walkable {
			ids = append(ids, tt.ID)
		}
	}
	for _, tt := range t.Terrain {
		if !tt.Walkable {
			ids = append(ids, tt.ID)
		}
	}
	return ids
}

func (t *TerrainTable) FeatureIDs() []uint16 {
	ids := make([]uint16, 0, len(t.Features))
	for _, ft := range t.Features {
		ids = append(ids, ft.ID)
	}
	return ids
}
