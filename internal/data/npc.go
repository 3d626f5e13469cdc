package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NpcTemplate is the static definition of one NPC kind.
type NpcTemplate struct {
	ID       uint16 `yaml:"id"`
	Name     string `yaml:"name"`
	SpriteID uint16 `yaml:"sprite_id"`
	MaxHP    int32  `yaml:"max_hp"`
	Speed    float64 `yaml:"speed"` // pixels per second
	Str      uint8  `yaml:"str"`
	Dex      uint8  `yaml:"dex"`
	Con      uint8  `yaml:"con"`
	Int      uint8  `yaml:"int"`
	Wis      uint8  `yaml:"wis"`
	Cha      uint8  `yaml:"cha"`
}

type NpcTable struct {
	byID map[uint16]*NpcTemplate
}

type npcFile struct {
	Npcs []NpcTemplate `yaml:"npcs"`
}

func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npc table %s: %w", path, err)
	}
	var f npcFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npc table %s: %w", path, err)
	}
	t := &NpcTable{byID: make(map[uint16]*NpcTemplate, len(f.Npcs))}
	for i := range f.Npcs {
		tmpl := f.Npcs[i]
		t.byID[tmpl.ID] = &tmpl
	}
	return t, nil
}

func (t *NpcTable) Get(id uint16) *NpcTemplate { return t.byID[id] }
func (t *NpcTable) Count() int                 { return len(t.byID) }

// SpawnEntry places Count instances of an NPC near a tile position, each
// offset by up to RandomTiles in both axes.
type SpawnEntry struct {
	NpcID       uint16 `yaml:"npc_id"`
	TileX       int32  `yaml:"tile_x"`
	TileY       int32  `yaml:"tile_y"`
	Count       int    `yaml:"count"`
	RandomTiles int32  `yaml:"random_tiles"`
}

type spawnFile struct {
	Spawns []SpawnEntry `yaml:"spawns"`
}

func LoadSpawnList(path string) ([]SpawnEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spawn list %s: %w", path, err)
	}
	var f spawnFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spawn list %s: %w", path, err)
	}
	return f.Spawns, nil
}
