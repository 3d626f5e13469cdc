package world

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/emberwold/server/internal/component"
)

// Species is the playable race of a character.
type Species uint8

const (
	SpeciesHuman Species = iota
	SpeciesElf
	SpeciesDwarf
	SpeciesOrc
	SpeciesFae
	SpeciesRevenant
	SpeciesCount
)

// Class is the starting profession of a character.
type Class uint8

const (
	ClassWarrior Class = iota
	ClassRanger
	ClassMage
	ClassCleric
	ClassRogue
	ClassArtificer
	ClassCount
)

var speciesNames = [...]string{"Human", "Elf", "Dwarf", "Orc", "Fae", "Revenant"}
var classNames = [...]string{"Warrior", "Ranger", "Mage", "Cleric", "Rogue", "Artificer"}

func (s Species) String() string {
	if int(s) < len(speciesNames) {
		return speciesNames[s]
	}
	return "Unknown"
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "Unknown"
}

func (s Species) Valid() bool { return s < SpeciesCount }
func (c Class) Valid() bool   { return c < ClassCount }

// baseStats per species, order Str/Dex/Con/Int/Wis/Cha.
var baseStats = [SpeciesCount][6]uint8{
	SpeciesHuman:    {12, 12, 12, 12, 12, 12},
	SpeciesElf:      {10, 15, 10, 13, 12, 12},
	SpeciesDwarf:    {14, 9, 16, 10, 12, 11},
	SpeciesOrc:      {16, 11, 14, 8, 10, 13},
	SpeciesFae:      {8, 16, 9, 15, 14, 10},
	SpeciesRevenant: {13, 12, 13, 12, 14, 8},
}

// classBonus per class, same stat order.
var classBonus = [ClassCount][6]uint8{
	ClassWarrior:   {3, 1, 2, 0, 0, 0},
	ClassRanger:    {1, 3, 1, 0, 1, 0},
	ClassMage:      {0, 1, 0, 3, 2, 0},
	ClassCleric:    {1, 0, 1, 1, 3, 0},
	ClassRogue:     {1, 3, 0, 1, 0, 1},
	ClassArtificer: {0, 1, 1, 3, 1, 0},
}

// spritesBySpecies maps species to the base player sprite sheet.
var spritesBySpecies = [SpeciesCount]uint16{100, 101, 102, 103, 104, 105}

// CharacterSheet is the fully derived character at creation time, ready to
// feed SpawnPlayer.
type CharacterSheet struct {
	Name         string
	Species      Species
	Class        Class
	Stats        component.Stats
	MaxHP        int32
	Speed        float64
	SpriteID     uint16
	StarterItems []component.ItemStack
}

// BuildSheet derives the stats, HP and starter kit for a valid species/class
// pair. The name must already be normalized.
func BuildSheet(name string, species Species, class Class, moveSpeed float64) CharacterSheet {
	base := baseStats[species]
	bonus := classBonus[class]
	var st component.Stats
	st.Str = base[0] + bonus[0]
	st.Dex = base[1] + bonus[1]
	st.Con = base[2] + bonus[2]
	st.Int = base[3] + bonus[3]
	st.Wis = base[4] + bonus[4]
	st.Cha = base[5] + bonus[5]

	// HP scales with Con; Dex nudges move speed a few percent either way.
	maxHP := int32(40) + int32(st.Con)*4
	speed := moveSpeed * (1 + (float64(st.Dex)-12)/100)

	return CharacterSheet{
		Name:         name,
		Species:      species,
		Class:        class,
		Stats:        st,
		MaxHP:        maxHP,
		Speed:        speed,
		SpriteID:     spritesBySpecies[species],
		StarterItems: starterKit(class),
	}
}

func starterKit(class Class) []component.ItemStack {
	kit := []component.ItemStack{
		{ItemID: 1, Name: "Traveler's Bread", Sprite: 500, Count: 5},
	}
	switch class {
	case ClassWarrior:
		kit = append(kit, component.ItemStack{ItemID: 10, Name: "Worn Shortsword", Sprite: 510, Count: 1})
	case ClassRanger:
		kit = append(kit, component.ItemStack{ItemID: 11, Name: "Hunting Bow", Sprite: 511, Count: 1})
	case ClassMage:
		kit = append(kit, component.ItemStack{ItemID: 12, Name: "Apprentice Staff", Sprite: 512, Count: 1})
	case ClassCleric:
		kit = append(kit, component.ItemStack{ItemID: 13, Name: "Oak Cudgel", Sprite: 513, Count: 1})
	case ClassRogue:
		kit = append(kit, component.ItemStack{ItemID: 14, Name: "Bent Dagger", Sprite: 514, Count: 1})
	case ClassArtificer:
		kit = append(kit, component.ItemStack{ItemID: 15, Name: "Tinker's Wrench", Sprite: 515, Count: 1})
	}
	return kit
}

var (
	ErrNameLength  = errors.New("name must be 3-16 characters")
	ErrNameCharset = errors.New("name contains invalid characters")
)

// NormalizeName canonicalizes a character name for identity comparison:
// NFC normalization, surrounding whitespace trimmed, lowercased.
// Rebinding after disconnect matches on the normalized form.
func NormalizeName(raw string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(raw)))
}

// ValidateName checks the display form of a name: 3-16 runes, letters,
// digits, and single internal spaces only.
func ValidateName(raw string) error {
	name := strings.TrimSpace(norm.NFC.String(raw))
	runes := []rune(name)
	if len(runes) < 3 || len(runes) > 16 {
		return ErrNameLength
	}
	prevSpace := false
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			prevSpace = false
		case r == ' ':
			if prevSpace {
				return ErrNameCharset
			}
			prevSpace = true
		default:
			return ErrNameCharset
		}
	}
	return nil
}
