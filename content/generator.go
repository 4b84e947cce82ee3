// content/generator.go
package content

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/wfunc/idlerpg/models"
)

// Generator is the content boundary of the engine. Implementations return
// fully-formed entities and never touch player state.
type Generator interface {
	GenerateWeapon(forceBase int, rarity models.Rarity, forceEnchanted bool) *models.Item
	GenerateArmor(forceBase int, rarity models.Rarity, forceEnchanted bool) *models.Item
	GenerateRelic() *models.Relic
	GenerateEnemy(zone int) *models.Enemy
	RarityWeights(cost int64) [5]float64
}

var weaponNames = []string{"Saber", "Warhammer", "Longbow", "Staff", "Dagger", "Halberd"}
var armorNames = []string{"Chainmail", "Plate", "Leather Vest", "Robe", "Scale Armor"}
var relicNames = []string{"Idol", "Totem", "Sigil", "Charm", "Effigy"}
var enemyNames = []string{"Slime", "Goblin", "Wraith", "Harpy", "Golem", "Basilisk", "Lich", "Dragon"}

// RandGenerator is the default rand-backed Generator. The source is
// injectable so loot distributions are reproducible in tests.
type RandGenerator struct {
	rng *rand.Rand
}

func NewRandGenerator(rng *rand.Rand) *RandGenerator {
	return &RandGenerator{rng: rng}
}

func (g *RandGenerator) GenerateWeapon(forceBase int, rarity models.Rarity, forceEnchanted bool) *models.Item {
	return g.item(models.KindWeapon, weaponNames, forceBase, rarity, forceEnchanted)
}

func (g *RandGenerator) GenerateArmor(forceBase int, rarity models.Rarity, forceEnchanted bool) *models.Item {
	return g.item(models.KindArmor, armorNames, forceBase, rarity, forceEnchanted)
}

func (g *RandGenerator) item(kind models.ItemKind, names []string, forceBase int, rarity models.Rarity, enchanted bool) *models.Item {
	base := forceBase
	if base <= 0 {
		base = 3 + int(rarity)*4 + g.rng.Intn(4)
	}
	maxDur := 20 + int(rarity)*10
	return &models.Item{
		ID:            uuid.NewString(),
		Kind:          kind,
		Name:          fmt.Sprintf("%s %s", rarity, names[g.rng.Intn(len(names))]),
		Rarity:        rarity,
		Level:         1,
		BasePower:     base,
		Durability:    maxDur,
		MaxDurability: maxDur,
		Enchanted:     enchanted,
	}
}

func (g *RandGenerator) GenerateRelic() *models.Relic {
	slot := models.SlotOffense
	if g.rng.Intn(2) == 0 {
		slot = models.SlotDefense
	}
	return &models.Relic{
		ID:            uuid.NewString(),
		Name:          relicNames[g.rng.Intn(len(relicNames))],
		Slot:          slot,
		Level:         1,
		BaseBonus:     2 + g.rng.Intn(3),
		PerLevelBonus: 1 + g.rng.Intn(2),
	}
}

// GenerateEnemy scales the stat block to the zone.
func (g *RandGenerator) GenerateEnemy(zone int) *models.Enemy {
	if zone < 1 {
		zone = 1
	}
	hp := 20 + zone*8 + g.rng.Intn(zone*4+1)
	return &models.Enemy{
		ID:      uuid.NewString(),
		Name:    enemyNames[g.rng.Intn(len(enemyNames))],
		Zone:    zone,
		HP:      hp,
		MaxHP:   hp,
		Attack:  3 + zone*2 + g.rng.Intn(zone+1),
		Defense: zone / 2,
	}
}

// RarityWeights shifts probability mass toward rarer tiers as cost grows.
// The returned vector always sums to 100.
func (g *RandGenerator) RarityWeights(cost int64) [5]float64 {
	switch {
	case cost >= 500:
		return [5]float64{20, 30, 25, 18, 7}
	case cost >= 250:
		return [5]float64{35, 30, 20, 12, 3}
	case cost >= 100:
		return [5]float64{60, 25, 10, 4, 1}
	default:
		return [5]float64{75, 18, 5, 1.8, 0.2}
	}
}
