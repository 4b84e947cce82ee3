// loot/loot.go
package loot

import (
	"math/rand"

	"github.com/wfunc/idlerpg/content"
	"github.com/wfunc/idlerpg/models"
)

// Outcome is what a chest produced. The caller merges it into the snapshot;
// this package never touches PlayerState.
type Outcome struct {
	Rarity    models.Rarity
	Items     []*models.Item
	Gems      int64
	BonusGems int64
}

// gemMultiplier per rarity tier for gem-only outcomes.
var gemMultiplier = [5]int64{1, 2, 4, 8, 20}

// enchantChance per rarity tier, in percent.
var enchantChance = [5]int{5, 10, 20, 35, 60}

// Adapter wraps the content generators with the weighted-rarity selection
// and reward-tier logic.
type Adapter struct {
	gen content.Generator
	rng *rand.Rand
}

func NewAdapter(gen content.Generator, rng *rand.Rand) *Adapter {
	return &Adapter{gen: gen, rng: rng}
}

// PickRarity walks the cumulative prefix sums of the weight vector and
// selects the first tier whose cumulative sum reaches the draw.
func PickRarity(weights [5]float64, draw float64) models.Rarity {
	cumulative := 0.0
	for tier, w := range weights {
		cumulative += w
		if cumulative >= draw {
			return models.Rarity(tier)
		}
	}
	return models.RarityMythical
}

// OpenReward resolves one chest of the given cost.
//
// Rarity comes from cumulative weighted sampling over the cost-derived weight
// vector. Independently, 80% of chests contain items (30% of those contain
// two), each item a 50/50 weapon-or-armor draw; the other 20% pay gems as
// floor(cost/20) * rarityMultiplier. A flat bonus-gem grant rides along in
// every outcome.
func (a *Adapter) OpenReward(cost int64) Outcome {
	weights := a.gen.RarityWeights(cost)
	rarity := PickRarity(weights, a.rng.Float64()*100)

	out := Outcome{Rarity: rarity, BonusGems: 2}

	if a.rng.Float64() < 0.8 {
		count := 1
		if a.rng.Float64() < 0.3 {
			count = 2
		}
		for i := 0; i < count; i++ {
			enchanted := a.rng.Intn(100) < enchantChance[rarity]
			if a.rng.Intn(2) == 0 {
				out.Items = append(out.Items, a.gen.GenerateWeapon(0, rarity, enchanted))
			} else {
				out.Items = append(out.Items, a.gen.GenerateArmor(0, rarity, enchanted))
			}
		}
	} else {
		out.Gems = cost / 20 * gemMultiplier[rarity]
	}

	return out
}

// MythicalItem resolves the guaranteed-mythical purchase: one enchant-rolled
// mythical weapon or armor.
func (a *Adapter) MythicalItem() *models.Item {
	enchanted := a.rng.Intn(100) < enchantChance[models.RarityMythical]
	if a.rng.Intn(2) == 0 {
		return a.gen.GenerateWeapon(0, models.RarityMythical, enchanted)
	}
	return a.gen.GenerateArmor(0, models.RarityMythical, enchanted)
}

// MarketBatch generates a fresh fixed-size offer list for the rotating shop.
func (a *Adapter) MarketBatch(slots int) []models.MarketOffer {
	offers := make([]models.MarketOffer, 0, slots)
	for i := 0; i < slots; i++ {
		relic := a.gen.GenerateRelic()
		offers = append(offers, models.MarketOffer{
			Relic: relic,
			Price: int64(relic.Bonus()) * 60,
		})
	}
	return offers
}

// ZoneDrop rolls the post-victory loot gate: drop probability grows slowly
// with zone and is capped. Returns nil when nothing drops.
func (a *Adapter) ZoneDrop(zone int) *models.Item {
	chance := 10 + zone
	if chance > 35 {
		chance = 35
	}
	if a.rng.Intn(100) >= chance {
		return nil
	}
	weights := a.gen.RarityWeights(int64(zone) * 10)
	rarity := PickRarity(weights, a.rng.Float64()*100)
	enchanted := a.rng.Intn(100) < enchantChance[rarity]
	if a.rng.Intn(2) == 0 {
		return a.gen.GenerateWeapon(0, rarity, enchanted)
	}
	return a.gen.GenerateArmor(0, rarity, enchanted)
}
