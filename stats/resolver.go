// stats/resolver.go
package stats

import (
	"math"

	"github.com/wfunc/idlerpg/models"
)

// Derived are the combat stats recomputed from base stats plus all active
// modifiers. See Resolve.
type Derived struct {
	Attack  int
	Defense int
	MaxHP   int
}

// Resolve computes derived combat stats from the snapshot. Pure and total:
// absent equipment contributes 0 and no input can make it fail.
//
// attack  = floor((baseAttack + effectiveWeaponPower + relicOffense) * envMult)
// defense = floor((baseDefense + effectiveArmorPower + relicDefense) * envMult)
// maxHP   = floor(baseHP * envMult)
//
// Game-mode overrides apply after the formula; high-risk doubles attack and
// halves defense and maxHP.
func Resolve(p *models.PlayerState) Derived {
	envMult := 1.0 + p.Garden.BonusPercent/100.0

	attack := float64(p.BaseAttack+effectivePower(p.EquippedWeapon())+relicBonus(p, models.SlotOffense)) * envMult
	defense := float64(p.BaseDefense+effectivePower(p.EquippedArmor())+relicBonus(p, models.SlotDefense)) * envMult
	maxHP := float64(p.BaseHP) * envMult

	d := Derived{
		Attack:  int(math.Floor(attack)),
		Defense: int(math.Floor(defense)),
		MaxHP:   int(math.Floor(maxHP)),
	}

	if p.Mode == models.ModeHighRisk {
		d.Attack *= 2
		d.Defense /= 2
		d.MaxHP /= 2
	}
	if d.MaxHP < 1 {
		d.MaxHP = 1
	}
	return d
}

// Apply writes the derived stats back onto the snapshot, clamping current HP
// into the new maximum. Call after equip/unequip, upgrades, durability
// changes, relic changes, garden bonus changes and mode changes.
func Apply(p *models.PlayerState) {
	d := Resolve(p)
	p.Attack = d.Attack
	p.Defense = d.Defense
	p.MaxHP = d.MaxHP
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	if p.HP < 0 {
		p.HP = 0
	}
}

// effectivePower scales level power down linearly with the durability ratio.
// A fully worn item contributes exactly 0.
func effectivePower(item *models.Item) int {
	if item == nil || item.MaxDurability <= 0 {
		return 0
	}
	return item.Power() * item.Durability / item.MaxDurability
}

func relicBonus(p *models.PlayerState, slot models.RelicSlot) int {
	total := 0
	for _, r := range p.EquippedRelics() {
		if r.Slot == slot {
			total += r.Bonus()
		}
	}
	return total
}
