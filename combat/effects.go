// combat/effects.go
package combat

import (
	"github.com/wfunc/idlerpg/models"
)

// skillEffect describes what one adventure skill does. The table is the
// single source of truth; adding a skill means adding a row here.
type skillEffect struct {
	DamageMult    float64 // outgoing damage, applied before buffs
	LifestealPct  int     // percent of dealt damage healed on hit
	FullBlock     bool    // consumable: blocks one incoming hit entirely
	ReductionPct  int     // consumable: reduces one incoming hit by percent
	RevivesAt50   bool    // one-shot: lethal hit restores to 50% HP
	LethalImmune  bool    // one-shot: lethal hit leaves HP at 1
}

var skillEffects = map[models.SkillType]skillEffect{
	models.SkillBerserk:       {DamageMult: 1.5},
	models.SkillVampire:       {DamageMult: 1, LifestealPct: 20},
	models.SkillShieldWall:    {DamageMult: 1, FullBlock: true},
	models.SkillStoneSkin:     {DamageMult: 1, ReductionPct: 50},
	models.SkillPhoenix:       {DamageMult: 1, RevivesAt50: true},
	models.SkillGuardianAngel: {DamageMult: 1, LethalImmune: true},
}

// buffEffect describes the global timed modifiers.
type buffEffect struct {
	DamageMult   float64
	IncomingMult float64
	CoinMult     float64
	XPMult       float64
}

var buffEffects = map[models.BuffType]buffEffect{
	models.BuffFury:    {DamageMult: 2, IncomingMult: 1, CoinMult: 1, XPMult: 1},
	models.BuffWard:    {DamageMult: 1, IncomingMult: 0.5, CoinMult: 1, XPMult: 1},
	models.BuffFortune: {DamageMult: 1, IncomingMult: 1, CoinMult: 2, XPMult: 1},
	models.BuffWisdom:  {DamageMult: 1, IncomingMult: 1, CoinMult: 1, XPMult: 2},
}

// activeSkill returns the selected skill's effect row, or a zero-value row
// with neutral multipliers when no skill is selected.
func activeSkill(cs *models.CombatState) skillEffect {
	if cs.SelectedSkill == "" {
		return skillEffect{DamageMult: 1}
	}
	eff, ok := skillEffects[cs.SelectedSkill]
	if !ok {
		return skillEffect{DamageMult: 1}
	}
	return eff
}

// activeBuff returns the buff's effect row when it is still running.
func activeBuff(p *models.PlayerState, now timeNow) buffEffect {
	neutral := buffEffect{DamageMult: 1, IncomingMult: 1, CoinMult: 1, XPMult: 1}
	if p.Buff == nil || !p.Buff.Active(now()) {
		return neutral
	}
	eff, ok := buffEffects[p.Buff.Type]
	if !ok {
		return neutral
	}
	return eff
}
