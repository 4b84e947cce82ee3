// combat/combat.go
package combat

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/wfunc/idlerpg/content"
	"github.com/wfunc/idlerpg/loot"
	"github.com/wfunc/idlerpg/models"
	"github.com/wfunc/idlerpg/stats"
)

type timeNow func() time.Time

// skillOfferChance is the fixed probability that beginning an encounter
// offers an adventure-skill pick.
const skillOfferChance = 0.25

// offerSize is how many distinct skills one offer contains.
const offerSize = 3

// Engine resolves encounters against a snapshot. All methods are synchronous
// single-step transitions; the snapshot is owned by the caller.
type Engine struct {
	gen  content.Generator
	loot *loot.Adapter
	rng  *rand.Rand
	now  timeNow
}

func NewEngine(gen content.Generator, adapter *loot.Adapter, rng *rand.Rand, now func() time.Time) *Engine {
	return &Engine{gen: gen, loot: adapter, rng: rng, now: now}
}

// Result is the typed outcome of one resolved answer.
type Result struct {
	Damage       int
	EnemyDamage  int
	Victory      bool
	Defeat       bool
	Revived      bool
	RewardCoins  int64
	RewardXP     int
	LevelsGained int
	Loot         *models.Item
}

// Begin starts an encounter: Idle → Active. Generates a zone-scaled enemy,
// resets per-encounter skill flags and rolls the adventure-skill offer.
func (e *Engine) Begin(p *models.PlayerState) bool {
	if changePhase(&p.Combat, models.PhaseActive) != nil {
		return false
	}
	enemy := e.gen.GenerateEnemy(p.Zone)
	p.Combat = models.CombatState{
		Phase: models.PhaseActive,
		Enemy: enemy,
	}
	p.Combat.Log = append(p.Combat.Log, fmt.Sprintf("A %s appears in zone %d", enemy.Name, p.Zone))

	if e.rng.Float64() < skillOfferChance {
		p.Combat.SkillOffer = e.rollOffer()
	}
	return true
}

// rollOffer draws offerSize distinct skills from the pool.
func (e *Engine) rollOffer() []models.SkillType {
	pool := make([]models.SkillType, len(models.AllSkillTypes))
	copy(pool, models.AllSkillTypes)
	e.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:offerSize]
}

// SelectSkill accepts one skill from a pending offer. At most one skill may
// be selected per encounter.
func (e *Engine) SelectSkill(p *models.PlayerState, skill models.SkillType) bool {
	cs := &p.Combat
	if cs.Phase != models.PhaseActive || len(cs.SkillOffer) == 0 || cs.SelectedSkill != "" {
		return false
	}
	for _, offered := range cs.SkillOffer {
		if offered == skill {
			cs.SelectedSkill = skill
			cs.SkillOffer = nil
			cs.Log = append(cs.Log, fmt.Sprintf("Adventure skill selected: %s", skill))
			return true
		}
	}
	return false
}

// SkipSkills declines a pending offer.
func (e *Engine) SkipSkills(p *models.PlayerState) {
	p.Combat.SkillOffer = nil
}

// Answer resolves one turn. Ok is false when no encounter is active.
//
// Effect precedence is canonical here: the selected adventure skill applies
// before the active buff, on both the damage and the defense path.
func (e *Engine) Answer(p *models.PlayerState, correct bool, category string) (Result, bool) {
	if p.Combat.Phase != models.PhaseActive || p.Combat.Enemy == nil {
		return Result{}, false
	}

	// The skill pick happens before the fight proceeds; an unanswered offer
	// lapses on the first resolved turn.
	p.Combat.SkillOffer = nil

	var res Result
	if correct {
		res = e.resolveCorrect(p, category)
	} else {
		res = e.resolveIncorrect(p, category)
	}

	e.wearEquipment(p)
	return res, true
}

func (e *Engine) resolveCorrect(p *models.PlayerState, category string) Result {
	cs := &p.Combat
	cs.Streak++
	p.Stats.CorrectAnswers++
	if cs.Streak > p.Stats.BestStreak {
		p.Stats.BestStreak = cs.Streak
	}

	skill := activeSkill(cs)
	buff := activeBuff(p, e.now)

	damage := int(math.Floor(float64(p.Attack) * skill.DamageMult * buff.DamageMult))
	cs.Enemy.HP -= damage
	cs.Log = append(cs.Log, fmt.Sprintf("Hit %s for %d (%s)", cs.Enemy.Name, damage, category))

	if skill.LifestealPct > 0 {
		heal := damage * skill.LifestealPct / 100
		p.HP += heal
		if p.HP > p.MaxHP {
			p.HP = p.MaxHP
		}
	}

	res := Result{Damage: damage}
	if cs.Enemy.HP <= 0 {
		e.resolveVictory(p, &res)
	}
	return res
}

// resolveVictory runs the Active → ResolvingWin → Idle tail of the machine.
func (e *Engine) resolveVictory(p *models.PlayerState, res *Result) {
	cs := &p.Combat
	_ = changePhase(cs, models.PhaseResolvingWin)

	mult := 1.0 + float64(cs.Streak)*0.1
	buff := activeBuff(p, e.now)

	coins := int64(math.Floor(float64(coinBase(p.Zone)) * mult))
	xp := int(math.Floor(float64(xpBase(p.Zone)) * mult))
	if p.Mode == models.ModeHighRisk {
		coins *= 2
		xp *= 2
	}
	coins = int64(float64(coins) * buff.CoinMult)
	xp = int(float64(xp) * buff.XPMult)

	p.AddCoins(coins)
	res.RewardCoins = coins
	res.RewardXP = xp
	res.LevelsGained = applyExperience(p, xp)

	if drop := e.loot.ZoneDrop(p.Zone); drop != nil {
		p.Items[drop.ID] = drop
		p.Stats.ItemsCollected++
		res.Loot = drop
	}

	p.Zone++
	p.Stats.EnemiesDefeated++
	p.HP += p.MaxHP / 4
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}

	cs.Log = append(cs.Log, fmt.Sprintf("%s defeated, +%d coins, +%d xp", cs.Enemy.Name, coins, xp))
	res.Victory = true
	e.clearEncounter(p, models.PhaseResolvingWin)
}

func (e *Engine) resolveIncorrect(p *models.PlayerState, category string) Result {
	cs := &p.Combat
	cs.Streak = 0
	p.Stats.WrongAnswers++

	damage := cs.Enemy.Attack - p.Defense
	if damage < 1 {
		damage = 1
	}

	skill := activeSkill(cs)
	buff := activeBuff(p, e.now)

	// Consumable defenses, priority order: full block before percentage
	// reduction. Each fires at most once per encounter.
	switch {
	case skill.FullBlock && !cs.SkillBlockUsed:
		cs.SkillBlockUsed = true
		damage = 0
		cs.Log = append(cs.Log, "Shield wall absorbs the hit")
	case skill.ReductionPct > 0 && !cs.SkillBlockUsed:
		cs.SkillBlockUsed = true
		damage = damage * (100 - skill.ReductionPct) / 100
	}
	damage = int(math.Floor(float64(damage) * buff.IncomingMult))

	p.HP -= damage
	res := Result{EnemyDamage: damage}
	if damage > 0 {
		cs.Log = append(cs.Log, fmt.Sprintf("%s hits back for %d (%s)", cs.Enemy.Name, damage, category))
	}

	if p.HP <= 0 {
		e.resolveLethal(p, skill, &res)
	}
	return res
}

// resolveLethal applies the strict fallback chain: revival skill, then
// immunity skill, then the single free session revival, then defeat.
func (e *Engine) resolveLethal(p *models.PlayerState, skill skillEffect, res *Result) {
	cs := &p.Combat
	switch {
	case skill.RevivesAt50 && !cs.SkillReviveUsed:
		cs.SkillReviveUsed = true
		p.HP = p.MaxHP / 2
		res.Revived = true
		cs.Log = append(cs.Log, "Phoenix feather burns away")
	case skill.LethalImmune && !cs.SkillImmuneUsed:
		cs.SkillImmuneUsed = true
		p.HP = 1
		res.Revived = true
		cs.Log = append(cs.Log, "Guardian angel intervenes")
	case !p.FreeRevivalUsed:
		p.FreeRevivalUsed = true
		p.HP = p.MaxHP / 2
		p.Stats.RevivalsUsed++
		res.Revived = true
		cs.Log = append(cs.Log, "A second chance")
	default:
		e.resolveDefeat(p, res)
	}
}

func (e *Engine) resolveDefeat(p *models.PlayerState, res *Result) {
	cs := &p.Combat
	_ = changePhase(cs, models.PhaseResolvingLose)

	p.Stats.Deaths++
	if p.Mode == models.ModeHighRisk && p.Lives > 0 {
		p.Lives--
	}
	cs.Log = append(cs.Log, fmt.Sprintf("Defeated by %s", cs.Enemy.Name))
	res.Defeat = true

	e.clearEncounter(p, models.PhaseResolvingLose)
	p.HP = p.MaxHP
}

// clearEncounter destroys the enemy, resets the per-encounter skill state and
// returns the machine to Idle.
func (e *Engine) clearEncounter(p *models.PlayerState, from models.CombatPhase) {
	log := p.Combat.Log
	p.Combat = models.CombatState{Phase: from, Log: log}
	_ = changePhase(&p.Combat, models.PhaseIdle)
}

// wearEquipment decrements durability by one per resolved action on both
// outcomes and re-resolves derived stats.
func (e *Engine) wearEquipment(p *models.PlayerState) {
	worn := false
	for _, item := range []*models.Item{p.EquippedWeapon(), p.EquippedArmor()} {
		if item != nil && item.Durability > 0 {
			item.Durability--
			worn = true
		}
	}
	if worn {
		stats.Apply(p)
	}
}

// applyExperience runs the level-up loop and returns levels gained.
// Post-condition: experience < threshold(level).
func applyExperience(p *models.PlayerState, xp int) int {
	p.Experience += xp
	gained := 0
	for p.Experience >= ExperienceToNext(p.Level) {
		p.Experience -= ExperienceToNext(p.Level)
		p.Level++
		gained++
	}
	return gained
}

// ExperienceToNext is the threshold for leaving the given level.
func ExperienceToNext(level int) int {
	return int(math.Floor(100 * math.Pow(1.2, float64(level-1))))
}

func coinBase(zone int) int {
	return 10 + zone*5
}

func xpBase(zone int) int {
	return 8 + zone*4
}
