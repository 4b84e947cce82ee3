// engine/engine.go
package engine

import (
	"math/rand"
	"time"

	"github.com/wfunc/idlerpg/achievements"
	"github.com/wfunc/idlerpg/combat"
	"github.com/wfunc/idlerpg/config"
	"github.com/wfunc/idlerpg/content"
	"github.com/wfunc/idlerpg/loot"
	"github.com/wfunc/idlerpg/models"
	"github.com/wfunc/idlerpg/reconcile"
	"github.com/wfunc/idlerpg/stats"
)

// shinyGemRate is the shiny→gem exchange rate.
const shinyGemRate = 10

// buffRollCost is the gem price of rolling a new buff.
const buffRollCost = 5

// buffDuration is the single-slot buff lifetime.
const buffDuration = 30 * time.Minute

// seedCost is the coin price of planting the garden.
const seedCost = 100

// prestigeZone is the minimum zone required to prestige.
const prestigeZone = 25

// highRiskLives is the life budget of the limited-lives mode.
const highRiskLives = 3

// Engine owns one player's snapshot and applies every rule transition to it.
// Each public method is a total, synchronous transition: failures are
// signalled by bool/nil results and never mutate state. After a successful
// transition the achievement and tag evaluators run over the new state and
// results are merged by id.
type Engine struct {
	state      *models.PlayerState
	cfg        config.GameConfig
	combat     *combat.Engine
	loot       *loot.Adapter
	reconciler *reconcile.Reconciler
	evaluator  achievements.Evaluator
	rng        *rand.Rand
	now        func() time.Time
	onUnlock   func(achievements.Achievement)
}

// New wires an engine around a snapshot. The clock is injectable so every
// time-dependent transition is deterministic under test.
func New(state *models.PlayerState, cfg config.GameConfig, gen content.Generator,
	evaluator achievements.Evaluator, rng *rand.Rand, now func() time.Time) *Engine {

	adapter := loot.NewAdapter(gen, rng)
	e := &Engine{
		state:      state,
		cfg:        cfg,
		loot:       adapter,
		combat:     combat.NewEngine(gen, adapter, rng, now),
		reconciler: reconcile.New(cfg, adapter),
		evaluator:  evaluator,
		rng:        rng,
		now:        now,
	}
	stats.Apply(state)
	return e
}

// State exposes the owned snapshot. Callers must not retain mutable
// references across transitions.
func (e *Engine) State() *models.PlayerState {
	return e.state
}

// SetUnlockHandler registers a callback fired once per newly-unlocked
// achievement.
func (e *Engine) SetUnlockHandler(fn func(achievements.Achievement)) {
	e.onUnlock = fn
}

// Reconcile catches every time-gated subsystem up to now. Run once per load.
func (e *Engine) Reconcile() {
	e.reconciler.Reconcile(e.state, e.now())
	stats.Apply(e.state)
	e.afterTransition()
}

func (e *Engine) EquipWeapon(id string) bool {
	return e.equip(id, models.KindWeapon)
}

func (e *Engine) EquipArmor(id string) bool {
	return e.equip(id, models.KindArmor)
}

func (e *Engine) equip(id string, kind models.ItemKind) bool {
	p := e.state
	item, ok := p.Items[id]
	if !ok || item.Kind != kind {
		return false
	}
	if (kind == models.KindWeapon && p.EquippedWeaponID == id) ||
		(kind == models.KindArmor && p.EquippedArmorID == id) {
		return false
	}
	if kind == models.KindWeapon {
		p.EquippedWeaponID = id
	} else {
		p.EquippedArmorID = id
	}
	stats.Apply(p)
	e.afterTransition()
	return true
}

func (e *Engine) UpgradeWeapon(id string) bool {
	return e.upgradeItem(id, models.KindWeapon)
}

func (e *Engine) UpgradeArmor(id string) bool {
	return e.upgradeItem(id, models.KindArmor)
}

func (e *Engine) upgradeItem(id string, kind models.ItemKind) bool {
	p := e.state
	item, ok := p.Items[id]
	if !ok || item.Kind != kind {
		return false
	}
	if !p.SpendCoins(item.UpgradeCost()) {
		return false
	}
	item.Level++
	stats.Apply(p)
	e.afterTransition()
	return true
}

func (e *Engine) SellWeapon(id string) bool {
	return e.sellItem(id, models.KindWeapon)
}

func (e *Engine) SellArmor(id string) bool {
	return e.sellItem(id, models.KindArmor)
}

// sellItem destroys the item and credits its sell price. Selling equipped
// gear unequips it first.
func (e *Engine) sellItem(id string, kind models.ItemKind) bool {
	p := e.state
	item, ok := p.Items[id]
	if !ok || item.Kind != kind {
		return false
	}
	if p.EquippedWeaponID == id {
		p.EquippedWeaponID = ""
	}
	if p.EquippedArmorID == id {
		p.EquippedArmorID = ""
	}
	p.AddCoins(item.SellPrice())
	delete(p.Items, id)
	stats.Apply(p)
	e.afterTransition()
	return true
}

// BulkSell sells every valid id of the given kind and returns how many sold.
func (e *Engine) BulkSell(ids []string, kind models.ItemKind) int {
	sold := 0
	for _, id := range ids {
		if e.sellItem(id, kind) {
			sold++
		}
	}
	return sold
}

// BulkUpgrade upgrades each valid id while coins last; returns how many
// upgrades were applied.
func (e *Engine) BulkUpgrade(ids []string, kind models.ItemKind) int {
	upgraded := 0
	for _, id := range ids {
		if e.upgradeItem(id, kind) {
			upgraded++
		}
	}
	return upgraded
}

// OpenChest pays cost coins and resolves one reward. Nil when unaffordable.
func (e *Engine) OpenChest(cost int64) *loot.Outcome {
	p := e.state
	if cost <= 0 || !p.SpendCoins(cost) {
		return nil
	}
	outcome := e.loot.OpenReward(cost)
	for _, item := range outcome.Items {
		p.Items[item.ID] = item
		p.Stats.ItemsCollected++
	}
	p.Gems += outcome.Gems + outcome.BonusGems
	p.Stats.ChestsOpened++
	e.afterTransition()
	return &outcome
}

// PurchaseMythical pays cost gems for a guaranteed mythical item.
func (e *Engine) PurchaseMythical(cost int64) bool {
	p := e.state
	if cost <= 0 || !p.SpendGems(cost) {
		return false
	}
	item := e.loot.MythicalItem()
	p.Items[item.ID] = item
	p.Stats.ItemsCollected++
	e.afterTransition()
	return true
}

func (e *Engine) BeginEncounter() bool {
	if !e.combat.Begin(e.state) {
		return false
	}
	e.afterTransition()
	return true
}

// Answer resolves one combat turn. Ok is false outside an encounter.
func (e *Engine) Answer(correct bool, category string) (combat.Result, bool) {
	res, ok := e.combat.Answer(e.state, correct, category)
	if ok {
		e.afterTransition()
	}
	return res, ok
}

func (e *Engine) SelectAdventureSkill(skill models.SkillType) bool {
	if !e.combat.SelectSkill(e.state, skill) {
		return false
	}
	e.afterTransition()
	return true
}

func (e *Engine) SkipAdventureSkills() {
	e.combat.SkipSkills(e.state)
}

func (e *Engine) EquipRelic(id string) bool {
	p := e.state
	if _, ok := p.Relics[id]; !ok || p.IsRelicEquipped(id) {
		return false
	}
	p.EquippedRelicIDs = append(p.EquippedRelicIDs, id)
	stats.Apply(p)
	e.afterTransition()
	return true
}

func (e *Engine) UnequipRelic(id string) bool {
	p := e.state
	for i, eq := range p.EquippedRelicIDs {
		if eq == id {
			p.EquippedRelicIDs = append(p.EquippedRelicIDs[:i], p.EquippedRelicIDs[i+1:]...)
			stats.Apply(p)
			e.afterTransition()
			return true
		}
	}
	return false
}

func (e *Engine) UpgradeRelic(id string) bool {
	p := e.state
	relic, ok := p.Relics[id]
	if !ok {
		return false
	}
	if !p.SpendCoins(relic.UpgradeCost()) {
		return false
	}
	relic.Level++
	stats.Apply(p)
	e.afterTransition()
	return true
}

func (e *Engine) SellRelic(id string) bool {
	p := e.state
	relic, ok := p.Relics[id]
	if !ok {
		return false
	}
	e.UnequipRelic(id)
	p.AddCoins(relic.SellPrice())
	delete(p.Relics, id)
	stats.Apply(p)
	e.afterTransition()
	return true
}

// PurchaseRelic buys an unsold market offer by relic id.
func (e *Engine) PurchaseRelic(id string) bool {
	p := e.state
	for i := range p.Market.Offers {
		offer := &p.Market.Offers[i]
		if offer.Sold || offer.Relic == nil || offer.Relic.ID != id {
			continue
		}
		if !p.SpendCoins(offer.Price) {
			return false
		}
		p.Relics[offer.Relic.ID] = offer.Relic
		p.Stats.RelicsCollected++
		offer.Sold = true
		e.afterTransition()
		return true
	}
	return false
}

// MineResult is the typed outcome of one mining pick.
type MineResult struct {
	Gems      int64 `json:"gems"`
	ShinyGems int64 `json:"shiny_gems"`
}

// MineGem resolves one pick at the given coordinate of the mining grid.
func (e *Engine) MineGem(coord int) MineResult {
	if coord < 0 {
		return MineResult{}
	}
	res := MineResult{Gems: int64(1 + e.rng.Intn(3))}
	if e.rng.Intn(100) < 5 {
		res.ShinyGems = 1
	}
	p := e.state
	p.Gems += res.Gems
	p.ShinyGems += res.ShinyGems
	p.Stats.GemsMined += res.Gems
	e.afterTransition()
	return res
}

// ExchangeShinyGems converts shiny gems into gems at a fixed rate.
func (e *Engine) ExchangeShinyGems(amount int64) bool {
	p := e.state
	if amount <= 0 || p.ShinyGems < amount {
		return false
	}
	p.ShinyGems -= amount
	p.Gems += amount * shinyGemRate
	e.afterTransition()
	return true
}

// RollBuff pays gems for a random buff, replacing any current one.
func (e *Engine) RollBuff() bool {
	p := e.state
	if !p.SpendGems(buffRollCost) {
		return false
	}
	now := e.now()
	p.Buff = &models.Buff{
		Type:        models.AllBuffTypes[e.rng.Intn(len(models.AllBuffTypes))],
		ActivatedAt: now,
		ExpiresAt:   now.Add(buffDuration),
	}
	e.afterTransition()
	return true
}

// ClaimDailyReward credits the staged daily reward. A second claim on the
// same day finds nothing pending and is rejected.
func (e *Engine) ClaimDailyReward() bool {
	p := e.state
	d := &p.Daily
	if d.PendingCoins == 0 && d.PendingGems == 0 {
		return false
	}
	p.AddCoins(d.PendingCoins)
	p.Gems += d.PendingGems
	d.PendingCoins, d.PendingGems = 0, 0
	d.LastClaim = e.now()
	e.afterTransition()
	return true
}

// ClaimOfflineRewards credits staged idle earnings.
func (e *Engine) ClaimOfflineRewards() int64 {
	p := e.state
	claimed := p.Offline.PendingCoins
	if claimed == 0 {
		return 0
	}
	p.AddCoins(claimed)
	p.Offline.PendingCoins = 0
	e.afterTransition()
	return claimed
}

func (e *Engine) PlantSeed() bool {
	p := e.state
	if p.Garden.Planted || !p.SpendCoins(seedCost) {
		return false
	}
	now := e.now()
	p.Garden = models.Garden{
		Planted:       true,
		PlantedAt:     now,
		LastWateredAt: now,
		WaterHours:    12,
	}
	e.afterTransition()
	return true
}

func (e *Engine) BuyWater(hours float64) bool {
	p := e.state
	if hours <= 0 || !p.Garden.Planted {
		return false
	}
	cost := int64(hours * float64(e.cfg.WaterPricePerHour))
	if !p.SpendCoins(cost) {
		return false
	}
	if p.Garden.WaterHours <= 0 {
		// The clock only starts draining again from the purchase.
		p.Garden.LastWateredAt = e.now()
	}
	p.Garden.WaterHours += hours
	e.afterTransition()
	return true
}

// SetGameMode switches the global modifier set. Rejected mid-encounter.
func (e *Engine) SetGameMode(mode models.GameMode) bool {
	p := e.state
	if p.Combat.Phase != models.PhaseIdle {
		return false
	}
	if mode != models.ModeNormal && mode != models.ModeHighRisk {
		return false
	}
	if mode == p.Mode {
		return false
	}
	p.Mode = mode
	if mode == models.ModeHighRisk {
		p.Lives = highRiskLives
	} else {
		p.Lives = 0
	}
	stats.Apply(p)
	p.HP = p.MaxHP
	e.afterTransition()
	return true
}

// Prestige trades all run progress for a permanent base-stat boost. Gems and
// shiny gems survive.
func (e *Engine) Prestige() bool {
	p := e.state
	if p.Zone < prestigeZone || p.Combat.Phase != models.PhaseIdle {
		return false
	}
	boost := p.Zone / prestigeZone

	fresh := models.NewPlayerState(p.PlayerID, e.now())
	fresh.Name = p.Name
	fresh.CreatedAt = p.CreatedAt
	fresh.Gems = p.Gems
	fresh.ShinyGems = p.ShinyGems
	fresh.Stats = p.Stats
	fresh.Achievements = p.Achievements
	fresh.Tags = p.Tags
	fresh.Daily = p.Daily
	fresh.BaseAttack = p.BaseAttack + 5*boost
	fresh.BaseDefense = p.BaseDefense + 2*boost
	fresh.BaseHP = p.BaseHP + 10*boost
	fresh.HP = fresh.BaseHP
	fresh.Stats.Prestiges++

	*p = *fresh
	stats.Apply(p)
	e.afterTransition()
	return true
}

// ResetGame discards everything and starts over.
func (e *Engine) ResetGame() {
	p := e.state
	fresh := models.NewPlayerState(p.PlayerID, e.now())
	fresh.Name = p.Name
	*p = *fresh
	stats.Apply(p)
}

// afterTransition runs the external evaluators over the new state and merges
// newly-unlocked entries by id.
func (e *Engine) afterTransition() {
	p := e.state
	for _, a := range e.evaluator.EvaluateAchievements(p) {
		if mergeID(&p.Achievements, a.ID) && e.onUnlock != nil {
			e.onUnlock(a)
		}
	}
	for _, t := range e.evaluator.EvaluatePlayerTags(p) {
		mergeID(&p.Tags, t.ID)
	}
}

// mergeID appends id if absent; reports whether it was new.
func mergeID(ids *[]string, id string) bool {
	for _, existing := range *ids {
		if existing == id {
			return false
		}
	}
	*ids = append(*ids, id)
	return true
}
