// models/models.go
package models

import (
	"time"
)

// Rarity tiers, ordered from most to least common.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityRare
	RarityEpic
	RarityLegendary
	RarityMythical
)

var rarityNames = [...]string{"common", "rare", "epic", "legendary", "mythical"}

func (r Rarity) String() string {
	if r < RarityCommon || r > RarityMythical {
		return "unknown"
	}
	return rarityNames[r]
}

// ItemKind distinguishes the two equipment slots.
type ItemKind string

const (
	KindWeapon ItemKind = "weapon"
	KindArmor  ItemKind = "armor"
)

// Item 装备数据模型 (weapon or armor)
type Item struct {
	ID            string   `json:"id"`
	Kind          ItemKind `json:"kind"`
	Name          string   `json:"name"`
	Rarity        Rarity   `json:"rarity"`
	Level         int      `json:"level"`
	BasePower     int      `json:"base_power"`
	Durability    int      `json:"durability"`
	MaxDurability int      `json:"max_durability"`
	Enchanted     bool     `json:"enchanted"`
}

// Power is the level-scaled raw power before durability wear is applied.
func (i *Item) Power() int {
	p := i.BasePower + (i.Level-1)*(int(i.Rarity)+2)
	if i.Enchanted {
		p += p / 4
	}
	return p
}

// UpgradeCost grows with level and rarity.
func (i *Item) UpgradeCost() int64 {
	return int64((i.Level + 1) * 25 * (int(i.Rarity) + 1))
}

// SellPrice is a fraction of the accumulated upgrade investment.
func (i *Item) SellPrice() int64 {
	return int64(i.Power()) * int64(int(i.Rarity)+1) * 2
}

// RelicSlot marks which derived stat a relic feeds.
type RelicSlot string

const (
	SlotOffense RelicSlot = "offense"
	SlotDefense RelicSlot = "defense"
)

// Relic 圣物数据模型 (equippable passive bonus)
type Relic struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Slot          RelicSlot `json:"slot"`
	Level         int       `json:"level"`
	BaseBonus     int       `json:"base_bonus"`
	PerLevelBonus int       `json:"per_level_bonus"`
}

// Bonus grows linearly with level.
func (r *Relic) Bonus() int {
	return r.BaseBonus + (r.Level-1)*r.PerLevelBonus
}

func (r *Relic) UpgradeCost() int64 {
	return int64((r.Level + 1) * 40)
}

func (r *Relic) SellPrice() int64 {
	return int64(r.Bonus()) * 10
}

// Enemy exists only while an encounter is active.
type Enemy struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Zone    int    `json:"zone"`
	HP      int    `json:"hp"`
	MaxHP   int    `json:"max_hp"`
	Attack  int    `json:"attack"`
	Defense int    `json:"defense"`
}

// BuffType is the closed set of timed global modifiers.
type BuffType string

const (
	BuffFury    BuffType = "fury"    // outgoing damage x2
	BuffWard    BuffType = "ward"    // incoming damage halved
	BuffFortune BuffType = "fortune" // coin rewards x2
	BuffWisdom  BuffType = "wisdom"  // experience x2
)

// AllBuffTypes is the roll table for RollBuff.
var AllBuffTypes = []BuffType{BuffFury, BuffWard, BuffFortune, BuffWisdom}

// Buff is the single-slot timed modifier.
type Buff struct {
	Type        BuffType  `json:"type"`
	ActivatedAt time.Time `json:"activated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Active reports whether the buff is still running at the given instant.
func (b *Buff) Active(now time.Time) bool {
	return b != nil && now.Before(b.ExpiresAt)
}

// SkillType is the closed set of per-encounter adventure skills.
type SkillType string

const (
	SkillBerserk       SkillType = "berserk"        // persistent +50% damage
	SkillVampire       SkillType = "vampire"        // persistent lifesteal on hit
	SkillShieldWall    SkillType = "shield_wall"    // consumable full block
	SkillStoneSkin     SkillType = "stone_skin"     // consumable 50% reduction
	SkillPhoenix       SkillType = "phoenix"        // one-shot revival at 50% HP
	SkillGuardianAngel SkillType = "guardian_angel" // one-shot lethal immunity, HP to 1
)

// AllSkillTypes is the pool adventure-skill offers are drawn from.
var AllSkillTypes = []SkillType{
	SkillBerserk, SkillVampire, SkillShieldWall,
	SkillStoneSkin, SkillPhoenix, SkillGuardianAngel,
}

// CombatPhase mirrors the encounter state machine.
type CombatPhase string

const (
	PhaseIdle          CombatPhase = "idle"
	PhaseActive        CombatPhase = "active"
	PhaseResolvingWin  CombatPhase = "resolving_win"
	PhaseResolvingLose CombatPhase = "resolving_lose"
)

// CombatState is the per-encounter slice of the snapshot.
type CombatState struct {
	Phase            CombatPhase `json:"phase"`
	Enemy            *Enemy      `json:"enemy,omitempty"`
	Streak           int         `json:"streak"`
	SkillOffer       []SkillType `json:"skill_offer,omitempty"`
	SelectedSkill    SkillType   `json:"selected_skill,omitempty"`
	SkillBlockUsed   bool        `json:"skill_block_used"`
	SkillReviveUsed  bool        `json:"skill_revive_used"`
	SkillImmuneUsed  bool        `json:"skill_immune_used"`
	Log              []string    `json:"log,omitempty"`
}

// MarketOffer is one purchasable slot of the rotating shop.
type MarketOffer struct {
	Relic *Relic `json:"relic"`
	Price int64  `json:"price"`
	Sold  bool   `json:"sold"`
}

// Market is the timed shop; the offer list is replaced wholesale on refresh.
type Market struct {
	Offers      []MarketOffer `json:"offers"`
	LastRefresh time.Time     `json:"last_refresh"`
	NextRefresh time.Time     `json:"next_refresh"`
}

// Garden is the idle-growth resource feeding the environmental bonus.
type Garden struct {
	Planted       bool      `json:"planted"`
	PlantedAt     time.Time `json:"planted_at"`
	LastWateredAt time.Time `json:"last_watered_at"`
	WaterHours    float64   `json:"water_hours"`
	Growth        float64   `json:"growth"`
	BonusPercent  float64   `json:"bonus_percent"`
}

// DailyReward tracks the calendar-day claim streak.
type DailyReward struct {
	LastClaim    time.Time `json:"last_claim"`
	Streak       int       `json:"streak"`
	MaxStreak    int       `json:"max_streak"`
	PendingCoins int64     `json:"pending_coins"`
	PendingGems  int64     `json:"pending_gems"`
}

// OfflineProgress stages idle earnings for a manual claim.
type OfflineProgress struct {
	PendingCoins int64 `json:"pending_coins"`
}

// GameMode selects global stat and reward modifiers.
type GameMode string

const (
	ModeNormal   GameMode = "normal"
	ModeHighRisk GameMode = "high_risk" // double attack, half defense and HP, limited lives
)

// Statistics 玩家统计信息
type Statistics struct {
	CorrectAnswers   int64 `json:"correct_answers"`
	WrongAnswers     int64 `json:"wrong_answers"`
	EnemiesDefeated  int64 `json:"enemies_defeated"`
	Deaths           int64 `json:"deaths"`
	RevivalsUsed     int64 `json:"revivals_used"`
	ChestsOpened     int64 `json:"chests_opened"`
	ItemsCollected   int64 `json:"items_collected"`
	RelicsCollected  int64 `json:"relics_collected"`
	GemsMined        int64 `json:"gems_mined"`
	CoinsEarned      int64 `json:"coins_earned"`
	Prestiges        int64 `json:"prestiges"`
	BestStreak       int   `json:"best_streak"`
}

// PlayerState is the full save snapshot. It is exclusively owned by the
// engine for the duration of one transition.
type PlayerState struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`

	Coins     int64 `json:"coins"`
	Gems      int64 `json:"gems"`
	ShinyGems int64 `json:"shiny_gems"`

	Zone       int `json:"zone"`
	Level      int `json:"level"`
	Experience int `json:"experience"`

	BaseAttack  int `json:"base_attack"`
	BaseDefense int `json:"base_defense"`
	BaseHP      int `json:"base_hp"`
	HP          int `json:"hp"`

	// Derived stats; always recomputable from base + equipment + bonuses.
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	MaxHP   int `json:"max_hp"`

	Items  map[string]*Item  `json:"items"`
	Relics map[string]*Relic `json:"relics"`

	EquippedWeaponID string   `json:"equipped_weapon_id,omitempty"`
	EquippedArmorID  string   `json:"equipped_armor_id,omitempty"`
	EquippedRelicIDs []string `json:"equipped_relic_ids,omitempty"`

	Mode  GameMode `json:"mode"`
	Lives int      `json:"lives"`

	Buff   *Buff       `json:"buff,omitempty"`
	Combat CombatState `json:"combat"`

	Market  Market          `json:"market"`
	Garden  Garden          `json:"garden"`
	Daily   DailyReward     `json:"daily"`
	Offline OfflineProgress `json:"offline"`

	FreeRevivalUsed bool `json:"free_revival_used"`

	Achievements []string `json:"achievements,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	Stats Statistics `json:"stats"`

	CreatedAt time.Time `json:"created_at"`
	LastSave  time.Time `json:"last_save"`
}

// NewPlayerState builds a fresh save. Also the fallback for a snapshot that
// fails to deserialize.
func NewPlayerState(playerID string, now time.Time) *PlayerState {
	return &PlayerState{
		PlayerID:    playerID,
		Coins:       100,
		Zone:        1,
		Level:       1,
		BaseAttack:  5,
		BaseDefense: 2,
		BaseHP:      50,
		HP:          50,
		Items:       make(map[string]*Item),
		Relics:      make(map[string]*Relic),
		Mode:        ModeNormal,
		Combat:      CombatState{Phase: PhaseIdle},
		CreatedAt:   now,
		LastSave:    now,
	}
}

// SpendCoins deducts cost if affordable. Currencies never go negative.
func (p *PlayerState) SpendCoins(cost int64) bool {
	if cost < 0 || p.Coins < cost {
		return false
	}
	p.Coins -= cost
	return true
}

func (p *PlayerState) SpendGems(cost int64) bool {
	if cost < 0 || p.Gems < cost {
		return false
	}
	p.Gems -= cost
	return true
}

// AddCoins credits earnings and keeps the lifetime counter.
func (p *PlayerState) AddCoins(amount int64) {
	if amount <= 0 {
		return
	}
	p.Coins += amount
	p.Stats.CoinsEarned += amount
}

// EquippedWeapon resolves the weak reference, nil when nothing is equipped.
func (p *PlayerState) EquippedWeapon() *Item {
	return p.equipped(p.EquippedWeaponID, KindWeapon)
}

func (p *PlayerState) EquippedArmor() *Item {
	return p.equipped(p.EquippedArmorID, KindArmor)
}

func (p *PlayerState) equipped(id string, kind ItemKind) *Item {
	if id == "" {
		return nil
	}
	item, ok := p.Items[id]
	if !ok || item.Kind != kind {
		return nil
	}
	return item
}

// EquippedRelics resolves the equipped set, skipping dangling ids.
func (p *PlayerState) EquippedRelics() []*Relic {
	out := make([]*Relic, 0, len(p.EquippedRelicIDs))
	for _, id := range p.EquippedRelicIDs {
		if r, ok := p.Relics[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// IsRelicEquipped reports membership in the equipped set.
func (p *PlayerState) IsRelicEquipped(id string) bool {
	for _, eq := range p.EquippedRelicIDs {
		if eq == id {
			return true
		}
	}
	return false
}
