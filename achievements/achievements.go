// achievements/achievements.go
package achievements

import (
	"github.com/wfunc/idlerpg/models"
)

// Achievement is one unlockable entry, identified by ID.
type Achievement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag is a lightweight player label (playstyle markers, milestones).
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Evaluator inspects a snapshot after a transition and returns every entry
// the snapshot now satisfies. Implementations are side-effect-free; the
// engine merges results by id.
type Evaluator interface {
	EvaluateAchievements(p *models.PlayerState) []Achievement
	EvaluatePlayerTags(p *models.PlayerState) []Tag
}

// ThresholdEvaluator is the default evaluator: fixed thresholds over the
// statistics counters.
type ThresholdEvaluator struct{}

func NewThresholdEvaluator() *ThresholdEvaluator {
	return &ThresholdEvaluator{}
}

type achievementRule struct {
	entry Achievement
	check func(*models.PlayerState) bool
}

var achievementRules = []achievementRule{
	{Achievement{"first_blood", "First Blood"}, func(p *models.PlayerState) bool { return p.Stats.EnemiesDefeated >= 1 }},
	{Achievement{"slayer_100", "Slayer"}, func(p *models.PlayerState) bool { return p.Stats.EnemiesDefeated >= 100 }},
	{Achievement{"zone_10", "Deep Delver"}, func(p *models.PlayerState) bool { return p.Zone >= 10 }},
	{Achievement{"zone_50", "Abyss Walker"}, func(p *models.PlayerState) bool { return p.Zone >= 50 }},
	{Achievement{"level_10", "Adept"}, func(p *models.PlayerState) bool { return p.Level >= 10 }},
	{Achievement{"streak_10", "On Fire"}, func(p *models.PlayerState) bool { return p.Stats.BestStreak >= 10 }},
	{Achievement{"rich_10000", "Hoarder"}, func(p *models.PlayerState) bool { return p.Stats.CoinsEarned >= 10000 }},
	{Achievement{"chest_25", "Lockpicker"}, func(p *models.PlayerState) bool { return p.Stats.ChestsOpened >= 25 }},
	{Achievement{"daily_7", "Regular"}, func(p *models.PlayerState) bool { return p.Daily.MaxStreak >= 7 }},
	{Achievement{"prestige_1", "Reborn"}, func(p *models.PlayerState) bool { return p.Stats.Prestiges >= 1 }},
}

type tagRule struct {
	entry Tag
	check func(*models.PlayerState) bool
}

var tagRules = []tagRule{
	{Tag{"survivor", "Survivor"}, func(p *models.PlayerState) bool { return p.Stats.Deaths == 0 && p.Stats.EnemiesDefeated >= 10 }},
	{Tag{"gambler", "Gambler"}, func(p *models.PlayerState) bool { return p.Stats.ChestsOpened >= 50 }},
	{Tag{"gardener", "Gardener"}, func(p *models.PlayerState) bool { return p.Garden.Growth >= 50 }},
	{Tag{"daredevil", "Daredevil"}, func(p *models.PlayerState) bool { return p.Mode == models.ModeHighRisk }},
}

func (e *ThresholdEvaluator) EvaluateAchievements(p *models.PlayerState) []Achievement {
	var out []Achievement
	for _, rule := range achievementRules {
		if rule.check(p) {
			out = append(out, rule.entry)
		}
	}
	return out
}

func (e *ThresholdEvaluator) EvaluatePlayerTags(p *models.PlayerState) []Tag {
	var out []Tag
	for _, rule := range tagRules {
		if rule.check(p) {
			out = append(out, rule.entry)
		}
	}
	return out
}
