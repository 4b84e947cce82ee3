// reconcile/reconcile.go
package reconcile

import (
	"math"
	"time"

	"github.com/wfunc/idlerpg/config"
	"github.com/wfunc/idlerpg/loot"
	"github.com/wfunc/idlerpg/models"
)

// minOfflineHours is the threshold below which no offline progress is staged.
const minOfflineHours = 0.1

// gardenBonusPerGrowth converts accumulated growth into the environmental
// bonus percentage.
const gardenBonusPerGrowth = 0.25

// Reconciler advances every time-gated subsystem by elapsed wall-clock time.
// It runs once per snapshot load. The clock is always passed in, so the
// result is deterministic given (snapshot, now) and idempotent when now does
// not move.
type Reconciler struct {
	cfg  config.GameConfig
	loot *loot.Adapter
}

func New(cfg config.GameConfig, adapter *loot.Adapter) *Reconciler {
	return &Reconciler{cfg: cfg, loot: adapter}
}

// Reconcile mutates the snapshot in place and returns it. Steps are
// independent; only the garden step feeds the derived-stat bonus, which the
// caller re-resolves afterwards.
func (r *Reconciler) Reconcile(p *models.PlayerState, now time.Time) *models.PlayerState {
	r.accrueOffline(p, now)
	r.growGarden(p, now)
	r.refreshMarket(p, now)
	r.expireBuff(p, now)
	r.rollDaily(p, now)
	return p
}

// accrueOffline stages idle coin earnings for a manual claim; it never
// auto-credits.
func (r *Reconciler) accrueOffline(p *models.PlayerState, now time.Time) {
	elapsed := now.Sub(p.LastSave).Hours()
	if elapsed > r.cfg.OfflineCapHours {
		elapsed = r.cfg.OfflineCapHours
	}
	if elapsed < minOfflineHours {
		return
	}
	rate := r.cfg.OfflineCoinsPerHour * (1 + float64(p.Level)*0.05)
	p.Offline.PendingCoins += int64(math.Floor(elapsed * rate))
	p.LastSave = now
}

// growGarden drains water by elapsed time and, while water remains, accrues
// growth and recomputes the environmental bonus.
func (r *Reconciler) growGarden(p *models.PlayerState, now time.Time) {
	g := &p.Garden
	if !g.Planted || g.WaterHours <= 0 {
		return
	}
	delta := now.Sub(g.LastWateredAt).Hours()
	if delta <= 0 {
		return
	}
	g.LastWateredAt = now

	g.WaterHours -= delta
	if g.WaterHours < 0 {
		g.WaterHours = 0
	}
	if g.WaterHours > 0 {
		g.Growth += delta * r.cfg.GardenGrowthPerHour
		if g.Growth > r.cfg.GardenMaxGrowth {
			g.Growth = r.cfg.GardenMaxGrowth
		}
	}
	g.BonusPercent = g.Growth * gardenBonusPerGrowth
}

// refreshMarket replaces the offer list wholesale once the refresh time has
// passed, catching up over multiple missed cycles without stacking batches.
func (r *Reconciler) refreshMarket(p *models.PlayerState, now time.Time) {
	m := &p.Market
	if m.NextRefresh.IsZero() {
		m.Offers = r.loot.MarketBatch(r.cfg.MarketSlots)
		m.LastRefresh = now
		m.NextRefresh = now.Add(r.cfg.MarketCycle)
		return
	}
	if !now.After(m.NextRefresh) {
		return
	}
	m.Offers = r.loot.MarketBatch(r.cfg.MarketSlots)
	m.LastRefresh = now
	for !m.NextRefresh.After(now) {
		m.NextRefresh = m.NextRefresh.Add(r.cfg.MarketCycle)
	}
}

func (r *Reconciler) expireBuff(p *models.PlayerState, now time.Time) {
	if p.Buff != nil && !p.Buff.Active(now) {
		p.Buff = nil
	}
}

// rollDaily advances the claim streak. Claims are keyed to calendar days:
// exactly-next-day claims extend the streak, longer gaps reset it to 1.
func (r *Reconciler) rollDaily(p *models.PlayerState, now time.Time) {
	d := &p.Daily
	if d.LastClaim.IsZero() {
		if d.Streak == 0 {
			d.Streak = 1
			d.MaxStreak = 1
			d.PendingCoins, d.PendingGems = dailyReward(1)
		}
		return
	}

	days := int(math.Floor(now.Sub(startOfDay(d.LastClaim)).Hours() / 24))
	if days < 1 {
		return
	}
	if d.PendingCoins > 0 || d.PendingGems > 0 {
		// An unclaimed reward is already staged; only a longer gap changes
		// it, by collapsing the streak. Keeps reconciliation idempotent.
		if days >= 2 && d.Streak != 1 {
			d.Streak = 1
			d.PendingCoins, d.PendingGems = dailyReward(1)
		}
		return
	}
	if days == 1 {
		d.Streak++
	} else {
		d.Streak = 1
	}
	if d.Streak > d.MaxStreak {
		d.MaxStreak = d.Streak
	}
	d.PendingCoins, d.PendingGems = dailyReward(d.Streak)
}

// dailyReward sizes the pending claim by streak day, with milestone bonuses
// on days 7 and 14.
func dailyReward(streak int) (coins int64, gems int64) {
	coins = int64(50 + streak*25)
	switch streak {
	case 7:
		gems = 10
	case 14:
		gems = 25
	default:
		if streak > 0 && streak%7 == 0 {
			gems = 10
		}
	}
	return coins, gems
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
