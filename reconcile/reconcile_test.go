package reconcile

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/wfunc/idlerpg/config"
	"github.com/wfunc/idlerpg/content"
	"github.com/wfunc/idlerpg/loot"
	"github.com/wfunc/idlerpg/models"
)

var baseTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newReconciler(seed int64) *Reconciler {
	rng := rand.New(rand.NewSource(seed))
	return New(config.DefaultGame(), loot.NewAdapter(content.NewRandGenerator(rng), rng))
}

func newState() *models.PlayerState {
	return models.NewPlayerState("p1", baseTime)
}

func TestReconcile_Idempotent(t *testing.T) {
	r := newReconciler(1)
	p := newState()
	p.Garden = models.Garden{Planted: true, PlantedAt: baseTime, LastWateredAt: baseTime, WaterHours: 12}
	p.Buff = &models.Buff{Type: models.BuffFury, ActivatedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour)}

	now := baseTime.Add(26 * time.Hour)
	r.Reconcile(p, now)

	snapshot := *p
	snapshotOffers := make([]models.MarketOffer, len(p.Market.Offers))
	copy(snapshotOffers, p.Market.Offers)

	r.Reconcile(p, now)

	if p.Offline.PendingCoins != snapshot.Offline.PendingCoins {
		t.Errorf("Second reconcile restaged offline coins: %d vs %d",
			p.Offline.PendingCoins, snapshot.Offline.PendingCoins)
	}
	if p.Garden != snapshot.Garden {
		t.Errorf("Second reconcile moved the garden: %+v vs %+v", p.Garden, snapshot.Garden)
	}
	if !reflect.DeepEqual(p.Market.Offers, snapshotOffers) {
		t.Error("Second reconcile replaced the market offers again")
	}
	if p.Daily != snapshot.Daily {
		t.Errorf("Second reconcile moved the daily streak: %+v vs %+v", p.Daily, snapshot.Daily)
	}
	if p.Buff != nil {
		t.Error("Expired buff should stay cleared")
	}
}

func TestOfflineAccrual(t *testing.T) {
	r := newReconciler(2)
	p := newState()

	// Below the minimum threshold: nothing staged.
	r.Reconcile(p, baseTime.Add(3*time.Minute))
	if p.Offline.PendingCoins != 0 {
		t.Errorf("Short absences stage nothing, got %d", p.Offline.PendingCoins)
	}

	// Two hours at level 1: 60/h * 1.05 * 2h = 126.
	p = newState()
	r.Reconcile(p, baseTime.Add(2*time.Hour))
	if p.Offline.PendingCoins != 126 {
		t.Errorf("Expected 126 pending coins for 2h, got %d", p.Offline.PendingCoins)
	}

	// Elapsed time is capped.
	p = newState()
	r.Reconcile(p, baseTime.Add(1000*time.Hour))
	want := int64(24 * 60 * 1.05)
	if p.Offline.PendingCoins != want {
		t.Errorf("Expected capped accrual %d, got %d", want, p.Offline.PendingCoins)
	}
	if p.Coins != 100 {
		t.Error("Accrual must stage, never auto-credit")
	}
}

func TestGardenGrowth(t *testing.T) {
	r := newReconciler(3)
	p := newState()
	p.Garden = models.Garden{Planted: true, PlantedAt: baseTime, LastWateredAt: baseTime, WaterHours: 10}

	r.Reconcile(p, baseTime.Add(4*time.Hour))
	if p.Garden.WaterHours != 6 {
		t.Errorf("Water should drain by elapsed hours, got %.1f", p.Garden.WaterHours)
	}
	if p.Garden.Growth != 16 {
		t.Errorf("Expected 4h * 4 growth/h = 16, got %.1f", p.Garden.Growth)
	}
	if p.Garden.BonusPercent != 4 {
		t.Errorf("Bonus should be 0.25 * growth, got %.2f", p.Garden.BonusPercent)
	}
}

func TestGardenGrowth_StopsWhenDry(t *testing.T) {
	r := newReconciler(4)
	p := newState()
	p.Garden = models.Garden{Planted: true, PlantedAt: baseTime, LastWateredAt: baseTime, WaterHours: 2}

	r.Reconcile(p, baseTime.Add(50*time.Hour))
	if p.Garden.WaterHours != 0 {
		t.Errorf("Water floors at 0, got %.1f", p.Garden.WaterHours)
	}
	growth := p.Garden.Growth

	r.Reconcile(p, baseTime.Add(100*time.Hour))
	if p.Garden.Growth != growth {
		t.Error("Growth must not accrue while the garden is dry")
	}
}

func TestMarketRefresh(t *testing.T) {
	r := newReconciler(5)
	p := newState()

	// First reconcile seeds the market.
	r.Reconcile(p, baseTime)
	if len(p.Market.Offers) != 3 {
		t.Fatalf("Expected 3 seeded offers, got %d", len(p.Market.Offers))
	}
	firstID := p.Market.Offers[0].Relic.ID
	next := p.Market.NextRefresh

	// Before the refresh time nothing changes.
	r.Reconcile(p, baseTime.Add(time.Hour))
	if p.Market.Offers[0].Relic.ID != firstID {
		t.Error("Offers must not rotate before the refresh time")
	}

	// Past several cycles: one wholesale replacement, timestamps catch up.
	late := baseTime.Add(13 * time.Hour)
	r.Reconcile(p, late)
	if p.Market.Offers[0].Relic.ID == firstID {
		t.Error("Offers should be replaced wholesale after the refresh time")
	}
	if !p.Market.NextRefresh.After(late) {
		t.Errorf("NextRefresh should pass now, got %v", p.Market.NextRefresh)
	}
	if p.Market.NextRefresh.Sub(next)%config.DefaultGame().MarketCycle != 0 {
		t.Error("Refresh timestamps should advance by whole cycles")
	}
}

func TestBuffExpiry(t *testing.T) {
	r := newReconciler(6)
	p := newState()
	p.Buff = &models.Buff{Type: models.BuffWard, ActivatedAt: baseTime, ExpiresAt: baseTime.Add(time.Hour)}

	r.Reconcile(p, baseTime.Add(30*time.Minute))
	if p.Buff == nil {
		t.Fatal("A running buff must not be cleared")
	}

	r.Reconcile(p, baseTime.Add(2*time.Hour))
	if p.Buff != nil {
		t.Error("An expired buff must be cleared")
	}
}

func TestDailyStreak_FirstClaimSeedsOne(t *testing.T) {
	r := newReconciler(7)
	p := newState()

	r.Reconcile(p, baseTime)
	if p.Daily.Streak != 1 || p.Daily.MaxStreak != 1 {
		t.Errorf("First reconcile seeds streak 1, got %+v", p.Daily)
	}
	if p.Daily.PendingCoins == 0 {
		t.Error("First-time reward should be staged")
	}
}

func claim(p *models.PlayerState, now time.Time) {
	p.AddCoins(p.Daily.PendingCoins)
	p.Gems += p.Daily.PendingGems
	p.Daily.PendingCoins, p.Daily.PendingGems = 0, 0
	p.Daily.LastClaim = now
}

func TestDailyStreak_ConsecutiveDaysIncrement(t *testing.T) {
	r := newReconciler(8)
	p := newState()

	r.Reconcile(p, baseTime)
	claim(p, baseTime)

	day2 := baseTime.Add(24 * time.Hour)
	r.Reconcile(p, day2)
	if p.Daily.Streak != 2 {
		t.Errorf("Next-day reconcile should increment streak, got %d", p.Daily.Streak)
	}
	claim(p, day2)

	day3 := day2.Add(24 * time.Hour)
	r.Reconcile(p, day3)
	if p.Daily.Streak != 3 || p.Daily.MaxStreak != 3 {
		t.Errorf("Expected streak 3, got %+v", p.Daily)
	}
}

func TestDailyStreak_GapResets(t *testing.T) {
	r := newReconciler(9)
	p := newState()

	r.Reconcile(p, baseTime)
	claim(p, baseTime)

	day2 := baseTime.Add(24 * time.Hour)
	r.Reconcile(p, day2)
	claim(p, day2)

	// Skip two full days.
	day5 := day2.Add(72 * time.Hour)
	r.Reconcile(p, day5)
	if p.Daily.Streak != 1 {
		t.Errorf("A gap of 2+ days resets the streak to 1, got %d", p.Daily.Streak)
	}
	if p.Daily.MaxStreak != 2 {
		t.Errorf("Max streak should survive the reset, got %d", p.Daily.MaxStreak)
	}
}

func TestDailyStreak_SameDayStagesNothing(t *testing.T) {
	r := newReconciler(10)
	p := newState()

	r.Reconcile(p, baseTime)
	claim(p, baseTime)

	r.Reconcile(p, baseTime.Add(2*time.Hour))
	if p.Daily.PendingCoins != 0 || p.Daily.PendingGems != 0 {
		t.Error("A same-day reconcile must not stage a second reward")
	}
}

func TestDailyReward_Milestones(t *testing.T) {
	if _, gems := dailyReward(7); gems != 10 {
		t.Errorf("Day 7 milestone should grant gems, got %d", gems)
	}
	if _, gems := dailyReward(14); gems != 25 {
		t.Errorf("Day 14 milestone should grant gems, got %d", gems)
	}
	if _, gems := dailyReward(3); gems != 0 {
		t.Errorf("Plain days grant no gems, got %d", gems)
	}
	coins7, _ := dailyReward(7)
	coins3, _ := dailyReward(3)
	if coins7 <= coins3 {
		t.Error("Reward size should grow with the streak day")
	}
}
