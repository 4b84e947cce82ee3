package combat

import (
	"math/rand"
	"testing"
	"time"

	"github.com/wfunc/idlerpg/content"
	"github.com/wfunc/idlerpg/loot"
	"github.com/wfunc/idlerpg/models"
	"github.com/wfunc/idlerpg/stats"
)

var testClock = func() time.Time { return time.Unix(1_700_000_000, 0) }

func newTestEngine(seed int64) *Engine {
	rng := rand.New(rand.NewSource(seed))
	gen := content.NewRandGenerator(rng)
	return NewEngine(gen, loot.NewAdapter(gen, rng), rng, testClock)
}

func newTestState() *models.PlayerState {
	p := models.NewPlayerState("p1", testClock())
	stats.Apply(p)
	return p
}

// forceEncounter puts the state mid-combat against a known enemy.
func forceEncounter(p *models.PlayerState, enemy *models.Enemy) {
	p.Combat = models.CombatState{Phase: models.PhaseActive, Enemy: enemy}
}

func TestChangePhase_RejectsIllegalMoves(t *testing.T) {
	cs := &models.CombatState{Phase: models.PhaseIdle}

	if err := changePhase(cs, models.PhaseResolvingWin); err != ErrTransitionNotAllowed {
		t.Errorf("Idle → ResolvingWin should be rejected, got %v", err)
	}
	if cs.Phase != models.PhaseIdle {
		t.Errorf("Phase must not move on a rejected transition, got %s", cs.Phase)
	}

	if err := changePhase(cs, models.PhaseActive); err != nil {
		t.Fatalf("Idle → Active should be allowed, got %v", err)
	}
	if err := changePhase(cs, models.PhaseResolvingLose); err != nil {
		t.Fatalf("Active → ResolvingLose should be allowed, got %v", err)
	}
	if err := changePhase(cs, models.PhaseIdle); err != nil {
		t.Fatalf("ResolvingLose → Idle should be allowed, got %v", err)
	}
}

func TestBegin_RejectedMidEncounter(t *testing.T) {
	e := newTestEngine(1)
	p := newTestState()

	if !e.Begin(p) {
		t.Fatal("Begin from Idle should succeed")
	}
	if p.Combat.Enemy == nil {
		t.Fatal("Begin should generate an enemy")
	}
	if p.Combat.Enemy.Zone != p.Zone {
		t.Errorf("Enemy should be scaled to zone %d, got %d", p.Zone, p.Combat.Enemy.Zone)
	}
	if e.Begin(p) {
		t.Error("Begin while Active should be rejected")
	}
}

func TestAnswer_OutsideEncounter(t *testing.T) {
	e := newTestEngine(1)
	p := newTestState()

	if _, ok := e.Answer(p, true, "math"); ok {
		t.Error("Answer outside an encounter should report not-ok")
	}
}

func TestVictoryScenario(t *testing.T) {
	e := newTestEngine(2)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Slime", Zone: 1, HP: 1, MaxHP: 1, Attack: 3})

	coinsBefore := p.Coins
	res, ok := e.Answer(p, true, "math")
	if !ok || !res.Victory {
		t.Fatalf("Expected a victory, got ok=%v res=%+v", ok, res)
	}

	// streak 1 → multiplier 1.1; zone 1 base is 15 coins.
	wantCoins := int64(16)
	if res.RewardCoins != wantCoins {
		t.Errorf("Expected floor(15*1.1)=%d reward coins, got %d", wantCoins, res.RewardCoins)
	}
	if p.Coins != coinsBefore+wantCoins {
		t.Errorf("Coins should increase by the reward, got %d", p.Coins)
	}
	if p.Zone != 2 {
		t.Errorf("Zone should advance by exactly 1, got %d", p.Zone)
	}
	if p.Combat.Phase != models.PhaseIdle {
		t.Errorf("Combat should return to Idle after victory, got %s", p.Combat.Phase)
	}
	if p.Combat.Enemy != nil {
		t.Error("Enemy must be destroyed on victory")
	}
}

func TestLevelUpLoop(t *testing.T) {
	p := newTestState()

	gained := applyExperience(p, 100+120+50)
	if gained != 2 {
		t.Errorf("270 xp from level 1 should grant exactly 2 levels, got %d", gained)
	}
	if p.Level != 3 {
		t.Errorf("Expected level 3, got %d", p.Level)
	}
	if p.Experience != 50 {
		t.Errorf("Expected 50 leftover xp, got %d", p.Experience)
	}
	if p.Experience >= ExperienceToNext(p.Level) {
		t.Error("Post-condition violated: experience >= threshold")
	}
}

func TestLevelUpLoop_LargeAward(t *testing.T) {
	p := newTestState()
	applyExperience(p, 1_000_000)
	if p.Experience >= ExperienceToNext(p.Level) {
		t.Errorf("Post-condition violated after large award: %d xp at level %d (threshold %d)",
			p.Experience, p.Level, ExperienceToNext(p.Level))
	}
}

func TestIncorrect_ResetsStreakAndWearsEquipment(t *testing.T) {
	e := newTestEngine(3)
	p := newTestState()
	weapon := &models.Item{ID: "w", Kind: models.KindWeapon, Level: 1, BasePower: 5, Durability: 10, MaxDurability: 10}
	p.Items["w"] = weapon
	p.EquippedWeaponID = "w"
	stats.Apply(p)

	forceEncounter(p, &models.Enemy{Name: "Goblin", Zone: 1, HP: 100, MaxHP: 100, Attack: 10})
	p.Combat.Streak = 5

	res, ok := e.Answer(p, false, "math")
	if !ok {
		t.Fatal("Answer in an active encounter should resolve")
	}
	if p.Combat.Streak != 0 {
		t.Errorf("Incorrect answer should reset streak, got %d", p.Combat.Streak)
	}
	wantDamage := 10 - p.Defense
	if wantDamage < 1 {
		wantDamage = 1
	}
	if res.EnemyDamage != wantDamage {
		t.Errorf("Expected enemy damage %d, got %d", wantDamage, res.EnemyDamage)
	}
	if weapon.Durability != 9 {
		t.Errorf("Durability should decrement by 1 per resolved action, got %d", weapon.Durability)
	}
}

func TestRevivalFallbackChain(t *testing.T) {
	e := newTestEngine(4)
	p := newTestState()
	enemy := &models.Enemy{Name: "Lich", Zone: 1, HP: 1000, MaxHP: 1000, Attack: 1000}
	forceEncounter(p, enemy)
	p.Combat.SelectedSkill = models.SkillPhoenix

	// 1) Phoenix fires first.
	res, _ := e.Answer(p, false, "math")
	if !res.Revived || res.Defeat {
		t.Fatalf("Phoenix should revive, got %+v", res)
	}
	if p.HP != p.MaxHP/2 {
		t.Errorf("Phoenix restores to 50%% HP, got %d/%d", p.HP, p.MaxHP)
	}
	if !p.Combat.SkillReviveUsed {
		t.Error("Phoenix must be marked used")
	}

	// 2) Phoenix spent: the free session revival fires next.
	res, _ = e.Answer(p, false, "math")
	if !res.Revived || res.Defeat {
		t.Fatalf("Free session revival should fire, got %+v", res)
	}
	if !p.FreeRevivalUsed {
		t.Error("Free revival must be marked used")
	}
	if p.Stats.RevivalsUsed != 1 {
		t.Errorf("Revival counter should increment, got %d", p.Stats.RevivalsUsed)
	}

	// 3) All fallbacks exhausted: defeat.
	res, _ = e.Answer(p, false, "math")
	if !res.Defeat {
		t.Fatalf("A lethal hit after all fallbacks must defeat, got %+v", res)
	}
	if p.Stats.Deaths != 1 {
		t.Errorf("Death counter should increment, got %d", p.Stats.Deaths)
	}
	if p.Combat.Phase != models.PhaseIdle {
		t.Errorf("Defeat should clear the encounter, got %s", p.Combat.Phase)
	}
	if p.HP != p.MaxHP {
		t.Errorf("HP should be restored to max for the next encounter, got %d", p.HP)
	}
}

func TestGuardianAngel_LeavesOneHP(t *testing.T) {
	e := newTestEngine(5)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Dragon", Zone: 1, HP: 1000, MaxHP: 1000, Attack: 1000})
	p.Combat.SelectedSkill = models.SkillGuardianAngel

	res, _ := e.Answer(p, false, "math")
	if !res.Revived {
		t.Fatal("Guardian angel should consume before the free revival")
	}
	if p.HP != 1 {
		t.Errorf("Guardian angel sets HP to 1, got %d", p.HP)
	}
	if p.FreeRevivalUsed {
		t.Error("Free revival must not be consumed while a skill fallback is available")
	}
}

func TestShieldWall_BlocksOncePerEncounter(t *testing.T) {
	e := newTestEngine(6)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Golem", Zone: 1, HP: 1000, MaxHP: 1000, Attack: 10})
	p.Combat.SelectedSkill = models.SkillShieldWall
	hp := p.HP

	res, _ := e.Answer(p, false, "math")
	if res.EnemyDamage != 0 {
		t.Fatalf("First hit should be fully blocked, got %d", res.EnemyDamage)
	}
	if p.HP != hp {
		t.Errorf("Blocked hit must not change HP, got %d", p.HP)
	}

	res, _ = e.Answer(p, false, "math")
	if res.EnemyDamage == 0 {
		t.Error("The block is consumable and must not fire twice")
	}
}

func TestBerserkAndFury_Precedence(t *testing.T) {
	e := newTestEngine(7)
	p := newTestState()
	p.BaseAttack = 10
	stats.Apply(p)
	forceEncounter(p, &models.Enemy{Name: "Wraith", Zone: 1, HP: 10000, MaxHP: 10000, Attack: 1})
	p.Combat.SelectedSkill = models.SkillBerserk
	p.Buff = &models.Buff{Type: models.BuffFury, ActivatedAt: testClock(), ExpiresAt: testClock().Add(time.Hour)}

	res, _ := e.Answer(p, true, "math")
	// skill first (10*1.5=15), buff second (15*2=30)
	if res.Damage != 30 {
		t.Errorf("Expected skill-then-buff damage 30, got %d", res.Damage)
	}
}

func TestExpiredBuff_HasNoEffect(t *testing.T) {
	e := newTestEngine(8)
	p := newTestState()
	p.BaseAttack = 10
	stats.Apply(p)
	forceEncounter(p, &models.Enemy{Name: "Wraith", Zone: 1, HP: 10000, MaxHP: 10000, Attack: 1})
	p.Buff = &models.Buff{Type: models.BuffFury, ActivatedAt: testClock().Add(-2 * time.Hour), ExpiresAt: testClock().Add(-time.Hour)}

	res, _ := e.Answer(p, true, "math")
	if res.Damage != 10 {
		t.Errorf("Expired buff must not scale damage, got %d", res.Damage)
	}
}

func TestSkillOffer_LapsesOnFirstAnswer(t *testing.T) {
	e := newTestEngine(10)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Basilisk", Zone: 1, HP: 10000, MaxHP: 10000, Attack: 1})
	p.Combat.SkillOffer = []models.SkillType{models.SkillBerserk, models.SkillVampire, models.SkillPhoenix}

	if _, ok := e.Answer(p, true, "math"); !ok {
		t.Fatal("Answer in an active encounter should resolve")
	}
	if len(p.Combat.SkillOffer) != 0 {
		t.Error("An unanswered offer must lapse once the fight proceeds")
	}
	if e.SelectSkill(p, models.SkillBerserk) {
		t.Error("Selecting after the first resolved turn should fail")
	}
}

func TestVampire_HealsOnHit(t *testing.T) {
	e := newTestEngine(11)
	p := newTestState()
	p.BaseAttack = 10
	stats.Apply(p)
	p.HP = 30
	forceEncounter(p, &models.Enemy{Name: "Wraith", Zone: 1, HP: 10000, MaxHP: 10000, Attack: 1})
	p.Combat.SelectedSkill = models.SkillVampire

	res, _ := e.Answer(p, true, "math")
	if res.Damage != 10 {
		t.Fatalf("Vampire has no damage bonus, got %d", res.Damage)
	}
	// 20% lifesteal of 10 damage.
	if p.HP != 32 {
		t.Errorf("Expected 30+2 HP after lifesteal, got %d", p.HP)
	}
}

func TestVampire_LifestealClampsAtMax(t *testing.T) {
	e := newTestEngine(12)
	p := newTestState()
	p.BaseAttack = 1000
	stats.Apply(p)
	p.HP = p.MaxHP - 1
	forceEncounter(p, &models.Enemy{Name: "Wraith", Zone: 1, HP: 1_000_000, MaxHP: 1_000_000, Attack: 1})
	p.Combat.SelectedSkill = models.SkillVampire

	e.Answer(p, true, "math")
	if p.HP != p.MaxHP {
		t.Errorf("Lifesteal must clamp at max HP, got %d/%d", p.HP, p.MaxHP)
	}
}

func TestStoneSkin_HalvesOneHit(t *testing.T) {
	e := newTestEngine(13)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Golem", Zone: 1, HP: 10000, MaxHP: 10000, Attack: 22})
	p.Combat.SelectedSkill = models.SkillStoneSkin

	// 22 attack - 2 defense = 20, halved once.
	res, _ := e.Answer(p, false, "math")
	if res.EnemyDamage != 10 {
		t.Fatalf("Stone skin should halve the first hit, got %d", res.EnemyDamage)
	}

	res, _ = e.Answer(p, false, "math")
	if res.EnemyDamage != 20 {
		t.Errorf("The reduction is consumable, second hit should land full, got %d", res.EnemyDamage)
	}
}

func TestWard_HalvesIncomingDamage(t *testing.T) {
	e := newTestEngine(14)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Harpy", Zone: 1, HP: 10000, MaxHP: 10000, Attack: 12})
	p.Buff = &models.Buff{Type: models.BuffWard, ActivatedAt: testClock(), ExpiresAt: testClock().Add(time.Hour)}

	// 12 attack - 2 defense = 10, ward halves it.
	res, _ := e.Answer(p, false, "math")
	if res.EnemyDamage != 5 {
		t.Errorf("Ward should halve incoming damage, got %d", res.EnemyDamage)
	}
}

func TestFortune_ScalesCoinsOnly(t *testing.T) {
	e := newTestEngine(15)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Slime", Zone: 1, HP: 1, MaxHP: 1, Attack: 1})
	p.Buff = &models.Buff{Type: models.BuffFortune, ActivatedAt: testClock(), ExpiresAt: testClock().Add(time.Hour)}

	res, _ := e.Answer(p, true, "math")
	if !res.Victory {
		t.Fatal("Expected a victory")
	}
	// floor(15*1.1)=16 coins doubled; floor(12*1.1)=13 xp untouched.
	if res.RewardCoins != 32 {
		t.Errorf("Fortune should double coin rewards, got %d", res.RewardCoins)
	}
	if res.RewardXP != 13 {
		t.Errorf("Fortune must not scale xp, got %d", res.RewardXP)
	}
}

func TestWisdom_ScalesXPOnly(t *testing.T) {
	e := newTestEngine(16)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Slime", Zone: 1, HP: 1, MaxHP: 1, Attack: 1})
	p.Buff = &models.Buff{Type: models.BuffWisdom, ActivatedAt: testClock(), ExpiresAt: testClock().Add(time.Hour)}

	res, _ := e.Answer(p, true, "math")
	if !res.Victory {
		t.Fatal("Expected a victory")
	}
	if res.RewardCoins != 16 {
		t.Errorf("Wisdom must not scale coins, got %d", res.RewardCoins)
	}
	if res.RewardXP != 26 {
		t.Errorf("Wisdom should double xp rewards, got %d", res.RewardXP)
	}
}

func TestSelectSkill_RequiresPendingOffer(t *testing.T) {
	e := newTestEngine(9)
	p := newTestState()
	forceEncounter(p, &models.Enemy{Name: "Harpy", Zone: 1, HP: 10, MaxHP: 10, Attack: 1})

	if e.SelectSkill(p, models.SkillBerserk) {
		t.Error("Selecting without a pending offer should fail")
	}

	p.Combat.SkillOffer = []models.SkillType{models.SkillBerserk, models.SkillVampire, models.SkillPhoenix}
	if e.SelectSkill(p, models.SkillGuardianAngel) {
		t.Error("Selecting a skill outside the offer should fail")
	}
	if !e.SelectSkill(p, models.SkillVampire) {
		t.Fatal("Selecting an offered skill should succeed")
	}
	if len(p.Combat.SkillOffer) != 0 {
		t.Error("Selection should consume the offer")
	}
	if e.SelectSkill(p, models.SkillVampire) {
		t.Error("At most one skill may be selected per encounter")
	}
}
