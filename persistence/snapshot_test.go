package persistence

import (
	"math/rand"
	"testing"
	"time"

	"github.com/wfunc/idlerpg/achievements"
	"github.com/wfunc/idlerpg/config"
	"github.com/wfunc/idlerpg/content"
	"github.com/wfunc/idlerpg/engine"
	"github.com/wfunc/idlerpg/models"
)

func TestFromSnapshot_RoundTrip(t *testing.T) {
	state := models.NewPlayerState("p1", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	state.Coins = 555
	state.Zone = 4
	state.Items["w1"] = &models.Item{ID: "w1", Kind: models.KindWeapon, Name: "Saber", Level: 2, BasePower: 6, Durability: 8, MaxDurability: 20}

	snapshot, err := toSnapshot(state)
	if err != nil {
		t.Fatalf("toSnapshot failed: %v", err)
	}
	restored, err := fromSnapshot(snapshot)
	if err != nil {
		t.Fatalf("fromSnapshot failed: %v", err)
	}
	if restored.Coins != 555 || restored.Zone != 4 {
		t.Errorf("Round trip lost fields: coins %d zone %d", restored.Coins, restored.Zone)
	}
	if restored.Items["w1"] == nil || restored.Items["w1"].Level != 2 {
		t.Error("Round trip lost the item map")
	}
}

func TestFromSnapshot_MissingPlayerID(t *testing.T) {
	if _, err := fromSnapshot(map[string]interface{}{"coins": 100}); err != ErrSnapshotCorrupt {
		t.Errorf("A snapshot without identity should be corrupt, got %v", err)
	}
}

func TestFromSnapshot_MissingCollectionsRestored(t *testing.T) {
	// Older rows can lack the items/relics fields entirely; they must decode
	// into usable empty maps, not nil ones.
	state, err := fromSnapshot(map[string]interface{}{
		"player_id": "p1",
		"coins":     float64(100000),
		"zone":      float64(3),
	})
	if err != nil {
		t.Fatalf("fromSnapshot failed: %v", err)
	}
	if state.Items == nil || state.Relics == nil {
		t.Fatal("Missing collections must be restored to empty maps")
	}
	state.Items["w1"] = &models.Item{ID: "w1", Kind: models.KindWeapon}
	state.Relics["r1"] = &models.Relic{ID: "r1", Slot: models.SlotOffense}
}

func TestLoadedSnapshot_SurvivesTransitions(t *testing.T) {
	state, err := fromSnapshot(map[string]interface{}{
		"player_id": "p1",
		"coins":     float64(100000),
	})
	if err != nil {
		t.Fatalf("fromSnapshot failed: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	eng := engine.New(state, config.DefaultGame(), content.NewRandGenerator(rng),
		achievements.NewThresholdEvaluator(), rng, time.Now)

	opened := 0
	for eng.OpenChest(100) != nil {
		opened++
	}
	if opened == 0 {
		t.Fatal("Expected at least one chest from 100000 coins")
	}
	if state.Gems == 0 {
		t.Error("Chest bonus gems should have been credited")
	}
}
