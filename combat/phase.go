// combat/phase.go
package combat

import (
	"errors"

	"github.com/wfunc/idlerpg/models"
)

// ErrTransitionNotAllowed is returned when a phase transition is not allowed.
var ErrTransitionNotAllowed = errors.New("combat phase transition not allowed")

// transitions is the closed phase graph of an encounter:
// Idle → Active → (ResolvingWin | ResolvingLose) → Idle.
var transitions = map[models.CombatPhase][]models.CombatPhase{
	models.PhaseIdle:          {models.PhaseActive},
	models.PhaseActive:        {models.PhaseResolvingWin, models.PhaseResolvingLose},
	models.PhaseResolvingWin:  {models.PhaseIdle},
	models.PhaseResolvingLose: {models.PhaseIdle},
}

// changePhase validates the move against the phase graph before applying it.
func changePhase(cs *models.CombatState, to models.CombatPhase) error {
	for _, allowed := range transitions[cs.Phase] {
		if allowed == to {
			cs.Phase = to
			return nil
		}
	}
	return ErrTransitionNotAllowed
}
