package statemachine

import (
	"testing"

	"table-order-api/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  models.OrderStatus
		to    models.OrderStatus
		actor string
		ok    bool
	}{
		{"waiter accepts pending", models.StatusPending, models.StatusAccepted, "waiter", true},
		{"waiter rejects pending", models.StatusPending, models.StatusRejected, "waiter", true},
		{"system cancels pending", models.StatusPending, models.StatusCancelled, "system", true},
		{"waiter sends to kitchen", models.StatusAccepted, models.StatusPreparing, "waiter", true},
		{"kitchen picks up accepted", models.StatusAccepted, models.StatusPreparing, "kitchen", true},
		{"kitchen marks ready", models.StatusPreparing, models.StatusReady, "kitchen", true},
		{"waiter serves ready", models.StatusReady, models.StatusServed, "waiter", true},
		{"waiter completes served", models.StatusServed, models.StatusCompleted, "waiter", true},

		{"kitchen cannot accept", models.StatusPending, models.StatusAccepted, "kitchen", false},
		{"waiter cannot mark ready", models.StatusPreparing, models.StatusReady, "waiter", false},
		{"cannot accept twice", models.StatusAccepted, models.StatusAccepted, "waiter", false},
		{"cannot skip to served", models.StatusAccepted, models.StatusServed, "waiter", false},
		{"guest cancels nothing", models.StatusPending, models.StatusCancelled, "guest", false},
		{"no exit from completed", models.StatusCompleted, models.StatusPending, "waiter", false},
		{"no exit from rejected", models.StatusRejected, models.StatusAccepted, "waiter", false},
		{"no exit from cancelled", models.StatusCancelled, models.StatusAccepted, "system", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.actor)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []models.OrderStatus{models.StatusRejected, models.StatusCompleted, models.StatusCancelled} {
		assert.Empty(t, ValidTransitionsFrom(terminal), "state %s must be terminal", terminal)
		assert.True(t, terminal.IsTerminal())
	}
}

func TestValidTransitionsFromPending(t *testing.T) {
	nexts := ValidTransitionsFrom(models.StatusPending)
	assert.ElementsMatch(t, []models.OrderStatus{
		models.StatusAccepted, models.StatusRejected, models.StatusCancelled,
	}, nexts)
}
