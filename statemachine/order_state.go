package statemachine

import (
	"errors"
	"table-order-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string // "waiter", "kitchen", "system"
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Waiter accepts or rejects a new order
	{From: models.StatusPending, To: models.StatusAccepted, Actor: "waiter"},
	{From: models.StatusPending, To: models.StatusRejected, Actor: "waiter"},
	// System cancels an order whose payment expired
	{From: models.StatusPending, To: models.StatusCancelled, Actor: "system"},
	// Either the waiter sends the order to the kitchen or the kitchen
	// picks it up itself; same transition, first actor wins
	{From: models.StatusAccepted, To: models.StatusPreparing, Actor: "waiter"},
	{From: models.StatusAccepted, To: models.StatusPreparing, Actor: "kitchen"},
	// Kitchen marks the order ready for serving
	{From: models.StatusPreparing, To: models.StatusReady, Actor: "kitchen"},
	// Waiter serves, then closes out the order
	{From: models.StatusReady, To: models.StatusServed, Actor: "waiter"},
	{From: models.StatusServed, To: models.StatusCompleted, Actor: "waiter"},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor string
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.OrderStatus, actor string) error {
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed for actor '" + actor + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
