package state

// validTransitions lists the forward steps of each flow. Returning to idle,
// staying in place and menu pre-emption are handled in IsTransitionAllowed.
var validTransitions = map[State][]State{
	StateIdle: {
		StateAwaitingPrice,
		StateAwaitingRemovalTarget,
		StateAwaitingEditTarget,
	},
	StateAwaitingPrice: {
		StateAwaitingName,
	},
	StateAwaitingEditTarget: {
		StateAwaitingNewLink,
	},
}

// preemptive states can be entered from anywhere through the menu.
var preemptive = map[State]struct{}{
	StateAwaitingRemovalTarget: {},
	StateAwaitingEditTarget:    {},
}

// IsTransitionAllowed reports whether moving from one state to another is valid.
func IsTransitionAllowed(from, to State) bool {
	if to == StateIdle {
		return true
	}

	if !from.Known() || !to.Known() {
		return false
	}
	if from == to {
		return true
	}
	if _, ok := preemptive[to]; ok {
		return true
	}

	for _, state := range validTransitions[from] {
		if state == to {
			return true
		}
	}

	return false
}
