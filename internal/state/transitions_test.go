package state

import "testing"

func TestIsTransitionAllowed(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		to       State
		expected bool
	}{
		{name: "idle to awaiting price", from: StateIdle, to: StateAwaitingPrice, expected: true},
		{name: "price to name", from: StateAwaitingPrice, to: StateAwaitingName, expected: true},
		{name: "price re-prompt", from: StateAwaitingPrice, to: StateAwaitingPrice, expected: true},
		{name: "name back to idle", from: StateAwaitingName, to: StateIdle, expected: true},
		{name: "edit target to new link", from: StateAwaitingEditTarget, to: StateAwaitingNewLink, expected: true},
		{name: "new link re-prompt", from: StateAwaitingNewLink, to: StateAwaitingNewLink, expected: true},
		{name: "menu pre-empts price with removal", from: StateAwaitingPrice, to: StateAwaitingRemovalTarget, expected: true},
		{name: "menu pre-empts name with edit", from: StateAwaitingName, to: StateAwaitingEditTarget, expected: true},
		{name: "idle to name skips price", from: StateIdle, to: StateAwaitingName, expected: false},
		{name: "idle to new link skips target", from: StateIdle, to: StateAwaitingNewLink, expected: false},
		{name: "removal to price", from: StateAwaitingRemovalTarget, to: StateAwaitingPrice, expected: false},
		{name: "unknown state to price", from: State("unknown"), to: StateAwaitingPrice, expected: false},
		{name: "any state to idle", from: State("whatever"), to: StateIdle, expected: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if actual := IsTransitionAllowed(tc.from, tc.to); actual != tc.expected {
				t.Errorf("IsTransitionAllowed(%s -> %s) = %t, expected %t", tc.from, tc.to, actual, tc.expected)
			}
		})
	}
}
