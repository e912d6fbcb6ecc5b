package signal

import (
	"testing"

	"swarmroute/internal/domain"
)

func TestAvailabilityTable(t *testing.T) {
	cases := []struct {
		state domain.LifecycleState
		want  float64
	}{
		{domain.StateIdle, 1.0},
		{domain.StateStarting, 0.3},
		{domain.StateCooldown, 0.1},
		{domain.StateWorking, 0.0},
		{domain.StateDraining, 0.0},
		{domain.StateStopping, 0.0},
		{domain.StateError, 0.0},
		{domain.StateOffline, 0.0},
		{domain.LifecycleState("mystery"), 0.0},
		{domain.LifecycleState(""), 0.0},
	}
	for _, tc := range cases {
		if got := Availability(tc.state); got != tc.want {
			t.Errorf("Availability(%q) = %v, want %v", tc.state, got, tc.want)
		}
	}
}

func TestAvailabilityIsDiscrete(t *testing.T) {
	allowed := map[float64]bool{0.0: true, 0.1: true, 0.3: true, 1.0: true}
	for _, state := range []domain.LifecycleState{
		domain.StateIdle, domain.StateStarting, domain.StateWorking,
		domain.StateCooldown, domain.StateDraining, domain.StateStopping,
		domain.StateError, domain.StateOffline, "anything-else",
	} {
		if got := Availability(state); !allowed[got] {
			t.Errorf("Availability(%q) = %v, not in the discrete set", state, got)
		}
	}
}

func TestColdStartBonusDecay(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		tasks int
		want  float64
	}{
		{0, 15},
		{1, 12},
		{2, 9},
		{3, 6},
		{4, 3},
		{5, 0},
		{25, 0},
	}
	for _, tc := range cases {
		if got := th.ColdStartBonus(tc.tasks); got != tc.want {
			t.Errorf("ColdStartBonus(%d) = %v, want %v", tc.tasks, got, tc.want)
		}
	}
}

func TestColdStartBonusNonIncreasing(t *testing.T) {
	th := DefaultThresholds()
	prev := th.ColdStartBonus(0)
	for tasks := 1; tasks <= 20; tasks++ {
		cur := th.ColdStartBonus(tasks)
		if cur > prev {
			t.Fatalf("bonus increased from %v to %v at %d tasks", prev, cur, tasks)
		}
		prev = cur
	}
}
