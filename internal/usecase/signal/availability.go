package signal

import "swarmroute/internal/domain"

// Availability maps a lifecycle state to routing availability. Only idle
// agents are fully available; starting and cooling-down agents carry a
// fractional weight; everything else (including unknown states) is 0.
func Availability(state domain.LifecycleState) float64 {
	switch state {
	case domain.StateIdle:
		return 1.0
	case domain.StateStarting:
		return 0.3
	case domain.StateCooldown:
		return 0.1
	default:
		return 0.0
	}
}

// ColdStartBonus is the exploration incentive for agents with too little
// history for the other signals to be trustworthy. It decays linearly
// from ColdStartMax to zero at ColdStartTasks total tasks.
func (t Thresholds) ColdStartBonus(totalTasks int) float64 {
	remaining := 1 - float64(totalTasks)/float64(t.ColdStartTasks)
	if remaining < 0 {
		remaining = 0
	}
	return t.ColdStartMax * remaining
}
