package service

import "fmt"

// GateDecision is the routing outcome for a classified ticket.
type GateDecision struct {
	AutoRoute bool
	Reason    string
}

// ConfidenceGate decides whether a classification is trustworthy enough for
// automatic assignment. Threshold is a percentage on the same 0..100 scale
// as ticket confidence scores; a confidence exactly at the threshold passes.
type ConfidenceGate struct {
	Threshold float64
}

// Decide evaluates a confidence score against the threshold.
func (g ConfidenceGate) Decide(confidence float64) GateDecision {
	if confidence >= g.Threshold {
		return GateDecision{AutoRoute: true}
	}
	return GateDecision{
		AutoRoute: false,
		Reason:    fmt.Sprintf("confidence %.2f%% below threshold %.2f%%", confidence, g.Threshold),
	}
}
