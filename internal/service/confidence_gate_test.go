package service

import (
	"strings"
	"testing"
)

func TestConfidenceGateDecide(t *testing.T) {
	gate := ConfidenceGate{Threshold: 60}

	tests := []struct {
		name       string
		confidence float64
		autoRoute  bool
	}{
		{"well above", 82.5, true},
		{"exactly at threshold", 60, true},
		{"just below", 59.99, false},
		{"well below", 45, false},
		{"zero", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := gate.Decide(tt.confidence)
			if decision.AutoRoute != tt.autoRoute {
				t.Fatalf("Decide(%v).AutoRoute = %v, want %v", tt.confidence, decision.AutoRoute, tt.autoRoute)
			}
			if decision.AutoRoute && decision.Reason != "" {
				t.Fatalf("auto-route decision carries reason %q", decision.Reason)
			}
			if !decision.AutoRoute && decision.Reason == "" {
				t.Fatal("manual review decision missing reason")
			}
		})
	}
}

func TestConfidenceGateReasonNamesBothValues(t *testing.T) {
	decision := ConfidenceGate{Threshold: 60}.Decide(45)
	if !strings.Contains(decision.Reason, "45.00") || !strings.Contains(decision.Reason, "60.00") {
		t.Fatalf("reason %q should name confidence and threshold", decision.Reason)
	}
}
