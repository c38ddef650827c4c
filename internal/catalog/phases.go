// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Lifecycle phase of a funding account.
type Phase string

const (
	PhaseEvaluation   Phase = "evaluation"
	PhaseVerification Phase = "verification"
	PhaseFunded       Phase = "funded"
)

// Phases in lifecycle order.
var lifecycle = []Phase{PhaseEvaluation, PhaseVerification, PhaseFunded}

func (p Phase) Valid() bool {
	return slices.Contains(lifecycle, p)
}

// Position of the phase in the lifecycle. Unknown phases sort last.
func (p Phase) Order() int {
	if i := slices.Index(lifecycle, p); i >= 0 {
		return i
	}
	return len(lifecycle)
}

// Phase structure of an offer. Implemented by PhaseList and NamedPhases only.
type PhaseStructure interface {
	// The phases in the order a trader goes through them.
	Phases() []Phase
	isPhaseStructure()
}

// Flat list of lifecycle phases.
type PhaseList []Phase

func (l PhaseList) Phases() []Phase { return slices.Clone(l) }
func (PhaseList) isPhaseStructure() {}

// A phase together with the label a firm gives it (e.g. "Challenge").
type NamedPhase struct {
	Phase Phase  `json:"phase" yaml:"phase"`
	Label string `json:"label" yaml:"label"`
}

// Named phases with display labels.
type NamedPhases []NamedPhase

func (n NamedPhases) Phases() []Phase {
	phases := make([]Phase, len(n))
	for i, p := range n {
		phases[i] = p.Phase
	}
	return phases
}
func (NamedPhases) isPhaseStructure() {}

// Number of steps a trader has to pass before being funded.
func StepCount(s PhaseStructure) int {
	if s == nil {
		return 0
	}
	count := 0
	for _, p := range s.Phases() {
		if p != PhaseFunded {
			count++
		}
	}
	return count
}

// Display labels of the steps before funding.
func StepLabels(s PhaseStructure) []string {
	var labels []string
	switch s := s.(type) {
	case PhaseList:
		for _, p := range s {
			if p != PhaseFunded {
				labels = append(labels, Title(string(p)))
			}
		}
	case NamedPhases:
		for _, p := range s {
			if p.Phase == PhaseFunded {
				continue
			}
			if p.Label != "" {
				labels = append(labels, p.Label)
			} else {
				labels = append(labels, Title(string(p.Phase)))
			}
		}
	}
	return labels
}

// Encode the phase structure as json: a string array for a PhaseList,
// an object array for NamedPhases.
func EncodePhases(s PhaseStructure) (string, error) {
	var data []byte
	var err error
	switch s := s.(type) {
	case nil:
		return "[]", nil
	case PhaseList:
		data, err = json.Marshal([]Phase(s))
	case NamedPhases:
		data, err = json.Marshal([]NamedPhase(s))
	default:
		return "", fmt.Errorf("unknown phase structure %T", s)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode a phase structure written by EncodePhases.
func ParsePhases(raw string) (PhaseStructure, error) {
	var list []Phase
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		if err := validatePhases(list); err != nil {
			return nil, err
		}
		return PhaseList(list), nil
	}
	var named []NamedPhase
	if err := json.Unmarshal([]byte(raw), &named); err != nil {
		return nil, fmt.Errorf("invalid phase structure %q: %w", raw, err)
	}
	phases := make([]Phase, len(named))
	for i, p := range named {
		phases[i] = p.Phase
	}
	if err := validatePhases(phases); err != nil {
		return nil, err
	}
	return NamedPhases(named), nil
}

var errUnknownPhase = errors.New("unknown phase")

func validatePhases(phases []Phase) error {
	for _, p := range phases {
		if !p.Valid() {
			return fmt.Errorf("%w: %q", errUnknownPhase, p)
		}
	}
	return nil
}
