// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// Axis along which the caller wants candidates compared.
type Priority string

const (
	// Fewer account-ending rules wins.
	PriorityKillRules Priority = "kill_rules"
	// No time, deadline or inactivity rules wins.
	PriorityTimePressure Priority = "time_pressure"
	// Cheaper (or any) reset wins.
	PriorityResetExposure Priority = "reset_exposure"
	// Lower typical cost to reach funding wins.
	PriorityTotalCost Priority = "total_cost"
	// Fewer evaluation steps wins.
	PriorityPhaseCount Priority = "phase_count"
)

// Survivability first.
var DefaultPriorities = []Priority{PriorityKillRules, PriorityTimePressure, PriorityResetExposure}

func (p Priority) Valid() bool {
	_, ok := priorityComparators[p]
	return ok
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

// Parse a list of priority names, failing on the first unknown one.
func ParsePriorities(names []string) ([]Priority, error) {
	priorities := make([]Priority, 0, len(names))
	for _, name := range names {
		p, err := ParsePriority(name)
		if err != nil {
			return nil, err
		}
		priorities = append(priorities, p)
	}
	return priorities, nil
}

// What the trader is looking for.
type Request struct {
	// Offer the trader currently holds, if any.
	CurrentAccountID string `json:"currentAccountId,omitempty"`
	// Maximum upfront price. Unset or non-positive means no limit.
	BudgetCeiling *decimal.Decimal `json:"budgetCeiling,omitempty"`
	// Comparison axes, most significant first.
	Priorities []Priority `json:"priorities,omitempty"`
	// Soft preferences that nudge the score, see preferences.
	MustHave []string `json:"mustHave,omitempty"`
	// Hard constraints that remove offers, see exclusions.
	Exclude []string `json:"exclude,omitempty"`
}

// Merge the request over the defaults. Caller priorities come first in the
// given order with unknown and repeated names dropped, then every default
// not named by the caller is appended. MustHave and Exclude are deduplicated.
func (r Request) Normalize(defaults []Priority) Request {
	out := Request{
		CurrentAccountID: r.CurrentAccountID,
		MustHave:         dedupe(r.MustHave),
		Exclude:          dedupe(r.Exclude),
	}
	if r.BudgetCeiling != nil && r.BudgetCeiling.IsPositive() {
		ceiling := *r.BudgetCeiling
		out.BudgetCeiling = &ceiling
	}
	out.Priorities = make([]Priority, 0, len(r.Priorities)+len(defaults))
	for _, p := range slices.Concat(r.Priorities, defaults) {
		if p.Valid() && !slices.Contains(out.Priorities, p) {
			out.Priorities = append(out.Priorities, p)
		}
	}
	return out
}

func dedupe(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	return out
}
