// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"fmt"
	"strings"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
)

type RowKind string

const (
	// Groups the rows that follow it, carries a label only.
	RowKindSection RowKind = "section"
	RowKindData    RowKind = "data"
)

// One line of a side by side comparison.
type TradeoffRow struct {
	Kind             RowKind `json:"kind"`
	Label            string  `json:"label"`
	RecommendedValue string  `json:"recommendedValue,omitempty"`
	AlternativeValue string  `json:"alternativeValue,omitempty"`
	Differs          bool    `json:"differs,omitempty"`
}

const (
	SectionTermPressure = "Term pressure"
	SectionRulePressure = "Rule pressure"
)

// Comparison rows for a single offer. Only the recommended side is filled,
// see PairRows for putting two offers next to each other.
func CompareRows(offer catalog.Offer, facts []catalog.RuleFact) []TradeoffRow {
	cost := BuildCost(offer)
	return []TradeoffRow{
		section(SectionTermPressure),
		data("Initial cost", catalog.FormatMoney(cost.Day0Cost)),
		data("Reset / monthly fee", resetAndFee(cost)),
		data("Phases", phaseSummary(offer.Phases)),
		data("Payout constraints", listOrNone(factsWhere(facts, isPayout))),
		section(SectionRulePressure),
		data("Drawdown type", drawdownType(facts)),
		data("Daily loss", dailyLoss(facts)),
		data("Time pressure", timePressureLevel(facts)),
		data("Scaling limits", scalingLevel(facts)),
	}
}

// Fill the alternative side of the recommended rows from the alternative's
// rows with the same label and flag the rows that differ.
func PairRows(recommended, alternative []TradeoffRow) []TradeoffRow {
	byLabel := make(map[string]string, len(alternative))
	for _, row := range alternative {
		if row.Kind == RowKindData {
			byLabel[row.Label] = row.RecommendedValue
		}
	}
	paired := make([]TradeoffRow, len(recommended))
	for i, row := range recommended {
		paired[i] = row
		if row.Kind != RowKindData {
			continue
		}
		alt, ok := byLabel[row.Label]
		if !ok {
			continue
		}
		paired[i].AlternativeValue = alt
		paired[i].Differs = alt != row.RecommendedValue
	}
	return paired
}

func section(label string) TradeoffRow {
	return TradeoffRow{Kind: RowKindSection, Label: label}
}

func data(label, value string) TradeoffRow {
	return TradeoffRow{Kind: RowKindData, Label: label, RecommendedValue: value}
}

func resetAndFee(cost CostModel) string {
	reset := "no reset"
	if v, ok := cost.ResetExposure.Unpack(); ok {
		reset = catalog.FormatMoney(v) + " reset"
	}
	fee := "no monthly fee"
	if v, ok := cost.CarryCost30.Unpack(); ok {
		fee = catalog.FormatMoney(v) + "/mo"
	}
	return reset + " / " + fee
}

func phaseSummary(phases catalog.PhaseStructure) string {
	steps := catalog.StepLabels(phases)
	switch len(steps) {
	case 0:
		return "Instant funding"
	case 1:
		return "1 step (" + steps[0] + ")"
	default:
		return fmt.Sprintf("%d steps (%s)", len(steps), strings.Join(steps, ", "))
	}
}

func listOrNone(facts []catalog.RuleFact) string {
	if len(facts) == 0 {
		return "None listed"
	}
	return strings.Join(labels(facts), "; ")
}

func drawdownType(facts []catalog.RuleFact) string {
	drawdowns := factsWhere(facts, isDrawdown)
	if len(drawdowns) == 0 {
		return "None listed"
	}
	f := drawdowns[0]
	kind := "Static"
	if isTrailing(f) {
		kind = "Trailing"
	}
	switch v := f.Value.(type) {
	case catalog.Enum:
		return catalog.FormatRuleValue(v)
	case catalog.Money, catalog.Percent:
		return kind + " (" + catalog.FormatRuleValue(v) + ")"
	default:
		return kind
	}
}

func dailyLoss(facts []catalog.RuleFact) string {
	limits := factsWhere(facts, isDailyLoss)
	if len(limits) == 0 {
		return "None"
	}
	s := describe(limits[0])
	if isKill(limits[0]) {
		s += ", ends the account"
	}
	return s
}

// High if a time rule can end the account or constrains trading,
// Low if only friction rules add time pressure.
func timePressureLevel(facts []catalog.RuleFact) string {
	timed := factsWhere(facts, isTimePressure)
	if len(timed) == 0 {
		return "None"
	}
	for _, f := range timed {
		if f.Severity != catalog.SeverityFriction {
			return "High"
		}
	}
	return "Low"
}

func scalingLevel(facts []catalog.RuleFact) string {
	limits := factsWhere(facts, isScaling)
	if len(limits) == 0 {
		return "None"
	}
	for _, f := range limits {
		if f.Severity != catalog.SeverityFriction {
			return "Restricted"
		}
	}
	return "Minor"
}
