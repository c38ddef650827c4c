// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"cmp"
	"slices"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/majewsky/gg/option"
	"github.com/shopspring/decimal"
)

// Orders two candidates. Negative means a ranks before b, zero means
// the comparator cannot tell them apart.
type Comparator func(a, b Recommendation) int

var priorityComparators = map[Priority]Comparator{
	PriorityKillRules:     compareKillRules,
	PriorityTimePressure:  compareTimePressure,
	PriorityResetExposure: compareResetExposure,
	PriorityTotalCost:     compareTotalCost,
	PriorityPhaseCount:    comparePhaseCount,
}

// Applied after the caller's priorities so that the order is total.
var fallbackComparators = []Comparator{compareKillRules, compareTotalCost, compareResetExposure}

// Combine comparators lexicographically: the first non-zero result wins.
func Chain(comparators ...Comparator) Comparator {
	return func(a, b Recommendation) int {
		for _, c := range comparators {
			if result := c(a, b); result != 0 {
				return result
			}
		}
		return 0
	}
}

// The full ordering: score descending, then the given priorities in order,
// then the fallback. Unknown priorities are ignored.
func Ranker(priorities []Priority) Comparator {
	comparators := []Comparator{compareScore}
	for _, p := range priorities {
		if c, ok := priorityComparators[p]; ok {
			comparators = append(comparators, c)
		}
	}
	return Chain(append(comparators, fallbackComparators...)...)
}

// Sort candidates into their final order and number them from zero.
// Candidates that tie on every axis keep their input order.
// The input slice is left untouched.
func Rank(candidates []Recommendation, priorities []Priority) []Recommendation {
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, Ranker(priorities))
	for i := range ranked {
		ranked[i].Rank = i
	}
	return ranked
}

func compareScore(a, b Recommendation) int {
	return cmp.Compare(b.Score, a.Score)
}

func compareKillRules(a, b Recommendation) int {
	return cmp.Compare(len(a.Risk.KillRules), len(b.Risk.KillRules))
}

func compareTimePressure(a, b Recommendation) int {
	return compareBool(anyFact(a.Facts, isTimePressure), anyFact(b.Facts, isTimePressure))
}

func compareResetExposure(a, b Recommendation) int {
	return compareMissingLast(a.Cost.ResetExposure, b.Cost.ResetExposure)
}

func compareTotalCost(a, b Recommendation) int {
	return a.Cost.TypicalToFund.Cmp(b.Cost.TypicalToFund)
}

func comparePhaseCount(a, b Recommendation) int {
	return cmp.Compare(catalog.StepCount(a.Offer.Phases), catalog.StepCount(b.Offer.Phases))
}

// false before true
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

// Ascending, a missing amount counts as infinitely large.
func compareMissingLast(a, b option.Option[decimal.Decimal]) int {
	av, aok := a.Unpack()
	bv, bok := b.Unpack()
	switch {
	case aok && bok:
		return av.Cmp(bv)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return 0
	}
}
