// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Tunables of a discovery run.
type Options struct {
	// Upper bound for the number of alternatives next to the primary.
	MaxAlternatives int
	// Upfront prices at or above this are listed as a tradeoff.
	HighUpfrontCost decimal.Decimal
	// Appended to every request's priorities, see Request.Normalize.
	DefaultPriorities []Priority
}

func DefaultOptions() Options {
	return Options{
		MaxAlternatives:   4,
		HighUpfrontCost:   decimal.NewFromInt(300),
		DefaultPriorities: slices.Clone(DefaultPriorities),
	}
}

// Zero fields fall back to the defaults, negative alternatives mean none.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxAlternatives == 0 {
		o.MaxAlternatives = d.MaxAlternatives
	}
	o.MaxAlternatives = max(o.MaxAlternatives, 0)
	if o.HighUpfrontCost.IsZero() {
		o.HighUpfrontCost = d.HighUpfrontCost
	}
	if len(o.DefaultPriorities) == 0 {
		o.DefaultPriorities = d.DefaultPriorities
	}
	return o
}
