// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"fmt"
	"strings"

	"github.com/cobaltcore-dev/propscout/internal/catalog"
	"github.com/shopspring/decimal"
)

// Short sentences backing a recommendation. They state facts about the
// offer and never predict outcomes.
type Explanation struct {
	// One sentence per rule family, favorable or not, plus extra positives.
	WhyThisWins []string `json:"whyThisWins"`
	// Only downsides that are true for the offer, never empty.
	WhatYouGiveUp []string `json:"whatYouGiveUp"`
}

const noMajorTradeoffs = "Every offer has tradeoffs; this one has no extra monthly fee, high upfront price or multi-step evaluation."

// Build the explanation for an offer. Upfront prices at or above
// highUpfrontCost are listed as a downside.
func Explain(offer catalog.Offer, facts []catalog.RuleFact, highUpfrontCost decimal.Decimal) Explanation {
	cost := BuildCost(offer)
	steps := catalog.StepCount(offer.Phases)

	why := []string{
		trailingSentence(factsWhere(facts, isTrailing)),
		timePressureSentence(factsWhere(facts, isTimePressure)),
		dailyLossSentence(factsWhere(facts, isDailyLoss)),
		resetSentence(cost),
	}
	if cost.CarryCost30.IsNone() {
		why = append(why, fmt.Sprintf("One-time payment of %s with no monthly fee.", catalog.FormatMoney(cost.Day0Cost)))
	}
	if steps == 1 {
		why = append(why, "Single-step evaluation: pass once and you are funded.")
	}

	var giveUp []string
	if fee, ok := cost.CarryCost30.Unpack(); ok {
		giveUp = append(giveUp, fmt.Sprintf("Charges %s every month until you are funded.", catalog.FormatMoney(fee)))
	}
	if cost.Day0Cost.GreaterThanOrEqual(highUpfrontCost) {
		giveUp = append(giveUp, fmt.Sprintf("Upfront price of %s is on the high end.", catalog.FormatMoney(cost.Day0Cost)))
	}
	if steps > 1 {
		giveUp = append(giveUp, fmt.Sprintf("%d evaluation steps before funding.", steps))
	}
	if kills := factsWhere(facts, isKill); len(kills) > 0 {
		giveUp = append(giveUp, fmt.Sprintf("%s can end the account outright: %s.",
			pluralize(len(kills), "rule", "rules"), strings.Join(labels(kills), ", ")))
	}
	if len(giveUp) == 0 {
		giveUp = []string{noMajorTradeoffs}
	}
	return Explanation{WhyThisWins: why, WhatYouGiveUp: giveUp}
}

func trailingSentence(trailing []catalog.RuleFact) string {
	if len(trailing) == 0 {
		return "No trailing drawdown: your loss limit does not move up with unrealized gains."
	}
	return fmt.Sprintf("Trailing drawdown (%s): the loss limit follows your peak balance.", describe(trailing[0]))
}

func timePressureSentence(timed []catalog.RuleFact) string {
	if len(timed) == 0 {
		return "No time limit or inactivity rule, so you can wait for your setups."
	}
	return fmt.Sprintf("Time pressure: %s.", strings.Join(labels(timed), ", "))
}

func dailyLossSentence(dailyLoss []catalog.RuleFact) string {
	if len(dailyLoss) == 0 {
		return "No daily loss limit, so one bad session does not end the day."
	}
	return fmt.Sprintf("Daily loss limit of %s caps how much a single session can lose.", describe(dailyLoss[0]))
}

func resetSentence(cost CostModel) string {
	if reset, ok := cost.ResetExposure.Unpack(); ok {
		return fmt.Sprintf("A reset after a failed attempt costs %s.", catalog.FormatMoney(reset))
	}
	return "No paid reset: a failed attempt means buying the evaluation again."
}

// The value of a rule fact, falling back to its label.
func describe(f catalog.RuleFact) string {
	if s := catalog.FormatRuleValue(f.Value); s != "" {
		return s
	}
	if f.Label != "" {
		return f.Label
	}
	return f.Type
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}
