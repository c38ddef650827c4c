// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Format an amount as dollars with thousands separators, e.g. "$1,650" or "$99.50".
func FormatMoney(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	amount = amount.Round(2)
	whole := amount.Truncate(0)
	s := sign + "$" + humanize.Comma(whole.IntPart())
	if !amount.Equal(whole) {
		fixed := amount.StringFixed(2)
		s += fixed[strings.LastIndexByte(fixed, '.'):]
	}
	return s
}
