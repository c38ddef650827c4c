// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrUnknownValueKind = errors.New("unknown rule value kind")

// Kind tag of a rule value as stored in the database and fixtures.
type ValueKind string

const (
	KindMoney   ValueKind = "money"
	KindPercent ValueKind = "percent"
	KindDays    ValueKind = "days"
	KindCount   ValueKind = "count"
	KindEnum    ValueKind = "enum"
	KindBool    ValueKind = "bool"
	KindText    ValueKind = "text"
)

// Typed value of a rule fact. Implemented by the seven value types below only,
// consumers switch over them exhaustively.
type RuleValue interface {
	Kind() ValueKind
	isRuleValue()
}

type (
	Money   struct{ Amount decimal.Decimal }
	Percent struct{ Value decimal.Decimal }
	Days    struct{ N int }
	Count   struct{ N int }
	Enum    struct{ Value string }
	Bool    struct{ Value bool }
	Text    struct{ Value string }
)

func (Money) Kind() ValueKind   { return KindMoney }
func (Percent) Kind() ValueKind { return KindPercent }
func (Days) Kind() ValueKind    { return KindDays }
func (Count) Kind() ValueKind   { return KindCount }
func (Enum) Kind() ValueKind    { return KindEnum }
func (Bool) Kind() ValueKind    { return KindBool }
func (Text) Kind() ValueKind    { return KindText }

func (Money) isRuleValue()   {}
func (Percent) isRuleValue() {}
func (Days) isRuleValue()    {}
func (Count) isRuleValue()   {}
func (Enum) isRuleValue()    {}
func (Bool) isRuleValue()    {}
func (Text) isRuleValue()    {}

// Encode a rule value into its kind tag and raw string. A nil value is empty text.
func EncodeRuleValue(v RuleValue) (ValueKind, string) {
	switch v := v.(type) {
	case Money:
		return KindMoney, v.Amount.String()
	case Percent:
		return KindPercent, v.Value.String()
	case Days:
		return KindDays, strconv.Itoa(v.N)
	case Count:
		return KindCount, strconv.Itoa(v.N)
	case Enum:
		return KindEnum, v.Value
	case Bool:
		return KindBool, strconv.FormatBool(v.Value)
	case Text:
		return KindText, v.Value
	default:
		return KindText, ""
	}
}

// Decode a rule value from its kind tag and raw string.
func ParseRuleValue(kind ValueKind, raw string) (RuleValue, error) {
	switch kind {
	case KindMoney:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid money value %q: %w", raw, err)
		}
		return Money{Amount: d}, nil
	case KindPercent:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid percent value %q: %w", raw, err)
		}
		return Percent{Value: d}, nil
	case KindDays, KindCount:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", kind, raw, err)
		}
		if kind == KindDays {
			return Days{N: n}, nil
		}
		return Count{N: n}, nil
	case KindEnum:
		return Enum{Value: raw}, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool value %q: %w", raw, err)
		}
		return Bool{Value: b}, nil
	case KindText:
		return Text{Value: raw}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownValueKind, kind)
	}
}

var enumSeparators = strings.NewReplacer("-", " ", "_", " ")

// Title-case a word list. Casers are stateful, so each call gets its own.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// Human readable rendering of a rule value, e.g. "$2,500", "4%", "30 days".
func FormatRuleValue(v RuleValue) string {
	switch v := v.(type) {
	case Money:
		return FormatMoney(v.Amount)
	case Percent:
		return v.Value.String() + "%"
	case Days:
		if v.N == 1 {
			return "1 day"
		}
		return strconv.Itoa(v.N) + " days"
	case Count:
		return strconv.Itoa(v.N)
	case Enum:
		return Title(enumSeparators.Replace(v.Value))
	case Bool:
		if v.Value {
			return "Yes"
		}
		return "No"
	case Text:
		return v.Value
	default:
		return ""
	}
}
