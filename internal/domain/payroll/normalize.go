package payroll

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical component keys
const (
	KeyBasic          = "basic_salary"
	KeyHRA            = "hra"
	KeyDA             = "da"
	KeyReimbursements = "reimbursements"
	KeyBonus          = "bonus"
	KeyPF             = "pf"
	KeyTax            = "tax"
	KeyLossOfPay      = "loss_of_pay"
	KeyOther          = "other"
)

// legacy key -> canonical key
var componentAliases = map[string]string{
	"basic":            KeyBasic,
	"lop":              KeyLossOfPay,
	"other_deductions": KeyOther,
}

var ComponentKeys = []string{
	KeyBasic, KeyHRA, KeyDA, KeyReimbursements, KeyBonus,
	KeyPF, KeyTax, KeyLossOfPay, KeyOther,
}

// Canonicalize folds legacy aliases into their canonical keys. When both the
// alias and the canonical key are present, the canonical value wins.
func Canonicalize(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, isAlias := componentAliases[k]; !isAlias {
			out[k] = v
		}
	}
	for alias, canonical := range componentAliases {
		v, ok := raw[alias]
		if !ok {
			continue
		}
		if _, exists := out[canonical]; !exists {
			out[canonical] = v
		}
	}
	return out
}

// NormalizeComponents maps a loosely typed component object onto Earnings and
// Deductions. Missing, null or non-numeric values become zero.
func NormalizeComponents(raw map[string]any) (Earnings, Deductions) {
	c := Canonicalize(raw)
	e := Earnings{
		Basic:          toDecimal(c[KeyBasic]),
		HRA:            toDecimal(c[KeyHRA]),
		DA:             toDecimal(c[KeyDA]),
		Reimbursements: toDecimal(c[KeyReimbursements]),
		Bonus:          toDecimal(c[KeyBonus]),
	}
	d := Deductions{
		PF:        toDecimal(c[KeyPF]),
		Tax:       toDecimal(c[KeyTax]),
		LossOfPay: toDecimal(c[KeyLossOfPay]),
		Other:     toDecimal(c[KeyOther]),
	}
	return e, d
}

// DecodeComponents parses a JSON object of components, keeping numbers exact
func DecodeComponents(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("components must be a JSON object: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// ToMap renders components back to their canonical keys
func ToMap(e Earnings, d Deductions) map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		KeyBasic:          e.Basic,
		KeyHRA:            e.HRA,
		KeyDA:             e.DA,
		KeyReimbursements: e.Reimbursements,
		KeyBonus:          e.Bonus,
		KeyPF:             d.PF,
		KeyTax:            d.Tax,
		KeyLossOfPay:      d.LossOfPay,
		KeyOther:          d.Other,
	}
}

func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case json.Number:
		return parseDecimal(n.String())
	case string:
		return parseDecimal(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case decimal.Decimal:
		return n
	}
	return decimal.Zero
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
