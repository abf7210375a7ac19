package domain

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// PricingKey normalises an item description into the lookup key of the
// pricing knowledge base: lower case, punctuation dropped, single spaces.
func PricingKey(description string) string {
	fields := strings.FieldsFunc(strings.ToLower(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

// PricingWords splits a query into the words matched against pricing keys
func PricingWords(query string) []string {
	key := PricingKey(query)
	if key == "" {
		return nil
	}
	return strings.Split(key, " ")
}

// WeightedPrice folds a newly observed price into an average built from
// frequency earlier observations, rounded to cents
func WeightedPrice(current decimal.Decimal, frequency int, observed decimal.Decimal) decimal.Decimal {
	if frequency <= 0 {
		return observed.Round(2)
	}
	n := decimal.NewFromInt(int64(frequency))
	return current.Mul(n).Add(observed).Div(n.Add(decimal.NewFromInt(1))).Round(2)
}
