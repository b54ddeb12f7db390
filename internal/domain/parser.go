package domain

import (
	"regexp"
	"strconv"
)

// fieldRule extracts one named field from a normalized fragment. Patterns are
// tried in order and the first one that matches wins; each pattern has a
// single capture group holding the value.
type fieldRule struct {
	name     string
	patterns []*regexp.Regexp
}

// Structural tokens (int, string, =>) are case-insensitive; keys are exact.
const (
	arrow     = `\s*(?:=>|=&gt;)\s*`
	intValue  = `(?i:int)\s*\(\s*(\d+)\s*\)`
	strNumber = `(?i:string)\s*\(\s*\d+\s*\)\s*"(\d+)"`
	strValue  = `(?i:string)\s*\(\s*\d+\s*\)\s*"([^"]+)"`
)

func keyPattern(key, value string) *regexp.Regexp {
	return regexp.MustCompile(`\["` + regexp.QuoteMeta(key) + `"\]` + arrow + value)
}

const (
	fieldStation = "un"
	fieldProduct = "producto_id"
	fieldDate    = "fecha"
	fieldStock   = "saldo"
)

var fragmentRules = []fieldRule{
	{name: fieldStation, patterns: []*regexp.Regexp{
		keyPattern(fieldStation, intValue),
		keyPattern(fieldStation, strNumber),
	}},
	{name: fieldProduct, patterns: []*regexp.Regexp{keyPattern(fieldProduct, intValue)}},
	{name: fieldDate, patterns: []*regexp.Regexp{keyPattern(fieldDate, strValue)}},
	{name: fieldStock, patterns: []*regexp.Regexp{keyPattern(fieldStock, strNumber)}},
}

// ParseFragment reads the four mandatory fields from a normalized fragment.
// Any missing or malformed field yields a *FragmentParseError and no fields.
func ParseFragment(frag RawFragment) (ParsedFields, error) {
	values := make(map[string]string, len(fragmentRules))
	for _, rule := range fragmentRules {
		v, ok := rule.apply(frag.Text)
		if !ok {
			return ParsedFields{}, &FragmentParseError{Offset: frag.Offset, Field: rule.name, Reason: "missing"}
		}
		values[rule.name] = v
	}

	station, err := strconv.Atoi(values[fieldStation])
	if err != nil {
		return ParsedFields{}, &FragmentParseError{Offset: frag.Offset, Field: fieldStation, Reason: "out of range"}
	}
	product, err := strconv.Atoi(values[fieldProduct])
	if err != nil {
		return ParsedFields{}, &FragmentParseError{Offset: frag.Offset, Field: fieldProduct, Reason: "out of range"}
	}
	stock, err := strconv.Atoi(values[fieldStock])
	if err != nil {
		return ParsedFields{}, &FragmentParseError{Offset: frag.Offset, Field: fieldStock, Reason: "out of range"}
	}

	return ParsedFields{
		StationID:   station,
		ProductID:   product,
		MeasuredAt:  values[fieldDate],
		StockLitres: stock,
	}, nil
}

func (r fieldRule) apply(text string) (string, bool) {
	for _, re := range r.patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}
