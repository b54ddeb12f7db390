package domain

import "errors"

// Extraction is the outcome of scanning one source text.
type Extraction struct {
	Matches map[int]Match // keyed by station ID, last fragment in scan order wins
	Located int
	Skipped []*FragmentParseError
}

// Extract locates, parses and enriches every fragment in text. Fragments that
// fail to parse are reported in Skipped and otherwise ignored. Estimates are
// read only from the prose before the next fragment header, so a station
// never picks up its neighbour's figures.
func Extract(text string) Extraction {
	ex := Extraction{Matches: make(map[int]Match)}
	for frag := range LocateFragments(text) {
		ex.Located++
		fields, err := ParseFragment(frag)
		if err != nil {
			var perr *FragmentParseError
			if errors.As(err, &perr) {
				ex.Skipped = append(ex.Skipped, perr)
			}
			continue
		}
		ex.Matches[fields.StationID] = Match{
			ParsedFields: fields,
			Estimate:     EstimateNear(text[:frag.Bound], frag.Offset),
			Offset:       frag.Offset,
		}
	}
	return ex
}
