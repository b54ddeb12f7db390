package domain

import (
	"regexp"
	"strconv"
)

// estimateWindow is how far past a fragment start the prose is searched.
const estimateWindow = 1000

var (
	// vehiclesRe matches "cantidad de vehiculos ... 45.5"; the number is the
	// first one after the phrase.
	vehiclesRe = regexp.MustCompile(`(?is)cantidad\s+de\s+veh(?:i|í|&iacute;)culos[^0-9]{0,80}?(\d+(?:\.\d+)?)`)

	// queueRe matches "avanza cada 12 minutos".
	queueRe = regexp.MustCompile(`(?i)avanza\s+cada\s+(\d+)\s+minutos`)
)

// EstimateNear reads the vehicle and queue estimates from the window of text
// starting at offset; the window never extends past the end of text.
// Values that are absent or unparsable are zero.
func EstimateNear(text string, offset int) Estimate {
	if offset < 0 || offset >= len(text) {
		return Estimate{}
	}
	end := min(offset+estimateWindow, len(text))
	window := text[offset:end]

	var est Estimate
	if m := vehiclesRe.FindStringSubmatch(window); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			est.Vehicles = v
		}
	}
	if m := queueRe.FindStringSubmatch(window); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			est.QueueMinutes = v
		}
	}
	return est
}
