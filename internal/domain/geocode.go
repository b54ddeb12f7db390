package domain

import (
	"context"
	"log/slog"
)

// FillLocations returns a copy of stations where every entry with an empty
// LocationText and known coordinates has been reverse geocoded. Failures are
// logged and leave the entry unchanged (graceful degradation). A nil
// geocoder returns the input unchanged.
//
// It runs before NewRegistry so the registry itself stays immutable.
func FillLocations(ctx context.Context, stations []StationMeta, geocoder Geocoder, logger *slog.Logger) []StationMeta {
	out := make([]StationMeta, len(stations))
	copy(out, stations)
	if geocoder == nil {
		return out
	}

	for i := range out {
		s := &out[i]
		if s.LocationText != "" || (s.Coordinates.Lat == 0 && s.Coordinates.Lon == 0) {
			continue
		}

		result, err := geocoder.ReverseGeocode(ctx, s.Coordinates.Lat, s.Coordinates.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"station_id", s.ID,
				"lat", s.Coordinates.Lat,
				"lon", s.Coordinates.Lon,
				"error", err,
			)
			continue
		}
		if result.FormattedAddress == "" {
			continue
		}
		s.LocationText = result.FormattedAddress
		logger.Debug("station location geocoded", "station_id", s.ID, "location", s.LocationText)
	}
	return out
}
