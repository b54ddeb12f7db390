package domain

import (
	"slices"
	"time"
)

// Reconciliation is the complete record set for one cycle.
type Reconciliation struct {
	Records      []StationRecord // one per registry entry, registry order
	Unregistered []int           // matched station IDs absent from the registry, ascending
}

// Counts returns how many records are available and depleted.
func (r Reconciliation) Counts() (available, depleted int) {
	for _, rec := range r.Records {
		if rec.Status == StatusDepleted {
			depleted++
		} else {
			available++
		}
	}
	return available, depleted
}

// Reconcile merges the matched fragments with the registry. Registered
// stations without a match are emitted as depleted, measured at retrievedAt
// (rendered in retrievedAt's location) and tagged with productID. Matches for
// unregistered stations are dropped and listed in Unregistered.
func Reconcile(matches map[int]Match, reg *Registry, retrievedAt time.Time, productID int) Reconciliation {
	stations := reg.Stations()
	out := Reconciliation{Records: make([]StationRecord, 0, len(stations))}

	for _, meta := range stations {
		m, ok := matches[meta.ID]
		if !ok {
			out.Records = append(out.Records, depletedRecord(meta, retrievedAt, productID))
			continue
		}
		out.Records = append(out.Records, availableRecord(meta, m))
	}

	for id := range matches {
		if _, ok := reg.Lookup(id); !ok {
			out.Unregistered = append(out.Unregistered, id)
		}
	}
	slices.Sort(out.Unregistered)

	return out
}

func availableRecord(meta StationMeta, m Match) StationRecord {
	return StationRecord{
		StationID:            meta.ID,
		DisplayName:          meta.DisplayName,
		LocationText:         meta.LocationText,
		Coordinates:          meta.Coordinates,
		ProductID:            m.ProductID,
		StockLitres:          m.StockLitres,
		StockLitresFormatted: FormatLitres(m.StockLitres),
		MeasuredAt:           m.MeasuredAt,
		EstimatedVehicles:    m.Vehicles,
		QueueMinutes:         m.QueueMinutes,
		Status:               StatusAvailable,
	}
}

func depletedRecord(meta StationMeta, retrievedAt time.Time, productID int) StationRecord {
	return StationRecord{
		StationID:            meta.ID,
		DisplayName:          meta.DisplayName,
		LocationText:         meta.LocationText,
		Coordinates:          meta.Coordinates,
		ProductID:            productID,
		StockLitres:          0,
		StockLitresFormatted: FormatLitres(0),
		MeasuredAt:           retrievedAt.Format(MeasuredAtLayout),
		Status:               StatusDepleted,
	}
}
