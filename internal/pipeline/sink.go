package pipeline

import (
	"context"
	"errors"

	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
)

// FanoutSink forwards every record set to each sink in order. All sinks are
// attempted; their errors are joined.
type FanoutSink []Sink

func (f FanoutSink) Upsert(ctx context.Context, records []domain.StationRecord) error {
	var errs []error
	for _, s := range f {
		if err := s.Upsert(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
