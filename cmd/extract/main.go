// Command extract runs fragment extraction and reconciliation over a saved
// source page and prints the resulting station records as JSON. It needs no
// network or database and is meant for checking a captured page before the
// poller sees it.
//
// Usage:
//
//	go run ./cmd/extract \
//	  -page testdata/guia_saldos.html \
//	  -registry stations.yaml \
//	  -at "2024-01-01 10:05:00" \
//	  -check
//
// HTML pages are reduced to text first, exactly as the poller does with
// SOURCE_HTML_TEXT=true; pass -html-text=false for a raw text dump.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/couchcryptid/fuel-stock-etl/internal/adapter/source"
	"github.com/couchcryptid/fuel-stock-etl/internal/config"
	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
)

type options struct {
	page      string
	registry  string
	at        string
	timezone  string
	productID int
	htmlText  bool
	check     bool
}

type output struct {
	Located      int                    `json:"located"`
	Skipped      []skippedFragment      `json:"skipped,omitempty"`
	Unregistered []int                  `json:"unregistered,omitempty"`
	Records      []domain.StationRecord `json:"records"`
}

type skippedFragment struct {
	Offset int    `json:"offset"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer, now func() time.Time) error {
	var opts options
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.StringVar(&opts.page, "page", "", "path to a saved source page")
	fs.StringVar(&opts.registry, "registry", "", "station registry YAML (embedded default when empty)")
	fs.StringVar(&opts.at, "at", "", "retrieval time for depleted records, "+domain.MeasuredAtLayout)
	fs.StringVar(&opts.timezone, "tz", "America/La_Paz", "source time zone")
	fs.IntVar(&opts.productID, "product", 134, "product id for depleted records")
	fs.BoolVar(&opts.htmlText, "html-text", true, "reduce the page to its text content before extraction")
	fs.BoolVar(&opts.check, "check", false, "verify record set invariants and fail on violations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if opts.page == "" {
		fs.Usage()
		return fmt.Errorf("missing required flag: -page")
	}

	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}
	retrievedAt := now().In(loc)
	if opts.at != "" {
		retrievedAt, err = time.ParseInLocation(domain.MeasuredAtLayout, opts.at, loc)
		if err != nil {
			return fmt.Errorf("parse -at: %w", err)
		}
	}

	stations, err := config.LoadStations(opts.registry)
	if err != nil {
		return err
	}
	reg, err := domain.NewRegistry(stations)
	if err != nil {
		return err
	}

	page, err := os.ReadFile(opts.page)
	if err != nil {
		return fmt.Errorf("read page: %w", err)
	}

	text := string(page)
	if opts.htmlText {
		text, err = source.HTMLToText(page)
		if err != nil {
			return err
		}
	}

	ex := domain.Extract(text)
	result := domain.Reconcile(ex.Matches, reg, retrievedAt, opts.productID)

	out := output{
		Located:      ex.Located,
		Unregistered: result.Unregistered,
		Records:      result.Records,
	}
	for _, s := range ex.Skipped {
		out.Skipped = append(out.Skipped, skippedFragment{Offset: s.Offset, Field: s.Field, Reason: s.Reason})
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if opts.check {
		if violations := checkRecords(reg, result.Records); len(violations) > 0 {
			for _, v := range violations {
				fmt.Fprintln(os.Stderr, "FAIL:", v)
			}
			return fmt.Errorf("%d invariant violations", len(violations))
		}
	}
	return nil
}

// checkRecords verifies that the record set covers the registry in order and
// that depleted records carry no stock.
func checkRecords(reg *domain.Registry, records []domain.StationRecord) []string {
	var violations []string
	stations := reg.Stations()
	if len(records) != len(stations) {
		violations = append(violations, fmt.Sprintf("expected %d records, got %d", len(stations), len(records)))
		return violations
	}
	for i, rec := range records {
		if rec.StationID != stations[i].ID {
			violations = append(violations, fmt.Sprintf("record %d: station %d out of registry order (want %d)", i, rec.StationID, stations[i].ID))
		}
		switch rec.Status {
		case domain.StatusAvailable:
			if rec.MeasuredAt == "" {
				violations = append(violations, fmt.Sprintf("station %d: available without measured_at", rec.StationID))
			}
		case domain.StatusDepleted:
			if rec.StockLitres != 0 || rec.EstimatedVehicles != 0 || rec.QueueMinutes != 0 {
				violations = append(violations, fmt.Sprintf("station %d: depleted with nonzero stock or estimate", rec.StationID))
			}
		default:
			violations = append(violations, fmt.Sprintf("station %d: unknown status %q", rec.StationID, rec.Status))
		}
		if rec.StockLitresFormatted != domain.FormatLitres(rec.StockLitres) {
			violations = append(violations, fmt.Sprintf("station %d: formatted stock %q does not match %d", rec.StationID, rec.StockLitresFormatted, rec.StockLitres))
		}
	}
	return violations
}
