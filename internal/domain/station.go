package domain

// Status values for StationRecord.Status.
const (
	StatusAvailable = "available"
	StatusDepleted  = "depleted"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// StationMeta is the static description of a station held by the Registry.
type StationMeta struct {
	ID           int    `json:"id" yaml:"id"`
	DisplayName  string `json:"display_name" yaml:"name"`
	LocationText string `json:"location_text" yaml:"location"`
	Coordinates  Geo    `json:"coordinates" yaml:"coordinates"`
}

// RawFragment is one var_dump array located in the source text.
type RawFragment struct {
	Text   string // normalized to a single line
	Offset int    // byte offset of the fragment start in the source text
	Bound  int    // offset of the next fragment header, or the text length
}

// ParsedFields holds the mandatory fields read from a fragment.
type ParsedFields struct {
	StationID   int
	ProductID   int
	MeasuredAt  string
	StockLitres int
}

// Estimate holds the best-effort values read from the prose near a fragment.
type Estimate struct {
	Vehicles     float64
	QueueMinutes int
}

// Match is a successfully parsed fragment plus its contextual estimate.
type Match struct {
	ParsedFields
	Estimate
	Offset int
}

// StationRecord is the reconciled per-station output of one cycle.
type StationRecord struct {
	StationID            int     `json:"station_id"`
	DisplayName          string  `json:"display_name"`
	LocationText         string  `json:"location_text"`
	Coordinates          Geo     `json:"coordinates"`
	ProductID            int     `json:"product_id"`
	StockLitres          int     `json:"stock_litres"`
	StockLitresFormatted string  `json:"stock_litres_formatted"`
	MeasuredAt           string  `json:"measured_at"`
	EstimatedVehicles    float64 `json:"estimated_vehicles"`
	QueueMinutes         int     `json:"queue_minutes"`
	Status               string  `json:"status"`
}
