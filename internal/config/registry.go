package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed stations.yaml
var defaultStations []byte

type registryFile struct {
	Stations []domain.StationMeta `yaml:"stations"`
}

// LoadStations reads the station table from path, or the embedded default
// table when path is empty. Entries keep their file order.
func LoadStations(path string) ([]domain.StationMeta, error) {
	data := defaultStations
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read registry file: %w", err)
		}
		data = b
	}
	return parseStations(data)
}

func parseStations(data []byte) ([]domain.StationMeta, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(f.Stations) == 0 {
		return nil, fmt.Errorf("parse registry: no stations defined")
	}
	return f.Stations, nil
}
