package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/example/taxi-dispatch/internal/models"
)

// LoadTariff reads the tariff table from a YAML file. An empty path returns
// the built-in default tariff.
func LoadTariff(path string) (models.Tariff, error) {
	if path == "" {
		return DefaultTariff(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Tariff{}, fmt.Errorf("read tariff file: %w", err)
	}
	var t models.Tariff
	if err := yaml.Unmarshal(data, &t); err != nil {
		return models.Tariff{}, fmt.Errorf("parse tariff file: %w", err)
	}
	if t.StartingFee < 0 || t.PerKmCar <= 0 || t.PerKmVan <= 0 {
		return models.Tariff{}, fmt.Errorf("tariff file %s: fees must be positive", path)
	}
	return t, nil
}

// DefaultTariff is the table shipped for local runs; production overrides it
// via TARIFF_PATH.
func DefaultTariff() models.Tariff {
	return models.Tariff{
		StartingFee: 800,
		PerKmCar:    400,
		PerKmVan:    550,
		FlatRates: []models.FlatRate{
			{Name: "Airport transfer", Car: 9500, Van: 13000},
			{Name: "Railway station pickup", Car: 3500, Van: 5000},
		},
		Localities: []models.Locality{
			{Keyword: "airport", Pickup: []string{"city", "center", "downtown"}, Dest: []string{"airport", "terminal"}},
			{Keyword: "station", Pickup: []string{"station", "railway"}, Dest: []string{"station", "railway"}, Symmetric: true},
		},
	}
}
