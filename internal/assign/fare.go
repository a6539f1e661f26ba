package assign

import (
	"math"
	"strings"

	"github.com/example/taxi-dispatch/internal/models"
)

// Fare computes the price for a ride. Flat-rate rules are scanned in list
// order and the first match wins; otherwise the fare is
// round(startingFee + km * perKm). The van rate applies when the vehicle is
// a van or the party exceeds four, regardless of which vehicle is actually
// dispatched. Prices never go below zero.
func Fare(pickup, destination string, distanceKm float64, vehicleType models.VehicleType, passengers int, tariff models.Tariff) int {
	vanRate := vehicleType == models.TypeVan || passengers > 4

	for _, rule := range tariff.FlatRates {
		if flatRateMatches(rule, pickup, destination, tariff.Localities) {
			if vanRate {
				return max(rule.Van, 0)
			}
			return max(rule.Car, 0)
		}
	}

	perKm := tariff.PerKmCar
	if vanRate {
		perKm = tariff.PerKmVan
	}
	price := int(math.Round(float64(tariff.StartingFee) + distanceKm*float64(perKm)))
	return max(price, 0)
}

// flatRateMatches ties a rule to the ride text: the rule name must carry a
// locality keyword, and pickup/destination must contain that locality's
// required substrings. Symmetric localities accept either direction.
func flatRateMatches(rule models.FlatRate, pickup, destination string, localities []models.Locality) bool {
	name := strings.ToLower(rule.Name)
	p := strings.ToLower(pickup)
	d := strings.ToLower(destination)

	for _, loc := range localities {
		if !strings.Contains(name, strings.ToLower(loc.Keyword)) {
			continue
		}
		if containsAny(p, loc.Pickup) && containsAny(d, loc.Dest) {
			return true
		}
		if loc.Symmetric && containsAny(p, loc.Dest) && containsAny(d, loc.Pickup) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
