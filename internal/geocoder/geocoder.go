package geocoder

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"

	apperrors "github.com/rajasatyajit/QuakeAlert/internal/errors"
)

//go:embed cities.csv
var citiesCSV []byte

// Place is the result of a reverse lookup: the nearest known populated
// place and its ISO 3166-1 alpha-2 country code.
type Place struct {
	Name        string
	CountryCode string
}

type city struct {
	name    string
	country string
	lat     float64
	lon     float64
}

// Geocoder resolves coordinates to the nearest known place. The reference
// set ships with the binary, so lookups never touch the network.
type Geocoder struct {
	cities []city
}

// New creates a geocoder from the embedded reference dataset
func New() (*Geocoder, error) {
	cities, err := parseCities(citiesCSV)
	if err != nil {
		return nil, fmt.Errorf("load city dataset: %w", err)
	}
	if len(cities) == 0 {
		return nil, fmt.Errorf("load city dataset: %w", apperrors.ErrNoData)
	}
	return &Geocoder{cities: cities}, nil
}

// Nearest returns the closest place to the given coordinates
func (g *Geocoder) Nearest(lat, lon float64) (Place, error) {
	if len(g.cities) == 0 {
		return Place{}, apperrors.ErrNoData
	}

	best := g.cities[0]
	bestDist := haversineKm(lat, lon, best.lat, best.lon)
	for _, c := range g.cities[1:] {
		if d := haversineKm(lat, lon, c.lat, c.lon); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return Place{Name: best.name, CountryCode: best.country}, nil
}

// Size returns the number of reference places loaded
func (g *Geocoder) Size() int {
	return len(g.cities)
}

func parseCities(data []byte) ([]city, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = 4

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	cities := make([]city, 0, len(records))
	for i, rec := range records {
		if i == 0 {
			// header row
			continue
		}
		lat, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad latitude %q: %w", i+1, rec[2], err)
		}
		lon, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad longitude %q: %w", i+1, rec[3], err)
		}
		cities = append(cities, city{name: rec[0], country: rec[1], lat: lat, lon: lon})
	}
	return cities, nil
}

// haversineKm returns the great-circle distance between two points
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	toRad := func(d float64) float64 { return d * (math.Pi / 180) }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := (math.Sin(dLat/2) * math.Sin(dLat/2)) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*(math.Sin(dLon/2)*math.Sin(dLon/2))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
