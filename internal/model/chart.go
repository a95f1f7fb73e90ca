package model

// PlanetPosition is one body's place in the zodiac at the birth moment.
type PlanetPosition struct {
	Name      string  `json:"name"`
	Sign      string  `json:"sign"`
	Degree    float64 `json:"degree"`
	House     int     `json:"house,omitempty"`
	Longitude float64 `json:"longitude"`
}

// HousePosition is a house cusp.
type HousePosition struct {
	House  int     `json:"house"`
	Sign   string  `json:"sign"`
	Degree float64 `json:"degree"`
}

// Aspect is an angular relationship between two bodies.
type Aspect struct {
	Planet1 string  `json:"planet1"`
	Planet2 string  `json:"planet2"`
	Aspect  string  `json:"aspect"`
	Orb     float64 `json:"orb"`
}

// ChartData is the raw calculation output of the ephemeris backend. Downstream
// consumers treat it as opaque beyond field extraction.
type ChartData struct {
	Planets   []PlanetPosition `json:"planets"`
	Houses    []HousePosition  `json:"houses"`
	Aspects   []Aspect         `json:"aspects"`
	Ascendant float64          `json:"ascendant"`
	Midheaven float64          `json:"midheaven"`

	// Extras carries kind-specific derivations (sidereal positions, four
	// pillars, synastry aspects) keyed by a short name.
	Extras map[string]string `json:"extras,omitempty"`
}
