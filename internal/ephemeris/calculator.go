// Package ephemeris implements the built-in deterministic ephemeris backend.
//
// Positions are derived from mean orbital motions referenced to J2000. That
// is nowhere near observatory accuracy, but it is fully deterministic for a
// given birth moment, which is the contract the generation pipeline depends
// on. A higher-fidelity backend can replace this one behind
// interfaces.Calculator without touching the pipeline.
package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/astralhq/astral/internal/model"
)

// Config controls calculation details.
type Config struct {
	// AspectOrb is the maximum deviation in degrees for an aspect to register.
	AspectOrb float64 `json:"aspect_orb,omitempty"`

	// Ayanamsa is the sidereal offset in degrees applied for vedic charts.
	Ayanamsa float64 `json:"ayanamsa,omitempty"`
}

// DefaultConfig returns sensible calculation defaults (Lahiri-style ayanamsa).
func DefaultConfig() Config {
	return Config{
		AspectOrb: 6.0,
		Ayanamsa:  24.1,
	}
}

// Calculator implements interfaces.Calculator.
type Calculator struct {
	cfg Config
}

// New creates a Calculator. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Calculator {
	def := DefaultConfig()
	if cfg.AspectOrb <= 0 {
		cfg.AspectOrb = def.AspectOrb
	}
	if cfg.Ayanamsa <= 0 {
		cfg.Ayanamsa = def.Ayanamsa
	}
	return &Calculator{cfg: cfg}
}

var zodiacSigns = []string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// body holds mean longitude at J2000 and mean daily motion in degrees.
type body struct {
	name string
	l0   float64
	rate float64
}

var bodies = []body{
	{"Sun", 280.460, 0.9856474},
	{"Moon", 218.316, 13.176396},
	{"Mercury", 252.251, 4.092339},
	{"Venus", 181.980, 1.602130},
	{"Mars", 355.433, 0.524039},
	{"Jupiter", 34.351, 0.083056},
	{"Saturn", 50.077, 0.033371},
	{"Uranus", 314.055, 0.011698},
	{"Neptune", 304.348, 0.005965},
	{"Pluto", 238.958, 0.003964},
}

// aspectAngles in tightest-first order so conjunctions win ties.
var aspectAngles = []struct {
	name  string
	angle float64
}{
	{"conjunction", 0},
	{"sextile", 60},
	{"square", 90},
	{"trine", 120},
	{"opposition", 180},
}

// ComputePositions derives the chart for the subject's birth moment.
func (c *Calculator) ComputePositions(ctx context.Context, subject model.BirthSubject) (*model.ChartData, error) {
	moment, err := subject.BirthMoment()
	if err != nil {
		return nil, err
	}
	return c.ComputePositionsAt(ctx, subject, moment)
}

// ComputePositionsAt derives a chart for an arbitrary moment at the subject's
// location. Used for transit charts.
func (c *Calculator) ComputePositionsAt(ctx context.Context, subject model.BirthSubject, at time.Time) (*model.ChartData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d := daysSinceJ2000(at)

	// Local sidereal time fixes the ascendant and midheaven.
	lst := normalizeDegrees(280.46061837 + 360.98564736629*d + subject.Location.Longitude)
	ascendant := normalizeDegrees(lst + 90)
	midheaven := lst

	chart := &model.ChartData{
		Ascendant: ascendant,
		Midheaven: midheaven,
	}

	for _, b := range bodies {
		lon := normalizeDegrees(b.l0 + b.rate*d)
		chart.Planets = append(chart.Planets, model.PlanetPosition{
			Name:      b.name,
			Sign:      SignFor(lon),
			Degree:    math.Mod(lon, 30),
			House:     houseFor(lon, ascendant),
			Longitude: lon,
		})
	}

	// Equal houses from the ascendant.
	for i := 0; i < 12; i++ {
		cusp := normalizeDegrees(ascendant + float64(i)*30)
		chart.Houses = append(chart.Houses, model.HousePosition{
			House:  i + 1,
			Sign:   SignFor(cusp),
			Degree: math.Mod(cusp, 30),
		})
	}

	chart.Aspects = AspectsBetween(chart.Planets, chart.Planets, c.cfg.AspectOrb, true)
	return chart, nil
}

// Close implements interfaces.Calculator; the built-in backend holds no
// resources.
func (c *Calculator) Close() error { return nil }

// AspectsBetween finds angular relationships between two planet sets. When
// sameChart is true only the upper triangle is examined so each pair is
// reported once.
func AspectsBetween(a, b []model.PlanetPosition, orb float64, sameChart bool) []model.Aspect {
	var out []model.Aspect
	for i, p1 := range a {
		for j, p2 := range b {
			if sameChart && j <= i {
				continue
			}
			sep := angularSeparation(p1.Longitude, p2.Longitude)
			for _, asp := range aspectAngles {
				if d := math.Abs(sep - asp.angle); d <= orb {
					out = append(out, model.Aspect{
						Planet1: p1.Name,
						Planet2: p2.Name,
						Aspect:  asp.name,
						Orb:     roundOrb(d),
					})
					break
				}
			}
		}
	}
	return out
}

// SignFor maps an ecliptic longitude to its zodiac sign.
func SignFor(longitude float64) string {
	idx := int(normalizeDegrees(longitude) / 30)
	if idx > 11 {
		idx = 11
	}
	return zodiacSigns[idx]
}

func houseFor(longitude, ascendant float64) int {
	return int(normalizeDegrees(longitude-ascendant)/30) + 1
}

func angularSeparation(a, b float64) float64 {
	sep := math.Abs(normalizeDegrees(a) - normalizeDegrees(b))
	if sep > 180 {
		sep = 360 - sep
	}
	return sep
}

func normalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func roundOrb(d float64) float64 {
	return math.Round(d*100) / 100
}

// daysSinceJ2000 converts an instant to fractional days since the J2000 epoch.
func daysSinceJ2000(t time.Time) float64 {
	j2000 := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	return t.UTC().Sub(j2000).Hours() / 24
}

// FormatDegree renders a longitude as sign + in-sign degree, e.g.
// "17.42° Gemini".
func FormatDegree(longitude float64) string {
	lon := normalizeDegrees(longitude)
	return fmt.Sprintf("%.2f° %s", math.Mod(lon, 30), SignFor(lon))
}
