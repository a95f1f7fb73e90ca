package ephemeris

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/astralhq/astral/internal/model"
)

// Kind-specific post-processing applied after the base chart calculation.

// ApplySidereal shifts all positions by the ayanamsa and recomputes signs.
// The input chart is not modified.
func ApplySidereal(chart *model.ChartData, ayanamsa float64) *model.ChartData {
	out := &model.ChartData{
		Ascendant: normalizeDegrees(chart.Ascendant - ayanamsa),
		Midheaven: normalizeDegrees(chart.Midheaven - ayanamsa),
		Aspects:   chart.Aspects, // angular separations are offset-invariant
		Extras:    map[string]string{"zodiac": "sidereal"},
	}
	for _, p := range chart.Planets {
		lon := normalizeDegrees(p.Longitude - ayanamsa)
		out.Planets = append(out.Planets, model.PlanetPosition{
			Name:      p.Name,
			Sign:      SignFor(lon),
			Degree:    math.Mod(lon, 30),
			House:     houseFor(lon, out.Ascendant),
			Longitude: lon,
		})
	}
	for i, h := range chart.Houses {
		cusp := normalizeDegrees(out.Ascendant + float64(i)*30)
		out.Houses = append(out.Houses, model.HousePosition{
			House:  h.House,
			Sign:   SignFor(cusp),
			Degree: math.Mod(cusp, 30),
		})
	}
	return out
}

var nakshatras = []string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni",
	"Uttara Phalguni", "Hasta", "Chitra", "Swati", "Vishakha", "Anuradha",
	"Jyeshtha", "Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana",
	"Dhanishta", "Shatabhisha", "Purva Bhadrapada", "Uttara Bhadrapada",
	"Revati",
}

// NakshatraFor maps a sidereal longitude to one of the 27 lunar mansions,
// each spanning 13°20'.
func NakshatraFor(longitude float64) string {
	idx := int(normalizeDegrees(longitude) / (360.0 / 27.0))
	if idx > 26 {
		idx = 26
	}
	return nakshatras[idx]
}

var (
	heavenlyStems = []string{
		"Jia", "Yi", "Bing", "Ding", "Wu", "Ji", "Geng", "Xin", "Ren", "Gui",
	}
	earthlyBranches = []string{
		"Zi", "Chou", "Yin", "Mao", "Chen", "Si",
		"Wu", "Wei", "Shen", "You", "Xu", "Hai",
	}
	zodiacAnimals = []string{
		"Rat", "Ox", "Tiger", "Rabbit", "Dragon", "Snake",
		"Horse", "Goat", "Monkey", "Rooster", "Dog", "Pig",
	}
)

// Pillar is one stem/branch pair of the sexagenary cycle.
type Pillar struct {
	Stem   string `json:"stem"`
	Branch string `json:"branch"`
	Animal string `json:"animal"`
}

func (p Pillar) String() string {
	return fmt.Sprintf("%s-%s (%s)", p.Stem, p.Branch, p.Animal)
}

// FourPillars derives the year, month, day and hour pillars for a birth
// moment using the simplified sexagenary arithmetic (true solar terms are not
// consulted).
func FourPillars(moment time.Time) [4]Pillar {
	moment = moment.UTC()
	year := moment.Year()

	yearStem := mod(year-4, 10)
	yearBranch := mod(year-4, 12)

	monthBranch := mod(int(moment.Month())+1, 12)
	monthStem := mod(yearStem*2+int(moment.Month()), 10)

	// Day pillar cycles with the julian day number.
	jdn := int(math.Floor(daysSinceJ2000(moment))) + 2451545
	dayStem := mod(jdn+49, 10)
	dayBranch := mod(jdn+1, 12)

	hourBranch := mod((moment.Hour()+1)/2, 12)
	hourStem := mod(dayStem*2+hourBranch, 10)

	mk := func(stem, branch int) Pillar {
		return Pillar{
			Stem:   heavenlyStems[stem],
			Branch: earthlyBranches[branch],
			Animal: zodiacAnimals[branch],
		}
	}
	return [4]Pillar{
		mk(yearStem, yearBranch),
		mk(monthStem, monthBranch),
		mk(dayStem, dayBranch),
		mk(hourStem, hourBranch),
	}
}

// FormatPillars joins four pillars into the serialized extras form.
func FormatPillars(pillars [4]Pillar) string {
	parts := make([]string, 0, 4)
	for _, p := range pillars {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, "; ")
}

func mod(n, m int) int {
	r := n % m
	if r < 0 {
		r += m
	}
	return r
}
