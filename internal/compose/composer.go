// Package compose synthesizes report content (a summary plus named sections)
// from calculated chart data. Section sets are kind-specific; the detail
// level controls how many sections are produced.
package compose

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/astralhq/astral/internal/ephemeris"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
)

// Composer builds report content for every supported kind.
type Composer struct {
	logger logging.Logger
}

// New creates a Composer.
func New(logger logging.Logger) *Composer {
	return &Composer{logger: logger}
}

// Input is everything one composition needs.
type Input struct {
	Kind    model.ReportKind
	Subject model.BirthSubject
	Partner *model.BirthSubject
	Chart   *model.ChartData
	// PartnerChart is set for compatibility reports.
	PartnerChart *model.ChartData
	// TransitChart is set for transit reports.
	TransitChart *model.ChartData
	Detail       model.DetailLevel
}

// Compose returns the summary string and named section map for the input.
func (c *Composer) Compose(in Input) (string, map[string]string, error) {
	if in.Chart == nil {
		return "", nil, fmt.Errorf("compose: chart data is required")
	}
	// The western, hellenistic and vedic compositions read the luminaries
	// directly; a chart without them is a calculator defect, not a panic.
	switch in.Kind {
	case model.KindWestern, model.KindHellenistic:
		if planetByName(in.Chart, "Sun") == nil || planetByName(in.Chart, "Moon") == nil {
			return "", nil, fmt.Errorf("compose: chart is missing Sun or Moon positions")
		}
	case model.KindVedic:
		if planetByName(in.Chart, "Moon") == nil {
			return "", nil, fmt.Errorf("compose: chart is missing the Moon position")
		}
	}

	sections := map[string]string{}
	var summary string

	switch in.Kind {
	case model.KindWestern, model.KindHellenistic:
		summary = c.westernSummary(in)
		sections["planets"] = planetsSection(in.Chart)
		sections["houses"] = housesSection(in.Chart)
		sections["aspects"] = aspectsSection(in.Chart.Aspects)
		if in.Kind == model.KindHellenistic {
			sections["sect"] = sectSection(in.Chart)
		}
		if in.Detail != model.DetailBasic {
			sections["elements"] = elementsSection(in.Chart)
		}
		if in.Detail == model.DetailComprehensive {
			sections["angles"] = anglesSection(in.Chart)
		}

	case model.KindVedic:
		summary = c.vedicSummary(in)
		sections["planets"] = planetsSection(in.Chart)
		sections["nakshatras"] = nakshatrasSection(in.Chart)
		if in.Detail != model.DetailBasic {
			sections["dashas"] = dashasSection(in.Subject, in.Chart)
		}
		if in.Detail == model.DetailComprehensive {
			sections["yogas"] = yogasSection(in.Chart)
		}

	case model.KindChinese:
		summary = c.chineseSummary(in)
		sections["four_pillars"] = in.Chart.Extras["four_pillars"]
		sections["elements"] = chineseElementsSection(in.Chart)
		if in.Detail != model.DetailBasic {
			sections["animals"] = animalsSection(in.Chart)
		}

	case model.KindTransit:
		if in.TransitChart == nil {
			return "", nil, fmt.Errorf("compose: transit chart is required for kind %s", in.Kind)
		}
		summary = c.transitSummary(in)
		sections["natal_positions"] = planetsSection(in.Chart)
		sections["transit_positions"] = planetsSection(in.TransitChart)
		sections["active_aspects"] = aspectsSection(
			ephemeris.AspectsBetween(in.TransitChart.Planets, in.Chart.Planets, 3, false))

	case model.KindCompatibility:
		if in.Partner == nil || in.PartnerChart == nil {
			return "", nil, fmt.Errorf("compose: partner chart is required for kind %s", in.Kind)
		}
		summary = c.compatibilitySummary(in)
		sections["synastry"] = aspectsSection(
			ephemeris.AspectsBetween(in.Chart.Planets, in.PartnerChart.Planets, 4, false))
		sections["first_chart"] = planetsSection(in.Chart)
		sections["second_chart"] = planetsSection(in.PartnerChart)
		if in.Detail != model.DetailBasic {
			sections["composite"] = compositeSection(in.Chart, in.PartnerChart)
		}

	default:
		return "", nil, fmt.Errorf("compose: unsupported kind %q", in.Kind)
	}

	if c.logger != nil {
		c.logger.Debug("composed report content",
			logging.Field{Key: "kind", Value: string(in.Kind)},
			logging.Field{Key: "sections", Value: len(sections)})
	}
	return summary, sections, nil
}

func planetByName(chart *model.ChartData, name string) *model.PlanetPosition {
	for i := range chart.Planets {
		if chart.Planets[i].Name == name {
			return &chart.Planets[i]
		}
	}
	return nil
}

func (c *Composer) westernSummary(in Input) string {
	sun := planetByName(in.Chart, "Sun")
	moon := planetByName(in.Chart, "Moon")
	asc := ephemeris.SignFor(in.Chart.Ascendant)
	return fmt.Sprintf("%s has Sun in %s, Moon in %s and %s rising, with %d notable aspects in the natal chart.",
		in.Subject.Label(), sun.Sign, moon.Sign, asc, len(in.Chart.Aspects))
}

func (c *Composer) vedicSummary(in Input) string {
	moon := planetByName(in.Chart, "Moon")
	return fmt.Sprintf("In the sidereal zodiac %s has Moon in %s within the %s nakshatra.",
		in.Subject.Label(), moon.Sign, ephemeris.NakshatraFor(moon.Longitude))
}

func (c *Composer) chineseSummary(in Input) string {
	return fmt.Sprintf("%s was born under the pillars %s.",
		in.Subject.Label(), in.Chart.Extras["four_pillars"])
}

func (c *Composer) transitSummary(in Input) string {
	active := ephemeris.AspectsBetween(in.TransitChart.Planets, in.Chart.Planets, 3, false)
	return fmt.Sprintf("Current transits form %d active aspects to %s's natal chart.",
		len(active), in.Subject.Label())
}

func (c *Composer) compatibilitySummary(in Input) string {
	synastry := ephemeris.AspectsBetween(in.Chart.Planets, in.PartnerChart.Planets, 4, false)
	return fmt.Sprintf("The synastry between %s and %s shows %d cross-chart aspects.",
		in.Subject.Label(), in.Partner.Label(), len(synastry))
}

func planetsSection(chart *model.ChartData) string {
	lines := make([]string, 0, len(chart.Planets))
	for _, p := range chart.Planets {
		lines = append(lines, fmt.Sprintf("%s at %.2f° %s in house %d", p.Name, p.Degree, p.Sign, p.House))
	}
	return strings.Join(lines, "\n")
}

func housesSection(chart *model.ChartData) string {
	lines := make([]string, 0, len(chart.Houses))
	for _, h := range chart.Houses {
		lines = append(lines, fmt.Sprintf("House %d begins at %.2f° %s", h.House, h.Degree, h.Sign))
	}
	return strings.Join(lines, "\n")
}

func aspectsSection(aspects []model.Aspect) string {
	if len(aspects) == 0 {
		return "No aspects within orb."
	}
	lines := make([]string, 0, len(aspects))
	for _, a := range aspects {
		lines = append(lines, fmt.Sprintf("%s %s %s (orb %.2f°)", a.Planet1, a.Aspect, a.Planet2, a.Orb))
	}
	return strings.Join(lines, "\n")
}

func anglesSection(chart *model.ChartData) string {
	return fmt.Sprintf("Ascendant %s\nMidheaven %s",
		ephemeris.FormatDegree(chart.Ascendant), ephemeris.FormatDegree(chart.Midheaven))
}

var signElements = map[string]string{
	"Aries": "fire", "Leo": "fire", "Sagittarius": "fire",
	"Taurus": "earth", "Virgo": "earth", "Capricorn": "earth",
	"Gemini": "air", "Libra": "air", "Aquarius": "air",
	"Cancer": "water", "Scorpio": "water", "Pisces": "water",
}

func elementsSection(chart *model.ChartData) string {
	counts := map[string]int{}
	for _, p := range chart.Planets {
		counts[signElements[p.Sign]]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return "Element distribution: " + strings.Join(parts, ", ")
}

func sectSection(chart *model.ChartData) string {
	sun := planetByName(chart, "Sun")
	// Day chart when the Sun sits in houses 7 through 12 (above the horizon
	// under equal houses from the ascendant).
	if sun.House >= 7 {
		return "Day chart: the Sun is above the horizon; Jupiter is the benefic of sect."
	}
	return "Night chart: the Sun is below the horizon; Venus is the benefic of sect."
}

func nakshatrasSection(chart *model.ChartData) string {
	lines := make([]string, 0, len(chart.Planets))
	for _, p := range chart.Planets {
		lines = append(lines, fmt.Sprintf("%s in %s", p.Name, ephemeris.NakshatraFor(p.Longitude)))
	}
	return strings.Join(lines, "\n")
}

var dashaLords = []string{"Ketu", "Venus", "Sun", "Moon", "Mars", "Rahu", "Jupiter", "Saturn", "Mercury"}
var dashaYears = []int{7, 20, 6, 10, 7, 18, 16, 19, 17}

func dashasSection(subject model.BirthSubject, chart *model.ChartData) string {
	moon := planetByName(chart, "Moon")
	// The starting dasha lord follows the Moon's nakshatra.
	start := int(moon.Longitude/(360.0/27.0)) % 9

	moment, err := subject.BirthMoment()
	if err != nil {
		moment = time.Time{}
	}
	lines := make([]string, 0, 4)
	year := moment.Year()
	for i := 0; i < 4; i++ {
		lord := dashaLords[(start+i)%9]
		span := dashaYears[(start+i)%9]
		lines = append(lines, fmt.Sprintf("%s dasha: %d – %d", lord, year, year+span))
		year += span
	}
	return strings.Join(lines, "\n")
}

func yogasSection(chart *model.ChartData) string {
	var yogas []string
	for _, a := range chart.Aspects {
		if a.Aspect == "conjunction" {
			switch {
			case pairIs(a, "Moon", "Jupiter"):
				yogas = append(yogas, "Gaja Kesari yoga (Moon conjunct Jupiter)")
			case pairIs(a, "Sun", "Mercury"):
				yogas = append(yogas, "Budha Aditya yoga (Sun conjunct Mercury)")
			}
		}
	}
	if len(yogas) == 0 {
		return "No classical yogas formed by conjunction."
	}
	return strings.Join(yogas, "\n")
}

func pairIs(a model.Aspect, p1, p2 string) bool {
	return (a.Planet1 == p1 && a.Planet2 == p2) || (a.Planet1 == p2 && a.Planet2 == p1)
}

var branchElements = map[string]string{
	"Zi": "water", "Chou": "earth", "Yin": "wood", "Mao": "wood",
	"Chen": "earth", "Si": "fire", "Wu": "fire", "Wei": "earth",
	"Shen": "metal", "You": "metal", "Xu": "earth", "Hai": "water",
}

func chineseElementsSection(chart *model.ChartData) string {
	counts := map[string]int{}
	for _, part := range strings.Split(chart.Extras["four_pillars"], "; ") {
		// Each pillar serializes as "Stem-Branch (Animal)".
		if dash := strings.Index(part, "-"); dash >= 0 {
			branch := part[dash+1:]
			if sp := strings.Index(branch, " "); sp >= 0 {
				branch = branch[:sp]
			}
			counts[branchElements[branch]]++
		}
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return "Branch elements: " + strings.Join(parts, ", ")
}

func animalsSection(chart *model.ChartData) string {
	var animals []string
	for _, part := range strings.Split(chart.Extras["four_pillars"], "; ") {
		if open := strings.Index(part, "("); open >= 0 {
			animals = append(animals, strings.TrimSuffix(part[open+1:], ")"))
		}
	}
	return "Pillar animals: " + strings.Join(animals, ", ")
}

func compositeSection(a, b *model.ChartData) string {
	lines := make([]string, 0, len(a.Planets))
	for i, p := range a.Planets {
		if i >= len(b.Planets) {
			break
		}
		mid := midpoint(p.Longitude, b.Planets[i].Longitude)
		lines = append(lines, fmt.Sprintf("Composite %s at %s", p.Name, ephemeris.FormatDegree(mid)))
	}
	return strings.Join(lines, "\n")
}

func midpoint(a, b float64) float64 {
	diff := b - a
	for diff > 180 {
		diff -= 360
	}
	for diff < -180 {
		diff += 360
	}
	mid := a + diff/2
	for mid < 0 {
		mid += 360
	}
	for mid >= 360 {
		mid -= 360
	}
	return mid
}
