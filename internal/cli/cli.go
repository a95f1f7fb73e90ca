package cli

import (
	"flag"
	"fmt"
	"strings"
)

// CLIArgs are the command-line arguments describing a single report run.
// Keep this small for now — add fields as modules need them.
type CLIArgs struct {
	// Subject birth data.
	Date     string
	Time     string
	Lat      float64
	Lon      float64
	Timezone string
	Name     string

	// Kind selects the report system (western, vedic, chinese, ...).
	Kind string

	// Detail selects the verbosity level (basic, detailed, comprehensive).
	Detail string

	// PDF requests a PDF artifact alongside the HTML output.
	PDF bool

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args and returns CLIArgs. Use in tests by passing
// arbitrary slices. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	fs := flag.NewFlagSet("astral-cli", flag.ContinueOnError)
	var (
		date     = fs.String("date", "", "Birth date as YYYY-MM-DD (required)")
		timeArg  = fs.String("time", "", "Birth time as HH:MM (required)")
		lat      = fs.Float64("lat", 0, "Birth latitude in decimal degrees (required)")
		lon      = fs.Float64("lon", 0, "Birth longitude in decimal degrees (required)")
		timezone = fs.String("tz", "UTC", "IANA timezone of the birth location")
		name     = fs.String("name", "", "Display name for the subject")
		kind     = fs.String("kind", "western", "Report kind: western|vedic|chinese|hellenistic|transit|compatibility")
		detail   = fs.String("detail", "detailed", "Detail level: basic|detailed|comprehensive")
		pdf      = fs.Bool("pdf", false, "Also render a PDF artifact")
	)

	// Ensure Parse doesn't write to stdout/stderr in tests
	fs.SetOutput(nil)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if strings.TrimSpace(*date) == "" {
		return nil, fmt.Errorf("missing required -date argument")
	}
	if strings.TrimSpace(*timeArg) == "" {
		return nil, fmt.Errorf("missing required -time argument")
	}
	if *lat == 0 && *lon == 0 {
		return nil, fmt.Errorf("missing required -lat/-lon arguments")
	}

	return &CLIArgs{
		Date:     *date,
		Time:     *timeArg,
		Lat:      *lat,
		Lon:      *lon,
		Timezone: *timezone,
		Name:     *name,
		Kind:     *kind,
		Detail:   *detail,
		PDF:      *pdf,
		RawArgs:  args,
	}, nil
}
