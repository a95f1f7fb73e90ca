package cli_test

import (
	"testing"

	"github.com/astralhq/astral/internal/cli"
)

func TestParseArgs(t *testing.T) {
	args, err := cli.ParseArgs([]string{
		"-date", "1990-03-15", "-time", "14:20",
		"-lat", "52.52", "-lon", "13.405", "-tz", "Europe/Berlin",
		"-kind", "vedic", "-detail", "comprehensive",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Date != "1990-03-15" || args.Time != "14:20" {
		t.Fatalf("birth moment = %s %s", args.Date, args.Time)
	}
	if args.Kind != "vedic" || args.Detail != "comprehensive" {
		t.Fatalf("kind/detail = %s/%s", args.Kind, args.Detail)
	}
	if args.Lat != 52.52 || args.Lon != 13.405 {
		t.Fatalf("coords = %f,%f", args.Lat, args.Lon)
	}
}

func TestParseArgsDefaults(t *testing.T) {
	args, err := cli.ParseArgs([]string{
		"-date", "1990-03-15", "-time", "14:20", "-lat", "52.52", "-lon", "13.405",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if args.Kind != "western" || args.Detail != "detailed" || args.Timezone != "UTC" {
		t.Fatalf("defaults = %s/%s/%s", args.Kind, args.Detail, args.Timezone)
	}
	if args.PDF {
		t.Fatal("pdf should default to false")
	}
}

func TestParseArgsMissingRequired(t *testing.T) {
	cases := [][]string{
		{"-time", "14:20", "-lat", "52.52", "-lon", "13.405"},
		{"-date", "1990-03-15", "-lat", "52.52", "-lon", "13.405"},
		{"-date", "1990-03-15", "-time", "14:20"},
	}
	for _, args := range cases {
		if _, err := cli.ParseArgs(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}
