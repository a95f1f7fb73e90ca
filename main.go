package main

import (
	"context"
	"fmt"
	"os"

	"github.com/astralhq/astral/internal/app"
	"github.com/astralhq/astral/internal/cli"
	"github.com/astralhq/astral/internal/compare"
	"github.com/astralhq/astral/internal/generator"
	"github.com/astralhq/astral/internal/logging"
	"github.com/astralhq/astral/internal/model"
)

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Println(`Usage: astral -date 1990-03-15 -time 14:20 -lat 52.52 -lon 13.405 [-tz Europe/Berlin] [-kind western] [-detail detailed] [-pdf]`)
		os.Exit(1)
	}

	cfg := app.DefaultConfig()
	cfg.DatabasePath = "" // in-process run, no persistence
	cfg.EnablePDF = args.PDF

	application, err := app.NewApplication(cfg, logging.NewStdoutLogger("CLI"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer application.Shutdown(context.Background())

	req := generator.Request{
		Subject: model.BirthSubject{
			Date: args.Date,
			Time: args.Time,
			Location: model.Location{
				Name:      args.Name,
				Latitude:  args.Lat,
				Longitude: args.Lon,
				Timezone:  args.Timezone,
			},
			DisplayName: args.Name,
		},
		Kind: model.ReportKind(args.Kind),
		Config: model.GenerationConfig{
			DetailLevel: model.DetailLevel(args.Detail),
			IncludePDF:  args.PDF,
			Theme:       "classic",
			Format:      "html",
		},
	}

	report, err := application.Orch.Generate(context.Background(), req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s report %s\n\n", report.Kind, report.Fingerprint)
	fmt.Println(report.Summary)
	fmt.Printf("\n%d sections, %d words\n", report.Metadata.SectionCount, report.Metadata.WordCount)

	// Show how a different detail level reads against this one.
	other := req
	other.Config.DetailLevel = model.DetailBasic
	if other.Config.DetailLevel == req.Config.DetailLevel {
		other.Config.DetailLevel = model.DetailComprehensive
	}
	otherReport, err := application.Orch.Generate(context.Background(), other)
	if err != nil {
		return
	}
	result, err := application.Orch.Compare(
		[]*model.GeneratedReport{report, otherReport}, model.ComparisonSettings{})
	if err != nil {
		return
	}
	out, err := application.Orch.ExportComparison(result, model.ComparisonSettings{}, compare.FormatText)
	if err != nil {
		return
	}
	fmt.Printf("\nAgainst the %s rendition:\n\n%s", other.Config.DetailLevel, out)
}
