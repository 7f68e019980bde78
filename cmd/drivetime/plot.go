package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"drivetime/internal/api"
	"drivetime/internal/core"
	"drivetime/internal/logging"
	"drivetime/internal/maps"
	"drivetime/internal/progress"
	"drivetime/internal/render"
)

var (
	plotOrigin   string
	plotDest     string
	plotDate     string
	plotStart    string
	plotEnd      string
	plotInterval int
	plotTZ       string
	plotColor    bool
	plotSaveMap  string
	plotYes      bool
	plotQuiet    bool
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Fetch travel times across a window and plot them",
	RunE:  runPlot,
}

func init() {
	plotCmd.Flags().StringVar(&plotOrigin, "origin", "", "origin (text or 'lat,lng')")
	plotCmd.Flags().StringVar(&plotDest, "destination", "", "destination (text or 'lat,lng')")
	plotCmd.Flags().StringVar(&plotDate, "date", "", "date YYYY-MM-DD")
	plotCmd.Flags().StringVar(&plotStart, "start", "", "window start HH:MM")
	plotCmd.Flags().StringVar(&plotEnd, "end", "", "window end HH:MM")
	plotCmd.Flags().IntVar(&plotInterval, "interval", 0, "minutes between samples")
	plotCmd.Flags().StringVar(&plotTZ, "tz", "", "timezone of the window")
	plotCmd.Flags().BoolVar(&plotColor, "color", false, "render with ANSI colors")
	plotCmd.Flags().StringVar(&plotSaveMap, "save-map", "", "save a static map PNG to this path")
	plotCmd.Flags().BoolVar(&plotYes, "yes", false, "skip the confirmation prompt")
	plotCmd.Flags().BoolVar(&plotQuiet, "quiet", false, "suppress progress output")
	for _, name := range []string{"origin", "destination", "date", "start", "end"} {
		_ = plotCmd.MarkFlagRequired(name)
	}
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if plotInterval == 0 {
		plotInterval = cfg.Query.IntervalMinutes
	}
	if plotTZ == "" {
		plotTZ = cfg.Query.Timezone
	}

	log := logging.New(verbose)
	ctx := logging.NewContext(cmd.Context(), log)

	client, err := maps.NewClient(maps.ClientConfig{Key: cfg.API.Key, QPS: cfg.API.QPS})
	if err != nil {
		return err
	}

	origin, err := resolvePlace(ctx, client, "Origin", plotOrigin)
	if err != nil {
		return err
	}
	dest, err := resolvePlace(ctx, client, "Destination", plotDest)
	if err != nil {
		return err
	}

	if !plotYes {
		prompt := fmt.Sprintf("Proceed with\n  ORIGIN: %s (%s)\n  DEST:   %s (%s)",
			origin.FormattedAddress, origin.Location, dest.FormattedAddress, dest.Location)
		if !confirm(prompt) {
			fmt.Println("Okay. Re-run with --origin/--destination set to lat,lng directly.")
			return nil
		}
	}

	if plotSaveMap != "" {
		url := client.StaticMapURL(origin.Location, dest.Location)
		if err := client.SaveStaticMap(ctx, url, plotSaveMap); err != nil {
			return err
		}
		fmt.Printf("Saved static map to %s\n", plotSaveMap)
	}

	svc := api.NewService(client, cfg.Fetch)
	req := api.SeriesRequest{
		Origin:          origin.Location,
		Destination:     dest.Location,
		Date:            plotDate,
		Start:           plotStart,
		End:             plotEnd,
		IntervalMinutes: plotInterval,
		Timezone:        plotTZ,
	}

	// 2 tasks per grid point; the count is only for the progress bar,
	// so estimate it from the window without a second grid build.
	prog := progress.NewProgress(estimateTasks(plotStart, plotEnd, plotInterval), plotQuiet)
	prog.Start()
	resp, err := svc.Series(ctx, req, prog)
	prog.Stop()
	if err != nil {
		return err
	}

	mode := cfg.Render.Mode
	if plotColor {
		mode = "color"
	}
	renderer, err := render.New(mode)
	if err != nil {
		return err
	}
	if err := renderer.Render(os.Stdout, resp.Series); err != nil {
		return err
	}

	cov := resp.Coverage
	if cov.Unresolved > 0 || cov.PermanentFailures > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d of %d queries produced no data (%d rounds used)\n",
			cov.Unresolved+cov.PermanentFailures, cov.TotalTasks, cov.RoundsUsed)
	}
	return nil
}

// resolvePlace accepts a raw "lat,lng" pair or geocodes a textual
// query, listing the candidates the way the interactive flow expects.
func resolvePlace(ctx context.Context, client *maps.Client, label, query string) (core.Place, error) {
	if loc, ok := parseLatLng(query); ok {
		return core.Place{Query: query, FormattedAddress: query, Location: loc}, nil
	}

	candidates, err := client.Geocode(ctx, query)
	if err != nil {
		return core.Place{}, err
	}
	if len(candidates) == 0 {
		return core.Place{}, fmt.Errorf("no geocoding results for %q", query)
	}
	fmt.Printf("%s candidates:\n", label)
	for i, c := range candidates {
		fmt.Printf("  %d. %s  (%s)\n", i+1, c.FormattedAddress, c.Location)
	}
	return candidates[0], nil
}

func parseLatLng(s string) (core.LatLng, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return core.LatLng{}, false
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return core.LatLng{}, false
	}
	return core.LatLng{Lat: lat, Lng: lng}, true
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

// estimateTasks sizes the progress display. Window errors surface from
// the real grid build, not here.
func estimateTasks(start, end string, interval int) int {
	parse := func(s string) (int, bool) {
		parts := strings.Split(s, ":")
		if len(parts) != 2 {
			return 0, false
		}
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0, false
		}
		return h*60 + m, true
	}
	from, ok1 := parse(start)
	to, ok2 := parse(end)
	if !ok1 || !ok2 || interval <= 0 || to < from {
		return 0
	}
	return ((to-from)/interval + 1) * len(core.Models)
}
