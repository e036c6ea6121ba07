package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/simple-menu/pkg/simplemenu"
	"github.com/tendant/simple-menu/pkg/simplemenu/config"
)

const usage = `Simple Menu Admin CLI

Manage menu images and visibility flags directly against the configured store.

USAGE:
  admin <command> [options]

COMMANDS:
  list        List menu items with their zones and visibility
  stats       Show per-zone and per-view counts
  upload      Upload image files into a zone
  rename      Rename an item in every zone
  duplicate   Copy an item to a new name in every zone
  delete      Delete an item from every zone
  visibility  Show or change the visibility flags of an item

ENVIRONMENT VARIABLES:
  STORAGE_URL         memory://, file://<dir>, s3://<bucket>, minio://<key>:<secret>@<host>/<bucket>
  DATABASE_URL        PostgreSQL connection string for the visibility mirror
  MENU_METADATA_FILE  Local visibility file (default: data/menu_settings.json)

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  admin list --zone=clean
  admin upload --zone=premium --name=Latte latte1.png latte2.png
  admin rename --name=Latte --to=IcedLatte
  admin visibility --name=IcedLatte --show-premium-clean=true
  admin stats --json

OPTIONS:
  --name=<name>       Menu item name
  --to=<name>         Target name (rename, duplicate)
  --zone=<zone>       watermarked, clean or premium
  --show-normal-watermarked=<bool>, --show-normal-clean=<bool>,
  --show-premium-watermarked=<bool>, --show-premium-clean=<bool>
  --json              Output as JSON
`

// options holds the parsed command line flags.
type options struct {
	Flags   map[string]string
	Args    []string
	UseJSON bool
}

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage + "\n")
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage + "\n")
		os.Exit(0)
	}

	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	ctx := context.Background()
	svc, cleanup, err := serverConfig.BuildService(ctx, logger)
	if err != nil {
		log.Fatalf("Failed to build menu service: %v", err)
	}
	defer cleanup()

	opts := parseOptions(os.Args[2:])

	switch command {
	case "list":
		err = handleList(ctx, os.Stdout, svc, opts)
	case "stats":
		err = handleStats(ctx, os.Stdout, svc, opts)
	case "upload":
		err = handleUpload(ctx, os.Stdout, svc, opts)
	case "rename", "duplicate", "delete":
		err = handleMultiZone(ctx, os.Stdout, svc, command, opts)
	case "visibility":
		err = handleVisibility(ctx, os.Stdout, svc, opts)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage + "\n")
		os.Exit(1)
	}
	if err != nil {
		cleanup()
		log.Fatalf("%s failed: %v", command, err)
	}
}

func parseOptions(args []string) options {
	opts := options{Flags: make(map[string]string)}
	for _, arg := range args {
		if arg == "--json" {
			opts.UseJSON = true
			continue
		}
		key, value := parseFlag(arg)
		if key == "" {
			opts.Args = append(opts.Args, arg)
			continue
		}
		opts.Flags[key] = value
	}
	return opts
}

func parseFlag(arg string) (string, string) {
	if len(arg) > 2 && arg[:2] == "--" {
		arg = arg[2:]
		if key, value, ok := strings.Cut(arg, "="); ok {
			return key, value
		}
		return arg, "true"
	}
	return "", ""
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func handleList(ctx context.Context, out io.Writer, svc simplemenu.Service, opts options) error {
	catalog, err := svc.Catalog(ctx)
	if err != nil {
		return err
	}

	items := catalog.Items
	if zone := opts.Flags["zone"]; zone != "" {
		z, err := simplemenu.ParseZone(zone)
		if err != nil {
			return err
		}
		items = filterZone(items, z)
	}

	if opts.UseJSON {
		return printJSON(out, items)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\tZONES\tNORMAL\tPREMIUM\tUPDATED\n")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			truncate(item.Name, 30),
			itemZones(item),
			flagPair(item.Visibility.ShowNormalWatermarked, item.Visibility.ShowNormalClean),
			flagPair(item.Visibility.ShowPremiumWatermarked, item.Visibility.ShowPremiumClean),
			item.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal: %d\n", len(items))
	return nil
}

func filterZone(items []simplemenu.MenuItem, zone simplemenu.Zone) []simplemenu.MenuItem {
	var filtered []simplemenu.MenuItem
	for _, item := range items {
		if item.Has(zone) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func itemZones(item simplemenu.MenuItem) string {
	var zones []string
	for _, z := range simplemenu.Zones {
		if item.Has(z) {
			zones = append(zones, string(z))
		}
	}
	return strings.Join(zones, ",")
}

// flagPair renders a watermarked/clean flag pair as e.g. "W-".
func flagPair(watermarked, clean bool) string {
	s := []byte("--")
	if watermarked {
		s[0] = 'W'
	}
	if clean {
		s[1] = 'C'
	}
	return string(s)
}

// Stats summarizes a catalog.
type Stats struct {
	TotalItems int                     `json:"total_items"`
	ByZone     map[simplemenu.Zone]int `json:"by_zone"`
	ByView     map[string]int          `json:"by_view"`
	Oldest     *time.Time              `json:"oldest,omitempty"`
	Newest     *time.Time              `json:"newest,omitempty"`
	ComputedAt time.Time               `json:"computed_at"`
}

func computeStats(catalog *simplemenu.Catalog, now time.Time) Stats {
	stats := Stats{
		TotalItems: len(catalog.Items),
		ByZone:     make(map[simplemenu.Zone]int),
		ByView: map[string]int{
			"normal_watermarked":  len(catalog.NormalWatermarked),
			"normal_clean":        len(catalog.NormalClean),
			"premium_watermarked": len(catalog.PremiumWatermarked),
			"premium_clean":       len(catalog.PremiumClean),
		},
		ComputedAt: now,
	}
	for _, item := range catalog.Items {
		for _, z := range simplemenu.Zones {
			if item.Has(z) {
				stats.ByZone[z]++
			}
		}
		created := item.CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			stats.Oldest = &created
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			stats.Newest = &created
		}
	}
	return stats
}

func handleStats(ctx context.Context, out io.Writer, svc simplemenu.Service, opts options) error {
	catalog, err := svc.Catalog(ctx)
	if err != nil {
		return err
	}
	stats := computeStats(catalog, time.Now())

	if opts.UseJSON {
		return printJSON(out, stats)
	}

	fmt.Fprintln(out, "=== Menu Statistics ===")
	fmt.Fprintf(out, "\nTotal Items: %d\n", stats.TotalItems)

	fmt.Fprintln(out, "\nBy Zone:")
	for _, z := range simplemenu.Zones {
		fmt.Fprintf(out, "  %-20s: %d\n", z, stats.ByZone[z])
	}

	fmt.Fprintln(out, "\nBy View:")
	views := make([]string, 0, len(stats.ByView))
	for view := range stats.ByView {
		views = append(views, view)
	}
	sort.Strings(views)
	for _, view := range views {
		fmt.Fprintf(out, "  %-20s: %d\n", view, stats.ByView[view])
	}

	if stats.Oldest != nil && stats.Newest != nil {
		fmt.Fprintln(out, "\nTime Range:")
		fmt.Fprintf(out, "  Oldest: %s\n", stats.Oldest.Format(time.RFC3339))
		fmt.Fprintf(out, "  Newest: %s\n", stats.Newest.Format(time.RFC3339))
	}
	return nil
}

func handleUpload(ctx context.Context, out io.Writer, svc simplemenu.Service, opts options) error {
	zone, err := simplemenu.ParseZone(opts.Flags["zone"])
	if err != nil {
		return err
	}

	var files []simplemenu.UploadFile
	for _, path := range opts.Args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		files = append(files, simplemenu.UploadFile{Filename: info.Name(), Size: info.Size(), Reader: f})
	}

	results, err := svc.Upload(ctx, simplemenu.UploadRequest{Zone: zone, CustomName: opts.Flags["name"], Files: files})
	for _, r := range results {
		fmt.Fprintf(out, "uploaded %s (%d bytes)\n", r.Key, r.Size)
	}
	return err
}

func handleMultiZone(ctx context.Context, out io.Writer, svc simplemenu.Service, command string, opts options) error {
	var (
		outcome *simplemenu.Outcome
		err     error
	)
	name, target := opts.Flags["name"], opts.Flags["to"]
	switch command {
	case "rename":
		outcome, err = svc.Rename(ctx, name, target)
	case "duplicate":
		outcome, err = svc.Duplicate(ctx, name, target)
	default:
		outcome, err = svc.Delete(ctx, name)
	}
	if err != nil {
		return err
	}

	if opts.UseJSON {
		if err := printJSON(out, outcome); err != nil {
			return err
		}
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ZONE\tKEY\tSTATUS\tERROR\n")
		for _, r := range outcome.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Zone, r.Key, r.Status, r.Error())
		}
		w.Flush()
		fmt.Fprintf(out, "\n%s\n", outcome.Message())
	}

	if outcome.Status() != simplemenu.StatusSuccess {
		return fmt.Errorf("%s", outcome.Message())
	}
	return nil
}

var visibilityFlags = []string{
	"show-normal-watermarked",
	"show-normal-clean",
	"show-premium-watermarked",
	"show-premium-clean",
}

// applyVisibilityFlags sets every flag named in opts on record.
func applyVisibilityFlags(record simplemenu.Visibility, opts options) (simplemenu.Visibility, bool, error) {
	changed := false
	targets := map[string]*bool{
		"show-normal-watermarked":  &record.ShowNormalWatermarked,
		"show-normal-clean":        &record.ShowNormalClean,
		"show-premium-watermarked": &record.ShowPremiumWatermarked,
		"show-premium-clean":       &record.ShowPremiumClean,
	}
	for _, flag := range visibilityFlags {
		raw, ok := opts.Flags[flag]
		if !ok {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return record, false, fmt.Errorf("invalid --%s: %w", flag, err)
		}
		*targets[flag] = value
		changed = true
	}
	return record, changed, nil
}

func handleVisibility(ctx context.Context, out io.Writer, svc simplemenu.Service, opts options) error {
	name := opts.Flags["name"]
	if name == "" {
		return fmt.Errorf("--name is required")
	}

	record, changed, err := applyVisibilityFlags(svc.GetVisibility(name), opts)
	if err != nil {
		return err
	}
	if changed {
		if err := svc.SetVisibility(ctx, name, record); err != nil {
			return err
		}
	}

	if opts.UseJSON {
		return printJSON(out, record)
	}
	fmt.Fprintf(out, "%s\n", name)
	fmt.Fprintf(out, "  normal watermarked:  %t\n", record.ShowNormalWatermarked)
	fmt.Fprintf(out, "  normal clean:        %t\n", record.ShowNormalClean)
	fmt.Fprintf(out, "  premium watermarked: %t\n", record.ShowPremiumWatermarked)
	fmt.Fprintf(out, "  premium clean:       %t\n", record.ShowPremiumClean)
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
