package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jmylchreest/staysearch/internal/logger"
	"github.com/jmylchreest/staysearch/internal/output"
	"github.com/jmylchreest/staysearch/pkg/request"
	"github.com/jmylchreest/staysearch/pkg/stays"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Run a paginated search",
	Long: `Search pages through results until the server stops returning cursors,
an empty page comes back, or a cursor repeats.

Records are standardized (flat room_id, name, price... keys) unless --raw is
given. Flexible-date searches return raw records unless --standardize is set.`,
}

var boundsCmd = &cobra.Command{
	Use:   "bounds",
	Short: "Search inside a map rectangle",
	Example: `  staysearch search bounds --checkin 2024-06-01 --checkout 2024-06-08 \
      --ne-lat -0.6747 --ne-lng -90.2048 --sw-lat -0.8396 --sw-lng -90.4587 --zoom 12`,
	RunE: runBounds,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search by location text or place id",
	Example: `  staysearch search query --location "Lisbon, Portugal" --adults 2 --children 1 \
      --filter amenities=4,7 --filter room_types="Entire home/apt"`,
	RunE: runQuery,
}

var flexibleCmd = &cobra.Command{
	Use:   "flexible",
	Short: "Search with flexible trip dates",
	Example: `  staysearch search flexible --query "Tulum, Mexico" --start 2024-07-01 --end 2024-10-01

  # Full parameter set from a file (JSON or YAML, search URL parameter names)
  staysearch search flexible --params tulum.yaml --standardize`,
	RunE: runFlexible,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(boundsCmd, queryCmd, flexibleCmd)

	// Output settings
	pf := searchCmd.PersistentFlags()
	pf.StringP("output", "o", "", "output file (default: stdout)")
	pf.String("format", "json", "output format: json, jsonl, yaml")
	pf.Bool("compact", false, "compact JSON output")

	// Bounds
	bf := boundsCmd.Flags()
	addDateFlags(bf)
	bf.Float64("ne-lat", 0, "north-east corner latitude")
	bf.Float64("ne-lng", 0, "north-east corner longitude")
	bf.Float64("sw-lat", 0, "south-west corner latitude")
	bf.Float64("sw-lng", 0, "south-west corner longitude")
	bf.Int("zoom", 12, "map zoom level")
	bf.String("place-id", "", "optional place id hint")
	bf.String("location", "", "optional location text hint")
	bf.Bool("first-page", false, "fetch only the first page")
	bf.Bool("raw", false, "emit raw result items")
	_ = boundsCmd.MarkFlagRequired("checkin")
	_ = boundsCmd.MarkFlagRequired("checkout")

	// Structured
	qf := queryCmd.Flags()
	addDateFlags(qf)
	qf.String("location", "", "location text, e.g. \"Lisbon, Portugal\"")
	qf.String("place-id", "", "place id")
	qf.String("adults", "", "adults (default 1)")
	qf.String("children", "", "children")
	qf.String("infants", "", "infants")
	qf.String("pets", "", "pets")
	qf.Int("items-per-grid", 0, "results per page (default 18)")
	qf.StringArray("filter", nil, "extra filter name=v1,v2 (repeatable)")
	qf.Bool("raw", false, "emit raw result items")

	// Flexible
	ff := flexibleCmd.Flags()
	ff.String("params", "", "JSON or YAML file with search parameters")
	ff.String("query", "", "location text")
	ff.String("place-id", "", "place id")
	ff.String("start", "", "monthly start date (YYYY-MM-DD)")
	ff.String("end", "", "monthly end date (YYYY-MM-DD)")
	ff.String("monthly-length", "", "monthly stay length in months (default 3)")
	ff.StringSlice("trip-lengths", nil, "flexible trip lengths, e.g. weekend_trip,one_week")
	ff.StringSlice("trip-dates", nil, "flexible trip months, e.g. july,august")
	ff.String("adults", "", "adults")
	ff.Bool("standardize", false, "standardize records")
	ff.Bool("no-cache-read", false, "always fetch pages, still writing them to the cache")
}

func addDateFlags(fs *pflag.FlagSet) {
	fs.String("checkin", "", "check-in date (YYYY-MM-DD)")
	fs.String("checkout", "", "check-out date (YYYY-MM-DD)")
}

func runBounds(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	q := request.BoundsQuery{}
	q.CheckIn, _ = f.GetString("checkin")
	q.CheckOut, _ = f.GetString("checkout")
	q.NELat, _ = f.GetFloat64("ne-lat")
	q.NELng, _ = f.GetFloat64("ne-lng")
	q.SWLat, _ = f.GetFloat64("sw-lat")
	q.SWLng, _ = f.GetFloat64("sw-lng")
	q.Zoom, _ = f.GetInt("zoom")
	q.PlaceID, _ = f.GetString("place-id")
	q.Location, _ = f.GetString("location")
	firstPage, _ := f.GetBool("first-page")
	raw, _ := f.GetBool("raw")

	return runSearch(cmd, func(ctx context.Context, c *stays.Client, currency, proxy string) ([]stays.Record, error) {
		if raw {
			b, err := c.Bounds(q)
			if err != nil {
				return nil, err
			}
			opts := stays.SearchOptions{UseCache: true}
			if firstPage {
				opts.MaxPages = 1
			}
			return c.Search(ctx, b, currency, proxy, opts)
		}
		if firstPage {
			return c.SearchFirstPage(ctx, q, currency, proxy)
		}
		return c.SearchAll(ctx, q, currency, proxy)
	})
}

func runQuery(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()
	q := request.StructuredQuery{}
	q.CheckIn, _ = f.GetString("checkin")
	q.CheckOut, _ = f.GetString("checkout")
	q.Location, _ = f.GetString("location")
	q.PlaceID, _ = f.GetString("place-id")
	q.Adults, _ = f.GetString("adults")
	q.Children, _ = f.GetString("children")
	q.Infants, _ = f.GetString("infants")
	q.Pets, _ = f.GetString("pets")
	q.ItemsPerGrid, _ = f.GetInt("items-per-grid")
	raw, _ := f.GetBool("raw")

	filters, _ := f.GetStringArray("filter")
	extra, err := parseFilters(filters)
	if err != nil {
		return err
	}
	q.Extra = extra

	return runSearch(cmd, func(ctx context.Context, c *stays.Client, currency, proxy string) ([]stays.Record, error) {
		if raw {
			b, err := c.Structured(q)
			if err != nil {
				return nil, err
			}
			return c.Search(ctx, b, currency, proxy, stays.SearchOptions{UseCache: true})
		}
		return c.SearchStructured(ctx, q, currency, proxy)
	})
}

func runFlexible(cmd *cobra.Command, _ []string) error {
	f := cmd.Flags()

	var q request.FlexibleQuery
	if path, _ := f.GetString("params"); path != "" {
		loaded, err := loadFlexibleParams(path)
		if err != nil {
			return err
		}
		q = loaded
	}

	// Flags override the params file.
	setString := func(flag string, dst *string) {
		if f.Changed(flag) {
			*dst, _ = f.GetString(flag)
		}
	}
	setSlice := func(flag string, dst *[]string) {
		if f.Changed(flag) {
			*dst, _ = f.GetStringSlice(flag)
		}
	}
	setString("query", &q.Location)
	setString("place-id", &q.PlaceID)
	setString("start", &q.MonthlyStartDate)
	setString("end", &q.MonthlyEndDate)
	setString("monthly-length", &q.MonthlyLength)
	setString("adults", &q.Adults)
	setSlice("trip-lengths", &q.FlexibleTripLengths)
	setSlice("trip-dates", &q.FlexibleTripDates)

	opts := stays.DefaultFlexibleOptions()
	opts.Standardize, _ = f.GetBool("standardize")
	noRead, _ := f.GetBool("no-cache-read")
	opts.UseCache = !noRead

	return runSearch(cmd, func(ctx context.Context, c *stays.Client, currency, proxy string) ([]stays.Record, error) {
		return c.SearchFlexibleDates(ctx, q, currency, proxy, opts)
	})
}

type searchFunc func(ctx context.Context, c *stays.Client, currency, proxy string) ([]stays.Record, error)

// runSearch builds the client, runs search and writes the records.
func runSearch(cmd *cobra.Command, search searchFunc) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, cleanup, err := newClient()
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}
	defer cleanup()

	pf := cmd.Flags()
	formatStr, _ := pf.GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	compact, _ := pf.GetBool("compact")

	records, err := search(ctx, client, strings.ToUpper(viper.GetString("currency")), viper.GetString("proxy"))
	if err != nil {
		return err
	}

	outPath, _ := pf.GetString("output")
	dst, err := output.Open(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = dst.Close() }()

	w, err := output.NewWriter(dst, format, output.WithPretty(!compact))
	if err != nil {
		return err
	}
	if err := w.Write(records); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if outPath != "" && outPath != "-" {
		logger.Info("results written", "path", outPath, "records", len(records))
	}
	return nil
}

// parseFilters turns "name=v1,v2" flags into extra filters.
func parseFilters(flags []string) (map[string][]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(flags))
	for _, flag := range flags {
		name, values, ok := strings.Cut(flag, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid filter %q (want name=value[,value])", flag)
		}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out[name] = append(out[name], v)
			}
		}
		if _, ok := out[name]; !ok {
			out[name] = []string{}
		}
	}
	return out, nil
}

// loadFlexibleParams reads search URL parameters from a JSON or YAML file.
// Numbers are accepted where the API wants strings (adults: 2).
func loadFlexibleParams(path string) (request.FlexibleQuery, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return request.FlexibleQuery{}, fmt.Errorf("failed to read params file: %w", err)
	}

	var q request.FlexibleQuery
	if err := v.Unmarshal(&q); err != nil {
		return request.FlexibleQuery{}, fmt.Errorf("invalid params file: %w", err)
	}
	return q, nil
}
