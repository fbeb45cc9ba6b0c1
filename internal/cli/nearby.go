package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"

	"github.com/mediaid/mediaid-api/internal/client"
	"github.com/mediaid/mediaid-api/internal/config"
	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/ranking"
)

var (
	nearbyAPI     string
	nearbyLat     float64
	nearbyLng     float64
	nearbyType    string
	nearbySearch  string
	nearbyOpenNow bool
	nearbySort    string
	nearbyLang    string
	nearbyTimeout time.Duration
	nearbyLocate  time.Duration
	nearbyJSON    bool
)

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "List emergency services ranked by distance",
	Long: `Fetches the directory from a MediAid API and ranks it locally.
Give --lat and --lng to rank by distance; without them distances are
unknown and the directory order is kept.`,
	Args: cobra.NoArgs,
	RunE: runNearby,
}

func init() {
	f := nearbyCmd.Flags()
	f.StringVar(&nearbyAPI, "api", envOr("MEDIAID_API", "http://localhost:8080"), "base URL of the MediAid API")
	f.Float64Var(&nearbyLat, "lat", 0, "your latitude")
	f.Float64Var(&nearbyLng, "lng", 0, "your longitude")
	f.StringVarP(&nearbyType, "type", "t", "all", "hospital, pharmacy, blood-bank, ambulance or all")
	f.StringVarP(&nearbySearch, "search", "s", "", "match name or address")
	f.BoolVar(&nearbyOpenNow, "open-now", false, "only services that are open")
	f.StringVar(&nearbySort, "sort", "distance", "distance or name")
	f.StringVar(&nearbyLang, "lang", "", "BCP 47 language for name ordering")
	f.DurationVar(&nearbyTimeout, "timeout", 10*time.Second, "request timeout")
	f.DurationVar(&nearbyLocate, "locate-timeout", 0, "bound on the position lookup (default: LOCATE_TIMEOUT or 10s)")
	f.BoolVar(&nearbyJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(nearbyCmd)
}

func runNearby(cmd *cobra.Command, args []string) error {
	crit, err := nearbyCriteria()
	if err != nil {
		return err
	}

	board := client.NewBoard(client.NewDirectoryClient(nearbyAPI, nearbyTimeout), locateTimeout(cmd.Flags()))
	if err := board.SetCriteria(crit); err != nil {
		return err
	}

	var loc client.Locator = client.NoLocator{}
	flags := cmd.Flags()
	if flags.Changed("lat") || flags.Changed("lng") {
		if !flags.Changed("lat") || !flags.Changed("lng") {
			return errors.New("--lat and --lng must be given together")
		}
		p := model.Point{Lat: nearbyLat, Lng: nearbyLng}
		if !p.Valid() {
			return fmt.Errorf("invalid coordinates %v,%v", nearbyLat, nearbyLng)
		}
		loc = client.StaticLocator{Point: p}
	}
	if err := board.Locate(cmd.Context(), loc); err != nil && !errors.Is(err, client.ErrLocationUnsupported) {
		cmd.PrintErrf("Location unavailable (%v); distances are unknown.\n", err)
	}

	if err := board.Refresh(cmd.Context()); err != nil {
		return err
	}
	results := board.Results()

	if nearbyJSON {
		return outputNearbyJSON(cmd, results)
	}
	outputNearbyTable(cmd, results)
	return nil
}

// locateTimeout prefers --locate-timeout, then LOCATE_TIMEOUT.  The
// variable is read at run time so that --env-file can set it.
func locateTimeout(flags *pflag.FlagSet) time.Duration {
	if flags.Changed("locate-timeout") && nearbyLocate > 0 {
		return nearbyLocate
	}
	return config.LocateTimeout()
}

func nearbyCriteria() (ranking.Criteria, error) {
	crit := ranking.DefaultCriteria()
	var err error
	if crit.Category, err = ranking.ParseCategory(nearbyType); err != nil {
		return crit, err
	}
	if crit.SortKey, err = ranking.ParseSortKey(nearbySort); err != nil {
		return crit, err
	}
	crit.SearchText = strings.TrimSpace(nearbySearch)
	crit.OpenNowOnly = nearbyOpenNow
	if nearbyLang != "" {
		if crit.Locale, err = language.Parse(nearbyLang); err != nil {
			return crit, fmt.Errorf("--lang: %w", err)
		}
	}
	return crit, nil
}

type nearbyRow struct {
	ID         uint64           `json:"id"`
	Name       string           `json:"name"`
	Type       model.Category   `json:"type"`
	Address    string           `json:"address"`
	Phone      string           `json:"phone,omitempty"`
	IsOpen     bool             `json:"is_open"`
	DistanceKm ranking.Distance `json:"distance_km"`
}

func outputNearbyJSON(cmd *cobra.Command, results []ranking.Ranked) error {
	rows := make([]nearbyRow, 0, len(results))
	for _, r := range results {
		s := r.Service
		rows = append(rows, nearbyRow{ID: s.ID, Name: s.Name, Type: s.Category, Address: s.Address,
			Phone: s.Phone, IsOpen: s.IsOpen, DistanceKm: r.Distance})
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputNearbyTable(cmd *cobra.Command, results []ranking.Ranked) {
	if len(results) == 0 {
		cmd.Println("No services found.")
		return
	}
	for i, r := range results {
		s := r.Service
		status := "open"
		if !s.IsOpen {
			status = "closed"
		}
		dist := r.Distance.String()
		if dist == "" {
			dist = "-"
		}
		cmd.Printf("  [%d] %s (%s, %s) %s\n", i+1, s.Name, s.Category, status, dist)
		cmd.Printf("      %s\n", s.Address)
		if s.Phone != "" {
			cmd.Printf("      Tel: %s\n", s.Phone)
		}
	}
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
