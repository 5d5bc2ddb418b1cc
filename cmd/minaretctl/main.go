// Command minaretctl is the Minaret operator CLI.
//
// Usage:
//
//	minaretctl qibla --lat 51.5 --lon -0.12 [--heading 90]
//	minaretctl prayers --lat 51.5 --lon -0.12 [--date 2026-08-31]
//	minaretctl mosques --lat 51.5 --lon -0.12 --radius 3000
//	minaretctl calendar --month 3 --year 2026
//	minaretctl hadith --book muslim
//	minaretctl adhan run
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/minaretapp/minaret-data/internal/adhan"
	"github.com/minaretapp/minaret-data/internal/config"
	"github.com/minaretapp/minaret-data/internal/db"
	"github.com/minaretapp/minaret-data/internal/geo"
	"github.com/minaretapp/minaret-data/internal/notifications"
	"github.com/minaretapp/minaret-data/internal/prayer"
	"github.com/minaretapp/minaret-data/internal/provider/aladhan"
	"github.com/minaretapp/minaret-data/internal/provider/hadith"
	"github.com/minaretapp/minaret-data/internal/provider/overpass"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "minaretctl",
		Short: "Minaret operator CLI",
	}

	root.AddCommand(qiblaCmd())
	root.AddCommand(prayersCmd())
	root.AddCommand(mosquesCmd())
	root.AddCommand(calendarCmd())
	root.AddCommand(hadithCmd())
	root.AddCommand(adhanCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// qibla command
// --------------------------------------------------------------------------

func qiblaCmd() *cobra.Command {
	var lat, lon, heading float64
	cmd := &cobra.Command{
		Use:   "qibla",
		Short: "Compute qibla bearing and distance for a point",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := geo.NewCoordinate(lat, lon)
			if err != nil {
				return err
			}
			bearing := geo.QiblaBearing(p)
			fmt.Printf("bearing:  %.2f°\n", bearing)
			fmt.Printf("distance: %.2f km\n", geo.HaversineKm(p, geo.Kaaba))

			if cmd.Flags().Changed("heading") {
				rel := geo.RelativeAngle(bearing, geo.Normalize(heading))
				fmt.Printf("relative: %.2f° (aligned: %v)\n", rel, geo.Aligned(rel))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	cmd.Flags().Float64Var(&heading, "heading", 0, "Device compass heading in degrees")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	return cmd
}

// --------------------------------------------------------------------------
// prayers command
// --------------------------------------------------------------------------

func prayersCmd() *cobra.Command {
	var (
		lat, lon       float64
		dateStr        string
		method, school int
	)
	cmd := &cobra.Command{
		Use:   "prayers",
		Short: "Fetch a day's prayer timetable and the next prayer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCtl(func(ctx context.Context, cfg *config.Config) error {
				date := time.Now()
				if dateStr != "" {
					var err error
					date, err = time.Parse("2006-01-02", dateStr)
					if err != nil {
						return fmt.Errorf("parse date: %w", err)
					}
				}

				client := aladhan.NewClient(cfg.AlAdhanBaseURL, cfg.ProviderRequestsPerMinute, logger)
				day, err := client.Timings(ctx, lat, lon, date, aladhan.Params{Method: method, School: school})
				if err != nil {
					return err
				}

				fmt.Printf("%s (%s %s %s AH)\n", day.Readable, day.Hijri.Day, day.Hijri.Month, day.Hijri.Year)
				for _, n := range prayer.All() {
					if t, ok := day.Timetable.Get(n); ok {
						fmt.Printf("  %-8s %s\n", n, t)
					}
				}

				nowClock := prayer.ClockOf(time.Now())
				if next, ok := prayer.NextAfter(*day.Timetable, nowClock); ok {
					suffix := ""
					if next.Tomorrow {
						suffix = " (tomorrow)"
					}
					fmt.Printf("next: %s at %s%s, in %s\n",
						next.Name, next.Time, suffix, next.Until(nowClock).Round(time.Minute))
				}
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	cmd.Flags().StringVar(&dateStr, "date", "", "Date (YYYY-MM-DD), defaults to today")
	cmd.Flags().IntVar(&method, "method", 2, "Calculation method")
	cmd.Flags().IntVar(&school, "school", 0, "Asr school (0 standard, 1 hanafi)")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	return cmd
}

// --------------------------------------------------------------------------
// mosques command
// --------------------------------------------------------------------------

func mosquesCmd() *cobra.Command {
	var (
		lat, lon float64
		radius   int
	)
	cmd := &cobra.Command{
		Use:   "mosques",
		Short: "Find nearby mosques ranked by distance",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCtl(func(ctx context.Context, cfg *config.Config) error {
				p, err := geo.NewCoordinate(lat, lon)
				if err != nil {
					return err
				}
				client := overpass.NewClient(cfg.OverpassBaseURL, cfg.ProviderRequestsPerMinute, logger)
				mosques, err := client.Nearby(ctx, p, radius)
				if err != nil {
					return err
				}
				for _, m := range mosques {
					addr := ""
					if m.Address != "" {
						addr = " — " + m.Address
					}
					fmt.Printf("%6.2f km  %s%s\n", m.DistanceKm, m.Name, addr)
				}
				fmt.Printf("%d mosques within %dm\n", len(mosques), radius)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	cmd.Flags().IntVar(&radius, "radius", overpass.DefaultRadiusMeters, "Search radius in meters")
	cmd.MarkFlagRequired("lat")
	cmd.MarkFlagRequired("lon")
	return cmd
}

// --------------------------------------------------------------------------
// calendar command
// --------------------------------------------------------------------------

func calendarCmd() *cobra.Command {
	var month, year int
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print the Hijri mapping for a Gregorian month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCtl(func(ctx context.Context, cfg *config.Config) error {
				client := aladhan.NewClient(cfg.AlAdhanBaseURL, cfg.ProviderRequestsPerMinute, logger)
				days, err := client.HijriCalendar(ctx, month, year)
				if err != nil {
					return err
				}
				for _, d := range days {
					line := fmt.Sprintf("%s  %-9s  %2d %s %s", d.GregorianDate, d.Weekday, d.HijriDay, d.HijriMonth, d.HijriYear)
					for _, hol := range d.Holidays {
						line += "  [" + hol + "]"
					}
					fmt.Println(line)
				}
				return nil
			})
		},
	}
	now := time.Now()
	cmd.Flags().IntVar(&month, "month", int(now.Month()), "Gregorian month (1-12)")
	cmd.Flags().IntVar(&year, "year", now.Year(), "Gregorian year")
	return cmd
}

// --------------------------------------------------------------------------
// hadith command
// --------------------------------------------------------------------------

func hadithCmd() *cobra.Command {
	var book string
	cmd := &cobra.Command{
		Use:   "hadith",
		Short: "Fetch a random hadith",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCtl(func(ctx context.Context, cfg *config.Config) error {
				client := hadith.NewClient(cfg.HadithBaseURL, cfg.ProviderRequestsPerMinute, logger)
				h, err := client.Random(ctx, book)
				if err != nil {
					return err
				}
				if h.Header != "" {
					fmt.Println(h.Header)
				}
				fmt.Println(h.Text)
				if h.RefNo != "" {
					fmt.Printf("— %s\n", h.RefNo)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&book, "book", hadith.DefaultBook, "Collection (bukhari, muslim, abudawud, ibnmajah, tirmidhi)")
	return cmd
}

// --------------------------------------------------------------------------
// adhan command
// --------------------------------------------------------------------------

func adhanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adhan",
		Short: "Adhan push scheduling",
	}
	cmd.AddCommand(adhanRunCmd())
	return cmd
}

func adhanRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the adhan scheduler in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCtl(func(ctx context.Context, cfg *config.Config) error {
				pool, err := db.New(ctx, cfg)
				if err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				defer pool.Close()

				sender, err := notifications.NewFCMSender(ctx, cfg.FCMCredentialsFile, logger)
				if err != nil {
					return fmt.Errorf("initialize FCM: %w", err)
				}

				source := aladhan.NewClient(cfg.AlAdhanBaseURL, cfg.ProviderRequestsPerMinute, logger)
				scheduler := adhan.NewScheduler(adhan.Options{
					Latitude:  cfg.AdhanLatitude,
					Longitude: cfg.AdhanLongitude,
					Method:    cfg.AdhanMethod,
					School:    cfg.AdhanSchool,
					Timezone:  cfg.AdhanTimezone,
				}, adhan.NewPGStore(pool.Pool), source, pool, sender, logger)

				scheduler.Run(ctx)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runCtl handles config loading and context cancellation.
func runCtl(fn func(ctx context.Context, cfg *config.Config) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return fn(ctx, cfg)
}
