package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"diningwrapped/internal/auth"
	"diningwrapped/internal/getapi"
	"diningwrapped/internal/logger"
	"diningwrapped/internal/pipeline"
	"diningwrapped/internal/store"
	"diningwrapped/internal/wrapped"
)

const shareURL = "https://wrapped.menu"

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "enroll":
		runEnroll(log)
	case "wrapped":
		runWrapped(log)
	case "status":
		runStatus(log)
	case "logout":
		runLogout(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Dining Wrapped CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  enroll    Register this device with the GET platform")
	fmt.Println("  wrapped   Fetch the semester and print your wrapped summary")
	fmt.Println("  status    Show enrollment and session state")
	fmt.Println("  logout    Clear the stored credential and session")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// commonFlags registers the flags every command shares.
func commonFlags(fs *flag.FlagSet) (dbPath, baseURL *string) {
	dbPath = fs.String("db", envOr("WRAPPED_DB", "wrapped.db"), "SQLite credential store path (or set WRAPPED_DB env)")
	baseURL = fs.String("base-url", envOr("WRAPPED_GET_BASE_URL", getapi.DefaultBaseURL), "GET platform base URL (or set WRAPPED_GET_BASE_URL env)")
	return dbPath, baseURL
}

func openComponents(ctx context.Context, dbPath, baseURL string, log zerolog.Logger) (*store.SQLiteStore, *getapi.Client, *auth.Manager, error) {
	st, err := store.OpenSQLite(dbPath)
	if err != nil {
		return nil, nil, nil, err
	}
	platform := getapi.NewClient(baseURL, log)
	manager, err := auth.NewManager(ctx, st, platform, log)
	if err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	return st, platform, manager, nil
}

func runEnroll(log zerolog.Logger) {
	fs := flag.NewFlagSet("enroll", flag.ExitOnError)
	dbPath, baseURL := commonFlags(fs)
	validator := fs.String("validator", "", "validator URL or bare session token from the GET login flow")
	fs.Parse(os.Args[2:])

	if *validator == "" {
		log.Fatal().Msg("Error: --validator is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, platform, manager, err := openComponents(ctx, *dbPath, *baseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer st.Close()

	flow := auth.NewEnrollment(manager, platform, log)
	cred, err := flow.Run(ctx, *validator)
	if err != nil {
		log.Fatal().Err(err).Str("state", flow.State().String()).Msg("Enrollment failed")
	}

	fmt.Printf("Enrolled. Device id %s\n", cred.DeviceID)
}

func runWrapped(log zerolog.Logger) {
	fs := flag.NewFlagSet("wrapped", flag.ExitOnError)
	dbPath, baseURL := commonFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	st, platform, manager, err := openComponents(ctx, *dbPath, *baseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer st.Close()

	p := pipeline.New(pipeline.NewFetcher(manager, platform, log), log)
	result, err := p.BuildSummary(ctx, pipeline.DefaultWindow())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build summary")
	}

	printSummary(result)
}

func printSummary(result *pipeline.Result) {
	s := result.Summary

	fmt.Println("\n=== Dining Wrapped ===")
	fmt.Printf("Transactions: %d", s.TotalCount)
	if result.ReturnCapped {
		fmt.Printf(" (of %d on record)", result.ServerTotalCount)
	}
	fmt.Println()
	fmt.Printf("Total spent:  %s\n", wrapped.FormatUSD(s.TotalSpent))
	fmt.Printf("Places eaten: %d\n", s.UniqueLocationCount)

	if len(s.TopLocations) > 0 {
		fmt.Println("\n=== Top Spots ===")
		for i, loc := range s.TopLocations {
			fmt.Printf("%d. %s — %d visits (%.0f%%)\n", i+1, loc.Name, loc.Count, loc.Percent)
		}
	}

	if s.MostExpensive != nil {
		fmt.Println("\n=== Biggest Splurge ===")
		fmt.Printf("%s at %s\n", wrapped.FormatUSD(s.MostExpensive.Amount), s.MostExpensive.LocationName)
	}

	if s.BusiestHour >= 0 {
		fmt.Println("\n=== When You Eat ===")
		fmt.Printf("Busiest hour: %02d:00 (%d visits)\n", s.BusiestHour, s.BusiestHourCount)
		for _, b := range s.TimeBuckets {
			if b.Count == 0 {
				continue
			}
			fmt.Printf("%02d:00-%02d:00  %d\n", b.StartHour, b.EndHour, b.Count)
		}
	}

	ps := s.PlanSavings
	if ps.RequiredPlan != wrapped.PlanUnclassified {
		fmt.Println("\n=== Plan Math ===")
		fmt.Printf("Plan:  %s (%s)\n", ps.RequiredPlan, wrapped.FormatUSD(ps.RequiredPlanCost))
		fmt.Printf("Spent: %s\n", wrapped.FormatUSD(ps.SpentOnRequiredPlan))
		if ps.StandardOverSpend > 0 {
			fmt.Printf("Over plan cost by %s\n", wrapped.FormatUSD(ps.StandardOverSpend))
		} else if ps.SavedIfNotRequired > 0 {
			fmt.Printf("You would have kept %s without the mandate\n", wrapped.FormatUSD(ps.SavedIfNotRequired))
		}
	}
	if ps.NeighborhoodSpent > 0 {
		fmt.Printf("Neighborhood discount saved you %s\n", wrapped.FormatUSD(ps.NeighborhoodDiscountSavings))
	}

	fmt.Printf("\nShare yours at %s\n", shareURL)
}

func runStatus(log zerolog.Logger) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	dbPath, baseURL := commonFlags(fs)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)

	st, _, manager, err := openComponents(ctx, *dbPath, *baseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer st.Close()

	fmt.Printf("Enrolled:    %v\n", manager.IsEnrolled())
	fmt.Printf("Has session: %v\n", manager.HasSession())
}

func runLogout(log zerolog.Logger) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	dbPath, baseURL := commonFlags(fs)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)

	st, _, manager, err := openComponents(ctx, *dbPath, *baseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Startup failed")
	}
	defer st.Close()

	if err := manager.ClearCredentials(ctx); err != nil {
		log.Fatal().Err(err).Msg("Logout failed")
	}
	fmt.Println("Logged out.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
