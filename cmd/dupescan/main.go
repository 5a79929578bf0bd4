package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"sort"
	"syscall"
	"time"

	"dupescan/internal/config"
	"dupescan/internal/dfs"
	"dupescan/internal/dgroup"
	"dupescan/internal/dhash"
	"dupescan/internal/dispose"
	"dupescan/internal/dlog"
	"dupescan/internal/dutil"
	"dupescan/internal/dwalk"
	"dupescan/internal/report"
	"dupescan/internal/review"
	"dupescan/internal/ui"
	"dupescan/pkg/utils"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

// Version
const ver = "0.1.0"

func init() {
	// Custom help message
	flag.Usage = func() {
		fmt.Printf("Usage: dupescan [options] DIRECTORY\n\n")
		flag.PrintDefaults()
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	dlog.Initialize("dupescan.log")
	dlog.Logger.Info("Logger initialized")

	var (
		flNoBanner    = flag.Bool("no-banner", false, "Do not show the dupescan banner.")
		flShowVersion = flag.Bool("version", false, "Display version")
		flCpuProfile  = flag.String("cpuprofile", "", "Write CPU profile to disk for analysis.")
		flDryRun      = flag.Bool("dry-run", false, "Preview dispositions without moving or deleting files.")
		flExactOnly   = flag.Bool("exact-only", false, "Only find exact duplicates (skip perceptual hashing).")
		flSimilarOnly = flag.Bool("similar-only", false, "Only find visually similar images (skip content hashing).")
		flThreshold   = flag.Int("threshold", 5, "Similarity threshold: max Hamming distance between image fingerprints.")
		flReportOnly  = flag.Bool("report-only", false, "Write the report and exit without reviewing.")
		flCli         = flag.Bool("cli", false, "Use the line-oriented review instead of the TUI.")
		flHashAlgo    = flag.String("hash", "sha256", "Content hash algorithm: sha256 or blake3.")
		flMinSize     = flag.String("min-size", "", "Skip files smaller than this (e.g. 4K, 1MiB).")
		flMaxSize     = flag.String("max-size", "", "Skip files at or above this size (e.g. 2G).")
		flShowHidden  = flag.Bool("include-hidden", false, "Scan hidden files and directories too.")
		flExportJSON  = flag.String("export-json", "", "Also write the group list as JSON to this path.")
		flExportCSV   = flag.String("export-csv", "", "Also write the group list as CSV to this path.")
	)
	flag.Parse()

	if *flShowVersion {
		fmt.Printf("Version: %s\n\n", ver)
		return 0
	}

	if !*flNoBanner {
		showHeader()
	}

	if *flCpuProfile != "" {
		f, err := os.Create(*flCpuProfile)
		if err != nil {
			pterm.Error.Println("cpuprofile failed:", err)
			return 1
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	cfg, root, err := buildConfig(flag.Arg(0), *flExactOnly, *flSimilarOnly,
		*flThreshold, *flDryRun, *flHashAlgo, *flMinSize, *flMaxSize, *flShowHidden)
	if err != nil {
		pterm.Error.Println(err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\r[!] SIGINT! Quitting...\n")
		cancel()
	}()

	pterm.Info.Println("Scanning directory:", root)
	if cfg.DryRun {
		pterm.Info.Println("Mode: DRY RUN")
	}

	records := scanPhase(ctx, root, cfg)
	if len(records) == 0 {
		pterm.Success.Println("No files to process.")
		return 0
	}

	hashPhase(ctx, records, cfg)

	var groups []*dgroup.Group
	if cfg.ContentHash {
		exact := dgroup.ExactGroups(records)
		pterm.Info.Printfln("Found %d group(s) of exact duplicates.", len(exact))
		groups = append(groups, exact...)
	}
	if cfg.PerceptualHash {
		similar := dgroup.SimilarGroups(records, cfg.Threshold)
		pterm.Info.Printfln("Found %d group(s) of similar images.", len(similar))
		groups = append(groups, similar...)
	}

	if len(groups) == 0 {
		pterm.Success.Println("No duplicates found!")
		return 0
	}

	reportPath, err := report.WriteFile(root, groups)
	if err != nil {
		pterm.Warning.Println("Could not write report:", err)
	} else {
		pterm.Info.Println("Report saved to:", reportPath)
	}

	if *flExportJSON != "" {
		if err := dgroup.WriteJSON(*flExportJSON, groups); err != nil {
			pterm.Warning.Println("JSON export failed:", err)
		}
	}
	if *flExportCSV != "" {
		if err := dgroup.WriteCSV(*flExportCSV, groups); err != nil {
			pterm.Warning.Println("CSV export failed:", err)
		}
	}

	if *flReportOnly {
		pterm.Info.Println("Report-only mode. Skipping interactive review.")
		return 0
	}

	executor := dispose.NewExecutor(root, config.QuarantineDirName, cfg.DryRun)
	session := review.NewSession(groups, executor)

	if *flCli {
		ui.RunLine(session, os.Stdin, os.Stdout)
	} else {
		if err := ui.LaunchTUI(session); err != nil {
			pterm.Error.Println(err)
			return 1
		}
	}

	printSummary(root, session.Stats())
	return 0
}

// buildConfig validates the root directory and folds the flag values
// into one explicit Config. Configuration errors are the only fatal
// errors in the program.
func buildConfig(rootArg string, exactOnly, similarOnly bool, threshold int,
	dryRun bool, hashAlgo, minSize, maxSize string, showHidden bool) (*config.Config, string, error) {

	if rootArg == "" {
		rootArg = "."
	}
	root, err := filepath.Abs(rootArg)
	if err != nil {
		return nil, "", fmt.Errorf("cannot resolve directory %q: %w", rootArg, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, "", fmt.Errorf("directory %q does not exist", root)
	}
	if !info.IsDir() {
		return nil, "", fmt.Errorf("%q is not a directory", root)
	}

	if exactOnly && similarOnly {
		return nil, "", fmt.Errorf("-exact-only and -similar-only are mutually exclusive")
	}
	if threshold < 0 {
		return nil, "", fmt.Errorf("threshold must be non-negative, got %d", threshold)
	}

	cfg := config.Default()
	cfg.ContentHash = !similarOnly
	cfg.PerceptualHash = !exactOnly
	cfg.Threshold = threshold
	cfg.DryRun = dryRun
	cfg.SkipHidden = !showHidden

	switch dfs.HashAlgorithm(hashAlgo) {
	case dfs.HashSHA256, dfs.HashBLAKE3:
		cfg.HashAlgorithm = dfs.HashAlgorithm(hashAlgo)
	default:
		return nil, "", fmt.Errorf("unknown hash algorithm %q", hashAlgo)
	}

	if minSize != "" {
		if cfg.MinFileSize, err = utils.ParseSize(minSize); err != nil {
			return nil, "", fmt.Errorf("invalid -min-size: %w", err)
		}
	}
	if maxSize != "" {
		if cfg.MaxFileSize, err = utils.ParseSize(maxSize); err != nil {
			return nil, "", fmt.Errorf("invalid -max-size: %w", err)
		}
	}

	return cfg, root, nil
}

// scanPhase walks the tree and returns records sorted by path. The
// sorted order is the discovery order every later stage sees, which
// keeps grouping deterministic across runs.
func scanPhase(ctx context.Context, root string, cfg *config.Config) []*dfs.Dfile {
	dFiles := make(chan *dfs.Dfile)
	walker := dwalk.NewDWalker([]string{root}, dFiles, cfg)
	walker.Run(ctx)

	start := time.Now()
	tick := time.Tick(500 * time.Millisecond)
	spinner, _ := pterm.DefaultSpinner.Start("Scanning files...")

	var records []*dfs.Dfile

MainLoop:
	for {
		select {
		case <-ctx.Done():
			for range dFiles {
			}
			break MainLoop

		case dFile, ok := <-dFiles:
			if !ok {
				break MainLoop
			}
			records = append(records, dFile)

		case <-tick:
			spinner.UpdateText(fmt.Sprintf("Scanned %d files...", len(records)))
		}
	}

	spinner.Stop()
	pterm.Success.Printfln("Found %d files in %v.", len(records), time.Since(start).Round(time.Millisecond))

	sort.Slice(records, func(i, j int) bool {
		return records[i].FileName() < records[j].FileName()
	})
	return records
}

func hashPhase(ctx context.Context, records []*dfs.Dfile, cfg *config.Config) {
	spinner, _ := pterm.DefaultSpinner.Start("Calculating hashes...")
	start := time.Now()

	hasher := dhash.New(cfg)
	hasher.HashAll(ctx, records)

	spinner.Stop()
	pterm.Success.Printfln("Hashed %d files in %v.", len(records), time.Since(start).Round(time.Millisecond))
}

// printSummary reports the final counters regardless of any per-file
// failures encountered along the way.
func printSummary(root string, stats review.Stats) {
	pterm.Println()
	pterm.DefaultSection.Println("Summary")
	pterm.Printfln("Groups reviewed: %d", stats.Reviewed)
	pterm.Printfln("Groups skipped:  %d", stats.Skipped)
	pterm.Printfln("Files moved:     %d", stats.Moved)
	pterm.Printfln("Files deleted:   %d", stats.Deleted)
	if stats.Failed > 0 {
		pterm.Warning.Printfln("Failed dispositions: %d (see dupescan.log)", stats.Failed)
	}

	if usage, err := dutil.UsageForPath(root); err == nil {
		pterm.Printfln("Volume: %s used of %s (%s available)",
			utils.DisplaySize(usage.Used), utils.DisplaySize(usage.Total), utils.DisplaySize(usage.Avail))
	}
}

// showHeader prints the colorful dupescan banner.
func showHeader() {
	fmt.Println("")

	pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("dupe", pterm.NewStyle(pterm.FgLightGreen)),
		putils.LettersFromStringWithStyle("scan", pterm.NewStyle(pterm.FgLightWhite))).
		Render()
}
