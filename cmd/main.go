package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"proxysweep/pkg/api"
	"proxysweep/pkg/export"
	"proxysweep/pkg/extract"
	"proxysweep/pkg/models"
	"proxysweep/pkg/runner"
	"proxysweep/pkg/ui"
	"proxysweep/pkg/validate"
)

var (
	debugFlag bool
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "proxysweep",
	Short: "A tool for cleaning and checking proxy lists",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var logLevel slog.Level
		if debugFlag {
			logLevel = slog.LevelDebug
		} else {
			logLevel = slog.LevelInfo
		}

		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		slog.SetDefault(logger)
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Recover proxy endpoints from messy text and print a clean list",
	Long: `Extract scans arbitrary text (pasted dumps, scraped pages, logs) for
IPv4 proxy endpoints, recovers ports and credentials around each match,
deduplicates them and prints one canonical entry per line. Reads the
file argument, or stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text, err := readInput(args)
		if err != nil {
			logger.Error("Error reading input", "error", err)
			os.Exit(1)
		}

		matches := extract.Tokenize(text)
		res := extract.Normalize(matches)

		showAmbiguous, _ := cmd.Flags().GetBool("ambiguous")
		if showAmbiguous {
			for _, m := range matches {
				if m.Confidence == models.ConfidenceAmbiguous {
					fmt.Fprintf(os.Stderr, "no port: %s (offset %d)\n", m.IP, m.Offset)
				}
			}
		}

		if res.Text != "" {
			fmt.Println(res.Text)
		}
		logger.Info("Extraction finished",
			"kept", res.Kept,
			"duplicatesRemoved", res.DuplicatesRemoved,
			"ambiguousDropped", res.AmbiguousDropped,
			"detectedFormat", extract.DetectFormat(text))
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a proxy list and check settings without running a check",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text, err := readInput(args)
		if err != nil {
			logger.Error("Error reading input", "error", err)
			os.Exit(1)
		}

		report := validate.Check(checkInput(cmd, text))
		printReport(report)
		if report.HasErrors() {
			os.Exit(1)
		}
		logger.Info("Input is valid",
			"warnings", report.Count(models.SeverityWarning),
			"tips", report.Count(models.SeverityTip))
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Run a proxy check and stream results live",
	Long: `Check extracts and validates the proxy list, submits it to the check
service and consumes the result stream. With a terminal attached it
renders a live view; otherwise (or with --plain) it prints a result
table when the run finishes.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text, err := readInput(args)
		if err != nil {
			logger.Error("Error reading input", "error", err)
			os.Exit(1)
		}

		raw, _ := cmd.Flags().GetBool("raw")
		if !raw {
			res := extract.NormalizeText(text)
			if res.DuplicatesRemoved > 0 || res.AmbiguousDropped > 0 {
				logger.Info("Cleaned proxy list",
					"kept", res.Kept,
					"duplicatesRemoved", res.DuplicatesRemoved,
					"ambiguousDropped", res.AmbiguousDropped)
			}
			text = res.Text
		}

		in := checkInput(cmd, text)
		if detected := extract.DetectFormat(text); detected != models.FormatUnknown && string(detected) != in.FieldOrder {
			logger.Warn("Detected line layout differs from the configured field order",
				"detected", detected, "configured", in.FieldOrder)
		}

		report := validate.Check(in)
		printReport(report)
		if report.HasErrors() {
			os.Exit(1)
		}

		client, err := newClient()
		if err != nil {
			logger.Error("Error creating API client", "error", err)
			os.Exit(1)
		}

		timeout, _ := strconv.Atoi(in.Timeout)
		workers, _ := strconv.Atoi(in.MaxWorkers)
		tags, _ := cmd.Flags().GetStringSlice("tag")
		req := api.CheckRequest{
			Proxies:     in.ProxyText,
			SessionName: in.SessionName,
			Tags:        tags,
			CheckURL:    in.CheckURL,
			Timeout:     timeout,
			MaxWorkers:  workers,
			ProxyType:   setting(cmd, "proxy-type", "check.proxy_type"),
			Delimiter:   in.Delimiter,
			FieldOrder:  in.FieldOrder,
		}

		plain, _ := cmd.Flags().GetBool("plain")
		useTUI := !plain && isatty.IsTerminal(os.Stdout.Fd())

		var program *tea.Program
		opts := []runner.Option{
			runner.WithDoneFunc(func(stats models.RunStats) {
				logger.Debug("Run finished", "total", stats.Total, "alive", stats.Alive)
			}),
		}
		if useTUI {
			opts = append(opts, runner.WithUpdateFunc(func(s runner.Snapshot) {
				if program != nil {
					program.Send(ui.SnapshotMsg(s))
				}
			}))
		}
		r := runner.New(client, logger, opts...)

		if useTUI {
			// The run starts from inside the program's event loop;
			// starting it before Run would block the first update
			// on program.Send.
			program = tea.NewProgram(ui.NewModel(r, in.SessionName, func() error {
				return r.Start(req, report)
			}))
			final, err := program.Run()
			if err != nil {
				logger.Error("Error running UI", "error", err)
				r.Stop()
			}
			if m, ok := final.(ui.Model); ok && m.Err() != nil {
				logger.Error("Error starting check", "error", m.Err())
				os.Exit(1)
			}
		} else if err := r.Start(req, report); err != nil {
			logger.Error("Error starting check", "error", err)
			os.Exit(1)
		}
		r.Wait()

		snap := r.Snapshot()
		if snap.Err != nil {
			logger.Error("Check run failed", "error", snap.Err)
			os.Exit(1)
		}
		if !useTUI {
			printResultsTable(os.Stdout, snap.Results)
		}
		printSummary(os.Stdout, snap.Stats)

		if path := setting(cmd, "output", ""); path != "" {
			if err := writeExport(cmd, path, snap.Results); err != nil {
				logger.Error("Error writing export", "error", err)
				os.Exit(1)
			}
			logger.Info("Results exported", "path", path)
		}

		if in.SessionName != "" {
			sessions, err := client.ListSessions(context.Background())
			if err != nil {
				logger.Warn("Could not refresh session list", "error", err)
			} else {
				logger.Info("Session saved", "name", in.SessionName, "sessions", len(sessions))
			}
		}
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage persisted check sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			logger.Error("Error creating API client", "error", err)
			os.Exit(1)
		}

		sessions, err := client.ListSessions(context.Background())
		if err != nil {
			logger.Error("Error listing sessions", "error", err)
			os.Exit(1)
		}

		tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCREATED\tTOTAL\tALIVE\tDEAD")
		for _, s := range sessions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
				s.ID, s.Name, s.CreatedAt, s.Stats.Total, s.Stats.Alive, s.Stats.Dead)
		}
		tw.Flush()
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a persisted session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client, err := newClient()
		if err != nil {
			logger.Error("Error creating API client", "error", err)
			os.Exit(1)
		}

		if err := client.DeleteSession(context.Background(), args[0]); err != nil {
			logger.Error("Error deleting session", "error", err)
			os.Exit(1)
		}
		logger.Info("Session deleted", "id", args[0])
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "Enable debug logging")

	extractCmd.Flags().Bool("ambiguous", false, "List bare IPs whose port could not be recovered")

	for _, cmd := range []*cobra.Command{validateCmd, checkCmd} {
		cmd.Flags().String("url", "", "URL requested through each proxy")
		cmd.Flags().String("timeout", "", "Per-proxy timeout in seconds (1-60)")
		cmd.Flags().String("max-workers", "", "Concurrent checks (1-200)")
		cmd.Flags().String("delimiter", "", "Field delimiter within a proxy line")
		cmd.Flags().String("field-order", "", "Field layout, e.g. ip:port:user:pass")
		cmd.Flags().String("name", "", "Session name to persist the run under")
	}
	checkCmd.Flags().String("proxy-type", "", "Proxy protocol: http or socks5")
	checkCmd.Flags().StringSlice("tag", nil, "Session tag (repeatable)")
	checkCmd.Flags().Bool("raw", false, "Send the list as-is, skipping extraction and dedup")
	checkCmd.Flags().Bool("plain", false, "Disable the live view even on a terminal")
	checkCmd.Flags().String("output", "", "Write results to this file after the run")
	checkCmd.Flags().String("format", "csv", "Export format: csv or txt")
	checkCmd.Flags().String("filter", "all", "Export filter: working, dead or all")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.proxysweep")
	viper.AddConfigPath("/etc/proxysweep/")

	defaults := models.DefaultRunConfig()
	viper.SetDefault("api.base_url", "http://localhost:8000")
	viper.SetDefault("check.url", defaults.CheckURL)
	viper.SetDefault("check.timeout", strconv.Itoa(defaults.TimeoutSeconds))
	viper.SetDefault("check.max_workers", strconv.Itoa(defaults.MaxWorkers))
	viper.SetDefault("check.proxy_type", defaults.ProxyType)
	viper.SetDefault("check.delimiter", defaults.Delimiter)
	viper.SetDefault("check.field_order", defaults.FieldOrder)

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			fmt.Printf("Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

// readInput returns the proxy text from the file argument or stdin.
func readInput(args []string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// setting resolves a string option: a flag set on the command line
// wins over the config file value.
func setting(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	if key == "" {
		return ""
	}
	return viper.GetString(key)
}

func checkInput(cmd *cobra.Command, text string) validate.Input {
	return validate.Input{
		ProxyText:   text,
		Delimiter:   setting(cmd, "delimiter", "check.delimiter"),
		FieldOrder:  setting(cmd, "field-order", "check.field_order"),
		CheckURL:    setting(cmd, "url", "check.url"),
		Timeout:     setting(cmd, "timeout", "check.timeout"),
		MaxWorkers:  setting(cmd, "max-workers", "check.max_workers"),
		SessionName: setting(cmd, "name", ""),
	}
}

func newClient() (*api.Client, error) {
	return api.NewClient(
		viper.GetString("api.base_url"),
		viper.GetString("api.token"),
		viper.GetString("api.transport"),
		logger,
	)
}

func printReport(report models.Report) {
	for field, issues := range report {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", issue.Severity, field, issue.Message)
		}
	}
}

func printResultsTable(w io.Writer, results []models.ProxyResult) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROXY\tSTATUS\tLAT(ms)\tEXIT IP\tCOUNTRY\tERROR")
	for _, r := range results {
		latency := "-"
		if r.ResponseTimeMs != nil {
			latency = strconv.Itoa(*r.ResponseTimeMs)
		}
		fmt.Fprintf(tw, "%s:%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ProxyIP, r.ProxyPort, r.Status, latency,
			dashIfEmpty(r.ExitIP), dashIfEmpty(r.Country), dashIfEmpty(r.Error))
	}
	tw.Flush()
}

func printSummary(w io.Writer, stats models.RunStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total:        %d\n", stats.Total)
	fmt.Fprintf(w, "  Alive:        %d\n", stats.Alive)
	fmt.Fprintf(w, "  Dead:         %d\n", stats.Dead)
	if stats.AvgLatency != nil {
		fmt.Fprintf(w, "  Avg latency:  %d ms\n", *stats.AvgLatency)
	}
	for country, n := range stats.Countries {
		fmt.Fprintf(w, "  %-13s %d\n", country+":", n)
	}
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeExport(cmd *cobra.Command, path string, results []models.ProxyResult) error {
	name, _ := cmd.Flags().GetString("filter")
	filter, err := export.ParseFilter(name)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	return export.WriteFile(path, format, results, filter)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
