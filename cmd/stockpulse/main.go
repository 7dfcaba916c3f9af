// StockPulse: terminal and web front ends for the NSE analysis engine.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"github.com/ternarybob/banner"

	"github.com/seenimoa/stockpulse/api"
	"github.com/seenimoa/stockpulse/internal/config"
	"github.com/seenimoa/stockpulse/internal/engine"
	"github.com/seenimoa/stockpulse/internal/logging"
	"github.com/seenimoa/stockpulse/internal/render"
	"github.com/seenimoa/stockpulse/internal/session"
	"github.com/seenimoa/stockpulse/internal/tui"
	"github.com/seenimoa/stockpulse/internal/view"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stockpulse",
	Short: "StockPulse: AI stock analysis terminal for NSE",
	Long: `StockPulse
Submit a ticker or company name to the analysis engine and read the
result as a dashboard: price and trend, alpha score and recommendation,
technical indicators, the AI summary, news headlines and sector peers.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(statusCmd)
}

// newSession wires the engine client into a session controller.
func newSession(logger *log.Logger) *session.Controller {
	client := engine.NewClient(cfg.Engine.URL, cfg.EngineTimeout())
	return session.NewController(client,
		session.WithTimeout(cfg.EngineTimeout()),
		session.WithScrollDelay(cfg.ScrollDelay()),
		session.WithLogger(logger),
	)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("StockPulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker or company]",
	Short: "Analyze one stock and print the dashboard",
	Long: `Submit one analysis request and print the result.
Without arguments an interactive prompt offers the case-study presets or
free text.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := utils.CleanQuery(strings.Join(args, " "))
		if query == "" {
			var err error
			query, err = promptQuery(cfg.UI.Presets)
			if err != nil {
				return err
			}
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		width, _ := cmd.Flags().GetInt("width")

		logger := logging.New(cfg.Logging)
		ctrl := newSession(logger)
		defer ctrl.Close()

		ctx, cancel := signalContext()
		defer cancel()

		if !asJSON {
			fmt.Println(render.Status(session.State{Status: session.Pending, Ticker: query}, "⠿", width))
		}

		st, err := ctrl.SubmitAndWait(ctx, query)
		if err != nil {
			return fmt.Errorf("analyze %s: %w", query, err)
		}
		return printResult(cmd, st, asJSON, width)
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the dashboard as JSON")
	analyzeCmd.Flags().Int("width", 100, "render width in columns")
}

// printResult writes a terminal state and returns an error for failures so
// the process exits non-zero.
func printResult(cmd *cobra.Command, st session.State, asJSON bool, width int) error {
	out := cmd.OutOrStdout()

	if st.Status == session.Failed {
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			_ = enc.Encode(st)
		} else {
			fmt.Fprintln(out, render.Status(st, "", width))
		}
		return errors.New(st.Message)
	}
	if st.Status != session.Succeeded || st.Result == nil {
		return fmt.Errorf("analysis ended in state %s", st.Status)
	}

	d := view.Project(*st.Result)
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	fmt.Fprintln(out, render.Dashboard(d, width))
	return nil
}

// --- TUI Command ---

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal page",
	RunE: func(cmd *cobra.Command, args []string) error {
		logCfg := cfg.Logging
		if logCfg.File == "" {
			logCfg.File = filepath.Join(os.TempDir(), "stockpulse-tui.log")
		}
		logger := logging.New(logCfg)

		ctrl := newSession(logger)
		defer ctrl.Close()

		if q, _ := cmd.Flags().GetString("query"); q != "" {
			ctrl.SetQuery(q)
		}
		return tui.Run(ctrl, cfg.UI.Presets)
	},
}

func init() {
	tuiCmd.Flags().String("query", "", "initial query")
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web page",
	RunE: func(cmd *cobra.Command, args []string) error {
		if host, _ := cmd.Flags().GetString("host"); host != "" {
			cfg.API.Host = host
		}
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.API.Port = port
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := logging.New(cfg.Logging)
		ctrl := newSession(logger)
		defer ctrl.Close()

		api.Version = version
		srv, err := api.NewServer(cfg, ctrl, logger)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		printServeBanner(cfg.ListenAddr(), cfg.Engine.URL)
		return srv.Run(ctx, cfg.ListenAddr())
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides api.host)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides api.port)")
}

func printServeBanner(addr, engineURL string) {
	b := banner.New().
		SetStyle(banner.StyleDouble).
		SetBorderColor(banner.ColorCyan).
		SetWidth(64)
	b.PrintTopLine()
	b.PrintCenteredText("StockPulse " + version)
	b.PrintSeparatorLine()
	b.PrintKeyValue("Web", "http://"+addr, 8)
	b.PrintKeyValue("Engine", engineURL, 8)
	b.PrintKeyValue("Market", utils.MarketStatus(), 8)
	b.PrintBottomLine()
}

// --- Presets Command ---

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the case-study presets",
	Run: func(cmd *cobra.Command, args []string) {
		for _, p := range cfg.UI.Presets {
			fmt.Fprintf(cmd.OutOrStdout(), "  %-22s %-14s %s\n", p.Name, p.Ticker, p.Description)
		}
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and market status",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  StockPulse System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Market Status: %s\n", utils.MarketStatus())
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()

		fmt.Println("  Settings:")
		for _, s := range config.CheckSettings(cfg) {
			fmt.Printf("    %-20s %-40s (%s)\n", s.Name+":", s.Value, s.Source)
		}
		fmt.Printf("    %-20s %d\n", "Presets:", len(cfg.UI.Presets))

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
