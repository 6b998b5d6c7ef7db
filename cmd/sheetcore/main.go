// Package main provides the CLI entry point for sheetcore.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukaji3/sheetcore-go/internal/config"
	"github.com/ukaji3/sheetcore-go/internal/logger"
	"github.com/ukaji3/sheetcore-go/internal/server"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/address"
	"github.com/ukaji3/sheetcore-go/pkg/sheetcore/workbook"
)

var (
	outputPath string
	pretty     bool
	sheetIndex int
	now        string
	rangeRef   string
	category   int
	configPath string
	envPath    string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sheetcore",
		Short: "Decode, encode and evaluate spreadsheet workbooks",
		Long: `sheetcore reads xlsx and delimited text into a workbook model,
writes it back to xlsx with conditional formatting and charts preserved,
and serves the same operations over HTTP.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	inspectCmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print the decoded workbook as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	inspectCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	overlayCmd := &cobra.Command{
		Use:   "overlay [file]",
		Short: "Evaluate conditional formatting of one sheet",
		Args:  cobra.ExactArgs(1),
		RunE:  runOverlay,
	}
	overlayCmd.Flags().IntVar(&sheetIndex, "sheet", -1, "Sheet index (default: the active sheet)")
	overlayCmd.Flags().StringVar(&now, "now", "", "Evaluation time in RFC 3339 (default: now)")
	overlayCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	chartCmd := &cobra.Command{
		Use:   "chart [file]",
		Short: "Extract chart categories and series from a range",
		Args:  cobra.ExactArgs(1),
		RunE:  runChart,
	}
	chartCmd.Flags().IntVar(&sheetIndex, "sheet", -1, "Sheet index (default: the active sheet)")
	chartCmd.Flags().StringVar(&rangeRef, "range", "", "Data range such as A1:C5 (default: the used range)")
	chartCmd.Flags().IntVar(&category, "category", 0, "Category column, relative to the range")
	chartCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	convertCmd := &cobra.Command{
		Use:   "convert [input]",
		Short: "Convert a workbook or delimited text to xlsx",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvert,
	}
	convertCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output xlsx path")
	_ = convertCmd.MarkFlagRequired("output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the codec over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	serveCmd.Flags().StringVar(&envPath, "env", ".env", "Dotenv file")

	rootCmd.AddCommand(inspectCmd, overlayCmd, chartCmd, convertCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func codecOptions() (sheetcore.Options, error) {
	log, err := logger.NewWithOutput(os.Stderr, logLevel, "text")
	if err != nil {
		return sheetcore.Options{}, err
	}
	opts := sheetcore.DefaultOptions()
	opts.Logger = log
	return opts, nil
}

func open(ctx context.Context, path string) (*workbook.Workbook, sheetcore.Options, error) {
	opts, err := codecOptions()
	if err != nil {
		return nil, opts, err
	}
	w, err := sheetcore.OpenFile(ctx, path, opts)
	if err != nil {
		return nil, opts, fmt.Errorf("open %s: %w", path, err)
	}
	return w, opts, nil
}

func selectSheet(w *workbook.Workbook) int {
	if sheetIndex < 0 {
		return w.ActiveIndex()
	}
	return sheetIndex
}

func writeJSON(cmd *cobra.Command, v any) error {
	var data []byte
	var err error
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	w, _, err := open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return writeJSON(cmd, w)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	w, opts, err := open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	at := time.Now()
	if now != "" {
		if at, err = time.Parse(time.RFC3339, now); err != nil {
			return fmt.Errorf("invalid --now %q: %w", now, err)
		}
	}
	ov, err := sheetcore.Overlay(cmd.Context(), w, selectSheet(w), at, opts)
	if err != nil {
		return err
	}
	return writeJSON(cmd, ov)
}

func runChart(cmd *cobra.Command, args []string) error {
	w, opts, err := open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	i := selectSheet(w)
	s, err := w.Sheet(i)
	if err != nil {
		return err
	}

	var rng address.Range
	if rangeRef != "" {
		var ok bool
		if rng, ok = address.ParseA1Range(rangeRef); !ok {
			return fmt.Errorf("invalid --range %q", rangeRef)
		}
	} else {
		var ok bool
		if rng, ok = s.Grid.UsedRange(); !ok {
			return fmt.Errorf("sheet %q is empty", s.Name)
		}
	}

	data, err := sheetcore.ChartData(w, i, rng, category, opts)
	if err != nil {
		return err
	}
	return writeJSON(cmd, data)
}

func runConvert(cmd *cobra.Command, args []string) error {
	w, opts, err := open(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := sheetcore.SaveFile(cmd.Context(), w, outputPath, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, log).Run(ctx)
}
