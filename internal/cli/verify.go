// Package cli — verify.go implements the "botstack verify" command.
//
// Verify checks a deployed stack against its runtime contract: services
// running, volumes present, ports reachable, metrics retention as
// configured, samples queryable, and exporter filesystem series clean.
// Every check runs even if an earlier one fails, so a single report
// shows the whole state. Any failure exits with code 7.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roman-Andr/botstack/internal/verify"
)

// NewVerifyCommand creates the "verify" cobra command.
func NewVerifyCommand() *cobra.Command {
	var skipMetrics bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the deployed stack against its runtime contract",
		Long: `Run the verification suite against the deployed stack:

  services-running   every declared service has a running container
  volumes-present    every declared named volume exists
  ports-reachable    every published TCP port accepts connections
  metrics-retention  the metrics database reports the configured retention
  metrics-query-back ingested samples are immediately queryable
  filesystem-mounts  exporter series contain no excluded or duplicate mounts

All checks run regardless of individual failures. Exit code 7 signals at
least one failed check.

Examples:
  botstack verify
  botstack verify --json
  botstack verify --skip-metrics`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), skipMetrics)
		},
	}

	cmd.Flags().BoolVar(&skipMetrics, "skip-metrics", false, "Skip the Prometheus-backed checks")

	return cmd
}

// runVerify executes the check suite and reports the results.
func runVerify(ctx context.Context, skipMetrics bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := loadStack(cfg)
	if err != nil {
		return err
	}

	cli, err := connectDocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	promURL := cfg.PrometheusURL
	if skipMetrics {
		promURL = ""
	}

	report := verify.Run(ctx, verify.Options{
		Stack:         st,
		Docker:        cli,
		PrometheusURL: promURL,
		ProbeTimeout:  cfg.ProbeTimeout.Std(),
	})

	printVerifyReport(report)
	return report.Err()
}

// printVerifyReport outputs the report in text or JSON format.
func printVerifyReport(report *verify.Report) {
	if IsJSONOutput() {
		type resultJSON struct {
			Name   string `json:"name"`
			OK     bool   `json:"ok"`
			Detail string `json:"detail,omitempty"`
			Error  string `json:"error,omitempty"`
		}
		out := struct {
			Stack   string       `json:"stack"`
			OK      bool         `json:"ok"`
			Results []resultJSON `json:"results"`
		}{Stack: report.Stack, OK: report.OK()}

		for _, r := range report.Results {
			rj := resultJSON{Name: r.Name, OK: r.OK(), Detail: r.Detail}
			if r.Err != nil {
				rj.Error = r.Err.Error()
			}
			out.Results = append(out.Results, rj)
		}

		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Verifying stack %q\n\n", report.Stack)
	for _, r := range report.Results {
		if r.OK() {
			fmt.Printf("  ok    %-20s %s\n", r.Name, r.Detail)
		} else {
			fmt.Printf("  FAIL  %-20s %v\n", r.Name, r.Err)
		}
	}
	fmt.Println()
	if report.OK() {
		fmt.Printf("All %d checks passed\n", len(report.Results))
	} else {
		fmt.Printf("%d of %d checks failed\n", report.Failed(), len(report.Results))
	}
}
