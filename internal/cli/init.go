// Package cli — init.go implements the "botstack init" command.
//
// Init writes the canonical four-service descriptor (bot, grafana,
// prometheus, node-exporter) to botstack.yml as a starting point. The
// rendered file round-trips through the parser, so it deploys as-is once
// the bot's build context exists.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Roman-Andr/botstack/internal/model"
	"github.com/Roman-Andr/botstack/internal/stack"
)

// NewInitCommand creates the "init" cobra command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default stack descriptor",
		Long: `Write the default four-service descriptor (bot, grafana,
prometheus, node-exporter) to the stack file named by the config
(botstack.yml by default).

The command refuses to overwrite an existing descriptor unless --force
is given.

Examples:
  botstack init
  botstack init --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing descriptor")

	return cmd
}

// runInit renders the default stack and writes it to the stack file.
func runInit(force bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.StackFile); err == nil && !force {
		return model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("%s already exists; use --force to overwrite", cfg.StackFile))
	}

	// Root the topology at the working directory so the descriptor's bind
	// sources and build context come out absolute — Docker rejects
	// relative bind sources at container creation.
	wd, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"failed to resolve working directory", err)
	}

	st := stack.Default(wd)
	data, err := stack.Marshal(st)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"failed to render default descriptor", err)
	}

	if err := os.WriteFile(cfg.StackFile, data, 0o644); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to write %s", cfg.StackFile), err)
	}

	printInitResult(cfg.StackFile, st)
	return nil
}

// printInitResult outputs the init command result in text or JSON format.
func printInitResult(path string, st *stack.Stack) {
	if IsJSONOutput() {
		result := map[string]interface{}{
			"stack":    st.Name,
			"file":     path,
			"services": st.ServiceNames(),
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Wrote %s (stack %q, %d services)\n", path, st.Name, len(st.Services))
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Put the bot's Dockerfile in ./ (the bot service builds from the current directory)")
	fmt.Println("  2. Add prometheus.yml and web.yml next to the descriptor")
	fmt.Println("  3. Run: botstack up")
}
