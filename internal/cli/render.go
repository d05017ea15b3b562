// Package cli — render.go implements the "botstack render" command.
//
// Render loads the descriptor, normalizes it (shorthand expanded,
// defaults applied), and prints it back. Useful for checking what `up`
// would actually deploy, since the normalized form is what gets hashed
// and compared against running containers.
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Roman-Andr/botstack/internal/model"
	"github.com/Roman-Andr/botstack/internal/stack"
)

// NewRenderCommand creates the "render" cobra command.
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the normalized stack descriptor",
		Long: `Load, validate, and print the stack descriptor with all shorthand
expanded and defaults applied.

With --json the normalized internal representation is printed instead of
the YAML form; this is the exact structure whose hash drives the
recreate-on-change decision in "up".

Examples:
  botstack render
  botstack render --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender()
		},
	}

	return cmd
}

// runRender prints the normalized descriptor.
func runRender() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := loadStack(cfg)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	data, err := stack.Marshal(st)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			"failed to render descriptor", err)
	}
	fmt.Print(string(data))
	return nil
}
