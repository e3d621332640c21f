package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tillerstead/admin/internal/calculator"
)

// NewCalcCommand groups the calculator subcommands
func NewCalcCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "List and run TillerPro calculators",
	}
	cmd.AddCommand(newCalcListCommand(rootOpts))
	cmd.AddCommand(newCalcRunCommand(rootOpts))
	return cmd
}

// calc list needs no data directory
func newCalcListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List calculators by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := calculator.NewRegistry().List()
			return rootOpts.printer(cmd).Print(infos, func(w io.Writer) error {
				rows := make([][]string, 0, len(infos))
				for _, c := range infos {
					rows = append(rows, []string{c.ID, c.Category, c.Name, yesNo(c.Remote)})
				}
				return Table(w, []string{"ID", "CATEGORY", "NAME", "REMOTE"}, rows)
			})
		},
	}
}

func newCalcRunCommand(rootOpts *RootOptions) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "run <calculator>",
		Short: "Run a calculator on JSON input from --input or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(input)
			if strings.TrimSpace(input) == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				raw = b
			}
			if !json.Valid(raw) {
				return calculator.ErrInvalidInput
			}

			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			calc := calculator.NewHybridCalculator(calculator.NewRegistry(), cfg.ToolkitAPIURL, rootOpts.logger(cfg))

			out, err := calc.Calculate(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "calculator input as JSON")
	return cmd
}
