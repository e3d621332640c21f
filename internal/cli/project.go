package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tillerstead/admin/internal/project"
)

// NewProjectCommand groups the TillerPro project subcommands
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect, back up and restore TillerPro projects",
	}
	cmd.AddCommand(newProjectListCommand(rootOpts))
	cmd.AddCommand(newProjectExportCommand(rootOpts))
	cmd.AddCommand(newProjectImportCommand(rootOpts))
	cmd.AddCommand(newProjectTextCommand(rootOpts))
	cmd.AddCommand(newProjectShoppingCommand(rootOpts))
	return cmd
}

func newProjectListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			projects := a.Projects.List()
			return rootOpts.printer(cmd).Print(projects, func(w io.Writer) error {
				rows := make([][]string, 0, len(projects))
				for _, p := range projects {
					rows = append(rows, []string{
						p.ID,
						p.Name,
						strconv.Itoa(len(p.Calculations)),
						strconv.FormatFloat(p.TotalArea, 'f', -1, 64),
						p.UpdatedAt.UTC().Format(time.RFC3339),
					})
				}
				return Table(w, []string{"ID", "NAME", "CALCULATIONS", "AREA", "UPDATED"}, rows)
			})
		},
	}
}

func newProjectExportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of every project and the settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.Projects.Export()
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write backup: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "backup file (default stdout)")
	return cmd
}

func newProjectImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all projects with those in a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}

			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Projects.Import(data)
			if err != nil {
				return err
			}
			return rootOpts.printer(cmd).Print(map[string]any{"success": true, "imported": n}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Imported %d projects\n", n)
				return err
			})
		},
	}
}

func newProjectTextCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "text <id>",
		Short: "Print a project as a plain-text report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Projects.Get(args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), project.FormatText(*p))
			return err
		},
	}
}

func newProjectShoppingCommand(rootOpts *RootOptions) *cobra.Command {
	var csv bool

	cmd := &cobra.Command{
		Use:   "shopping <id>",
		Short: "Print the material shopping list for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Projects.ShoppingList(args[0])
			if err != nil {
				return err
			}
			if csv {
				return project.WriteCSV(cmd.OutOrStdout(), *list)
			}
			return rootOpts.printer(cmd).Print(list, func(w io.Writer) error {
				rows := make([][]string, 0, len(list.Items))
				for _, it := range list.Items {
					rows = append(rows, []string{it.Item, strconv.Itoa(it.Quantity), it.Unit, it.Source})
				}
				return Table(w, []string{"ITEM", "QUANTITY", "UNIT", "SOURCE"}, rows)
			})
		},
	}

	cmd.Flags().BoolVar(&csv, "csv", false, "write CSV instead of a table")
	return cmd
}
