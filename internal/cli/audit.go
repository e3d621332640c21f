package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewAuditCommand prints recent audit log entries, newest first
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		filter string
		user   string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch filter {
			case "all", "login", "file", "high":
			default:
				return fmt.Errorf("invalid filter %q: must be one of all, login, file, high", filter)
			}

			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.Audit.Filter(filter, limit)
			if user != "" {
				entries = a.Audit.LogsByUser(user, limit)
			}

			return rootOpts.printer(cmd).Print(entries, func(w io.Writer) error {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.Timestamp.UTC().Format(time.RFC3339), string(e.Severity), e.Event, e.User, e.IP})
				}
				return Table(w, []string{"TIME", "SEVERITY", "EVENT", "USER", "IP"}, rows)
			})
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "all", "entry set (all|login|file|high)")
	cmd.Flags().StringVar(&user, "user", "", "only entries for this user")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries")
	return cmd
}
