package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tillerstead/admin/internal/models"
	"github.com/tillerstead/admin/internal/services/auth"
)

// cliIP marks audit entries written by tillerctl
const cliIP = "cli"

// NewUserCommand groups the user account subcommands
func NewUserCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage admin users",
	}
	cmd.AddCommand(newUserListCommand(rootOpts))
	cmd.AddCommand(newUserCreateCommand(rootOpts))
	cmd.AddCommand(newUserPasswdCommand(rootOpts))
	cmd.AddCommand(newUserStatusCommand(rootOpts, "enable", true))
	cmd.AddCommand(newUserStatusCommand(rootOpts, "disable", false))
	cmd.AddCommand(newUserDeleteCommand(rootOpts))
	return cmd
}

func newUserListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			users := a.Users.ListUsers()
			return rootOpts.printer(cmd).Print(users, func(w io.Writer) error {
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{u.Username, u.Email, u.Role, yesNo(u.IsActive), yesNo(u.TwoFactorEnabled), lastLogin(u)})
				}
				return Table(w, []string{"USERNAME", "EMAIL", "ROLE", "ACTIVE", "2FA", "LAST LOGIN"}, rows)
			})
		},
	}
}

func lastLogin(u models.PublicUser) string {
	if u.LastLogin == nil {
		return "never"
	}
	return u.LastLogin.UTC().Format(time.RFC3339)
}

func newUserCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		email         string
		role          string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret(cmd, passwordStdin, "Password: ")
			if err != nil {
				return err
			}

			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Roles.RoleExists(role) {
				return fmt.Errorf("unknown role %q", role)
			}

			ctx := cmd.Context()
			u, err := a.Users.CreateUser(ctx, auth.CreateUserInput{
				Username: args[0],
				Email:    email,
				Password: password,
				Role:     role,
			})
			if err != nil {
				return err
			}
			a.Audit.Log(ctx, "user_created", auth.AdminUsername, map[string]any{"username": u.Username, "role": u.Role, "via": "tillerctl"}, cliIP)

			return rootOpts.printer(cmd).Print(u, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created user %s (%s)\n", u.Username, u.Role)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", models.RoleViewer, "role name")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserPasswdCommand(rootOpts *RootOptions) *cobra.Command {
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Set a user's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readSecret(cmd, passwordStdin, "New password: ")
			if err != nil {
				return err
			}

			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if _, err := a.Users.UpdateUser(ctx, args[0], auth.UpdateUserInput{Password: &password}); err != nil {
				return err
			}
			a.Audit.Log(ctx, "password_changed", args[0], map[string]any{"via": "tillerctl"}, cliIP)

			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

func newUserStatusCommand(rootOpts *RootOptions, verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <username>",
		Short: verb + " a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			u, err := a.Users.ToggleUserStatus(ctx, args[0], active)
			if err != nil {
				return err
			}
			a.Audit.Log(ctx, "user_status_changed", auth.AdminUsername, map[string]any{"username": u.Username, "isActive": active, "via": "tillerctl"}, cliIP)

			return rootOpts.printer(cmd).Print(u, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "User %s active=%t\n", u.Username, u.IsActive)
				return err
			})
		},
	}
}

func newUserDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.Users.DeleteUser(ctx, args[0]); err != nil {
				return err
			}
			a.Audit.Log(ctx, "user_deleted", auth.AdminUsername, map[string]any{"username": args[0], "via": "tillerctl"}, cliIP)

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %s\n", args[0])
			return nil
		},
	}
}
