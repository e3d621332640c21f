package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tillerstead/admin/internal/services/auth"
	"github.com/tillerstead/admin/internal/services/security"
)

// NewAPIKeyCommand groups the API key subcommands
func NewAPIKeyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apikey",
		Aliases: []string{"key"},
		Short:   "Manage API keys",
	}
	cmd.AddCommand(newAPIKeyListCommand(rootOpts))
	cmd.AddCommand(newAPIKeyCreateCommand(rootOpts))
	cmd.AddCommand(newAPIKeyRevokeCommand(rootOpts))
	return cmd
}

func newAPIKeyListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys with masked hashes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			keys := a.APIKeys.ListKeys()
			return rootOpts.printer(cmd).Print(keys, func(w io.Writer) error {
				rows := make([][]string, 0, len(keys))
				for _, k := range keys {
					rows = append(rows, []string{k.Hash, k.Name, strings.Join(k.Permissions, ","), strconv.Itoa(k.UsageCount)})
				}
				return Table(w, []string{"HASH", "NAME", "PERMISSIONS", "USES"}, rows)
			})
		},
	}
}

type createdKey struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

func newAPIKeyCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var perms []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Issue an API key. The key is shown once.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			raw, err := a.APIKeys.GenerateKey(ctx, args[0], perms)
			if err != nil {
				return err
			}
			a.Audit.Log(ctx, "api_key_created", auth.AdminUsername, map[string]any{"name": args[0], "via": "tillerctl"}, cliIP)

			out := createdKey{Key: raw, Name: args[0], Permissions: perms}
			return rootOpts.printer(cmd).Print(out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, raw)
				return err
			})
		},
	}

	cmd.Flags().StringSliceVar(&perms, "perm", nil, "permission granted to the key (repeatable)")
	return cmd
}

func newAPIKeyRevokeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <key-or-hash>",
		Short: "Revoke a key by raw value, hash or the masked hash from list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootOpts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			ok, err := a.APIKeys.RevokeKey(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return security.ErrKeyNotFound
			}

			hash := args[0]
			if strings.HasPrefix(hash, security.KeyPrefix) {
				hash = "(raw key)"
			}
			a.Audit.Log(ctx, "api_key_revoked", auth.AdminUsername, map[string]any{"hash": hash, "via": "tillerctl"}, cliIP)

			fmt.Fprintln(cmd.OutOrStdout(), "API key revoked")
			return nil
		},
	}
}
