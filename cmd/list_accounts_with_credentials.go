package cmd

import (
	"github.com/spf13/cobra"

	e "github.com/cloudposse/accountfactory/internal/exec"
	"github.com/cloudposse/accountfactory/pkg/schema"
)

// listAccountsWithCredentialsCmd lists accounts and their stored credentials.
var listAccountsWithCredentialsCmd = &cobra.Command{
	Use:   "list-accounts-with-credentials",
	Short: "List accounts with credentials from Secrets Manager",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts := &e.ListAccountsWithCredentialsOptions{Username: schema.DefaultUsername}
		if err := setStringFlagIfChanged(cmd.Flags(), "username", &opts.Username); err != nil {
			return err
		}

		deps, err := buildDeps(ctx, newSettings())
		if err != nil {
			return err
		}

		return e.ExecuteListAccountsWithCredentials(ctx, deps, opts)
	},
}

func init() {
	listAccountsWithCredentialsCmd.Flags().String("username", schema.DefaultUsername, "IAM username whose credentials to look up")
	RootCmd.AddCommand(listAccountsWithCredentialsCmd)
}
