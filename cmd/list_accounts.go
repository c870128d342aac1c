package cmd

import (
	"github.com/spf13/cobra"

	e "github.com/cloudposse/accountfactory/internal/exec"
)

// listAccountsCmd lists the organization's member accounts.
var listAccountsCmd = &cobra.Command{
	Use:   "list-accounts",
	Short: "List accounts in the AWS Organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		deps, err := buildDeps(ctx, newSettings())
		if err != nil {
			return err
		}

		return e.ExecuteListAccounts(ctx, deps)
	},
}

func init() {
	RootCmd.AddCommand(listAccountsCmd)
}
