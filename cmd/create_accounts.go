package cmd

import (
	"github.com/spf13/cobra"

	e "github.com/cloudposse/accountfactory/internal/exec"
	"github.com/cloudposse/accountfactory/pkg/schema"
)

// createAccountsCmd deploys the declared accounts into the organization.
var createAccountsCmd = &cobra.Command{
	Use:   "create-accounts",
	Short: "Deploy accounts in the AWS Organization",
	Long:  `Create every account declared in accountfactory.json that does not exist yet, bootstrap the operator IAM user in each, and store the generated credentials in Secrets Manager. Repeated runs converge: existing accounts, users and secrets are skipped or updated, never duplicated.`,
	Args:  cobra.NoArgs,
	RunE:  executeCreateAccountsCommand,
}

func executeCreateAccountsCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := &e.CreateAccountsOptions{Username: schema.DefaultUsername}
	flags := cmd.Flags()
	if err := setStringFlagIfChanged(flags, "username", &opts.Username); err != nil {
		return err
	}
	if err := setBoolFlagIfChanged(flags, "overwrite", &opts.Overwrite); err != nil {
		return err
	}
	if err := setBoolFlagIfChanged(flags, "skip-confirmation", &opts.SkipConfirmation); err != nil {
		return err
	}

	settings := newSettings()
	settings.Username = opts.Username

	deps, err := buildDeps(ctx, settings)
	if err != nil {
		return err
	}

	return e.ExecuteCreateAccounts(ctx, deps, settings, opts)
}

func init() {
	createAccountsCmd.Flags().String("username", schema.DefaultUsername, "IAM username to create in each account")
	createAccountsCmd.Flags().Bool("overwrite", false, "Create accounts even when one with the same email already exists")
	createAccountsCmd.Flags().Bool("skip-confirmation", false, "Skip the confirmation prompt")
	RootCmd.AddCommand(createAccountsCmd)
}
