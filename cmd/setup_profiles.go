package cmd

import (
	"github.com/spf13/cobra"

	e "github.com/cloudposse/accountfactory/internal/exec"
	"github.com/cloudposse/accountfactory/pkg/schema"
)

// setupProfilesCmd configures local AWS CLI profiles from stored credentials.
var setupProfilesCmd = &cobra.Command{
	Use:   "setup-aws-profiles",
	Short: "Configure AWS profiles using credentials from Secrets Manager",
	Long:  `For every account declared in accountfactory.json, look up its stored operator credentials and write them into the declared local AWS CLI profile.`,
	Args:  cobra.NoArgs,
	RunE:  executeSetupProfilesCommand,
}

func executeSetupProfilesCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	opts := &e.SetupProfilesOptions{Username: schema.DefaultUsername}
	if err := setStringFlagIfChanged(cmd.Flags(), "username", &opts.Username); err != nil {
		return err
	}

	settings := newSettings()
	settings.Username = opts.Username

	deps, err := buildDeps(ctx, settings)
	if err != nil {
		return err
	}

	return e.ExecuteSetupProfiles(ctx, deps, opts)
}

func init() {
	setupProfilesCmd.Flags().String("username", schema.DefaultUsername, "IAM username whose credentials to use")
	RootCmd.AddCommand(setupProfilesCmd)
}
