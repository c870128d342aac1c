package exec

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/cloudposse/accountfactory/pkg/config"
)

// SetupProfilesOptions are the flags of `accountfactory setup-aws-profiles`.
type SetupProfilesOptions struct {
	Username   string
	ConfigPath string
}

// ExecuteSetupProfiles reconciles local AWS CLI profiles against the
// credential store for every declared account. Declared accounts must
// already exist remotely and have stored credentials; reconciliation fails
// closed otherwise.
func ExecuteSetupProfiles(ctx context.Context, deps *Deps, opts *SetupProfilesOptions) error {
	if _, err := deps.Identity.GetCallerIdentity(ctx); err != nil {
		return err
	}

	liveAccounts, err := deps.Registry.ListAccounts(ctx)
	if err != nil {
		return err
	}

	desired, err := config.LoadDesiredState(opts.ConfigPath)
	if err != nil {
		return err
	}

	for _, account := range desired.Accounts {
		log.Info("Setting up profile for account", "email", account.Email, "profile", account.ProfileName)

		if err := deps.Reconciler.Apply(ctx, account.Email, liveAccounts, account.ProfileName, opts.Username); err != nil {
			return err
		}
	}

	return nil
}
