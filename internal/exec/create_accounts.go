package exec

import (
	"context"

	"github.com/charmbracelet/log"

	errUtils "github.com/cloudposse/accountfactory/errors"
	"github.com/cloudposse/accountfactory/pkg/config"
	"github.com/cloudposse/accountfactory/pkg/schema"
)

// CreateAccountsOptions are the flags of `accountfactory create-accounts`.
type CreateAccountsOptions struct {
	Username         string
	Overwrite        bool
	SkipConfirmation bool
	ConfigPath       string
}

// ExecuteCreateAccounts runs the provisioning pipeline: confirm, verify the
// caller identity, load the desired state, then for each declared account
// resolve-or-create it, bootstrap the operator identity inside it and
// persist the generated credentials.
//
// The per-account loop deliberately does not isolate bootstrap or
// persistence errors: a single account's irrecoverable failure stops the
// whole run. Visible, stop-the-line failures beat silently incomplete
// batches. The only cross-account tolerance is the idempotent creation skip.
func ExecuteCreateAccounts(ctx context.Context, deps *Deps, settings *schema.Settings, opts *CreateAccountsOptions) error {
	if !opts.SkipConfirmation && deps.Confirm != nil {
		ok, err := deps.Confirm("Are you sure you want to create new accounts in AWS Organizations?")
		if err != nil {
			return err
		}
		if !ok {
			return errUtils.ErrAborted
		}
	}

	if _, err := deps.Identity.GetCallerIdentity(ctx); err != nil {
		return err
	}

	desired, err := config.LoadDesiredState(opts.ConfigPath)
	if err != nil {
		return err
	}
	if len(desired.Accounts) == 0 {
		return errUtils.ErrNoAccounts
	}

	for _, account := range desired.Accounts {
		log.Info("Checking declared account", "email", account.Email)

		accountID, err := deps.Registry.CreateAccount(ctx,
			account.Email, account.AccountName, settings.OrganizationRoleName, opts.Overwrite)
		if err != nil {
			return err
		}
		if accountID == "" {
			// Idempotent skip: the account is already there or its email is
			// taken; nothing was created, so there is nothing to bootstrap.
			continue
		}

		log.Info("Account created", "email", account.Email, "account_id", accountID)

		record, err := deps.Bootstrapper.Provision(ctx, accountID, opts.Username)
		if err != nil {
			return err
		}
		if record == nil {
			continue
		}

		if err := deps.Credentials.Put(ctx, accountID, opts.Username, record); err != nil {
			return err
		}
	}

	return nil
}
