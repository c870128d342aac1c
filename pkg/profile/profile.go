// Package profile reconciles local AWS CLI named profiles against the
// credentials held in the remote store. Profiles are rebuilt, not merged:
// every run writes all four settings.
package profile

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/cloudposse/accountfactory/errors"
	"github.com/cloudposse/accountfactory/pkg/aws/organizations"
	"github.com/cloudposse/accountfactory/pkg/schema"
	"github.com/cloudposse/accountfactory/pkg/store"
)

// ConfigWriter applies one named-profile setting. The production
// implementation shells out to the AWS CLI; tests substitute a fake so no
// external process runs.
type ConfigWriter interface {
	Set(ctx context.Context, profileName, key, value string) error
}

// AWSCLIWriter writes profile settings through `aws configure set`.
type AWSCLIWriter struct{}

// Set runs `aws configure set <key> <value> --profile <name>`. Error output
// on stderr is treated as failure even when the process exits zero, matching
// how the CLI reports configuration problems.
func (w *AWSCLIWriter) Set(ctx context.Context, profileName, key, value string) error {
	cmd := exec.CommandContext(ctx, "aws", "configure", "set", key, value, "--profile", profileName)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: aws configure set %s --profile %s: %w",
			errUtils.ErrProfileWrite, key, profileName, err)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%w: aws configure set %s --profile %s: %s",
			errUtils.ErrProfileWrite, key, profileName, msg)
	}

	return nil
}

// Reconciler materializes stored credentials as local profiles.
type Reconciler struct {
	credentials *store.CredentialStore
	writer      ConfigWriter
	settings    *schema.Settings
}

// NewReconciler creates a Reconciler.
func NewReconciler(credentials *store.CredentialStore, writer ConfigWriter, settings *schema.Settings) *Reconciler {
	return &Reconciler{
		credentials: credentials,
		writer:      writer,
		settings:    settings,
	}
}

// Apply resolves the declared account against the live account list, fetches
// its stored credentials and writes them into the named profile. The
// declared account must already exist remotely, and the credentials must
// already be stored; reconciliation never fabricates either.
func (r *Reconciler) Apply(ctx context.Context, accountEmail string, liveAccounts []organizations.Account, profileName, username string) error {
	account := organizations.FindByEmail(liveAccounts, accountEmail)
	if account == nil {
		return fmt.Errorf("%w: no account with email %s", errUtils.ErrAccountNotFound, accountEmail)
	}

	log.Info("Found account for profile", "email", accountEmail, "account_id", account.ID, "profile", profileName)

	record, err := r.credentials.Get(ctx, account.ID, username)
	if err != nil {
		return err
	}
	if record == nil {
		return errors.WithHintf(
			fmt.Errorf("%w: user %s in account %s", errUtils.ErrNoStoredCredentials, username, account.ID),
			"Run `accountfactory create-accounts --username %s` first to create the IAM user and store credentials", username)
	}

	// Order matters only in that the first failed write aborts the rest.
	writes := []struct {
		key   string
		value string
	}{
		{"aws_access_key_id", record.AccessKeyID},
		{"aws_secret_access_key", record.SecretAccessKey},
		{"region", r.settings.Region},
		{"output", "json"},
	}

	for _, w := range writes {
		if err := r.writer.Set(ctx, profileName, w.key, w.value); err != nil {
			return err
		}
	}

	log.Info("Configured AWS profile", "profile", profileName)

	return nil
}
