package exec

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
)

// ExecuteListAccounts prints a table of the organization's member accounts.
func ExecuteListAccounts(ctx context.Context, deps *Deps) error {
	if _, err := deps.Identity.GetCallerIdentity(ctx); err != nil {
		return err
	}

	accounts, err := deps.Registry.ListAccounts(ctx)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		log.Info("No accounts found in AWS Organizations")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Email", "Name", "Status")
	for _, account := range accounts {
		t.Row(account.ID, account.Email, account.Name, account.Status)
	}

	fmt.Fprintln(deps.stdout(), t.String())

	return nil
}

// ListAccountsWithCredentialsOptions are the flags of
// `accountfactory list-accounts-with-credentials`.
type ListAccountsWithCredentialsOptions struct {
	Username string
}

// ExecuteListAccountsWithCredentials prints every member account together
// with where its stored operator credentials live. Accounts without a stored
// secret are reported as such rather than failing the listing.
func ExecuteListAccountsWithCredentials(ctx context.Context, deps *Deps, opts *ListAccountsWithCredentialsOptions) error {
	if _, err := deps.Identity.GetCallerIdentity(ctx); err != nil {
		return err
	}

	accounts, err := deps.Registry.ListAccounts(ctx)
	if err != nil {
		return err
	}

	out := deps.stdout()

	for _, account := range accounts {
		record, err := deps.Credentials.Get(ctx, account.ID, opts.Username)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s - %s - %s\n", account.ID, account.Email, account.Status)
		if record == nil {
			fmt.Fprintf(out, "  no credentials stored for user %s\n", opts.Username)
			continue
		}
		fmt.Fprintf(out, "  username: %s\n", record.Username)
		fmt.Fprintf(out, "  access key id: %s\n", record.AccessKeyID)
		fmt.Fprintf(out, "  console url: %s\n", record.ConsoleURL)
	}

	return nil
}
