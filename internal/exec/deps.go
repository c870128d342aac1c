// Package exec implements the business logic behind each CLI command. The
// cobra layer in cmd/ stays thin: it builds Deps from real AWS clients and
// calls into here. Tests substitute fakes for every dependency.
package exec

import (
	"context"
	"io"
	"os"

	"github.com/cloudposse/accountfactory/pkg/aws/identity"
	"github.com/cloudposse/accountfactory/pkg/aws/organizations"
	"github.com/cloudposse/accountfactory/pkg/store"
)

// IdentityVerifier confirms the operator's caller identity.
type IdentityVerifier interface {
	GetCallerIdentity(ctx context.Context) (*identity.CallerIdentity, error)
}

// AccountRegistry discovers and creates member accounts.
type AccountRegistry interface {
	ListAccounts(ctx context.Context) ([]organizations.Account, error)
	CreateAccount(ctx context.Context, email, accountName, roleName string, overwrite bool) (string, error)
}

// IdentityBootstrapper provisions the operator identity in a member account.
// The returned record is nil when the user already existed.
type IdentityBootstrapper interface {
	Provision(ctx context.Context, accountID, username string) (*store.CredentialRecord, error)
}

// CredentialStore persists and retrieves credential records.
type CredentialStore interface {
	Put(ctx context.Context, accountID, username string, record *store.CredentialRecord) error
	Get(ctx context.Context, accountID, username string) (*store.CredentialRecord, error)
}

// ProfileReconciler renders stored credentials into a local named profile.
type ProfileReconciler interface {
	Apply(ctx context.Context, accountEmail string, liveAccounts []organizations.Account, profileName, username string) error
}

// Deps carries every collaborator an operation needs. Constructed once in
// cmd/ and passed explicitly; nothing here reads global state.
type Deps struct {
	Identity     IdentityVerifier
	Registry     AccountRegistry
	Bootstrapper IdentityBootstrapper
	Credentials  CredentialStore
	Reconciler   ProfileReconciler

	// Confirm prompts the operator and reports assent. Nil means always
	// confirmed (used by tests and --skip-confirmation).
	Confirm func(prompt string) (bool, error)

	// Stdout receives user-facing output such as the accounts table.
	Stdout io.Writer
}

func (d *Deps) stdout() io.Writer {
	if d.Stdout != nil {
		return d.Stdout
	}
	return os.Stdout
}
