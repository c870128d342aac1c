// Package schema defines the typed configuration passed explicitly into every
// component constructor. Nothing in this repository reads ambient global state.
package schema

import "time"

// AccountConfig is one declared account in the desired-state file.
type AccountConfig struct {
	AccountName string `json:"accountName" mapstructure:"accountName"`
	ProfileName string `json:"profileName" mapstructure:"profileName"`
	Email       string `json:"identifyingEmail" mapstructure:"identifyingEmail"`
}

// DesiredStateConfig is the declarative input driving a provisioning run.
// It is read from `accountfactory.json` in the working directory.
type DesiredStateConfig struct {
	Accounts []AccountConfig `json:"accounts" mapstructure:"accounts"`
}

// Settings holds process-wide defaults and tuning knobs. It is constructed
// once at startup (see cmd) and passed by pointer into each component.
type Settings struct {
	// Username is the IAM operator user provisioned in each member account.
	Username string

	// Region used for the Secrets Manager client and written into local
	// profiles.
	Region string

	// OrganizationRoleName is the cross-account administrative role assumed
	// in each member account.
	OrganizationRoleName string

	// AdminPolicyARN is attached to the operator user.
	AdminPolicyARN string

	// SessionDuration bounds the assumed-role session in a member account.
	SessionDuration time.Duration

	// PollInterval is the fixed delay between CreateAccount status polls.
	PollInterval time.Duration

	// PollMaxWait bounds the total time spent polling a single account
	// creation before it is treated as failed.
	PollMaxWait time.Duration

	// Cooldown is the wait applied after every account-creation attempt to
	// stay clear of Organizations rate limiting.
	Cooldown time.Duration

	// MaxCreateAttempts caps retries of the CreateAccount submission when
	// the API reports a concurrent modification.
	MaxCreateAttempts int

	// RetryBaseDelay is the base of the exponential backoff between
	// submission retries.
	RetryBaseDelay time.Duration
}

// Default values mirror what the Organizations API tolerates in practice.
const (
	DefaultUsername             = "deploy"
	DefaultRegion               = "us-east-1"
	DefaultOrganizationRoleName = "OrganizationAccountAccessRole"
	DefaultAdminPolicyARN       = "arn:aws:iam::aws:policy/AdministratorAccess"
	DefaultSessionDuration      = time.Hour
	DefaultPollInterval         = 5 * time.Second
	DefaultPollMaxWait          = 10 * time.Minute
	DefaultCooldown             = 15 * time.Second
	DefaultMaxCreateAttempts    = 5
	DefaultRetryBaseDelay       = time.Second
)

// NewSettings returns Settings populated with the defaults above.
func NewSettings() *Settings {
	return &Settings{
		Username:             DefaultUsername,
		Region:               DefaultRegion,
		OrganizationRoleName: DefaultOrganizationRoleName,
		AdminPolicyARN:       DefaultAdminPolicyARN,
		SessionDuration:      DefaultSessionDuration,
		PollInterval:         DefaultPollInterval,
		PollMaxWait:          DefaultPollMaxWait,
		Cooldown:             DefaultCooldown,
		MaxCreateAttempts:    DefaultMaxCreateAttempts,
		RetryBaseDelay:       DefaultRetryBaseDelay,
	}
}
