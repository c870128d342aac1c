// Package iam provisions the operator identity inside a member account. It
// assumes the organization's cross-account administrative role to obtain a
// short-lived session there, then creates the operator user, its console
// login, its administrative policy attachment and one access key.
package iam

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/cloudposse/accountfactory/pkg/password"
	"github.com/cloudposse/accountfactory/pkg/schema"
	"github.com/cloudposse/accountfactory/pkg/store"
)

// API is the subset of the IAM client used here, narrowed for mocking.
type API interface {
	GetUser(ctx context.Context, params *awsiam.GetUserInput, optFns ...func(*awsiam.Options)) (*awsiam.GetUserOutput, error)
	CreateUser(ctx context.Context, params *awsiam.CreateUserInput, optFns ...func(*awsiam.Options)) (*awsiam.CreateUserOutput, error)
	CreateLoginProfile(ctx context.Context, params *awsiam.CreateLoginProfileInput, optFns ...func(*awsiam.Options)) (*awsiam.CreateLoginProfileOutput, error)
	AttachUserPolicy(ctx context.Context, params *awsiam.AttachUserPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.AttachUserPolicyOutput, error)
	CreateAccessKey(ctx context.Context, params *awsiam.CreateAccessKeyInput, optFns ...func(*awsiam.Options)) (*awsiam.CreateAccessKeyOutput, error)
}

// STSAPI is the subset of the STS client used for session bootstrap.
type STSAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// Bootstrapper creates operator identities in member accounts.
type Bootstrapper struct {
	stsClient STSAPI
	awsConfig aws.Config
	settings  *schema.Settings

	// newIAMClient builds an IAM client from an assumed-role config.
	// Replaceable in tests.
	newIAMClient func(cfg aws.Config) API
}

// NewBootstrapper creates a Bootstrapper. The base config carries the
// orchestrator's own credentials; member-account sessions are derived from
// it per account.
func NewBootstrapper(stsClient STSAPI, cfg aws.Config, settings *schema.Settings) *Bootstrapper {
	return &Bootstrapper{
		stsClient: stsClient,
		awsConfig: cfg,
		settings:  settings,
		newIAMClient: func(cfg aws.Config) API {
			return awsiam.NewFromConfig(cfg)
		},
	}
}

// NewBootstrapperFromConfig creates a Bootstrapper backed by the real STS
// client.
func NewBootstrapperFromConfig(cfg aws.Config, settings *schema.Settings) *Bootstrapper {
	return NewBootstrapper(sts.NewFromConfig(cfg), cfg, settings)
}

// SessionFor assumes the organization role in the target account and returns
// an IAM client bound to it. The session is time-limited; failure here
// usually means the role is not assumable yet or not at all.
func (b *Bootstrapper) SessionFor(ctx context.Context, accountID string) (API, error) {
	roleArn := fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, b.settings.OrganizationRoleName)

	log.Debug("Assuming role in member account", "role", roleArn)

	result, err := b.stsClient.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleArn),
		RoleSessionName: aws.String("accountfactory-bootstrap"),
		DurationSeconds: aws.Int32(int32(b.settings.SessionDuration.Seconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assume role %s: %w", roleArn, err)
	}

	cfg := b.awsConfig.Copy()
	cfg.Credentials = credentials.NewStaticCredentialsProvider(
		aws.ToString(result.Credentials.AccessKeyId),
		aws.ToString(result.Credentials.SecretAccessKey),
		aws.ToString(result.Credentials.SessionToken),
	)

	return b.newIAMClient(cfg), nil
}

// UserExists probes for the operator user in the target account. A missing
// user is the normal negative case; any other error propagates.
func (b *Bootstrapper) UserExists(ctx context.Context, client API, username string) (bool, error) {
	_, err := client.GetUser(ctx, &awsiam.GetUserInput{
		UserName: aws.String(username),
	})
	if err != nil {
		var notFound *iamtypes.NoSuchEntityException
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check user %s: %w", username, err)
	}
	return true, nil
}

// CreateOperatorIdentity provisions the operator user and returns its
// generated secrets. Every step is idempotent: an already-existing user or
// login profile is tolerated, and attaching an already-attached policy is
// not an error on the provider side.
func (b *Bootstrapper) CreateOperatorIdentity(ctx context.Context, client API, accountID, username string) (*store.CredentialRecord, error) {
	if err := b.ensureUser(ctx, client, username); err != nil {
		return nil, err
	}

	pw, err := b.ensureLoginProfile(ctx, client, username)
	if err != nil {
		return nil, err
	}

	if _, err := client.AttachUserPolicy(ctx, &awsiam.AttachUserPolicyInput{
		UserName:  aws.String(username),
		PolicyArn: aws.String(b.settings.AdminPolicyARN),
	}); err != nil {
		return nil, fmt.Errorf("failed to attach policy to user %s: %w", username, err)
	}

	keyOutput, err := client.CreateAccessKey(ctx, &awsiam.CreateAccessKeyInput{
		UserName: aws.String(username),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create access key for user %s: %w", username, err)
	}

	return store.NewCredentialRecord(
		accountID,
		username,
		pw,
		aws.ToString(keyOutput.AccessKey.AccessKeyId),
		aws.ToString(keyOutput.AccessKey.SecretAccessKey),
	), nil
}

// ensureUser creates the operator user, tolerating a concurrent or earlier
// creation.
func (b *Bootstrapper) ensureUser(ctx context.Context, client API, username string) error {
	_, err := client.CreateUser(ctx, &awsiam.CreateUserInput{
		UserName: aws.String(username),
	})
	if err != nil {
		var exists *iamtypes.EntityAlreadyExistsException
		if errors.As(err, &exists) {
			log.Debug("User already exists", "username", username)
			return nil
		}
		return fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return nil
}

// ensureLoginProfile generates a password and creates the console login.
// When a login profile already exists it is left untouched and the sentinel
// value is returned in place of a password; idempotency here comes from
// handling the conflict, not from a pre-check.
func (b *Bootstrapper) ensureLoginProfile(ctx context.Context, client API, username string) (string, error) {
	pw, err := password.Generate()
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}

	_, err = client.CreateLoginProfile(ctx, &awsiam.CreateLoginProfileInput{
		UserName:              aws.String(username),
		Password:              aws.String(pw),
		PasswordResetRequired: true,
	})
	if err != nil {
		var exists *iamtypes.EntityAlreadyExistsException
		if errors.As(err, &exists) {
			log.Warn("Login profile already exists, skipping password creation", "username", username)
			return store.ExistingPasswordSentinel, nil
		}
		return "", fmt.Errorf("failed to create login profile for user %s: %w", username, err)
	}

	return pw, nil
}

// Provision is the idempotent entry point: it obtains a session in the
// target account, and when the operator user does not exist yet, bootstraps
// it. The returned record is nil when the user already existed; stored
// credentials, if any, are assumed to be in place.
func (b *Bootstrapper) Provision(ctx context.Context, accountID, username string) (*store.CredentialRecord, error) {
	log.Info("Provisioning IAM user", "username", username, "account_id", accountID)

	client, err := b.SessionFor(ctx, accountID)
	if err != nil {
		return nil, err
	}

	exists, err := b.UserExists(ctx, client, username)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Info("IAM user already exists, skipping creation", "username", username, "account_id", accountID)
		return nil, nil
	}

	log.Info("Creating new IAM user", "username", username, "account_id", accountID)

	return b.CreateOperatorIdentity(ctx, client, accountID, username)
}
