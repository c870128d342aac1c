// Package store persists operator credentials in AWS Secrets Manager, the
// single durable source of truth for everything this tool generates.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/cloudposse/accountfactory/pkg/schema"
)

// ExistingPasswordSentinel is stored in place of a password when a login
// profile already existed and was left untouched. Consumers must treat it as
// "no new password issued", never as a literal credential.
const ExistingPasswordSentinel = "**EXISTING PASSWORD NOT CHANGED**"

// secretNameFormat is the persisted key layout. It is a compatibility
// contract: existing deployments have secrets under these names.
const secretNameFormat = "iam-user/%s/%s"

// consoleURLFormat derives the sign-in URL for a member account.
const consoleURLFormat = "https://%s.signin.aws.amazon.com/console"

// CredentialRecord is the secret payload for one operator user in one
// account. Field names are part of the persisted layout.
type CredentialRecord struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	AccountID       string `json:"account_id"`
	ConsoleURL      string `json:"console_url"`
}

// API is the subset of the Secrets Manager client used here, narrowed for
// mocking.
type API interface {
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// CredentialStore reads and writes credential records.
type CredentialStore struct {
	client API
}

// NewCredentialStore creates a CredentialStore around the given client.
func NewCredentialStore(client API) *CredentialStore {
	return &CredentialStore{client: client}
}

// NewCredentialStoreFromConfig creates a CredentialStore backed by the real
// Secrets Manager client in the configured region.
func NewCredentialStoreFromConfig(cfg aws.Config, settings *schema.Settings) *CredentialStore {
	regional := cfg.Copy()
	regional.Region = settings.Region
	return NewCredentialStore(secretsmanager.NewFromConfig(regional))
}

// SecretName returns the persisted secret key for an account/user pair.
func SecretName(accountID, username string) string {
	return fmt.Sprintf(secretNameFormat, accountID, username)
}

// ConsoleURL returns the sign-in console URL for a member account.
func ConsoleURL(accountID string) string {
	return fmt.Sprintf(consoleURLFormat, accountID)
}

// NewCredentialRecord builds the record persisted after a successful
// identity bootstrap.
func NewCredentialRecord(accountID, username, pw, accessKeyID, secretAccessKey string) *CredentialRecord {
	return &CredentialRecord{
		Username:        username,
		Password:        pw,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
		AccountID:       accountID,
		ConsoleURL:      ConsoleURL(accountID),
	}
}

// Put persists a credential record. It first attempts to create the secret;
// when the secret already exists it updates the value instead. The
// create-then-update fallback is the idempotency mechanism, no pre-read is
// needed.
func (s *CredentialStore) Put(ctx context.Context, accountID, username string, record *CredentialRecord) error {
	name := SecretName(accountID, username)

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize credential record: %w", err)
	}
	value := string(payload)

	_, err = s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(value),
		Description:  aws.String(fmt.Sprintf("Credentials for IAM user %s in account %s", username, accountID)),
		Tags: []smtypes.Tag{
			{Key: aws.String("AccountId"), Value: aws.String(accountID)},
			{Key: aws.String("Username"), Value: aws.String(username)},
		},
	})
	if err == nil {
		log.Info("Stored credentials in Secrets Manager", "secret", name)
		return nil
	}

	var exists *smtypes.ResourceExistsException
	if !errors.As(err, &exists) {
		return fmt.Errorf("failed to store credentials in Secrets Manager: %w", err)
	}

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(value),
	})
	if err != nil {
		return fmt.Errorf("failed to update credentials in Secrets Manager: %w", err)
	}

	log.Info("Updated credentials in Secrets Manager", "secret", name)

	return nil
}

// Get returns the credential record for an account/user pair, or nil when no
// secret exists. Absence is a normal negative result, not an error.
func (s *CredentialStore) Get(ctx context.Context, accountID, username string) (*CredentialRecord, error) {
	name := SecretName(accountID, username)
	log.Debug("Retrieving credentials from Secrets Manager", "secret", name)

	output, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			log.Debug("No secret found", "secret", name)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve secret %s: %w", name, err)
	}

	var record CredentialRecord
	if err := json.Unmarshal([]byte(aws.ToString(output.SecretString)), &record); err != nil {
		return nil, fmt.Errorf("failed to parse secret %s: %w", name, err)
	}

	return &record, nil
}
