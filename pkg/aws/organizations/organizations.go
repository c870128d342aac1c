// Package organizations wraps the AWS Organizations API for member-account
// discovery and creation. Account creation is asynchronous on the provider
// side; the client submits a request, then polls its status to a terminal
// state. Every operation here is safe to repeat.
package organizations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsorgs "github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/aws/smithy-go"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/cloudposse/accountfactory/errors"
	"github.com/cloudposse/accountfactory/pkg/retry"
	"github.com/cloudposse/accountfactory/pkg/schema"
)

// API is the subset of the Organizations client used here, narrowed for
// mocking.
type API interface {
	ListAccounts(ctx context.Context, params *awsorgs.ListAccountsInput, optFns ...func(*awsorgs.Options)) (*awsorgs.ListAccountsOutput, error)
	CreateAccount(ctx context.Context, params *awsorgs.CreateAccountInput, optFns ...func(*awsorgs.Options)) (*awsorgs.CreateAccountOutput, error)
	DescribeCreateAccountStatus(ctx context.Context, params *awsorgs.DescribeCreateAccountStatusInput, optFns ...func(*awsorgs.Options)) (*awsorgs.DescribeCreateAccountStatusOutput, error)
}

// Account is a member account in the organization.
type Account struct {
	ID     string
	Email  string
	Name   string
	Status string
}

// Client talks to AWS Organizations on behalf of the orchestrator.
type Client struct {
	client   API
	settings *schema.Settings
	policy   retry.Policy

	// sleep is replaceable in tests to skip the poll and cooldown waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Client around the given Organizations API.
func NewClient(client API, settings *schema.Settings) *Client {
	return &Client{
		client:   client,
		settings: settings,
		policy:   retry.NewPolicy(settings.MaxCreateAttempts, settings.RetryBaseDelay),
		sleep:    sleepContext,
	}
}

// NewClientFromConfig creates a Client backed by the real Organizations
// client.
func NewClientFromConfig(cfg aws.Config, settings *schema.Settings) *Client {
	return NewClient(awsorgs.NewFromConfig(cfg), settings)
}

// ListAccounts pages through the organization's member accounts and returns
// them as one list. Missing listing permission is fatal: without discovery
// nothing else in this tool can run.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	var nextToken *string

	for {
		output, err := c.client.ListAccounts(ctx, &awsorgs.ListAccountsInput{
			NextToken: nextToken,
		})
		if err != nil {
			return nil, classify(err)
		}

		for _, acct := range output.Accounts {
			accounts = append(accounts, Account{
				ID:     aws.ToString(acct.Id),
				Email:  aws.ToString(acct.Email),
				Name:   aws.ToString(acct.Name),
				Status: string(acct.Status),
			})
		}

		nextToken = output.NextToken
		if nextToken == nil {
			break
		}
	}

	return accounts, nil
}

// AccountExists reports whether an account with the given root email already
// exists in the organization. Email comparison is case-insensitive.
func (c *Client) AccountExists(ctx context.Context, email string) (bool, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return false, err
	}
	return ContainsEmail(accounts, email), nil
}

// ContainsEmail reports whether the account list has an entry with the given
// email, ignoring case.
func ContainsEmail(accounts []Account, email string) bool {
	for _, acct := range accounts {
		if strings.EqualFold(acct.Email, email) {
			return true
		}
	}
	return false
}

// FindByEmail returns the account with the given email, or nil.
func FindByEmail(accounts []Account, email string) *Account {
	for i := range accounts {
		if strings.EqualFold(accounts[i].Email, email) {
			return &accounts[i]
		}
	}
	return nil
}

// CreateAccount creates a member account and waits for the asynchronous
// creation to reach a terminal state. The returned ID is empty when nothing
// was created: either an account with the email already exists (and
// overwrite is unset), or the provider reported the email as taken. Any
// other terminal failure is returned as an error.
//
// After every attempt, including idempotent skips, the client waits the
// configured cooldown so back-to-back creations do not trip Organizations
// rate limiting.
func (c *Client) CreateAccount(ctx context.Context, email, accountName, roleName string, overwrite bool) (string, error) {
	log.Debug("Starting account creation", "email", email)

	if !overwrite {
		exists, err := c.AccountExists(ctx, email)
		if err != nil {
			return "", err
		}
		if exists {
			log.Info("Account already exists, skipping creation", "email", email)
			if err := c.waitForNextOperation(ctx); err != nil {
				return "", err
			}
			return "", nil
		}
	}

	requestID, err := c.submitCreateAccount(ctx, email, accountName, roleName)
	if err != nil {
		return "", err
	}

	log.Info("Account creation initiated", "request_id", requestID)

	status, err := c.pollCreateAccountStatus(ctx, requestID)
	if err != nil {
		return "", err
	}

	accountID, err := resolveTerminalStatus(status, email)
	if err != nil {
		return "", err
	}

	if err := c.waitForNextOperation(ctx); err != nil {
		return "", err
	}

	return accountID, nil
}

// submitCreateAccount submits the creation request, retrying concurrency
// conflicts with exponential backoff. Two operators creating accounts at the
// same time is the one race Organizations reports explicitly.
func (c *Client) submitCreateAccount(ctx context.Context, email, accountName, roleName string) (string, error) {
	var requestID string

	err := c.policy.Do(ctx, func() error {
		output, err := c.client.CreateAccount(ctx, &awsorgs.CreateAccountInput{
			Email:       aws.String(email),
			AccountName: aws.String(accountName),
			RoleName:    aws.String(roleName),
		})
		if err != nil {
			return classify(err)
		}
		requestID = aws.ToString(output.CreateAccountStatus.Id)
		return nil
	}, func(err error) bool {
		retryable := errors.Is(err, errUtils.ErrConcurrencyConflict)
		if retryable {
			log.Warn("Concurrent account creation detected, retrying", "email", email)
		}
		return retryable
	})
	if err != nil {
		return "", err
	}

	return requestID, nil
}

// pollCreateAccountStatus polls the creation request at a fixed interval
// until the provider reports a terminal state, or the maximum wait elapses.
func (c *Client) pollCreateAccountStatus(ctx context.Context, requestID string) (*orgtypes.CreateAccountStatus, error) {
	deadline := time.Now().Add(c.settings.PollMaxWait)

	for {
		log.Debug("Polling account creation status", "request_id", requestID)

		output, err := c.client.DescribeCreateAccountStatus(ctx, &awsorgs.DescribeCreateAccountStatusInput{
			CreateAccountRequestId: aws.String(requestID),
		})
		if err != nil {
			return nil, classify(err)
		}

		status := output.CreateAccountStatus
		log.Debug("Account creation status", "request_id", requestID, "state", status.State)

		switch status.State {
		case orgtypes.CreateAccountStateSucceeded, orgtypes.CreateAccountStateFailed:
			return status, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: request %s still %s after %s",
				errUtils.ErrCreateTimeout, requestID, status.State, c.settings.PollMaxWait)
		}

		if err := c.sleep(ctx, c.settings.PollInterval); err != nil {
			return nil, err
		}
	}
}

// resolveTerminalStatus turns a terminal creation status into an account ID.
// EMAIL_ALREADY_EXISTS is a reportable skip, not an error: the account is
// there, just not created by this run.
func resolveTerminalStatus(status *orgtypes.CreateAccountStatus, email string) (string, error) {
	if status.State == orgtypes.CreateAccountStateSucceeded {
		log.Info("Account creation succeeded", "account_id", aws.ToString(status.AccountId))
		return aws.ToString(status.AccountId), nil
	}

	if status.FailureReason == orgtypes.CreateAccountFailureReasonEmailAlreadyExists {
		log.Warn("Account creation skipped, email already in use", "email", email)
		return "", nil
	}

	return "", fmt.Errorf("%w: %s", errUtils.ErrCreateFailed, status.FailureReason)
}

// waitForNextOperation applies the inter-account cooldown.
func (c *Client) waitForNextOperation(ctx context.Context) error {
	log.Info("Waiting before next operation", "cooldown", c.settings.Cooldown)
	return c.sleep(ctx, c.settings.Cooldown)
}

// classify maps Organizations API errors onto the package's closed error
// set. Classification happens here, once, so callers only match sentinels.
func classify(err error) error {
	var accessDenied *orgtypes.AccessDeniedException
	if errors.As(err, &accessDenied) {
		return errors.WithHint(
			fmt.Errorf("%w: %s", errUtils.ErrAccessDenied, aws.ToString(accessDenied.Message)),
			"Use a profile with permissions to list and create accounts in AWS Organizations")
	}

	var conflict *orgtypes.ConcurrentModificationException
	if errors.As(err, &conflict) {
		return fmt.Errorf("%w: %s", errUtils.ErrConcurrencyConflict, aws.ToString(conflict.Message))
	}

	// Anything else propagates with the provider's error code attached, so
	// logs show what the API rejected even when no sentinel matches.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errors.Wrapf(err, "organizations request failed with %s", apiErr.ErrorCode())
	}

	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
