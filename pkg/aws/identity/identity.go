// Package identity retrieves and verifies the operator's AWS caller identity
// before any mutating operation runs.
package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	errUtils "github.com/cloudposse/accountfactory/errors"
)

// STSAPI is the subset of the STS client used here, narrowed for mocking.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// CallerIdentity holds the information returned by STS GetCallerIdentity.
type CallerIdentity struct {
	Account string
	Arn     string
	UserID  string
}

// Verifier confirms the current caller identity against STS.
type Verifier struct {
	client STSAPI
}

// NewVerifier creates a Verifier from an STS client.
func NewVerifier(client STSAPI) *Verifier {
	return &Verifier{client: client}
}

// NewVerifierFromConfig creates a Verifier backed by the real STS client.
func NewVerifierFromConfig(cfg aws.Config) *Verifier {
	return NewVerifier(sts.NewFromConfig(cfg))
}

// GetCallerIdentity retrieves the caller identity for the current
// credentials. A missing account ID is an error since nothing downstream can
// work without one. Running as the account root is allowed but warned about.
func (v *Verifier) GetCallerIdentity(ctx context.Context) (*CallerIdentity, error) {
	log.Debug("Getting AWS caller identity")

	output, err := v.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}

	if output.Account == nil || *output.Account == "" {
		return nil, errors.WithHint(errUtils.ErrMissingCallerIdentity,
			"Please check your AWS credentials")
	}

	identity := &CallerIdentity{
		Account: aws.ToString(output.Account),
		Arn:     aws.ToString(output.Arn),
		UserID:  aws.ToString(output.UserId),
	}

	if strings.HasSuffix(identity.Arn, ":root") {
		log.Warn("Running as root user. Consider using an IAM user instead.")
	}

	log.Info("AWS caller identity verified", "account", identity.Account, "arn", identity.Arn)

	return identity, nil
}
