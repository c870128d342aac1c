package iam

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsiam "github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	ststypes "github.com/aws/aws-sdk-go-v2/service/sts/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudposse/accountfactory/pkg/schema"
	"github.com/cloudposse/accountfactory/pkg/store"
)

type fakeSTS struct {
	assumeRoleInput *sts.AssumeRoleInput
	err             error
}

func (f *fakeSTS) AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error) {
	f.assumeRoleInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &sts.AssumeRoleOutput{
		Credentials: &ststypes.Credentials{
			AccessKeyId:     aws.String("ASIATEST"),
			SecretAccessKey: aws.String("secret"),
			SessionToken:    aws.String("token"),
		},
	}, nil
}

type fakeIAM struct {
	userExists         bool
	loginProfileExists bool
	getUserErr         error

	createUserCalls         int
	createLoginProfileCalls int
	attachPolicyCalls       int
	createAccessKeyCalls    int

	attachedPolicyArn string
	loginPassword     string
}

func (f *fakeIAM) GetUser(ctx context.Context, params *awsiam.GetUserInput, optFns ...func(*awsiam.Options)) (*awsiam.GetUserOutput, error) {
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	if !f.userExists {
		return nil, &iamtypes.NoSuchEntityException{Message: aws.String("user not found")}
	}
	return &awsiam.GetUserOutput{
		User: &iamtypes.User{UserName: params.UserName},
	}, nil
}

func (f *fakeIAM) CreateUser(ctx context.Context, params *awsiam.CreateUserInput, optFns ...func(*awsiam.Options)) (*awsiam.CreateUserOutput, error) {
	f.createUserCalls++
	if f.userExists {
		return nil, &iamtypes.EntityAlreadyExistsException{Message: aws.String("user exists")}
	}
	return &awsiam.CreateUserOutput{
		User: &iamtypes.User{UserName: params.UserName},
	}, nil
}

func (f *fakeIAM) CreateLoginProfile(ctx context.Context, params *awsiam.CreateLoginProfileInput, optFns ...func(*awsiam.Options)) (*awsiam.CreateLoginProfileOutput, error) {
	f.createLoginProfileCalls++
	if f.loginProfileExists {
		return nil, &iamtypes.EntityAlreadyExistsException{Message: aws.String("login profile exists")}
	}
	f.loginPassword = aws.ToString(params.Password)
	return &awsiam.CreateLoginProfileOutput{}, nil
}

func (f *fakeIAM) AttachUserPolicy(ctx context.Context, params *awsiam.AttachUserPolicyInput, optFns ...func(*awsiam.Options)) (*awsiam.AttachUserPolicyOutput, error) {
	f.attachPolicyCalls++
	f.attachedPolicyArn = aws.ToString(params.PolicyArn)
	return &awsiam.AttachUserPolicyOutput{}, nil
}

func (f *fakeIAM) CreateAccessKey(ctx context.Context, params *awsiam.CreateAccessKeyInput, optFns ...func(*awsiam.Options)) (*awsiam.CreateAccessKeyOutput, error) {
	f.createAccessKeyCalls++
	return &awsiam.CreateAccessKeyOutput{
		AccessKey: &iamtypes.AccessKey{
			AccessKeyId:     aws.String("AKIATEST"),
			SecretAccessKey: aws.String("supersecret"),
			UserName:        params.UserName,
		},
	}, nil
}

func newTestBootstrapper(fakeIam *fakeIAM, fakeSts *fakeSTS) *Bootstrapper {
	b := NewBootstrapper(fakeSts, aws.Config{}, schema.NewSettings())
	b.newIAMClient = func(cfg aws.Config) API { return fakeIam }
	return b
}

func TestSessionForAssumesOrganizationRole(t *testing.T) {
	fakeSts := &fakeSTS{}
	b := newTestBootstrapper(&fakeIAM{}, fakeSts)

	_, err := b.SessionFor(context.Background(), "111111111111")
	require.NoError(t, err)

	require.NotNil(t, fakeSts.assumeRoleInput)
	assert.Equal(t,
		"arn:aws:iam::111111111111:role/OrganizationAccountAccessRole",
		aws.ToString(fakeSts.assumeRoleInput.RoleArn))
	assert.Equal(t, int32(3600), aws.ToInt32(fakeSts.assumeRoleInput.DurationSeconds))
}

func TestSessionForPropagatesAssumeRoleFailure(t *testing.T) {
	fakeSts := &fakeSTS{err: errors.New("role not assumable")}
	b := newTestBootstrapper(&fakeIAM{}, fakeSts)

	_, err := b.SessionFor(context.Background(), "111111111111")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role not assumable")
}

func TestUserExists(t *testing.T) {
	b := newTestBootstrapper(&fakeIAM{}, &fakeSTS{})

	exists, err := b.UserExists(context.Background(), &fakeIAM{userExists: true}, "deploy")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = b.UserExists(context.Background(), &fakeIAM{}, "deploy")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserExistsPropagatesUnexpectedErrors(t *testing.T) {
	b := newTestBootstrapper(&fakeIAM{}, &fakeSTS{})
	client := &fakeIAM{getUserErr: fmt.Errorf("throttled")}

	_, err := b.UserExists(context.Background(), client, "deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestProvisionCreatesNewUser(t *testing.T) {
	fakeIam := &fakeIAM{}
	b := newTestBootstrapper(fakeIam, &fakeSTS{})

	record, err := b.Provision(context.Background(), "111111111111", "deploy")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "deploy", record.Username)
	assert.Equal(t, "AKIATEST", record.AccessKeyID)
	assert.Equal(t, "supersecret", record.SecretAccessKey)
	assert.Equal(t, "111111111111", record.AccountID)
	assert.Equal(t, "https://111111111111.signin.aws.amazon.com/console", record.ConsoleURL)
	assert.Equal(t, fakeIam.loginPassword, record.Password)

	assert.Equal(t, 1, fakeIam.createLoginProfileCalls)
	assert.Equal(t, 1, fakeIam.attachPolicyCalls)
	assert.Equal(t, 1, fakeIam.createAccessKeyCalls)
	assert.Equal(t, schema.DefaultAdminPolicyARN, fakeIam.attachedPolicyArn)
}

func TestProvisionSkipsExistingUser(t *testing.T) {
	fakeIam := &fakeIAM{userExists: true}
	b := newTestBootstrapper(fakeIam, &fakeSTS{})

	record, err := b.Provision(context.Background(), "111111111111", "deploy")
	require.NoError(t, err)
	assert.Nil(t, record)

	assert.Zero(t, fakeIam.createLoginProfileCalls)
	assert.Zero(t, fakeIam.attachPolicyCalls)
	assert.Zero(t, fakeIam.createAccessKeyCalls)
}

func TestCreateOperatorIdentityExistingLoginProfileUsesSentinel(t *testing.T) {
	fakeIam := &fakeIAM{loginProfileExists: true}
	b := newTestBootstrapper(fakeIam, &fakeSTS{})

	record, err := b.CreateOperatorIdentity(context.Background(), fakeIam, "111111111111", "deploy")
	require.NoError(t, err)

	assert.Equal(t, store.ExistingPasswordSentinel, record.Password)
	// The remaining steps still run: policy attachment and key creation are
	// idempotent on the provider side.
	assert.Equal(t, 1, fakeIam.attachPolicyCalls)
	assert.Equal(t, 1, fakeIam.createAccessKeyCalls)
}
