package store

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSecretsManager keeps secrets in a map so tests exercise the real
// create-then-update fallback.
type fakeSecretsManager struct {
	secrets map[string]string
	tags    map[string][]smtypes.Tag

	createCalls int
	putCalls    int
	getCalls    int
}

func newFakeSecretsManager() *fakeSecretsManager {
	return &fakeSecretsManager{
		secrets: map[string]string{},
		tags:    map[string][]smtypes.Tag{},
	}
}

func (f *fakeSecretsManager) CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	f.createCalls++
	name := aws.ToString(params.Name)
	if _, ok := f.secrets[name]; ok {
		return nil, &smtypes.ResourceExistsException{Message: aws.String("already exists")}
	}
	f.secrets[name] = aws.ToString(params.SecretString)
	f.tags[name] = params.Tags
	return &secretsmanager.CreateSecretOutput{Name: params.Name}, nil
}

func (f *fakeSecretsManager) PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	f.putCalls++
	f.secrets[aws.ToString(params.SecretId)] = aws.ToString(params.SecretString)
	return &secretsmanager.PutSecretValueOutput{Name: params.SecretId}, nil
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.getCalls++
	name := aws.ToString(params.SecretId)
	value, ok := f.secrets[name]
	if !ok {
		return nil, &smtypes.ResourceNotFoundException{Message: aws.String("not found")}
	}
	return &secretsmanager.GetSecretValueOutput{
		Name:         params.SecretId,
		SecretString: aws.String(value),
	}, nil
}

func TestSecretName(t *testing.T) {
	assert.Equal(t, "iam-user/111111111111/deploy", SecretName("111111111111", "deploy"))
}

func TestConsoleURL(t *testing.T) {
	assert.Equal(t, "https://111111111111.signin.aws.amazon.com/console", ConsoleURL("111111111111"))
}

func TestPutAndGetRoundTrip(t *testing.T) {
	fake := newFakeSecretsManager()
	s := NewCredentialStore(fake)
	ctx := context.Background()

	record := NewCredentialRecord("111111111111", "deploy", "pw", "AKIATEST", "supersecret")
	require.NoError(t, s.Put(ctx, "111111111111", "deploy", record))

	got, err := s.Get(ctx, "111111111111", "deploy")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *record, *got)
	assert.Equal(t, "https://111111111111.signin.aws.amazon.com/console", got.ConsoleURL)
}

func TestPutTagsSecretWithAccountAndUsername(t *testing.T) {
	fake := newFakeSecretsManager()
	s := NewCredentialStore(fake)

	record := NewCredentialRecord("111111111111", "deploy", "pw", "AKIATEST", "supersecret")
	require.NoError(t, s.Put(context.Background(), "111111111111", "deploy", record))

	tags := fake.tags["iam-user/111111111111/deploy"]
	require.Len(t, tags, 2)
	assert.Equal(t, "AccountId", aws.ToString(tags[0].Key))
	assert.Equal(t, "111111111111", aws.ToString(tags[0].Value))
	assert.Equal(t, "Username", aws.ToString(tags[1].Key))
	assert.Equal(t, "deploy", aws.ToString(tags[1].Value))
}

func TestPutUpdatesExistingSecret(t *testing.T) {
	fake := newFakeSecretsManager()
	s := NewCredentialStore(fake)
	ctx := context.Background()

	first := NewCredentialRecord("111111111111", "deploy", "pw1", "AKIAFIRST", "secret1")
	require.NoError(t, s.Put(ctx, "111111111111", "deploy", first))

	second := NewCredentialRecord("111111111111", "deploy", "pw2", "AKIASECOND", "secret2")
	require.NoError(t, s.Put(ctx, "111111111111", "deploy", second))

	// One logical secret, updated in place.
	assert.Len(t, fake.secrets, 1)
	assert.Equal(t, 1, fake.putCalls)

	got, err := s.Get(ctx, "111111111111", "deploy")
	require.NoError(t, err)
	assert.Equal(t, "AKIASECOND", got.AccessKeyID)
	assert.Equal(t, "pw2", got.Password)
}

func TestGetMissingSecretReturnsNil(t *testing.T) {
	s := NewCredentialStore(newFakeSecretsManager())

	record, err := s.Get(context.Background(), "999999999999", "deploy")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestGetMalformedSecretFails(t *testing.T) {
	fake := newFakeSecretsManager()
	fake.secrets["iam-user/111111111111/deploy"] = "not json"
	s := NewCredentialStore(fake)

	_, err := s.Get(context.Background(), "111111111111", "deploy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse secret")
}
