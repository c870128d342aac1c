package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/cloudposse/accountfactory/errors"
	"github.com/cloudposse/accountfactory/pkg/schema"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDesiredState(t *testing.T) {
	path := writeConfigFile(t, `{
  "accounts": [
    {
      "accountName": "Staging",
      "profileName": "myapp-staging",
      "identifyingEmail": "staging@example.com"
    }
  ]
}`)

	cfg, err := LoadDesiredState(path)
	require.NoError(t, err)
	require.Len(t, cfg.Accounts, 1)

	assert.Equal(t, schema.AccountConfig{
		AccountName: "Staging",
		ProfileName: "myapp-staging",
		Email:       "staging@example.com",
	}, cfg.Accounts[0])
}

func TestLoadDesiredStateMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	_, err := LoadDesiredState(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUtils.ErrReadConfig)

	hints := errors.GetAllHints(err)
	require.Len(t, hints, 2)
	assert.Contains(t, hints[1], "generate-skeleton")
}

func TestLoadDesiredStateMalformedFile(t *testing.T) {
	path := writeConfigFile(t, `{"accounts": [`)

	_, err := LoadDesiredState(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errUtils.ErrReadConfig)
}

func TestLoadDesiredStateEmptyAccounts(t *testing.T) {
	path := writeConfigFile(t, `{"accounts": []}`)

	cfg, err := LoadDesiredState(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Accounts)
}

func TestSkeletonRoundTrips(t *testing.T) {
	out, err := Skeleton()
	require.NoError(t, err)

	var cfg schema.DesiredStateConfig
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	require.Len(t, cfg.Accounts, 3)

	for _, account := range cfg.Accounts {
		assert.NotEmpty(t, account.AccountName)
		assert.NotEmpty(t, account.ProfileName)
		assert.NotEmpty(t, account.Email)
	}
	assert.Equal(t, "Shared Services", cfg.Accounts[0].AccountName)
}
