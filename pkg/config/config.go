// Package config loads the desired-state file that drives a provisioning run
// and generates the example skeleton for it.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	errUtils "github.com/cloudposse/accountfactory/errors"
	"github.com/cloudposse/accountfactory/pkg/schema"
)

// DefaultFileName is the desired-state file read from the working directory.
const DefaultFileName = "accountfactory.json"

// LoadDesiredState reads and parses the desired-state file. A missing or
// unparsable file is a user-facing configuration error, reported with
// remediation hints rather than a bare stack of causes.
func LoadDesiredState(path string) (*schema.DesiredStateConfig, error) {
	if path == "" {
		path = DefaultFileName
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, withReadHints(fmt.Errorf("%w: %w", errUtils.ErrReadConfig, err), path)
	}

	var cfg schema.DesiredStateConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, withReadHints(fmt.Errorf("%w: %w", errUtils.ErrReadConfig, err), path)
	}

	return &cfg, nil
}

func withReadHints(err error, path string) error {
	err = errors.WithHintf(err, "Ensure %q exists in the current directory and is valid JSON", path)
	return errors.WithHint(err, "Run `accountfactory generate-skeleton` to produce an example configuration")
}

// Skeleton returns an example desired-state file with three declared
// accounts, ready to edit.
func Skeleton() (string, error) {
	skeleton := schema.DesiredStateConfig{
		Accounts: []schema.AccountConfig{
			{
				AccountName: "Shared Services",
				ProfileName: "myappname-shared",
				Email:       "sharedservices@example.com",
			},
			{
				AccountName: "Staging",
				ProfileName: "myappname-staging",
				Email:       "staging@example.com",
			},
			{
				AccountName: "Production",
				ProfileName: "myappname-production",
				Email:       "production@example.com",
			},
		},
	}

	out, err := json.MarshalIndent(skeleton, "", "  ")
	if err != nil {
		return "", err
	}

	return string(out), nil
}
