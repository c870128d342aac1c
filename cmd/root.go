// Package cmd wires the CLI surface. Commands stay thin: they parse flags,
// build dependencies once and delegate to internal/exec.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	errUtils "github.com/cloudposse/accountfactory/errors"
	e "github.com/cloudposse/accountfactory/internal/exec"
	"github.com/cloudposse/accountfactory/pkg/aws/iam"
	"github.com/cloudposse/accountfactory/pkg/aws/identity"
	"github.com/cloudposse/accountfactory/pkg/aws/organizations"
	"github.com/cloudposse/accountfactory/pkg/profile"
	"github.com/cloudposse/accountfactory/pkg/schema"
	"github.com/cloudposse/accountfactory/pkg/store"
)

// Version is set at build time via ldflags.
var Version = "0.0.0-dev"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "accountfactory",
	Short:   "Provision and maintain AWS member accounts under an organization",
	Long:    `accountfactory creates member accounts in AWS Organizations, bootstraps an administrative IAM user in each, stores the generated credentials in Secrets Manager, and reconciles local AWS CLI profiles against those stored credentials.`,
	Version: Version,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true

		levelName, _ := cmd.Flags().GetString("logs-level")
		level, err := log.ParseLevel(levelName)
		if err != nil {
			return fmt.Errorf("invalid logs level %q: %w", levelName, err)
		}
		log.SetLevel(level)
		return nil
	},
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().String("logs-level", "info", "Logs level. Supported levels: debug, info, warn, error")
}

// newSettings builds the process-wide settings value that is passed
// explicitly into every component.
func newSettings() *schema.Settings {
	return schema.NewSettings()
}

// buildDeps loads the AWS configuration once and wires every component
// around it.
func buildDeps(ctx context.Context, settings *schema.Settings) (*e.Deps, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUtils.ErrLoadAWSConfig, err)
	}

	credentials := store.NewCredentialStoreFromConfig(cfg, settings)

	return &e.Deps{
		Identity:     identity.NewVerifierFromConfig(cfg),
		Registry:     organizations.NewClientFromConfig(cfg, settings),
		Bootstrapper: iam.NewBootstrapperFromConfig(cfg, settings),
		Credentials:  credentials,
		Reconciler:   profile.NewReconciler(credentials, &profile.AWSCLIWriter{}, settings),
		Confirm:      confirmPrompt,
		Stdout:       os.Stdout,
	}, nil
}

// confirmPrompt asks the operator a yes/no question on the terminal.
// Anything other than "y" declines.
func confirmPrompt(prompt string) (bool, error) {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}

	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}
