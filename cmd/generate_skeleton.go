package cmd

import (
	"os"

	"github.com/spf13/cobra"

	e "github.com/cloudposse/accountfactory/internal/exec"
)

// generateSkeletonCmd emits an example accountfactory.json.
var generateSkeletonCmd = &cobra.Command{
	Use:   "generate-skeleton",
	Short: "Generate a skeleton accountfactory.json file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// No AWS dependencies: skeleton generation is purely local.
		return e.ExecuteGenerateSkeleton(&e.Deps{Stdout: os.Stdout})
	},
}

func init() {
	RootCmd.AddCommand(generateSkeletonCmd)
}
