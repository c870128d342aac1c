package exec

import (
	"fmt"

	"github.com/cloudposse/accountfactory/pkg/config"
)

// ExecuteGenerateSkeleton prints an example desired-state file to stdout.
func ExecuteGenerateSkeleton(deps *Deps) error {
	skeleton, err := config.Skeleton()
	if err != nil {
		return err
	}

	fmt.Fprintln(deps.stdout(), skeleton)

	return nil
}
