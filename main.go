package main

import (
	"github.com/cloudposse/accountfactory/cmd"
	errUtils "github.com/cloudposse/accountfactory/errors"
)

func main() {
	// Run the application and exit non-zero on any fatal error. Use
	// errUtils.OsExit so tests can intercept process termination.
	if err := cmd.Execute(); err != nil {
		errUtils.CheckErrorPrintAndExit(err)
	}
}
