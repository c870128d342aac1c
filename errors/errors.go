// Package errors defines the closed set of error kinds produced at the AWS
// client boundary, plus the helpers the CLI uses to report them and exit.
package errors

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// Sentinel errors. Each AWS client classifies provider errors onto one of
// these exactly once, at the client boundary; the orchestrator and the CLI
// only ever match with errors.Is.
var (
	// ErrAccessDenied means the caller lacks organization-level permissions.
	// Fatal, never retried.
	ErrAccessDenied = errors.New("access denied by AWS Organizations")

	// ErrConcurrencyConflict means two operators raced on account creation.
	// Retried with backoff up to a fixed attempt cap.
	ErrConcurrencyConflict = errors.New("concurrent account creation in progress")

	// ErrCreateTimeout means the creation status poll exceeded its window.
	ErrCreateTimeout = errors.New("timed out waiting for account creation")

	// ErrCreateFailed carries a terminal FAILED creation status with a
	// failure reason other than an already-existing email.
	ErrCreateFailed = errors.New("account creation failed")

	// ErrNoAccounts means the desired-state file declared nothing to do.
	ErrNoAccounts = errors.New("no accounts found in accountfactory.json")

	// ErrAccountNotFound means a declared account has no live counterpart.
	ErrAccountNotFound = errors.New("account not found in AWS Organizations")

	// ErrNoStoredCredentials means profile reconciliation found no secret
	// for the resolved account.
	ErrNoStoredCredentials = errors.New("no credentials found in Secrets Manager")

	// ErrMissingCallerIdentity means STS returned no account for the
	// current credentials.
	ErrMissingCallerIdentity = errors.New("failed to retrieve AWS account ID")

	// ErrLoadAWSConfig wraps AWS SDK configuration loading failures.
	ErrLoadAWSConfig = errors.New("failed to load AWS config")

	// ErrReadConfig wraps desired-state file read/parse failures.
	ErrReadConfig = errors.New("failed to read account factory config")

	// ErrProfileWrite wraps a failed local profile configuration command.
	ErrProfileWrite = errors.New("failed to write AWS profile configuration")

	// ErrAborted is returned when the operator declines the confirmation
	// prompt.
	ErrAborted = errors.New("aborted")
)

// OsExit is a variable so tests can intercept process termination.
var OsExit = os.Exit

// CheckErrorAndPrint logs an error and any remediation hints attached to it.
func CheckErrorAndPrint(err error) {
	if err == nil {
		return
	}
	log.Error(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		log.Info(hint)
	}
}

// CheckErrorPrintAndExit logs an error and exits with a non-zero status.
func CheckErrorPrintAndExit(err error) {
	if err == nil {
		return
	}
	CheckErrorAndPrint(err)
	Exit(1)
}

// Exit terminates the process with the given code via OsExit.
func Exit(code int) {
	OsExit(code)
}
