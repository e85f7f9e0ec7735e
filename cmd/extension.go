package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"
)

const (
	EnvStateFile  = "FOLIO_STATE_FILE"
	EnvVerbose    = "FOLIO_VERBOSE"
	EnvFinnhubKey = "FINNHUB_API_KEY"
	EnvEodhdKey   = "EODHD_API_KEY"
)

// ExtensionPrefix prefixes the name of external subcommands.
const ExtensionPrefix = "folio-"

// RunExtension attempts to find and execute an external folio-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// Global flags are passed to the extension as environment variables.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := ExtensionPrefix + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		log.Debug().Str("extension", name).Err(err).Msg("extension not found")
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvStateFile+"="+*stateFile,
		EnvVerbose+"="+strconv.FormatBool(*Verbose),
		EnvFinnhubKey+"="+*finnhubKey,
		EnvEodhdKey+"="+*eodhdKey,
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
