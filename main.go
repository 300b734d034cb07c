package main

import (
	"fmt"
	"os"

	_ "github.com/edneedham/cred/internal/target/github"
)

// commands is the dispatch table: command name to its runner, returning
// the process exit code. Each runner owns its own flag.FlagSet and is
// responsible for calling emitErr/emitOK itself.
var commands = map[string]func(args []string) int{
	"init":    runInit,
	"doctor":  runDoctor,
	"target":  runTarget,
	"secret":  runSecret,
	"import":  runImport,
	"export":  runExport,
	"push":    runPush,
	"prune":   runPrune,
	"config":  runConfig,
	"project": runProject,
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "help", "-h", "--help":
		usage()
		os.Exit(0)
	case "version", "-v", "--version":
		printVersion()
		os.Exit(0)
	}

	run, ok := commands[cmd]
	if !ok {
		printUnknown("", cmd)
		usage()
		os.Exit(1)
	}

	// --non-interactive is re-parsed per-subcommand by each run function's
	// own FlagSet, but the keystore package has no access to those flags
	// (it resolves purely from the environment) and must not prompt for a
	// passphrase once the caller has asked for a non-interactive run.
	for _, a := range args {
		if a == "--non-interactive" {
			os.Setenv("CRED_NON_INTERACTIVE", "1")
			break
		}
	}

	os.Exit(run(args))
}

func usage() {
	fmt.Print(`cred [command] [args]

Local-first command-line credential manager: an authenticated encrypted
vault at the root of a working tree, plus synchronization of a chosen
subset of its secrets to remote targets (a code forge's CI secret store).

Usage:
  cred <command> [args...]
  cred help | -h | --help
  cred version | --version | -v

Commands:
  cred init
  cred doctor
  cred target set <name> <token>
  cred target list
  cred target revoke <name>
  cred secret set <name> <value> [--stdin] [--format raw|multiline|pem|base64|json] [--description <text>]
  cred secret get <name> [--reveal]
  cred secret list
  cred secret remove <name>
  cred secret revoke <name> <target>
  cred secret share <name> --recipient <age1...> [--out <path>]
  cred import <path> [--overwrite]
  cred export <path> [--force]
  cred push <target> [keys...] [--repo <owner/name>]
  cred prune <target> [keys...|--all] [--repo <owner/name>]
  cred config get <key>
  cred config set <key> <value>
  cred config unset <key>
  cred config list
  cred project status

Global flags (every command):
  --json              emit the JSON envelope instead of prose
  --non-interactive    never prompt; fail instead of asking
  --dry-run            report what would happen without doing it
  --yes, -y            assume yes on confirmations

Environment:
  MASTER_KEY_B64        32-byte base64 master key override (CI)
  KEYSTORE              keyring (default) | file | memory
  KEYSTORE_FILE         path to the encrypted file keystore
  KEYSTORE_FILE_KEY     32-byte base64 AEAD key for the file keystore
                        (omit to derive the key from an interactive
                        passphrase prompt instead)
  CI                    presence enables the prune CI guard
  NO_COLOR              disables colored output
`)
}
