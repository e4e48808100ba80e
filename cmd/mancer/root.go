// Command mancer is the thin CLI harness spec.md §6 specifies as an
// external collaborator of the core: it tokenizes a shell-like string,
// builds a single Command (or points it at a remote target), executes
// it through an Orchestrator, and maps the CommandResult onto the
// process's stdout/stderr/exit code. Cobra setup follows the teacher's
// own CLI harness (cli/main.go, runtime/cli/harness.go).
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mancerhq/mancer/core/mcontext"
	"github.com/mancerhq/mancer/internal/config"
	"github.com/mancerhq/mancer/internal/logx"
	"github.com/mancerhq/mancer/orchestrator"
)

type runFlags struct {
	remote           string
	format           string
	sudo             bool
	keyPath          string
	noStrictHostkey  bool
	noCache          bool
	live             bool
	timeoutSeconds   int
	configPathFlag   string
}

func newRootCmd() *cobra.Command {
	var flags runFlags

	root := &cobra.Command{
		Use:           "mancer",
		Short:         "Run local or remote shell commands through a typed execution engine",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	runCmd := &cobra.Command{
		Use:   "run \"<shell-like-string>\"",
		Short: "Build a single command from a shell-like string and execute it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, args[0], flags)
		},
	}
	runCmd.Flags().StringVar(&flags.remote, "remote", "", "user@host[:port] to force REMOTE mode")
	runCmd.Flags().StringVar(&flags.format, "format", "", "print structured_output as this format (currently: json)")
	runCmd.Flags().BoolVar(&flags.sudo, "sudo", false, "wrap the command with sudo -S -p ''")
	runCmd.Flags().StringVar(&flags.keyPath, "key", "", "SSH private key path for --remote")
	runCmd.Flags().BoolVar(&flags.noStrictHostkey, "no-strict-hostkey", false, "downgrade known_hosts_policy from strict to warn")
	runCmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "bypass the result cache for this run")
	runCmd.Flags().BoolVar(&flags.live, "live", false, "run in live-output mode (bypasses the result cache; output is printed after the command finishes)")
	runCmd.Flags().IntVar(&flags.timeoutSeconds, "timeout", 0, "cancel the command after this many seconds (0 = unlimited)")
	runCmd.Flags().StringVar(&flags.configPathFlag, "config", "", "override MANCER_CONFIG_PATH")

	root.AddCommand(runCmd)
	return root
}

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mancer:", err)
		return exitCodeFor(err)
	}
	return lastExitCode
}

// lastExitCode carries the mapped child exit code out of RunE, since
// cobra's Execute only reports an error, not an arbitrary process exit
// code.
var lastExitCode int

func buildOrchestrator(configPathFlag string) (*orchestrator.Orchestrator, error) {
	path := config.ResolvePath(configPathFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	level := logx.Level(cfg.Logging.Level)
	if level == "" {
		level = logx.LevelInfo
	}
	return orchestrator.New(cfg, logx.New(level)), nil
}

func parseRemoteTarget(spec, keyPath string, noStrictHostkey, sudo bool) (mcontext.RemoteTarget, error) {
	userHost, port := spec, 22
	if idx := strings.LastIndex(spec, ":"); idx >= 0 {
		if p, err := strconv.Atoi(spec[idx+1:]); err == nil {
			userHost, port = spec[:idx], p
		}
	}
	var user, host string
	if idx := strings.Index(userHost, "@"); idx >= 0 {
		user, host = userHost[:idx], userHost[idx+1:]
	} else {
		host = userHost
	}
	if host == "" {
		return mcontext.RemoteTarget{}, fmt.Errorf("--remote requires user@host[:port], got %q", spec)
	}

	policy := mcontext.PolicyStrict
	if noStrictHostkey {
		policy = mcontext.PolicyWarn
	}
	return mcontext.RemoteTarget{
		Host:             host,
		User:             user,
		Port:             port,
		KeyPath:          keyPath,
		UseSudo:          sudo,
		SudoPassword:     os.Getenv("MANCER_SUDO_PASSWORD"),
		KnownHostsPolicy: policy,
	}, nil
}
