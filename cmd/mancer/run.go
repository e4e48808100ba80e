package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/mancerhq/mancer/core/mcerrors"
	"github.com/mancerhq/mancer/core/result"
	"github.com/mancerhq/mancer/parsers"
)

// runRun implements `mancer run "<shell-like-string>"`: tokenize,
// build a single ad-hoc Command from the raw tokens (not the registered
// builder surface — a literal passthrough, per spec.md §6's CLI
// contract), execute it, and map the result onto stdout/stderr/exit
// code.
func runRun(cmd *cobra.Command, line string, flags runFlags) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		lastExitCode = mcerrors.BuilderError.ExitCode()
		return fmt.Errorf("tokenizing command: %w", err)
	}
	if len(tokens) == 0 {
		lastExitCode = mcerrors.BuilderError.ExitCode()
		return fmt.Errorf("empty command")
	}

	built := command.New(tokens[0], parsers.Line())
	for _, tok := range tokens[1:] {
		built = built.WithArg(tok)
	}
	if flags.sudo {
		built = built.WithRequiresSudo()
	}
	if flags.noCache {
		built = built.WithNoCache()
	}

	orch, err := buildOrchestrator(flags.configPathFlag)
	if err != nil {
		lastExitCode = mcerrors.BuilderError.ExitCode()
		return fmt.Errorf("loading configuration: %w", err)
	}
	defer orch.Close()

	if flags.noCache {
		orch.DisableCache()
	}

	if flags.remote != "" {
		target, err := parseRemoteTarget(flags.remote, flags.keyPath, flags.noStrictHostkey, flags.sudo)
		if err != nil {
			lastExitCode = mcerrors.BuilderError.ExitCode()
			return err
		}
		orch.SetRemoteExecution(target)
	}

	ctx := context.Background()
	if flags.timeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(flags.timeoutSeconds)*time.Second)
		defer cancel()
	}

	r := orch.Execute(ctx, built, flags.live)

	if flags.format == "json" {
		converted := r.ToFormat(dataformat.JSON)
		if asString, ok := converted.StructuredOutput.(string); ok && converted.Metadata["conversion_error"] == nil {
			fmt.Println(asString)
		} else {
			fmt.Print(r.RawOutput)
		}
	} else {
		fmt.Print(r.RawOutput)
	}
	if r.ErrorOutput != "" {
		fmt.Fprint(os.Stderr, r.ErrorOutput)
	}

	lastExitCode = exitCodeForResult(r)
	return nil
}

// exitCodeForResult maps a CommandResult onto the process exit code
// convention spec.md §6 specifies: 0 on success, a specific code when a
// mancer-level error_kind is present in metadata (spawn failure, SSH
// failure, timeout), or the child's own exit code clamped to 1-125
// otherwise.
func exitCodeForResult(r result.Result) int {
	if r.IsSuccess() {
		return 0
	}
	if kind, ok := r.Metadata["error_kind"]; ok {
		if kindStr, ok := kind.(string); ok {
			if code := mcerrors.Kind(kindStr).ExitCode(); code != 1 {
				return code
			}
		}
	}
	if r.ExitCode < 1 || r.ExitCode > 125 {
		return 1
	}
	return r.ExitCode
}

// exitCodeFor maps a cobra/RunE error (flag parsing, tokenization,
// config loading) to the builder-error exit code; mancer never panics
// its way to an arbitrary os.Exit.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return mcerrors.BuilderError.ExitCode()
}
