package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/mancerhq/mancer/core/invariant"
	"github.com/mancerhq/mancer/core/mcerrors"
	"github.com/mancerhq/mancer/core/mcontext"
)

// RemoteBackend runs commands over a non-interactive SSH session.
// Connections are reused per (host, user, port) via the pool so a chain
// of commands against the same target does not redial every step.
type RemoteBackend struct {
	pool *Pool
}

// NewRemoteBackend returns a RemoteBackend backed by its own connection
// pool. Close releases pooled connections.
func NewRemoteBackend() *RemoteBackend {
	return &RemoteBackend{pool: NewPool()}
}

func (b *RemoteBackend) Kind() string { return "remote" }

// Close tears down all pooled connections. Call on Orchestrator teardown.
func (b *RemoteBackend) Close() error {
	return b.pool.CloseAll()
}

func (b *RemoteBackend) Execute(ctx context.Context, cmdString string, execCtx *mcontext.Context, opts Options) (Result, error) {
	invariant.Precondition(cmdString != "", "cmdString cannot be empty")
	target := execCtx.RemoteTarget()
	invariant.NotNil(target, "execCtx.RemoteTarget")

	client, err := b.pool.GetOrDial(target)
	if err != nil {
		return Result{ExitCode: 255}, mcerrors.Wrap(mcerrors.SshConnectFailed, fmt.Sprintf("could not connect to %s", target.Host), err).
			With("host", target.Host)
	}

	session, err := client.NewSession()
	if err != nil {
		return Result{ExitCode: 255}, mcerrors.Wrap(mcerrors.SshConnectFailed, "could not open ssh session", err)
	}
	defer func() { _ = session.Close() }()

	finalCmd := cmdString
	stdin := opts.Stdin
	if target.UseSudo {
		finalCmd = "sudo -S -p '' " + cmdString
		stdin = append([]byte(target.SudoPassword+"\n"), stdin...)
	}

	if len(stdin) > 0 {
		session.Stdin = bytes.NewReader(stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	session.Stdout = teeTarget(&stdoutBuf, StreamStdout, opts)
	session.Stderr = teeTarget(&stderrBuf, StreamStderr, opts)

	done := make(chan error, 1)
	go func() { done <- session.Run(finalCmd) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		exitCode := -1
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			exitCode = ExitTimeout
		}
		return Result{ExitCode: exitCode, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}, ctxDoneError(ctx)

	case err := <-done:
		exitCode := ExitSuccess
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				exitCode = exitErr.ExitStatus()
			} else {
				exitCode = ExitCommandFailed
			}
		}
		result := Result{ExitCode: exitCode, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}
		if target.UseSudo && exitCode != 0 && looksLikeSudoFailure(stderrBuf.String()) {
			return result, mcerrors.New(mcerrors.SudoAuthFailed, "sudo password rejected or not supplied").
				With("host", target.Host)
		}
		return result, nil
	}
}

func looksLikeSudoFailure(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "incorrect password") || strings.Contains(lower, "sorry, try again") ||
		strings.Contains(lower, "a password is required")
}

// dial opens a fresh *ssh.Client per the authentication order spec.md
// §4.1 prescribes: explicit key → agent (if enabled) → password.
func dial(target *mcontext.RemoteTarget) (*ssh.Client, error) {
	var authMethods []ssh.AuthMethod

	if target.KeyPath != "" {
		if keyAuth := sshKeyAuth(target.KeyPath, target.Passphrase); keyAuth != nil {
			authMethods = append(authMethods, keyAuth)
		}
	}
	if !target.IdentityOnly && target.AgentForwarding {
		if agentAuth := sshAgentAuth(); agentAuth != nil {
			authMethods = append(authMethods, agentAuth)
		}
	}
	if target.Password != "" {
		authMethods = append(authMethods, ssh.Password(target.Password))
	}

	config := &ssh.ClientConfig{
		User:            target.User,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback(target),
	}

	addr := fmt.Sprintf("%s:%d", target.Host, target.Port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func hostKeyCallback(target *mcontext.RemoteTarget) ssh.HostKeyCallback {
	policy := target.KnownHostsPolicy
	if policy == "" {
		policy = mcontext.PolicyStrict
	}

	knownHostsPath := os.ExpandEnv("$HOME/.ssh/known_hosts")
	known, loadErr := loadKnownHosts(knownHostsPath)

	switch policy {
	case mcontext.PolicyOff:
		return ssh.InsecureIgnoreHostKey()

	case mcontext.PolicyWarn:
		return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			if loadErr == nil {
				if err := checkKnownHost(known, hostname, key); err != nil {
					fmt.Fprintf(os.Stderr, "mancer: warning: %v\n", err)
				}
			}
			return nil
		}

	case mcontext.PolicyAcceptNew:
		return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			if loadErr == nil {
				if err := checkKnownHost(known, hostname, key); err == nil {
					return nil
				} else if _, seen := known[hostname+":"+key.Type()]; seen {
					return err // known but mismatched: never silently trust
				}
			}
			return appendKnownHost(knownHostsPath, hostname, key)
		}

	default: // PolicyStrict
		return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			if loadErr != nil {
				return fmt.Errorf("known_hosts unavailable (%v); refusing host key for %s under strict policy", loadErr, hostname)
			}
			return checkKnownHost(known, hostname, key)
		}
	}
}

func sshKeyAuth(keyPath, passphrase string) ssh.AuthMethod {
	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(keyData)
	}
	if err != nil {
		return nil
	}
	return ssh.PublicKeys(signer)
}

func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}
	agentClient := agent.NewClient(conn)
	return ssh.PublicKeysCallback(agentClient.Signers)
}
