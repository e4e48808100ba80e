// Package mcontext implements ExecutionContext: the ambient, clonable
// state (cwd, env, parameters, mode, remote target) that threads through
// command building, execution, and chain composition.
package mcontext

import (
	"os"
	"os/user"
	"sync"

	"github.com/mancerhq/mancer/core/invariant"
)

// Mode selects which backend a Command executes against.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// KnownHostsPolicy governs SSH host-key verification for RemoteTarget.
type KnownHostsPolicy string

const (
	// PolicyStrict refuses to connect unless the host key is already
	// present in the known_hosts file. Default.
	PolicyStrict KnownHostsPolicy = "strict"
	// PolicyWarn logs a warning and connects regardless of host key state.
	PolicyWarn KnownHostsPolicy = "warn"
	// PolicyAcceptNew trusts first-seen host keys (TOFU) and records them.
	PolicyAcceptNew KnownHostsPolicy = "accept-new"
	// PolicyOff disables host-key verification entirely.
	PolicyOff KnownHostsPolicy = "off"
)

// RemoteTarget describes the SSH destination for ModeRemote contexts.
type RemoteTarget struct {
	Host               string
	User               string
	Port               int
	KeyPath            string
	Password           string
	Passphrase         string
	UseSudo            bool
	SudoPassword       string
	IdentityOnly       bool
	AgentForwarding    bool
	GSSAPI             bool
	SSHOptions         map[string]string
	KnownHostsPolicy   KnownHostsPolicy
	CertificatePath    string
}

// clone returns a deep copy of the remote target, or nil.
func (t *RemoteTarget) clone() *RemoteTarget {
	if t == nil {
		return nil
	}
	cp := *t
	if t.SSHOptions != nil {
		cp.SSHOptions = make(map[string]string, len(t.SSHOptions))
		for k, v := range t.SSHOptions {
			cp.SSHOptions[k] = v
		}
	}
	return &cp
}

// Context is the ambient state threaded through command build/execute
// and chain composition. The zero value is not valid; use New().
type Context struct {
	cwd          string
	env          map[string]string
	parameters   map[string]interface{}
	mode         Mode
	remoteTarget *RemoteTarget
}

// New creates a Context defaulted to local mode, the process's current
// working directory, and a snapshot of the process environment.
func New() *Context {
	cwd, err := os.Getwd()
	invariant.ExpectNoError(err, "os.Getwd")

	return &Context{
		cwd:        cwd,
		env:        envToMap(os.Environ()),
		parameters: make(map[string]interface{}),
		mode:       ModeLocal,
	}
}

func envToMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}

// Cwd returns the current working directory.
func (c *Context) Cwd() string { return c.cwd }

// SetCwd sets the working directory in place and returns the receiver.
func (c *Context) SetCwd(dir string) *Context {
	invariant.Precondition(dir != "", "cwd cannot be empty")
	c.cwd = dir
	return c
}

// Env returns the environment map. Callers must not mutate the result;
// use SetEnv to change it.
func (c *Context) Env() map[string]string { return c.env }

// SetEnv sets a single environment variable in place and returns the
// receiver.
func (c *Context) SetEnv(key, value string) *Context {
	invariant.Precondition(key != "", "env key cannot be empty")
	c.env[key] = value
	return c
}

// Parameter returns a cross-command signal value and whether it was set.
func (c *Context) Parameter(key string) (interface{}, bool) {
	v, ok := c.parameters[key]
	return v, ok
}

// Parameters returns the full parameter map. Callers must not mutate it.
func (c *Context) Parameters() map[string]interface{} { return c.parameters }

// SetParameter sets a cross-command signal (e.g. "input_data", "live_output",
// "interval") in place and returns the receiver.
func (c *Context) SetParameter(key string, value interface{}) *Context {
	invariant.Precondition(key != "", "parameter key cannot be empty")
	c.parameters[key] = value
	return c
}

// Mode returns the execution mode.
func (c *Context) Mode() Mode { return c.mode }

// SetMode sets the execution mode in place and returns the receiver.
// Transitioning to ModeRemote without a RemoteTarget violates the
// mode=REMOTE ⇒ remote_target is set invariant and panics.
func (c *Context) SetMode(mode Mode) *Context {
	c.mode = mode
	if mode == ModeRemote {
		invariant.Precondition(c.remoteTarget != nil, "mode=REMOTE requires a remote target; call SetRemoteTarget first")
	}
	return c
}

// RemoteTarget returns the last remote target set, or nil if none was
// ever set. Switching back to ModeLocal does not clear it.
func (c *Context) RemoteTarget() *RemoteTarget { return c.remoteTarget }

// SetRemoteTarget sets the remote target in place, switches mode to
// ModeRemote, and returns the receiver.
func (c *Context) SetRemoteTarget(target RemoteTarget) *Context {
	invariant.Precondition(target.Host != "", "remote target host cannot be empty")
	if target.Port == 0 {
		target.Port = 22
	}
	if target.KnownHostsPolicy == "" {
		target.KnownHostsPolicy = PolicyStrict
	}
	c.remoteTarget = &target
	c.mode = ModeRemote
	return c
}

// Clone produces a deep copy; mutating the clone never affects the
// original. Chain composition always clones before propagating a
// context to a subsequent step.
func (c *Context) Clone() *Context {
	envCopy := make(map[string]string, len(c.env))
	for k, v := range c.env {
		envCopy[k] = v
	}
	paramsCopy := make(map[string]interface{}, len(c.parameters))
	for k, v := range c.parameters {
		paramsCopy[k] = v
	}
	return &Context{
		cwd:          c.cwd,
		env:          envCopy,
		parameters:   paramsCopy,
		mode:         c.mode,
		remoteTarget: c.remoteTarget.clone(),
	}
}

// HostOrLocal returns the remote host name, or "local" in local mode.
// Used as part of fingerprints, cache keys, and version-registry keys.
func (c *Context) HostOrLocal() string {
	if c.mode == ModeRemote && c.remoteTarget != nil {
		return c.remoteTarget.Host
	}
	return "local"
}

var (
	localUIDOnce sync.Once
	localUID     string
)

// UIDOrLocal returns the identity a fingerprint should isolate results
// by (spec.md §4.8's "uid" key component): the remote SSH user in
// ModeRemote, or the local OS user's uid otherwise, so two users on a
// shared host never share a cache entry.
func (c *Context) UIDOrLocal() string {
	if c.mode == ModeRemote && c.remoteTarget != nil {
		return c.remoteTarget.User
	}
	localUIDOnce.Do(func() {
		u, err := user.Current()
		if err != nil {
			localUID = "unknown"
			return
		}
		localUID = u.Uid
	})
	return localUID
}
