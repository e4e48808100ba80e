package backend

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// loadKnownHosts parses an OpenSSH known_hosts file into a lookup table
// keyed by "hostname:keytype".
func loadKnownHosts(path string) (map[string]ssh.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	known := make(map[string]ssh.PublicKey)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}
		hostname, keyType, keyData := parts[0], parts[1], parts[2]
		keyBytes, err := base64.StdEncoding.DecodeString(keyData)
		if err != nil {
			continue
		}
		pubKey, err := ssh.ParsePublicKey(keyBytes)
		if err != nil {
			continue
		}
		known[hostname+":"+keyType] = pubKey
	}
	return known, nil
}

// checkKnownHost returns nil if key matches the recorded key for
// hostname, or a descriptive error otherwise (including "not found").
func checkKnownHost(known map[string]ssh.PublicKey, hostname string, key ssh.PublicKey) error {
	lookupKey := hostname + ":" + key.Type()
	knownKey, ok := known[lookupKey]
	if !ok {
		return fmt.Errorf("host key not found in known_hosts: %s", hostname)
	}
	if !bytes.Equal(key.Marshal(), knownKey.Marshal()) {
		return fmt.Errorf("host key mismatch for %s", hostname)
	}
	return nil
}

// appendKnownHost records a first-seen host key (trust-on-first-use),
// used by KnownHostsPolicy=accept-new.
func appendKnownHost(path, hostname string, key ssh.PublicKey) error {
	line := ssh.MarshalAuthorizedKey(key)
	entry := fmt.Sprintf("%s %s", hostname, strings.TrimSpace(string(line)))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = fmt.Fprintln(f, entry)
	return err
}
