package database

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Tunnel is an SSH client connection that database traffic is dialed
// through. It satisfies pq.Dialer.
type Tunnel struct {
	client *ssh.Client
}

// OpenTunnel connects to the jump host described by cfg.
func OpenTunnel(cfg TunnelConfig, log zerolog.Logger) (*Tunnel, error) {
	key, err := os.ReadFile(expandHome(cfg.KeyFile))
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("unable to parse private key: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsFile != "" {
		hostKeyCallback, err = knownhosts.New(expandHome(cfg.KnownHostsFile))
		if err != nil {
			return nil, fmt.Errorf("unable to load known hosts: %w", err)
		}
	} else {
		log.Warn().Str("ssh_host", cfg.Host).Msg("no known_hosts file configured, host key is not verified")
	}

	client, err := ssh.Dial("tcp", cfg.Addr(), &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to SSH server %s: %w", cfg.Addr(), err)
	}

	log.Debug().Str("ssh_host", cfg.Addr()).Msg("ssh tunnel established")

	return &Tunnel{client: client}, nil
}

func (t *Tunnel) Dial(network, address string) (net.Conn, error) {
	return t.client.Dial(network, address)
}

func (t *Tunnel) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		conn, err := t.client.Dial(network, address)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-time.After(timeout):
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, fmt.Errorf("dial %s through ssh: timeout after %s", address, timeout)
	}
}

func (t *Tunnel) Close() error {
	return t.client.Close()
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
