package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/exam-tools/examsplit/internal/model"
)

// defaultPingTimeout bounds the daemon reachability probe. Docker
// Desktop on macOS can take a few seconds to answer when idle, so the
// timeout is generous without letting doctor hang on a dead socket.
const defaultPingTimeout = 5 * time.Second

// Client wraps the Docker SDK client with the socket detection the
// launcher needs. It exists only for the daemon probe and to hold the
// connection open across it.
//
// Usage:
//
//	c, err := docker.NewClient()
//	if err != nil { /* handle */ }
//	defer c.Close()
//	if err := c.Ping(ctx); err != nil { /* daemon not running */ }
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client with automatic socket detection.
//
// Detection priority:
//  1. DOCKER_HOST environment variable, used as-is when set
//  2. Platform default socket paths (Linux/macOS Unix sockets,
//     Windows named pipe)
//
// Returns a model.CLIError with ExitDockerUnavailable when no socket is
// found or the client cannot be created.
func NewClient() (*Client, error) {
	host := os.Getenv("DOCKER_HOST")
	if host == "" {
		detected, err := detectDockerHost()
		if err != nil {
			return nil, model.WrapCLIError(
				model.ExitDockerUnavailable,
				"Docker socket not found",
				err,
			)
		}
		host = detected
	}

	// Version negotiation keeps the probe compatible across daemon
	// versions without pinning an API version here.
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerUnavailable,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}

	return &Client{inner: c}, nil
}

// detectDockerHost returns the Docker connection string for the current
// platform by probing the known socket locations. Existence checks are
// used rather than connection attempts; Ping handles actual
// reachability.
func detectDockerHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return detectUnixSocket([]string{
			"/var/run/docker.sock",
		})

	case "darwin":
		// Newer Docker Desktop versions place the socket under the
		// user's home directory and may not create the /var/run symlink.
		paths := []string{"/var/run/docker.sock"}
		if homeDir, err := os.UserHomeDir(); err == nil {
			paths = append(paths, homeDir+"/.docker/run/docker.sock")
		}
		return detectUnixSocket(paths)

	case "windows":
		// os.Stat does not work on Windows named pipes, so probe with a
		// short dial instead.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, 1*time.Second)
		if err == nil {
			conn.Close()
			return "npipe://" + pipePath, nil
		}
		return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// detectUnixSocket returns the host URI for the first socket path that
// exists on the filesystem, checked in preference order.
func detectUnixSocket(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf(
		"Docker socket not found at any of: %v — is Docker running?",
		paths,
	)
}

// Ping verifies the Docker daemon is reachable and responsive, waiting
// up to defaultPingTimeout. Returns a model.CLIError with
// ExitDockerUnavailable when the daemon does not answer.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerUnavailable,
			"Docker daemon is not responding — is Docker running?",
			err,
		)
	}
	return nil
}

// Close releases the client's underlying HTTP connection.
// Safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}
