// Package docker provides the Docker integration for the launcher's
// container run mode.
//
// Hosts without the tool's native dependency stack (PaddleOCR wheels,
// OpenCV system libraries) can run the entry point inside a prepared
// image instead. This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Daemon reachability probing for the doctor command
//   - Dispatching the entry point via "docker run --rm" with the
//     project directory bind-mounted
//
// The daemon probe uses github.com/docker/docker/client with version
// negotiation enabled; the actual run shells out to the docker CLI so
// image pulls and progress bars behave exactly as users expect.
package docker
