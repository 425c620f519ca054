// Package service defines the declarative description of one managed
// container. A Service is a plain value: the catalog factories construct it
// fully populated and nothing mutates it afterwards.
package service

import (
	"fmt"
	"time"
)

// Mount binds a host path into the container.
type Mount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// Probe is a Docker healthcheck definition. A nil probe on a Service means
// "running is healthy enough".
type Probe struct {
	// Test in Docker healthcheck form, e.g. []string{"CMD-SHELL", "..."}.
	Test        []string
	Interval    time.Duration
	Timeout     time.Duration
	Retries     int
	StartPeriod time.Duration
}

// Service describes one managed container: what to run, where it lives on the
// playground network, how to judge its health and what must be healthy before
// it starts. The Name doubles as the container name and is the identity used
// by the runtime registry.
type Service struct {
	Name     string
	Image    string
	StaticIP string

	Command []string
	Env     map[string]string

	// Ports maps container port to host port (TCP).
	Ports  map[int]int
	Mounts []Mount

	Health    *Probe
	DependsOn []string

	// User overrides the image's default user ("uid", "uid:gid" or name).
	User string

	// IPCMode / PIDMode share a namespace with another container, e.g.
	// "container:reth". Empty means the engine default.
	IPCMode string
	PIDMode string

	// ShmSizeBytes sets /dev/shm; 0 keeps the engine default.
	ShmSizeBytes int64
}

// TCPProbe returns the standard bash /dev/tcp reachability probe used by most
// playground services (works in images without curl or wget).
func TCPProbe(port int, retries int, startPeriod time.Duration) *Probe {
	return &Probe{
		Test: []string{
			"CMD-SHELL",
			tcpProbeScript(port),
		},
		Interval:    5 * time.Second,
		Timeout:     3 * time.Second,
		Retries:     retries,
		StartPeriod: startPeriod,
	}
}

func tcpProbeScript(port int) string {
	// bash is required for /dev/tcp support.
	return fmt.Sprintf("bash -c 'echo >/dev/tcp/localhost/%d' 2>/dev/null || exit 1", port)
}
