package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog/log"

	"github.com/jihwankim/mev-playground/pkg/service"
)

// Sentinel errors distinguishing the startup failure modes. A crashed,
// unhealthy or stuck core service makes the whole devnet unusable, so these
// are the only hard errors the controller raises; teardown paths degrade to
// no-ops instead.
var (
	// ErrStartupCrash means the container exited right after creation.
	ErrStartupCrash = errors.New("container crashed during startup")
	// ErrUnhealthy means the health probe reported an explicit failure.
	ErrUnhealthy = errors.New("container is unhealthy")
	// ErrHealthTimeout means the probe never left the starting state in time.
	ErrHealthTimeout = errors.New("container did not become healthy in time")
)

const (
	defaultPullWorkers   = 4
	defaultPollInterval  = time.Second
	defaultHealthTimeout = 120 * time.Second
	defaultStopTimeout   = 10 // seconds, engine-side grace period
	startupLogTail       = 40
)

// ServiceStatus is a coarse view of one container for status reporting.
type ServiceStatus struct {
	State  string
	Health string
}

// Controller manages the playground containers. It owns the registry of
// running containers keyed by service name. The orchestrator drives all calls
// from a single control thread; only image pulls run concurrently and they
// never touch the registry, so no locking is needed.
type Controller struct {
	engine  Engine
	network string

	registry map[string]string // service name -> container ID

	pollInterval  time.Duration
	healthTimeout time.Duration
	pullWorkers   int
}

// NewController wraps an engine for the named playground network.
func NewController(engine Engine, networkName string) *Controller {
	return &Controller{
		engine:        engine,
		network:       networkName,
		registry:      make(map[string]string),
		pollInterval:  defaultPollInterval,
		healthTimeout: defaultHealthTimeout,
		pullWorkers:   defaultPullWorkers,
	}
}

// Close releases the engine connection.
func (c *Controller) Close() error {
	return c.engine.Close()
}

// Names returns the registered service names in sorted order.
func (c *Controller) Names() []string {
	names := make([]string, 0, len(c.registry))
	for name := range c.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PullImage fetches an image unless it is already present locally.
func (c *Controller) PullImage(ctx context.Context, ref string) error {
	if _, _, err := c.engine.ImageInspectWithRaw(ctx, ref); err == nil {
		log.Debug().Str("image", ref).Msg("Image already present")
		return nil
	}

	log.Info().Str("image", ref).Msg("Pulling image")
	rc, err := c.engine.ImagePull(ctx, ref, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer rc.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return nil
}

// PullImages fetches the given images with a bounded worker pool. Pulls are
// independent and side-effect free with respect to each other, so this is a
// pure throughput optimization. The first failure aborts the batch.
func (c *Controller) PullImages(ctx context.Context, refs []string) error {
	sem := make(chan struct{}, c.pullWorkers)
	errs := make([]error, len(refs))

	var wg sync.WaitGroup
	for i, ref := range refs {
		i, ref := i, ref
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			errs[i] = c.PullImage(ctx, ref)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Run launches a service detached on the playground network at its static
// address and registers it under its name. Dependencies already present in
// the registry are awaited healthy first; dependencies not yet started are
// skipped, since the orchestrator's fixed start order is the real ordering
// guarantee and the contender is deliberately started without its
// dependencies tracked. The call returns once the engine has accepted the
// container — except that an immediate exit (crash on start) fails the call
// with the exit code and recent output rather than leaving a dead entry
// registered.
func (c *Controller) Run(ctx context.Context, svc *service.Service) error {
	for _, dep := range svc.DependsOn {
		if _, tracked := c.registry[dep]; !tracked {
			continue
		}
		if err := c.WaitForHealthy(ctx, dep, c.healthTimeout); err != nil {
			return fmt.Errorf("dependency %s of %s: %w", dep, svc.Name, err)
		}
	}

	cfg := &container.Config{
		Image:        svc.Image,
		Cmd:          strslice.StrSlice(svc.Command),
		Env:          envList(svc.Env),
		User:         svc.User,
		Healthcheck:  healthConfig(svc.Health),
		ExposedPorts: exposedPorts(svc.Ports),
	}

	hostCfg := &container.HostConfig{
		NetworkMode:  container.NetworkMode(c.network),
		PortBindings: portBindings(svc.Ports),
		Mounts:       engineMounts(svc.Mounts),
		IpcMode:      container.IpcMode(svc.IPCMode),
		PidMode:      container.PidMode(svc.PIDMode),
		ShmSize:      svc.ShmSizeBytes,
	}

	netCfg := &network.NetworkingConfig{
		EndpointsConfig: map[string]*network.EndpointSettings{
			c.network: {
				IPAMConfig: &network.EndpointIPAMConfig{IPv4Address: svc.StaticIP},
			},
		},
	}

	log.Info().Str("service", svc.Name).Str("ip", svc.StaticIP).Msg("Starting container")

	resp, err := c.engine.ContainerCreate(ctx, cfg, hostCfg, netCfg, nil, svc.Name)
	if err != nil {
		return fmt.Errorf("failed to create container %s: %w", svc.Name, err)
	}
	if err := c.engine.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", svc.Name, err)
	}

	// Crash-on-start detection: one immediate state re-check.
	info, err := c.engine.ContainerInspect(ctx, resp.ID)
	if err == nil && info.State != nil && !info.State.Running {
		tail := c.logsByID(ctx, resp.ID, startupLogTail)
		c.removeByID(ctx, resp.ID, svc.Name, true)
		return fmt.Errorf("%w: %s exited with code %d: %s",
			ErrStartupCrash, svc.Name, info.State.ExitCode, tail)
	}

	c.registry[svc.Name] = resp.ID
	return nil
}

// WaitForHealthy polls the named container until it reports healthy. It fails
// fast on an explicit unhealthy report (with the last probe output) or on
// container exit (with exit code and recent logs), and returns
// ErrHealthTimeout once the budget elapses. A container without a health
// probe counts as healthy as soon as it is observed running. An unregistered
// name is silently skipped.
func (c *Controller) WaitForHealthy(ctx context.Context, name string, timeout time.Duration) error {
	id, ok := c.registry[name]
	if !ok {
		return nil
	}

	deadline := time.Now().Add(timeout)
	for {
		info, err := c.engine.ContainerInspect(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to inspect %s: %w", name, err)
		}

		state := info.State
		if state != nil {
			if state.Health != nil {
				switch state.Health.Status {
				case "healthy":
					return nil
				case "unhealthy":
					return fmt.Errorf("%w: %s: %s", ErrUnhealthy, name, lastProbeOutput(info))
				}
			} else if state.Running {
				return nil
			}
			if !state.Running {
				tail := c.logsByID(ctx, id, startupLogTail)
				return fmt.Errorf("%w: %s exited with code %d: %s",
					ErrStartupCrash, name, state.ExitCode, tail)
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s after %s", ErrHealthTimeout, name, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// WaitForAllHealthy awaits every registered container in turn. Each name gets
// the full timeout budget; by the time this runs, the bulk of startup latency
// has already elapsed, so sequential checking is fine.
func (c *Controller) WaitForAllHealthy(ctx context.Context, timeout time.Duration) error {
	for _, name := range c.Names() {
		if err := c.WaitForHealthy(ctx, name, timeout); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the named container. Absence, in the registry or in the engine,
// is not an error; engine errors are swallowed so teardown always makes
// forward progress.
func (c *Controller) Stop(ctx context.Context, name string) {
	id, ok := c.registry[name]
	if !ok {
		id = name // try the engine anyway; the container may be untracked
	}
	c.stopByID(ctx, id, name)
}

// Remove removes the named container and drops its registry entry. Idempotent.
func (c *Controller) Remove(ctx context.Context, name string, force bool) {
	id, ok := c.registry[name]
	if !ok {
		id = name
	}
	c.removeByID(ctx, id, name, force)
	delete(c.registry, name)
}

// StopAll stops every registered container and then sweeps the playground
// network for containers the registry does not know about, covering state
// orphaned by a previous crashed run. Safe to call with a stale or empty
// registry.
func (c *Controller) StopAll(ctx context.Context) {
	for _, name := range c.Names() {
		c.Stop(ctx, name)
	}
	for id, ep := range c.networkContainers(ctx) {
		c.stopByID(ctx, id, ep)
	}
}

// RemoveAll removes every registered container plus anything still attached
// to the playground network, then clears the registry.
func (c *Controller) RemoveAll(ctx context.Context, force bool) {
	for _, name := range c.Names() {
		c.Remove(ctx, name, force)
	}
	for id, ep := range c.networkContainers(ctx) {
		c.removeByID(ctx, id, ep, force)
	}
	c.registry = make(map[string]string)
}

// CleanupExisting force-stops and removes any containers with the given
// names, clearing leftovers from a previous ungraceful shutdown before a new
// start. Best effort: every error is swallowed and removal is still attempted
// after a failed stop.
func (c *Controller) CleanupExisting(ctx context.Context, names []string) {
	for _, name := range names {
		c.stopByID(ctx, name, name)
		c.removeByID(ctx, name, name, true)
	}
}

// Logs returns the most recent tail lines of a container's output, or the
// empty string when the name is unknown.
func (c *Controller) Logs(ctx context.Context, name string, tail int) string {
	id, ok := c.registry[name]
	if !ok {
		id = name
	}
	return c.logsByID(ctx, id, tail)
}

// Status reports a coarse state and health string for every container the
// controller tracks, plus any container attached to the playground network
// (so a freshly started CLI still sees a running playground). Never errors;
// an empty map means nothing is running.
func (c *Controller) Status(ctx context.Context) map[string]ServiceStatus {
	out := make(map[string]ServiceStatus)

	seen := make(map[string]bool)
	for name, id := range c.registry {
		if st, ok := c.statusByID(ctx, id); ok {
			out[name] = st
			seen[id] = true
		}
	}
	for id, name := range c.networkContainers(ctx) {
		if seen[id] {
			continue
		}
		if st, ok := c.statusByID(ctx, id); ok {
			out[name] = st
		}
	}
	return out
}

// ContainerRunning reports whether a container with the given name is
// currently running, whether or not this controller started it.
func (c *Controller) ContainerRunning(ctx context.Context, name string) bool {
	info, err := c.engine.ContainerInspect(ctx, name)
	if err != nil {
		return false
	}
	return info.State != nil && info.State.Running
}

// OneShot describes a run-to-completion container used by the artifact
// provisioner (genesis generator, key generator).
type OneShot struct {
	Image   string
	Command []string
	Mounts  []service.Mount
	Env     map[string]string
	User    string
}

// RunOneShot runs a container to completion off the playground network,
// returning its combined output. The container is always removed afterwards.
// A non-zero exit fails with the captured output.
func (c *Controller) RunOneShot(ctx context.Context, job OneShot) (string, error) {
	if err := c.PullImage(ctx, job.Image); err != nil {
		return "", err
	}

	cfg := &container.Config{
		Image: job.Image,
		Cmd:   strslice.StrSlice(job.Command),
		Env:   envList(job.Env),
		User:  job.User,
	}
	hostCfg := &container.HostConfig{Mounts: engineMounts(job.Mounts)}

	resp, err := c.engine.ContainerCreate(ctx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("failed to create %s container: %w", job.Image, err)
	}
	defer c.removeByID(context.WithoutCancel(ctx), resp.ID, job.Image, true)

	if err := c.engine.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("failed to start %s container: %w", job.Image, err)
	}

	waitCh, errCh := c.engine.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	var status container.WaitResponse
	select {
	case status = <-waitCh:
	case err := <-errCh:
		return "", fmt.Errorf("failed waiting for %s container: %w", job.Image, err)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	output := c.logsByID(ctx, resp.ID, 0)
	if status.StatusCode != 0 {
		return output, fmt.Errorf("%s exited with code %d: %s", job.Image, status.StatusCode, output)
	}
	return output, nil
}

// --- internals ---

func (c *Controller) stopByID(ctx context.Context, id, name string) {
	timeout := defaultStopTimeout
	err := c.engine.ContainerStop(ctx, id, container.StopOptions{Timeout: &timeout})
	if err != nil && !client.IsErrNotFound(err) {
		log.Debug().Err(err).Str("service", name).Msg("Ignoring error while stopping container")
	}
}

func (c *Controller) removeByID(ctx context.Context, id, name string, force bool) {
	err := c.engine.ContainerRemove(ctx, id, container.RemoveOptions{Force: force, RemoveVolumes: true})
	if err != nil && !client.IsErrNotFound(err) {
		log.Debug().Err(err).Str("service", name).Msg("Ignoring error while removing container")
	}
}

// networkContainers lists containers attached to the playground network,
// keyed by container ID with the endpoint name as value. A missing network
// yields an empty map.
func (c *Controller) networkContainers(ctx context.Context) map[string]string {
	out := make(map[string]string)
	res, err := c.engine.NetworkInspect(ctx, c.network, types.NetworkInspectOptions{})
	if err != nil {
		return out
	}
	for id, ep := range res.Containers {
		out[id] = ep.Name
	}
	return out
}

func (c *Controller) statusByID(ctx context.Context, id string) (ServiceStatus, bool) {
	info, err := c.engine.ContainerInspect(ctx, id)
	if err != nil || info.State == nil {
		return ServiceStatus{}, false
	}
	st := ServiceStatus{State: info.State.Status, Health: "none"}
	if info.State.Health != nil {
		st.Health = info.State.Health.Status
	}
	return st, true
}

// logsByID fetches and demultiplexes container output. tail <= 0 means all.
func (c *Controller) logsByID(ctx context.Context, id string, tail int) string {
	opts := container.LogsOptions{ShowStdout: true, ShowStderr: true, Tail: "all"}
	if tail > 0 {
		opts.Tail = strconv.Itoa(tail)
	}
	rc, err := c.engine.ContainerLogs(ctx, id, opts)
	if err != nil {
		return ""
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &buf, bytes.NewReader(raw)); err != nil {
		// TTY containers produce a raw stream that stdcopy rejects.
		return string(raw)
	}
	return buf.String()
}

func envList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

func healthConfig(p *service.Probe) *container.HealthConfig {
	if p == nil {
		return nil
	}
	return &container.HealthConfig{
		Test:        p.Test,
		Interval:    p.Interval,
		Timeout:     p.Timeout,
		Retries:     p.Retries,
		StartPeriod: p.StartPeriod,
	}
}

func exposedPorts(ports map[int]int) nat.PortSet {
	if len(ports) == 0 {
		return nil
	}
	set := make(nat.PortSet, len(ports))
	for cp := range ports {
		set[nat.Port(fmt.Sprintf("%d/tcp", cp))] = struct{}{}
	}
	return set
}

func portBindings(ports map[int]int) nat.PortMap {
	if len(ports) == 0 {
		return nil
	}
	bindings := make(nat.PortMap, len(ports))
	for cp, hp := range ports {
		port := nat.Port(fmt.Sprintf("%d/tcp", cp))
		bindings[port] = []nat.PortBinding{{HostIP: "0.0.0.0", HostPort: strconv.Itoa(hp)}}
	}
	return bindings
}

func engineMounts(mounts []service.Mount) []mount.Mount {
	if len(mounts) == 0 {
		return nil
	}
	out := make([]mount.Mount, 0, len(mounts))
	for _, m := range mounts {
		out = append(out, mount.Mount{
			Type:     mount.TypeBind,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	return out
}

func lastProbeOutput(info types.ContainerJSON) string {
	h := info.State.Health
	if h == nil || len(h.Log) == 0 {
		return "no probe output"
	}
	last := h.Log[len(h.Log)-1]
	if last == nil || last.Output == "" {
		return "no probe output"
	}
	return last.Output
}
