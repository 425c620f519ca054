package docker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/mev-playground/pkg/service"
)

const testNetwork = "mev-playground-test"

func newTestController(engine *fakeEngine) *Controller {
	c := NewController(engine, testNetwork)
	c.pollInterval = time.Millisecond
	c.healthTimeout = 50 * time.Millisecond
	return c
}

func TestRunRegistersContainer(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	err := c.Run(context.Background(), &service.Service{
		Name:     "reth",
		Image:    "ghcr.io/paradigmxyz/reth:latest",
		StaticIP: "172.28.1.1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"reth"}, c.Names())
	assert.True(t, c.ContainerRunning(context.Background(), "reth"))
}

func TestRunStartupCrash(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	// The fake never marks a container with a seeded exit code as running,
	// so the post-start inspect sees an immediate crash.
	engine.nextExit = 2
	engine.nextLogs = "fatal: bad genesis"

	err := c.Run(context.Background(), &service.Service{Name: "reth", Image: "img"})
	require.ErrorIs(t, err, ErrStartupCrash)
	assert.Contains(t, err.Error(), "code 2")
	assert.Contains(t, err.Error(), "fatal: bad genesis")
	assert.Empty(t, c.Names(), "crashed container must not be registered")
	assert.Contains(t, engine.removed, "reth", "crashed container must be removed")
	assert.Empty(t, engine.containers, "crashed container must not linger in the engine")
}

func TestRunWaitsForTrackedDependency(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	require.NoError(t, c.Run(context.Background(), &service.Service{Name: "reth", Image: "img"}))
	engine.setHealth("reth", "healthy")

	err := c.Run(context.Background(), &service.Service{
		Name:      "lighthouse-bn",
		Image:     "img",
		DependsOn: []string{"reth"},
	})
	require.NoError(t, err)
}

func TestRunFailsOnUnhealthyDependency(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	require.NoError(t, c.Run(context.Background(), &service.Service{
		Name:   "reth",
		Image:  "img",
		Health: service.TCPProbe(8545, 3, time.Second),
	}))
	engine.setHealth("reth", "unhealthy")

	err := c.Run(context.Background(), &service.Service{
		Name:      "lighthouse-bn",
		Image:     "img",
		DependsOn: []string{"reth"},
	})
	require.ErrorIs(t, err, ErrUnhealthy)
}

func TestRunSkipsUntrackedDependency(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	// The contender depends on nothing being tracked; Run must not block.
	err := c.Run(context.Background(), &service.Service{
		Name:      "contender",
		Image:     "img",
		DependsOn: []string{"reth"},
	})
	require.NoError(t, err)
}

func TestWaitForHealthyTimeout(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	require.NoError(t, c.Run(context.Background(), &service.Service{
		Name:   "relay",
		Image:  "img",
		Health: service.TCPProbe(80, 3, time.Second),
	}))
	// Health stays "starting" forever.

	err := c.WaitForHealthy(context.Background(), "relay", 20*time.Millisecond)
	require.ErrorIs(t, err, ErrHealthTimeout)
}

func TestWaitForHealthyUnhealthyIncludesProbeOutput(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	require.NoError(t, c.Run(context.Background(), &service.Service{
		Name:   "relay",
		Image:  "img",
		Health: service.TCPProbe(80, 3, time.Second),
	}))
	engine.setHealth("relay", "unhealthy")
	engine.setProbeOutput("relay", "connection refused")

	err := c.WaitForHealthy(context.Background(), "relay", time.Second)
	require.ErrorIs(t, err, ErrUnhealthy)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWaitForHealthyNoProbeRunningIsEnough(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	require.NoError(t, c.Run(context.Background(), &service.Service{Name: "redis", Image: "img"}))
	require.NoError(t, c.WaitForHealthy(context.Background(), "redis", time.Second))
}

func TestWaitForHealthyUnknownNameIsNoop(t *testing.T) {
	c := newTestController(newFakeEngine())
	require.NoError(t, c.WaitForHealthy(context.Background(), "ghost", time.Second))
}

func TestStopAndRemoveAreIdempotent(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	require.NoError(t, c.Run(context.Background(), &service.Service{Name: "redis", Image: "img"}))

	c.Stop(context.Background(), "redis")
	c.Stop(context.Background(), "redis") // second stop hits a stopped container
	c.Remove(context.Background(), "redis", true)
	c.Remove(context.Background(), "redis", true) // second remove hits nothing

	assert.Empty(t, c.Names())
}

func TestStopUnknownNameIsSilent(t *testing.T) {
	c := newTestController(newFakeEngine())
	c.Stop(context.Background(), "nothing-here")
	c.Remove(context.Background(), "nothing-here", true)
}

func TestRemoveAllSweepsNetworkOrphans(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)
	engine.networks[testNetwork] = true

	// An orphan from a previous run: attached to the network, unknown to the
	// registry.
	engine.containers["orphan-1"] = &fakeContainer{id: "orphan-1", name: "mevdb", running: true}

	require.NoError(t, c.Run(context.Background(), &service.Service{Name: "redis", Image: "img"}))

	c.RemoveAll(context.Background(), true)

	assert.Empty(t, engine.containers, "both registered and orphaned containers must be removed")
	assert.Empty(t, c.Names())
}

func TestStatusIncludesNetworkContainers(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)
	engine.networks[testNetwork] = true

	// Simulates a fresh CLI process: the registry is empty but containers
	// are attached to the network.
	engine.containers["ctr-9"] = &fakeContainer{id: "ctr-9", name: "reth", running: true, health: "healthy"}

	status := c.Status(context.Background())
	require.Contains(t, status, "reth")
	assert.Equal(t, "running", status["reth"].State)
	assert.Equal(t, "healthy", status["reth"].Health)
}

func TestStatusEmptyWhenNothingRuns(t *testing.T) {
	c := newTestController(newFakeEngine())
	assert.Empty(t, c.Status(context.Background()))
}

func TestLogsUnknownNameIsEmpty(t *testing.T) {
	c := newTestController(newFakeEngine())
	assert.Equal(t, "", c.Logs(context.Background(), "ghost", 10))
}

func TestLogsDemuxesStream(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	require.NoError(t, c.Run(context.Background(), &service.Service{Name: "reth", Image: "img"}))
	engine.setLogs("reth", "block 1 sealed\n")

	assert.Equal(t, "block 1 sealed\n", c.Logs(context.Background(), "reth", 10))
}

func TestPullImageSkipsPresent(t *testing.T) {
	engine := newFakeEngine()
	engine.images["redis:7-alpine"] = true
	c := newTestController(engine)

	require.NoError(t, c.PullImage(context.Background(), "redis:7-alpine"))
	assert.Empty(t, engine.pulled)
}

func TestPullImagesReportsFirstError(t *testing.T) {
	engine := newFakeEngine()
	engine.pullErr["bad:image"] = assert.AnError
	c := newTestController(engine)

	err := c.PullImages(context.Background(), []string{"ok:1", "bad:image", "ok:2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad:image")
}

func TestCleanupExistingClearsLeftovers(t *testing.T) {
	engine := newFakeEngine()
	c := newTestController(engine)

	engine.containers["old-1"] = &fakeContainer{id: "old-1", name: "reth", running: true}
	engine.containers["old-2"] = &fakeContainer{id: "old-2", name: "redis"}

	c.CleanupExisting(context.Background(), []string{"reth", "redis", "never-existed"})
	assert.Empty(t, engine.containers)
}

func TestRunOneShotReturnsOutput(t *testing.T) {
	engine := newFakeEngine()
	engine.images["tool:latest"] = true
	c := newTestController(engine)

	engine.nextLogs = "generation done\n"
	out, err := c.RunOneShot(context.Background(), OneShot{Image: "tool:latest", Command: []string{"all"}})
	require.NoError(t, err)
	assert.Equal(t, "generation done\n", out)
	assert.Empty(t, engine.containers, "one-shot containers are always removed")
}

func TestRunOneShotNonZeroExit(t *testing.T) {
	engine := newFakeEngine()
	engine.images["tool:latest"] = true
	c := newTestController(engine)

	engine.nextExit = 3
	engine.nextLogs = "invalid values.env"
	_, err := c.RunOneShot(context.Background(), OneShot{Image: "tool:latest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 3")
	assert.Contains(t, err.Error(), "invalid values.env")
}
