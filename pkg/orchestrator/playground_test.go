package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	specs "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/jihwankim/mev-playground/pkg/components"
	"github.com/jihwankim/mev-playground/pkg/config"
)

// healthyEngine is a fake engine where every started container is instantly
// running and healthy, letting lifecycle tests run without a daemon or real
// probe delays.
type healthyEngine struct {
	mu         sync.Mutex
	nextID     int
	containers map[string]string // name -> id
	started    []string          // creation order
	createdAt  map[string]time.Time
	networks   map[string]bool
	pulled     []string
}

func newHealthyEngine() *healthyEngine {
	return &healthyEngine{
		containers: make(map[string]string),
		createdAt:  make(map[string]time.Time),
		networks:   make(map[string]bool),
	}
}

func notFoundErr() error { return errdefs.NotFound(fmt.Errorf("not found")) }

func (e *healthyEngine) ImageInspectWithRaw(ctx context.Context, ref string) (types.ImageInspect, []byte, error) {
	return types.ImageInspect{}, nil, notFoundErr()
}

func (e *healthyEngine) ImagePull(ctx context.Context, ref string, _ types.ImagePullOptions) (io.ReadCloser, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pulled = append(e.pulled, ref)
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (e *healthyEngine) ContainerCreate(ctx context.Context, _ *container.Config, _ *container.HostConfig, _ *network.NetworkingConfig, _ *specs.Platform, name string) (container.CreateResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := fmt.Sprintf("ctr-%d", e.nextID)
	e.containers[name] = id
	e.started = append(e.started, name)
	e.createdAt[name] = time.Now()
	return container.CreateResponse{ID: id}, nil
}

func (e *healthyEngine) ContainerStart(ctx context.Context, id string, _ container.StartOptions) error {
	return nil
}

func (e *healthyEngine) ContainerStop(ctx context.Context, id string, _ container.StopOptions) error {
	return nil
}

func (e *healthyEngine) ContainerRemove(ctx context.Context, id string, _ container.RemoveOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, cid := range e.containers {
		if cid == id || name == id {
			delete(e.containers, name)
			return nil
		}
	}
	return notFoundErr()
}

func (e *healthyEngine) ContainerInspect(ctx context.Context, id string) (types.ContainerJSON, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, cid := range e.containers {
		if cid == id || name == id {
			return types.ContainerJSON{
				ContainerJSONBase: &types.ContainerJSONBase{
					ID:   cid,
					Name: "/" + name,
					State: &types.ContainerState{
						Status:  "running",
						Running: true,
						Health:  &types.Health{Status: "healthy"},
					},
				},
			}, nil
		}
	}
	return types.ContainerJSON{}, notFoundErr()
}

func (e *healthyEngine) ContainerList(ctx context.Context, _ container.ListOptions) ([]types.Container, error) {
	return nil, nil
}

func (e *healthyEngine) ContainerLogs(ctx context.Context, id string, _ container.LogsOptions) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (e *healthyEngine) ContainerWait(ctx context.Context, id string, _ container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	waitC := make(chan container.WaitResponse, 1)
	waitC <- container.WaitResponse{}
	return waitC, make(chan error, 1)
}

func (e *healthyEngine) NetworkCreate(ctx context.Context, name string, _ types.NetworkCreate) (types.NetworkCreateResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.networks[name] = true
	return types.NetworkCreateResponse{ID: "net"}, nil
}

func (e *healthyEngine) NetworkInspect(ctx context.Context, name string, _ types.NetworkInspectOptions) (types.NetworkResource, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.networks[name] {
		return types.NetworkResource{}, notFoundErr()
	}
	res := types.NetworkResource{Name: name, Containers: make(map[string]types.EndpointResource)}
	for name, id := range e.containers {
		res.Containers[id] = types.EndpointResource{Name: name}
	}
	return res, nil
}

func (e *healthyEngine) NetworkRemove(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.networks, name)
	return nil
}

func (e *healthyEngine) Close() error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Validators.Count = 2
	return cfg
}

// seedArtifacts writes a complete artifact set so Start skips generation.
// Genesis time is in the past, so Start never waits for genesis.
func seedArtifacts(t *testing.T, cfg *config.Config) {
	t.Helper()
	seedArtifactsAt(t, cfg, 1700000000)
}

func seedArtifactsAt(t *testing.T, cfg *config.Config, genesisTime int64) {
	t.Helper()
	genesis := fmt.Sprintf(`{"timestamp":"%d"}`, genesisTime)
	files := map[string]string{
		"jwt.hex":             "aa",
		"genesis.json":        genesis,
		"beacon/genesis.json": genesis,
		"beacon/genesis.ssz":                 "ssz",
		"beacon/config.yaml":                 "PRESET_BASE: mainnet\n",
		"beacon/genesis_validators_root.txt": "0xab",
		"beacon/jwt.hex":                     "aa",
		"validators/validator_definitions.yml": "[]\n",
	}
	for rel, content := range files {
		path := filepath.Join(cfg.ArtifactsDir(), rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestStartBringsUpStackInOrder(t *testing.T) {
	cfg := testConfig(t)
	seedArtifacts(t, cfg)
	engine := newHealthyEngine()
	pg := NewWithEngine(cfg, engine)

	require.NoError(t, pg.Start(context.Background(), StartOptions{}))

	assert.Equal(t, components.StartOrder, engine.started)
	assert.True(t, engine.networks[config.NetworkName])
	assert.NotContains(t, engine.started, components.NameContender)
	assert.Contains(t, engine.pulled, cfg.MEV.Relay.Image)
	assert.Contains(t, engine.pulled, components.RedisImage)
}

func TestStartWithoutBuilder(t *testing.T) {
	cfg := testConfig(t)
	cfg.MEV.Builder.Enabled = false
	seedArtifacts(t, cfg)
	engine := newHealthyEngine()
	pg := NewWithEngine(cfg, engine)

	require.NoError(t, pg.Start(context.Background(), StartOptions{}))

	assert.NotContains(t, engine.started, components.NameRBuilder)
	assert.NotContains(t, engine.pulled, cfg.MEV.Builder.Image)
}

func TestStartWithContenderStartsItLast(t *testing.T) {
	cfg := testConfig(t)
	seedArtifacts(t, cfg)
	engine := newHealthyEngine()
	pg := NewWithEngine(cfg, engine)

	require.NoError(t, pg.Start(context.Background(), StartOptions{WithContender: true, ContenderTPS: 7}))

	require.NotEmpty(t, engine.started)
	assert.Equal(t, components.NameContender, engine.started[len(engine.started)-1])
}

func TestStartHoldsRelayUntilGenesis(t *testing.T) {
	cfg := testConfig(t)
	genesisTime := time.Now().Add(2 * time.Second).Unix()
	seedArtifactsAt(t, cfg, genesisTime)
	engine := newHealthyEngine()
	pg := NewWithEngine(cfg, engine)

	require.NoError(t, pg.Start(context.Background(), StartOptions{}))

	relayAt, ok := engine.createdAt[components.NameRelay]
	require.True(t, ok, "relay was never created")
	assert.False(t, relayAt.Before(time.Unix(genesisTime, 0)),
		"relay created before genesis time passed")
	assert.True(t, engine.createdAt[components.NameReth].Before(relayAt),
		"services ahead of the relay must not wait for genesis")
}

func TestStartContenderRequiresRunningPlayground(t *testing.T) {
	cfg := testConfig(t)
	pg := NewWithEngine(cfg, newHealthyEngine())

	err := pg.StartContender(context.Background(), 10)
	require.ErrorIs(t, err, ErrNotRunning)
}

func TestStopContenderWhenAbsentIsNoop(t *testing.T) {
	cfg := testConfig(t)
	engine := newHealthyEngine()
	pg := NewWithEngine(cfg, engine)

	pg.StopContender(context.Background())
	assert.Empty(t, engine.containers)
}

func TestStopContenderRemovesIt(t *testing.T) {
	cfg := testConfig(t)
	seedArtifacts(t, cfg)
	engine := newHealthyEngine()
	pg := NewWithEngine(cfg, engine)

	require.NoError(t, pg.Start(context.Background(), StartOptions{WithContender: true}))
	require.Contains(t, engine.containers, components.NameContender)

	pg.StopContender(context.Background())
	assert.NotContains(t, engine.containers, components.NameContender)

	// A second stop is a no-op.
	pg.StopContender(context.Background())
}

func TestNukeRemovesDataDir(t *testing.T) {
	cfg := testConfig(t)
	seedArtifacts(t, cfg)
	engine := newHealthyEngine()
	pg := NewWithEngine(cfg, engine)

	require.NoError(t, pg.Start(context.Background(), StartOptions{}))
	require.NoError(t, pg.Nuke(context.Background(), false))

	_, err := os.Stat(cfg.DataDir)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, engine.containers)
	assert.False(t, engine.networks[config.NetworkName])
}

func TestNukeArtifactsOnlyKeepsChainData(t *testing.T) {
	cfg := testConfig(t)
	seedArtifacts(t, cfg)
	chainData := cfg.ServiceDataDir(components.NameReth)
	require.NoError(t, os.MkdirAll(chainData, 0o755))

	pg := NewWithEngine(cfg, newHealthyEngine())
	require.NoError(t, pg.Nuke(context.Background(), true))

	_, err := os.Stat(cfg.ArtifactsDir())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(chainData)
	assert.NoError(t, err)
}

func TestStatusEmptyWhenNothingRuns(t *testing.T) {
	pg := NewWithEngine(testConfig(t), newHealthyEngine())
	assert.Empty(t, pg.Status(context.Background()))
}

func TestStatusListsRunningServices(t *testing.T) {
	cfg := testConfig(t)
	seedArtifacts(t, cfg)
	engine := newHealthyEngine()
	pg := NewWithEngine(cfg, engine)

	require.NoError(t, pg.Start(context.Background(), StartOptions{}))

	// A second playground instance has an empty registry but still sees the
	// network's containers.
	fresh := NewWithEngine(cfg, engine)
	status := fresh.Status(context.Background())
	assert.Contains(t, status, components.NameReth)
	assert.Equal(t, "healthy", status[components.NameReth].Health)
}

func TestEndpointsReflectBuilderFlag(t *testing.T) {
	cfg := testConfig(t)
	pg := NewWithEngine(cfg, newHealthyEngine())
	assert.Contains(t, pg.Endpoints(), "rbuilder RPC")

	cfg.MEV.Builder.Enabled = false
	assert.NotContains(t, pg.Endpoints(), "rbuilder RPC")
}

func TestWaitForGenesis(t *testing.T) {
	// Past genesis returns immediately.
	require.NoError(t, waitForGenesis(context.Background(), time.Now().Add(-time.Hour).Unix()))

	// A cancelled context interrupts the wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := waitForGenesis(ctx, time.Now().Add(time.Hour).Unix())
	require.ErrorIs(t, err, context.Canceled)
}
