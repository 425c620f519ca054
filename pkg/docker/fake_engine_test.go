package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	specs "github.com/opencontainers/image-spec/specs-go/v1"
)

// fakeEngine is an in-memory Engine for tests. It models just enough of the
// daemon: named containers with running/health state, one network, and a set
// of locally present images.
type fakeEngine struct {
	mu sync.Mutex

	nextID     int
	containers map[string]*fakeContainer // keyed by ID
	networks   map[string]bool
	images     map[string]bool

	pulled  []string
	stopped []string
	removed []string

	createErr error
	startErr  error
	pullErr   map[string]error

	// nextExit and nextLogs seed every subsequently created container,
	// simulating crash-on-start and one-shot outcomes.
	nextExit int
	nextLogs string
}

type fakeContainer struct {
	id      string
	name    string
	running bool
	exit    int
	health  string // "", "starting", "healthy", "unhealthy"
	probe   string
	logs    string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		containers: make(map[string]*fakeContainer),
		networks:   make(map[string]bool),
		images:     make(map[string]bool),
		pullErr:    make(map[string]error),
	}
}

func (f *fakeEngine) lookup(ref string) *fakeContainer {
	if c, ok := f.containers[ref]; ok {
		return c
	}
	for _, c := range f.containers {
		if c.name == ref {
			return c
		}
	}
	return nil
}

func notFound(what string) error {
	return errdefs.NotFound(errors.New("no such " + what))
}

func (f *fakeEngine) ImageInspectWithRaw(ctx context.Context, ref string) (types.ImageInspect, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.images[ref] {
		return types.ImageInspect{ID: "sha256:" + ref}, nil, nil
	}
	return types.ImageInspect{}, nil, notFound("image")
}

func (f *fakeEngine) ImagePull(ctx context.Context, ref string, _ types.ImagePullOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.pullErr[ref]; err != nil {
		return nil, err
	}
	f.pulled = append(f.pulled, ref)
	f.images[ref] = true
	return io.NopCloser(bytes.NewReader(nil)), nil
}

func (f *fakeEngine) ContainerCreate(ctx context.Context, cfg *container.Config, _ *container.HostConfig, _ *network.NetworkingConfig, _ *specs.Platform, name string) (container.CreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return container.CreateResponse{}, f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("ctr-%d", f.nextID)
	health := ""
	if cfg.Healthcheck != nil && len(cfg.Healthcheck.Test) > 0 {
		health = "starting"
	}
	f.containers[id] = &fakeContainer{
		id:     id,
		name:   name,
		health: health,
		exit:   f.nextExit,
		logs:   f.nextLogs,
	}
	return container.CreateResponse{ID: id}, nil
}

func (f *fakeEngine) setHealth(name, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.lookup(name); c != nil {
		c.health = status
	}
}

func (f *fakeEngine) setProbeOutput(name, out string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.lookup(name); c != nil {
		c.probe = out
	}
}

func (f *fakeEngine) setLogs(name, logs string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.lookup(name); c != nil {
		c.logs = logs
	}
}

func (f *fakeEngine) ContainerStart(ctx context.Context, id string, _ container.StartOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	c := f.lookup(id)
	if c == nil {
		return notFound("container")
	}
	if c.exit == 0 {
		c.running = true
	}
	return nil
}

func (f *fakeEngine) ContainerStop(ctx context.Context, id string, _ container.StopOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.lookup(id)
	if c == nil {
		return notFound("container")
	}
	c.running = false
	f.stopped = append(f.stopped, c.name)
	return nil
}

func (f *fakeEngine) ContainerRemove(ctx context.Context, id string, _ container.RemoveOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.lookup(id)
	if c == nil {
		return notFound("container")
	}
	delete(f.containers, c.id)
	f.removed = append(f.removed, c.name)
	return nil
}

func (f *fakeEngine) ContainerInspect(ctx context.Context, id string) (types.ContainerJSON, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.lookup(id)
	if c == nil {
		return types.ContainerJSON{}, notFound("container")
	}
	state := &types.ContainerState{
		Running:  c.running,
		ExitCode: c.exit,
	}
	if c.running {
		state.Status = "running"
	} else {
		state.Status = "exited"
	}
	if c.health != "" {
		state.Health = &types.Health{
			Status: c.health,
			Log:    []*types.HealthcheckResult{{Output: c.probe}},
		}
	}
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{ID: c.id, Name: "/" + c.name, State: state},
	}, nil
}

func (f *fakeEngine) ContainerList(ctx context.Context, _ container.ListOptions) ([]types.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.Container, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, types.Container{ID: c.id, Names: []string{"/" + c.name}})
	}
	return out, nil
}

func (f *fakeEngine) ContainerLogs(ctx context.Context, id string, _ container.LogsOptions) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.lookup(id)
	if c == nil {
		return nil, notFound("container")
	}
	var buf bytes.Buffer
	w := stdcopy.NewStdWriter(&buf, stdcopy.Stdout)
	w.Write([]byte(c.logs))
	return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
}

func (f *fakeEngine) ContainerWait(ctx context.Context, id string, _ container.WaitCondition) (<-chan container.WaitResponse, <-chan error) {
	waitC := make(chan container.WaitResponse, 1)
	errC := make(chan error, 1)
	f.mu.Lock()
	c := f.lookup(id)
	f.mu.Unlock()
	if c == nil {
		errC <- notFound("container")
	} else {
		waitC <- container.WaitResponse{StatusCode: int64(c.exit)}
	}
	return waitC, errC
}

func (f *fakeEngine) NetworkCreate(ctx context.Context, name string, _ types.NetworkCreate) (types.NetworkCreateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.networks[name] = true
	return types.NetworkCreateResponse{ID: "net-" + name}, nil
}

func (f *fakeEngine) NetworkInspect(ctx context.Context, name string, _ types.NetworkInspectOptions) (types.NetworkResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.networks[name] {
		return types.NetworkResource{}, notFound("network")
	}
	res := types.NetworkResource{
		Name:       name,
		Containers: make(map[string]types.EndpointResource),
	}
	for id, c := range f.containers {
		res.Containers[id] = types.EndpointResource{Name: c.name}
	}
	return res, nil
}

func (f *fakeEngine) NetworkRemove(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.networks[name] {
		return notFound("network")
	}
	delete(f.networks, name)
	return nil
}

func (f *fakeEngine) Close() error { return nil }
