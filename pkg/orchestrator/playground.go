// Package orchestrator sequences the playground lifecycle: artifact
// provisioning, network and image preparation, ordered container startup with
// a health barrier, and teardown.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jihwankim/mev-playground/pkg/artifacts"
	"github.com/jihwankim/mev-playground/pkg/components"
	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/docker"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// ErrNotRunning is returned by operations that need a running playground.
var ErrNotRunning = errors.New("playground is not running")

// healthBarrierTimeout bounds the post-start wait for the whole stack.
const healthBarrierTimeout = 180 * time.Second

// Playground drives the whole devnet. Single-threaded by design: every
// operation runs on the caller's goroutine from start to finish.
type Playground struct {
	cfg         *config.Config
	controller  *docker.Controller
	network     *docker.NetworkManager
	provisioner *artifacts.Provisioner
}

// StartOptions tune a single Start invocation.
type StartOptions struct {
	// WithContender also launches the transaction spammer after the health
	// barrier.
	WithContender bool
	// ContenderTPS overrides the configured spam rate when positive.
	ContenderTPS int
}

// New builds a playground over a live container engine.
func New(cfg *config.Config) (*Playground, error) {
	engine, err := docker.NewEngine()
	if err != nil {
		return nil, err
	}
	return NewWithEngine(cfg, engine), nil
}

// NewWithEngine builds a playground over the given engine.
func NewWithEngine(cfg *config.Config, engine docker.Engine) *Playground {
	controller := docker.NewController(engine, config.NetworkName)
	return &Playground{
		cfg:         cfg,
		controller:  controller,
		network:     docker.NewNetworkManager(engine, config.NetworkName, config.NetworkSubnet),
		provisioner: artifacts.NewProvisioner(cfg, controller),
	}
}

// Close releases the underlying engine connection.
func (p *Playground) Close() error {
	return p.controller.Close()
}

// Start brings the whole devnet up: artifacts, network, images, then the
// fixed boot sequence followed by a health barrier over every started
// service. The relay is only started once genesis time has passed, since it
// refuses to serve a pre-genesis chain. Leftover containers from a previous
// run are cleared first, so Start doubles as crash recovery.
func (p *Playground) Start(ctx context.Context, opts StartOptions) error {
	if err := os.MkdirAll(p.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	info, err := p.provisioner.Ensure(ctx)
	if err != nil {
		return err
	}

	if err := p.network.Ensure(ctx); err != nil {
		return err
	}

	log.Info().Msg("Pulling images")
	if err := p.controller.PullImages(ctx, p.images(opts)); err != nil {
		return err
	}

	roster, order, err := p.buildRoster(info)
	if err != nil {
		return err
	}

	log.Info().Msg("Cleaning up leftover containers")
	p.controller.CleanupExisting(ctx, components.AllNames)

	for _, name := range order {
		svc, ok := roster[name]
		if !ok {
			continue
		}
		if name == components.NameRelay {
			if err := waitForGenesis(ctx, info.Time); err != nil {
				return err
			}
		}
		if err := p.controller.Run(ctx, svc); err != nil {
			return err
		}
	}

	log.Info().Msg("Waiting for services to become healthy")
	if err := p.controller.WaitForAllHealthy(ctx, healthBarrierTimeout); err != nil {
		return err
	}

	if opts.WithContender || p.cfg.Contender.Enabled {
		tps := p.cfg.Contender.TPS
		if opts.ContenderTPS > 0 {
			tps = opts.ContenderTPS
		}
		if err := p.startContender(ctx, tps); err != nil {
			return err
		}
	}

	log.Info().Msg("MEV playground is running")
	return nil
}

// Stop stops every playground container. Chain data and artifacts stay on
// disk, so a later Start resumes the same chain.
func (p *Playground) Stop(ctx context.Context) {
	log.Info().Msg("Stopping MEV playground")
	p.controller.StopAll(ctx)
}

// Nuke tears everything down: containers, network, and on-disk state. With
// artifactsOnly set, chain data survives and only the generated artifacts are
// deleted, forcing a fresh genesis on the next start.
func (p *Playground) Nuke(ctx context.Context, artifactsOnly bool) error {
	log.Info().Msg("Nuking MEV playground")
	p.controller.StopAll(ctx)
	p.controller.RemoveAll(ctx, true)

	if err := p.network.Remove(ctx); err != nil {
		return err
	}

	target := p.cfg.DataDir
	if artifactsOnly {
		target = p.cfg.ArtifactsDir()
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to remove %s: %w", target, err)
	}
	return nil
}

// Status reports the state and health of every playground container. An
// empty map means nothing is running.
func (p *Playground) Status(ctx context.Context) map[string]docker.ServiceStatus {
	return p.controller.Status(ctx)
}

// Logs returns the last tail lines of one service's output.
func (p *Playground) Logs(ctx context.Context, name string, tail int) string {
	return p.controller.Logs(ctx, name, tail)
}

// StartContender launches the transaction spammer against a running
// playground, replacing any previous contender container.
func (p *Playground) StartContender(ctx context.Context, tps int) error {
	if !p.controller.ContainerRunning(ctx, components.NameReth) {
		return fmt.Errorf("%w: start it first", ErrNotRunning)
	}
	if tps <= 0 {
		tps = p.cfg.Contender.TPS
	}
	p.controller.Remove(ctx, components.NameContender, true)
	return p.startContender(ctx, tps)
}

// StopContender stops and removes the spammer container. Stopping an absent
// contender is a no-op.
func (p *Playground) StopContender(ctx context.Context) {
	if !p.controller.ContainerRunning(ctx, components.NameContender) {
		log.Info().Msg("Contender is not running")
		return
	}
	p.controller.Stop(ctx, components.NameContender)
	p.controller.Remove(ctx, components.NameContender, true)
}

// Endpoints lists the host-reachable URLs of the running services.
func (p *Playground) Endpoints() map[string]string {
	eps := map[string]string{
		"Reth HTTP":     fmt.Sprintf("http://localhost:%d", config.PortRethHTTP),
		"Reth WS":       fmt.Sprintf("ws://localhost:%d", config.PortRethWS),
		"Lighthouse":    fmt.Sprintf("http://localhost:%d", config.PortLighthouseHTTP),
		"MEV-Boost":     fmt.Sprintf("http://localhost:%d", config.PortMEVBoost),
		"Dora Explorer": fmt.Sprintf("http://localhost:%d", config.PortDora),
		"Relay":         fmt.Sprintf("http://localhost:%d", config.PortRelayHTTP),
	}
	if p.cfg.MEV.Builder.Enabled {
		eps["rbuilder RPC"] = fmt.Sprintf("http://localhost:%d", config.PortRBuilderRPC)
	}
	return eps
}

func (p *Playground) startContender(ctx context.Context, tps int) error {
	log.Info().Int("tps", tps).Msg("Starting contender")
	cfg := *p.cfg
	cfg.Contender.TPS = tps
	if err := p.controller.PullImage(ctx, cfg.Contender.Image); err != nil {
		return err
	}
	return p.controller.Run(ctx, components.Contender(&cfg))
}

// buildRoster constructs every service for this configuration and returns it
// together with the boot order.
func (p *Playground) buildRoster(info *artifacts.GenesisInfo) (map[string]*service.Service, []string, error) {
	roster := make(map[string]*service.Service)

	reth, err := components.Reth(p.cfg)
	if err != nil {
		return nil, nil, err
	}
	roster[reth.Name] = reth

	bn, err := components.LighthouseBeacon(p.cfg)
	if err != nil {
		return nil, nil, err
	}
	roster[bn.Name] = bn

	vc, err := components.LighthouseValidator(p.cfg)
	if err != nil {
		return nil, nil, err
	}
	roster[vc.Name] = vc

	boost := components.MEVBoost(p.cfg, info.Time)
	roster[boost.Name] = boost

	dora, err := components.Dora(p.cfg)
	if err != nil {
		return nil, nil, err
	}
	roster[dora.Name] = dora

	redis := components.Redis()
	roster[redis.Name] = redis

	dbs, err := components.RelayDatabases(p.cfg)
	if err != nil {
		return nil, nil, err
	}
	for _, db := range dbs {
		roster[db.Name] = db
	}

	relay := components.Relay(p.cfg, info.Time, info.ValidatorsRoot)
	roster[relay.Name] = relay

	if p.cfg.MEV.Builder.Enabled {
		builder, err := components.RBuilder(p.cfg)
		if err != nil {
			return nil, nil, err
		}
		roster[builder.Name] = builder
	}

	return roster, components.StartOrder, nil
}

// images lists everything Start will pull.
func (p *Playground) images(opts StartOptions) []string {
	images := []string{
		p.cfg.Execution.Image,
		p.cfg.Consensus.Image,
		p.cfg.MEV.Boost.Image,
		p.cfg.Explorer.Image,
		p.cfg.MEV.Relay.Image,
		components.RedisImage,
		components.PostgresImage,
	}
	if p.cfg.MEV.Builder.Enabled {
		images = append(images, p.cfg.MEV.Builder.Image)
	}
	if opts.WithContender || p.cfg.Contender.Enabled {
		images = append(images, p.cfg.Contender.Image)
	}
	return images
}

// waitForGenesis blocks until genesis time has passed. The relay refuses to
// start on a pre-genesis chain, so starting it earlier only burns its health
// probe budget.
func waitForGenesis(ctx context.Context, genesisTime int64) error {
	remaining := time.Until(time.Unix(genesisTime, 0))
	if remaining <= 0 {
		return nil
	}
	log.Info().Dur("wait", remaining).Msg("Waiting for genesis time to pass")
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(remaining):
		return nil
	}
}
