package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/rs/zerolog/log"
)

// NetworkManager owns the playground bridge network. Every container gets a
// static address inside the subnet, so the network is created with an
// explicit IPAM pool instead of letting the engine pick one.
type NetworkManager struct {
	engine Engine
	name   string
	subnet string
}

// NewNetworkManager manages the named bridge network over the given subnet.
func NewNetworkManager(engine Engine, name, subnet string) *NetworkManager {
	return &NetworkManager{engine: engine, name: name, subnet: subnet}
}

// Exists reports whether the network is currently present.
func (m *NetworkManager) Exists(ctx context.Context) bool {
	_, err := m.engine.NetworkInspect(ctx, m.name, types.NetworkInspectOptions{})
	return err == nil
}

// Ensure creates the bridge network if it does not already exist. Reusing an
// existing network is fine; container addresses are deterministic so a
// leftover network from a previous run causes no conflicts once its
// containers are cleaned up.
func (m *NetworkManager) Ensure(ctx context.Context) error {
	if m.Exists(ctx) {
		log.Debug().Str("network", m.name).Msg("Network already exists")
		return nil
	}

	log.Info().Str("network", m.name).Str("subnet", m.subnet).Msg("Creating network")
	_, err := m.engine.NetworkCreate(ctx, m.name, types.NetworkCreate{
		Driver: "bridge",
		IPAM: &network.IPAM{
			Config: []network.IPAMConfig{{Subnet: m.subnet}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create network %s: %w", m.name, err)
	}
	return nil
}

// Remove deletes the network. A missing network is not an error; any other
// failure (typically containers still attached) is reported.
func (m *NetworkManager) Remove(ctx context.Context) error {
	err := m.engine.NetworkRemove(ctx, m.name)
	if err != nil && !client.IsErrNotFound(err) {
		return fmt.Errorf("failed to remove network %s: %w", m.name, err)
	}
	return nil
}
