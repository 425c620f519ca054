package components

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// LighthouseBeacon builds the beacon node service. The node runs solo with
// discovery effectively disabled and always prepares payloads so the builder
// pipeline has something to bid against.
func LighthouseBeacon(cfg *config.Config) (*service.Service, error) {
	dataDir := cfg.ServiceDataDir(filepath.Join("lighthouse", "beacon"))
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}

	command := []string{
		"lighthouse",
		"beacon_node",
		"--datadir", "/data",
		"--testnet-dir", "/config",
		"--execution-endpoint", fmt.Sprintf("http://%s:%d", config.IPReth, config.PortRethAuth),
		"--execution-jwt", "/config/jwt.hex",
		"--http",
		"--http-address", "0.0.0.0",
		"--http-port", fmt.Sprintf("%d", config.PortLighthouseHTTP),
		"--http-allow-origin", "*",
		"--metrics",
		"--metrics-address", "0.0.0.0",
		"--metrics-port", fmt.Sprintf("%d", config.PortLighthouseMetrics),
		"--staking",
		"--disable-peer-scoring",
		"--disable-packet-filter",
		"--enable-private-discovery",
		"--target-peers", "0",
		"--disable-upnp",
		"--disable-enr-auto-update",
		"--enr-address", config.IPLighthouseBN,
		"--enr-udp-port", fmt.Sprintf("%d", config.PortLighthouseP2P),
		"--enr-tcp-port", fmt.Sprintf("%d", config.PortLighthouseP2P),
		"--port", fmt.Sprintf("%d", config.PortLighthouseP2P),
		"--always-prepare-payload",
		"--prepare-payload-lookahead", "8000",
		"--suggested-fee-recipient", "0x0000000000000000000000000000000000000000",
		// 3000ms is the maximum header timeout lighthouse accepts.
		"--builder", fmt.Sprintf("http://%s:%d", config.IPMEVBoost, config.PortMEVBoost),
		"--builder-fallback-epochs-since-finalization", "0",
		"--builder-fallback-disable-checks",
		"--builder-header-timeout", "3000",
	}

	return &service.Service{
		Name:     NameLighthouseBN,
		Image:    cfg.Consensus.Image,
		StaticIP: config.IPLighthouseBN,
		Command:  command,
		Ports: map[int]int{
			config.PortLighthouseHTTP:    config.PortLighthouseHTTP,
			config.PortLighthouseMetrics: config.PortLighthouseMetrics,
		},
		Mounts: []service.Mount{
			{Source: dataDir, Target: "/data"},
			{Source: cfg.BeaconDir(), Target: "/config", ReadOnly: true},
		},
		Health:    service.TCPProbe(config.PortLighthouseHTTP, 20, 30*time.Second),
		DependsOn: []string{NameReth},
	}, nil
}

// LighthouseValidator builds the validator client service. Keystores are
// mounted at $DATADIR/validators where lighthouse looks for them, and the
// client prefers builder proposals so blocks flow through the relay.
func LighthouseValidator(cfg *config.Config) (*service.Service, error) {
	dataDir := cfg.ServiceDataDir(filepath.Join("lighthouse", "validator"))
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}

	command := []string{
		"lighthouse",
		"validator_client",
		"--datadir", "/data",
		"--testnet-dir", "/config",
		"--beacon-nodes", beaconAPIURL(),
		"--init-slashing-protection",
		"--http",
		"--http-address", "0.0.0.0",
		"--http-port", fmt.Sprintf("%d", config.PortLighthouseVC),
		"--http-allow-origin", "*",
		"--unencrypted-http-transport",
		"--graffiti", "mev-playground",
		"--suggested-fee-recipient", "0x0000000000000000000000000000000000000000",
		"--builder-proposals",
		"--prefer-builder-proposals",
	}

	return &service.Service{
		Name:     NameLighthouseVC,
		Image:    cfg.Consensus.Image,
		StaticIP: config.IPLighthouseVC,
		Command:  command,
		Mounts: []service.Mount{
			{Source: cfg.BeaconDir(), Target: "/config", ReadOnly: true},
			{Source: cfg.ValidatorsDir(), Target: "/data/validators"},
		},
		Health:    service.TCPProbe(config.PortLighthouseVC, 10, 10*time.Second),
		DependsOn: []string{NameLighthouseBN},
	}, nil
}
