package components

import (
	"fmt"
	"time"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// Reth builds the execution client service. The EL genesis and JWT secret are
// mounted read-only from the artifacts dir; chain data persists under the
// service data dir so restarts resume the same chain.
func Reth(cfg *config.Config) (*service.Service, error) {
	dataDir := cfg.ServiceDataDir(NameReth)
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}

	command := []string{
		"node",
		"--chain", "/genesis/genesis.json",
		"--datadir", "/data",
		"--http",
		"--http.addr", "0.0.0.0",
		"--http.port", fmt.Sprintf("%d", config.PortRethHTTP),
		"--http.api", "eth,net,web3,debug,trace,txpool,admin",
		"--http.corsdomain", "*",
		"--ws",
		"--ws.addr", "0.0.0.0",
		"--ws.port", fmt.Sprintf("%d", config.PortRethWS),
		"--ws.api", "eth,net,web3,debug,trace,txpool",
		"--authrpc.addr", "0.0.0.0",
		"--authrpc.port", fmt.Sprintf("%d", config.PortRethAuth),
		"--authrpc.jwtsecret", "/genesis/jwt.hex",
		"--metrics", fmt.Sprintf("0.0.0.0:%d", config.PortRethMetrics),
		"--log.stdout.format", "terminal",
		"--full",
		"--ipcdisable",
		// Without these the engine API serves stale payloads on a
		// single-node chain.
		"--engine.persistence-threshold", "0",
		"--engine.memory-block-buffer-target", "0",
	}

	return &service.Service{
		Name:     NameReth,
		Image:    cfg.Execution.Image,
		StaticIP: config.IPReth,
		Command:  command,
		Ports: map[int]int{
			config.PortRethHTTP: config.PortRethHTTP,
			config.PortRethWS:   config.PortRethWS,
			config.PortRethAuth: config.PortRethAuth,
		},
		Mounts: []service.Mount{
			{Source: dataDir, Target: "/data"},
			{Source: cfg.ArtifactsDir(), Target: "/genesis", ReadOnly: true},
		},
		Health: service.TCPProbe(config.PortRethHTTP, 10, 10*time.Second),
	}, nil
}
