package components

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// Dora builds the block explorer service. Dora runs against the beacon and
// execution APIs with a local sqlite index; its YAML config is regenerated
// on every start.
func Dora(cfg *config.Config) (*service.Service, error) {
	configDir := cfg.ServiceConfigDir(NameDora)
	dataDir := cfg.ServiceDataDir(NameDora)
	for _, dir := range []string{configDir, dataDir} {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(doraConfig()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write dora config: %w", err)
	}

	return &service.Service{
		Name:     NameDora,
		Image:    cfg.Explorer.Image,
		StaticIP: config.IPDora,
		Command:  []string{"-config", "/config/config.yaml"},
		Ports:    map[int]int{config.PortDora: config.PortDora},
		Mounts: []service.Mount{
			{Source: configDir, Target: "/config", ReadOnly: true},
			{Source: dataDir, Target: "/data"},
		},
		Health:    service.TCPProbe(config.PortDora, 10, 10*time.Second),
		DependsOn: []string{NameLighthouseBN, NameReth},
	}, nil
}

func doraConfig() string {
	return fmt.Sprintf(`logging:
  outputLevel: "info"

chain:
  displayName: "MEV Playground Devnet"

server:
  host: "0.0.0.0"
  port: "%d"

frontend:
  enabled: true
  siteName: "MEV Playground Explorer"
  siteSubtitle: "Local Devnet"
  ethExplorerLink: ""

beaconapi:
  endpoints:
    - name: "lighthouse"
      url: "%s"
  localCacheSize: 100

executionapi:
  endpoints:
    - name: "reth"
      url: "%s"
  depositDeployBlock: 0

indexer:
  inMemoryEpochs: 3
  activityHistoryLength: 6
  disableSynchronizer: false
  syncEpochCooldown: 1
  maxParallelValidatorSetRequests: 1

database:
  engine: "sqlite"
  sqlite:
    file: "/data/dora.sqlite"
`, config.PortDora, beaconAPIURL(), rethHTTPURL())
}
