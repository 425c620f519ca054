package components

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// rbuilderCoinbaseKey signs the builder's payment transactions. A throwaway
// devnet key, distinct from the prefunded spammer accounts.
const rbuilderCoinbaseKey = "0x0101010101010101010101010101010101010101010101010101010101010101"

// RBuilder builds the rbuilder block builder service. The builder reads
// reth's database directly, so it mounts the same data dir and joins reth's
// PID namespace for the database lock check. Its TOML config is regenerated
// on every start.
func RBuilder(cfg *config.Config) (*service.Service, error) {
	configDir := cfg.ServiceConfigDir(NameRBuilder)
	if err := ensureDir(configDir); err != nil {
		return nil, err
	}
	configPath := filepath.Join(configDir, "rbuilder.toml")
	if err := os.WriteFile(configPath, []byte(rbuilderConfig()), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write rbuilder config: %w", err)
	}

	env := map[string]string{
		"COINBASE_SECRET_KEY": rbuilderCoinbaseKey,
		"RELAY_SECRET_KEY":    config.MEVSecretKey,
	}
	for k, v := range cfg.MEV.Builder.ExtraEnv {
		env[k] = v
	}

	return &service.Service{
		Name:     NameRBuilder,
		Image:    cfg.MEV.Builder.Image,
		StaticIP: config.IPRBuilder,
		Command:  []string{"run", "/config/rbuilder.toml"},
		Env:      env,
		Ports: map[int]int{
			config.PortRBuilderRPC:       config.PortRBuilderRPC,
			config.PortRBuilderTelemetry: config.PortRBuilderTelemetry,
		},
		Mounts: []service.Mount{
			{Source: configDir, Target: "/config", ReadOnly: true},
			{Source: cfg.ServiceDataDir(NameReth), Target: "/reth_data"},
			{Source: cfg.ArtifactsDir(), Target: "/genesis", ReadOnly: true},
		},
		DependsOn: []string{NameReth, NameRelay, NameLighthouseBN},
		PIDMode:   "container:" + NameReth,
	}, nil
}

// rbuilderConfig renders the builder's TOML. Table arrays must come after
// every scalar key, so the [[builders]] and [[relays]] sections sit at the
// bottom.
func rbuilderConfig() string {
	coinbaseKey := strings.TrimPrefix(rbuilderCoinbaseKey, "0x")
	relayKey := strings.TrimPrefix(config.MEVSecretKey, "0x")

	return fmt.Sprintf(`chain = "/genesis/genesis.json"
reth_datadir = "/reth_data"
el_node_ipc_path = "/reth_data/reth.ipc"
cl_node_url = ["%s"]
enabled_relays = ["ultrasound-local"]
coinbase_secret_key = "%s"
relay_secret_key = "%s"
live_builders = ["fast-ordering"]
jsonrpc_server_port = %d
jsonrpc_server_ip = "0.0.0.0"
log_level = "info,rbuilder=debug"
log_json = false
full_telemetry_server_port = %d
full_telemetry_server_ip = "0.0.0.0"
root_hash_use_sparse_trie = true
root_hash_compare_sparse_trie = false
extra_data = "🦇🔊"
slot_delta_to_start_bidding_ms = -12000

[[builders]]
name = "fast-ordering"
algo = "ordering-builder"
discard_txs = true
sorting = "mev-gas-price"
failed_order_retries = 1
drop_failed_orders = true
build_duration_deadline_ms = 3000

[[relays]]
name = "ultrasound-local"
url = "%s"
use_ssz_for_submit = false
use_gzip_for_submit = false
priority = 0
`,
		beaconAPIURL(),
		coinbaseKey,
		relayKey,
		config.PortRBuilderRPC,
		config.PortRBuilderTelemetry,
		relayURL(),
	)
}
