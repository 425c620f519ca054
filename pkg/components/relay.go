package components

import (
	"fmt"
	"time"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// Relay builds the ultrasound relay service. The relay is configured entirely
// through environment variables: its stores, the chain's fork schedule, and a
// set of devnet overrides that disable block simulation since reth has no
// flashbots validation endpoint.
func Relay(cfg *config.Config, genesisTime int64, genesisValidatorsRoot string) *service.Service {
	env := map[string]string{
		"MEV_DATABASE_URL":    postgresURL(config.IPMevDB),
		"LOCAL_DATABASE_URL":  postgresURL(config.IPLocalDB),
		"GLOBAL_DATABASE_URL": postgresURL(config.IPGlobalDB),
		"REDIS_URI":           fmt.Sprintf("%s:%d", config.IPRedis, config.PortRedis),
		"REDIS_READ_URI":      fmt.Sprintf("%s:%d", config.IPRedis, config.PortRedis),

		"CONSENSUS_NODES":       beaconAPIURL(),
		"EXECUTION_CLIENT_URLS": rethHTTPURL(),
		"BLOCKSIM_URI":          rethHTTPURL(),

		"RELAY_SECRET_KEY":         config.MEVSecretKey,
		"PRIVATE_ROUTE_AUTH_TOKEN": "localdevtoken",
		"ADMIN_TOKEN":              "localdevtoken",

		"GEO":                  "rbx",
		"BIND_IP_ADDR":         "0.0.0.0",
		"API_TIMEOUT":          "10000",
		"TOKIO_WORKER_THREADS": "4",
		"LOG_JSON":             "false",
		"RUST_LOG":             "info",

		"TOP_BID_DEBOUNCE_MS_LOCAL":    "2",
		"SKIP_SIM_PROBABILITY":         "1.0",
		"FORCED_TIMEOUT_MAX_BID_VALUE": "0",
		"X_TIMEOUT_HEADER_CORRECTION":  "1500",
		"ADJUSTMENT_LOOKBACK_MS":       "50",
		"ADJUSTMENT_MIN_DELTA":         "0",
		"SKIP_SIMULATION":              "true",
		"DISABLE_BLOCK_SIMULATION":     "true",
		"FORCE_FAST_START":             "true",

		"FF_ENABLE_TOP_BID_GOSSIP":         "false",
		"FF_LOWBALL_AMOUNT":                "1",
		"FF_ENABLE_V3_SUBMISSIONS":         "false",
		"FF_ENABLE_DEHYDRATED_SUBMISSIONS": "false",
		"FF_PRIMEV_ENABLED":                "false",
		"FF_PRIMEV_ENFORCE":                "false",

		"NETWORK":                 "custom",
		"GENESIS_TIMESTAMP":       fmt.Sprintf("%d", genesisTime),
		"GENESIS_VALIDATORS_ROOT": genesisValidatorsRoot,
		"GENESIS_FORK_VERSION":    config.GenesisForkVersion,
		"BELLATRIX_FORK_VERSION":  config.BellatrixForkVersion,
		"BELLATRIX_FORK_EPOCH":    "0",
		"CAPELLA_FORK_VERSION":    config.CapellaForkVersion,
		"CAPELLA_FORK_EPOCH":      "0",
		"DENEB_FORK_VERSION":      config.DenebForkVersion,
		"DENEB_FORK_EPOCH":        "0",
		"ELECTRA_FORK_VERSION":    config.ElectraForkVersion,
		"ELECTRA_FORK_EPOCH":      "0",
		"FULU_FORK_VERSION":       config.FuluForkVersion,
		"FULU_FORK_EPOCH":         fmt.Sprintf("%d", config.FarFutureEpoch),

		"TELEGRAM_API_KEY":    "",
		"TELEGRAM_CHANNEL_ID": "",
	}
	for k, v := range cfg.MEV.Relay.ExtraEnv {
		env[k] = v
	}

	return &service.Service{
		Name:     NameRelay,
		Image:    cfg.MEV.Relay.Image,
		StaticIP: config.IPRelay,
		Env:      env,
		Ports:    map[int]int{config.PortRelayHTTP: config.PortRelayHTTP},
		// Generous retry budget: the relay only answers once genesis time
		// has passed.
		Health:    service.TCPProbe(config.PortRelayHTTP, 60, 10*time.Second),
		DependsOn: []string{NameRedis, NameMevDB, NameLocalDB, NameGlobalDB, NameLighthouseBN, NameReth},
		// supervisord inside the image needs root to drop privileges.
		User: "root",
	}
}
