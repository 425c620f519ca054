package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Docker network parameters. Every component is reachable at a fixed address
// inside this subnet, so nothing depends on runtime service discovery.
const (
	NetworkName   = "mev-playground"
	NetworkSubnet = "172.28.0.0/16"
)

// Static IP addresses within the playground network.
const (
	IPReth         = "172.28.1.1"
	IPLighthouseBN = "172.28.1.2"
	IPLighthouseVC = "172.28.1.3"
	IPMEVBoost     = "172.28.1.4"

	IPRelay    = "172.28.2.1"
	IPRedis    = "172.28.2.2"
	IPMevDB    = "172.28.2.3"
	IPLocalDB  = "172.28.2.4"
	IPGlobalDB = "172.28.2.5"

	IPRBuilder = "172.28.3.1"

	IPDora      = "172.28.4.1"
	IPContender = "172.28.4.2"
)

// Static port assignments.
const (
	PortRethHTTP          = 8545
	PortRethWS            = 8546
	PortRethAuth          = 8551
	PortRethMetrics       = 9001
	PortLighthouseHTTP    = 3500
	PortLighthouseMetrics = 5054
	PortLighthouseP2P     = 9000
	PortLighthouseVC      = 5062
	PortMEVBoost          = 18550
	PortRelayHTTP         = 80
	PortRedis             = 6379
	PortPostgres          = 5432
	PortRBuilderRPC       = 8645
	PortRBuilderTelemetry = 6060
	PortDora              = 8080
)

// Fork versions, matching the Kurtosis ethereum-package conventions so the
// genesis generator and all clients agree.
const (
	GenesisForkVersion   = "0x10000038"
	AltairForkVersion    = "0x20000038"
	BellatrixForkVersion = "0x30000038"
	CapellaForkVersion   = "0x40000038"
	DenebForkVersion     = "0x50000038"
	ElectraForkVersion   = "0x60000038"
	FuluForkVersion      = "0x70000038"
)

// FarFutureEpoch disables a fork.
const FarFutureEpoch uint64 = 18446744073709551615

// DefaultMnemonic seeds both the genesis validator set and the generated
// keystores. Same mnemonic as the Kurtosis ethereum-package.
const DefaultMnemonic = "giant issue aisle success illegal bike spike question tent bar rely arctic volcano long crawl hungry vocal artwork sniff fantasy very lucky have athlete"

// Relay BLS identity used by mev-boost and the builder. Well-known devnet
// keys, never to be used outside a local playground.
const (
	MEVPubkey    = "0xa55c1285d84ba83a5ad26420cd5ad3091e49c55a813eee651cd467db38a8c8e63192f47955e9376f6b42f6d190571cb5"
	MEVSecretKey = "0x607a11b45a7219cc61a3d9c5fd08c7eebd602a6a19a977f8d3771d5711a550f2"
)

// DepositContractAddress is the devnet deposit contract.
const DepositContractAddress = "0x4242424242424242424242424242424242424242"

// DisperseContractAddress is preloaded into the EL genesis for revenue
// distribution experiments (same address as the mainnet disperse.app deploy).
const DisperseContractAddress = "0xD152f549545093347A162Dce210e7293f1452150"

// PrefundedKeys are the Foundry/Hardhat dev account private keys, funded in
// the generated genesis. Used by the transaction spammer.
var PrefundedKeys = []string{
	"0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80",
	"0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
	"0x5de4111afa1a4b94908f83103eb1f1706367c2e68ca870fc3fb9a804cdab365a",
}

// PrefundedAddresses are the Foundry/Hardhat dev accounts premined in the EL
// genesis (10000 ETH each).
var PrefundedAddresses = []string{
	"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
	"0x90F79bf6EB2c4f870365E785982E1f101E93b906",
	"0x15d34AAf54267DB7D7c367839AAf71A00a2C6A65",
	"0x9965507D1a55bcC2695C58ba16FB37d819B0A4dc",
	"0x976EA74026E726554dB657fA54763abd0C3a0aa9",
	"0x14dC79964da2C08b23698B3D3cc7Ca32193d9955",
	"0x23618e81E3f5cdF7f54C3d65f7FBc0aBf5B21E8f",
	"0xa0Ee7A142d267C1f36714E4a8F75612F20a79720",
}

// Config is the playground configuration. Built once at startup from defaults,
// an optional YAML file and CLI overrides; read-only afterwards.
type Config struct {
	DataDir string `yaml:"data_dir"`

	Network    NetworkConfig   `yaml:"network"`
	Execution  ClientConfig    `yaml:"execution"`
	Consensus  ClientConfig    `yaml:"consensus"`
	Validators ValidatorConfig `yaml:"validators"`
	MEV        MEVConfig       `yaml:"mev"`
	Explorer   ClientConfig    `yaml:"explorer"`
	Contender  ContenderConfig `yaml:"contender"`
	Artifacts  ArtifactsConfig `yaml:"artifacts"`
}

// NetworkConfig holds chain-level parameters fed to the genesis generator.
type NetworkConfig struct {
	ChainID          uint64 `yaml:"chain_id"`
	SecondsPerSlot   int    `yaml:"seconds_per_slot"`
	GenesisDelaySec  int    `yaml:"genesis_delay"`
	ElectraForkEpoch uint64 `yaml:"electra_fork_epoch"`
	FuluForkEpoch    uint64 `yaml:"fulu_fork_epoch"`
}

// ClientConfig identifies the image backing a role.
type ClientConfig struct {
	Image string `yaml:"image"`
}

// ValidatorConfig controls keystore generation.
type ValidatorConfig struct {
	Count    int    `yaml:"count"`
	Mnemonic string `yaml:"mnemonic"`
}

// MEVConfig groups the mev-boost sidecar, relay and block builder settings.
type MEVConfig struct {
	Boost   ClientConfig  `yaml:"boost"`
	Relay   RelayConfig   `yaml:"relay"`
	Builder BuilderConfig `yaml:"builder"`
}

// RelayConfig configures the block relay.
type RelayConfig struct {
	Image    string            `yaml:"image"`
	ExtraEnv map[string]string `yaml:"extra_env"`
}

// BuilderConfig configures the rbuilder block builder.
type BuilderConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Image    string            `yaml:"image"`
	ExtraEnv map[string]string `yaml:"extra_env"`
}

// ContenderConfig configures the transaction spammer container.
type ContenderConfig struct {
	Image   string `yaml:"image"`
	TPS     int    `yaml:"tps"`
	Enabled bool   `yaml:"enabled"`
}

// ArtifactsConfig names the one-shot provisioning tool images.
type ArtifactsConfig struct {
	GenesisGeneratorImage string `yaml:"genesis_generator_image"`
	Eth2ValToolsImage     string `yaml:"eth2_val_tools_image"`
}

// RBuilderImage returns the rbuilder image for the current architecture.
func RBuilderImage() string {
	switch runtime.GOARCH {
	case "arm64":
		return "ghcr.io/flashbots/rbuilder:latest-linux-arm64"
	default:
		return "ghcr.io/flashbots/rbuilder:latest"
	}
}

// DefaultDataDir is $HOME/.mev-playground, falling back to the working
// directory when the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mev-playground"
	}
	return filepath.Join(home, ".mev-playground")
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Network: NetworkConfig{
			ChainID:          3151908,
			SecondsPerSlot:   12,
			GenesisDelaySec:  0,
			ElectraForkEpoch: 0,
			FuluForkEpoch:    FarFutureEpoch,
		},
		Execution: ClientConfig{Image: "ghcr.io/paradigmxyz/reth:latest"},
		Consensus: ClientConfig{Image: "sigp/lighthouse:latest"},
		Validators: ValidatorConfig{
			Count:    100,
			Mnemonic: DefaultMnemonic,
		},
		MEV: MEVConfig{
			Boost: ClientConfig{Image: "flashbots/mev-boost:latest"},
			Relay: RelayConfig{Image: "turbo-relay-combined:latest"},
			Builder: BuilderConfig{
				Enabled: true,
				Image:   RBuilderImage(),
			},
		},
		Explorer: ClientConfig{Image: "pk910/dora-the-explorer:latest"},
		Contender: ContenderConfig{
			Image: "flashbots/contender:latest",
			TPS:   20,
		},
		Artifacts: ArtifactsConfig{
			GenesisGeneratorImage: "ethpandaops/ethereum-genesis-generator:5.2.0",
			Eth2ValToolsImage:     "protolambda/eth2-val-tools:latest",
		},
	}
}

// Load reads configuration from a YAML file layered over the defaults. A
// missing file is not an error; the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for required values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Execution.Image == "" {
		return fmt.Errorf("execution.image is required")
	}
	if c.Consensus.Image == "" {
		return fmt.Errorf("consensus.image is required")
	}
	if c.MEV.Relay.Image == "" {
		return fmt.Errorf("mev.relay.image is required")
	}
	if c.MEV.Builder.Enabled && c.MEV.Builder.Image == "" {
		return fmt.Errorf("mev.builder.image is required when the builder is enabled")
	}
	if c.Validators.Count < 1 {
		return fmt.Errorf("validators.count must be at least 1")
	}
	if c.Network.SecondsPerSlot < 1 {
		return fmt.Errorf("network.seconds_per_slot must be at least 1")
	}
	return nil
}

// ArtifactsDir is the generated-artifact subtree under the data root.
func (c *Config) ArtifactsDir() string {
	return filepath.Join(c.DataDir, "artifacts")
}

// BeaconDir holds the consensus genesis state, config and validators root.
func (c *Config) BeaconDir() string {
	return filepath.Join(c.ArtifactsDir(), "beacon")
}

// ValidatorsDir holds keystores, secrets and the definitions manifest.
func (c *Config) ValidatorsDir() string {
	return filepath.Join(c.ArtifactsDir(), "validators")
}

// ServiceDataDir is the persistent volume root for one service.
func (c *Config) ServiceDataDir(name string) string {
	return filepath.Join(c.DataDir, "data", name)
}

// ServiceConfigDir holds generated per-service configuration files.
func (c *Config) ServiceConfigDir(name string) string {
	return filepath.Join(c.DataDir, "config", name)
}
