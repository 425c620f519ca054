package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/docker"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// genesisParams collects everything the values.env template needs.
type genesisParams struct {
	ChainID          uint64
	SecondsPerSlot   int
	NumValidators    int
	Mnemonic         string
	ElectraForkEpoch uint64
	FuluForkEpoch    uint64
	GenesisTimestamp int64
}

// preloadedContract mirrors the alloc entry format the genesis generator
// expects for additional preloaded contracts.
type preloadedContract struct {
	Balance string            `json:"balance"`
	Code    string            `json:"code"`
	Storage map[string]string `json:"storage"`
	Nonce   string            `json:"nonce"`
}

const prefundedBalance = "0x21e19e0c9bab2400000" // 10000 ETH

// generateGenesis runs the ethereum-genesis-generator container and copies
// the coordinated EL and CL genesis artifacts into beaconDir. The generator
// reads /config/values.env plus the additional-contracts file and writes
// everything under /data/metadata. Mounts must be host paths, so the staging
// directory lives under the data dir rather than the system temp dir.
func generateGenesis(ctx context.Context, runner OneShotRunner, cfg *config.Config, beaconDir string, genesisTime int64) error {
	staging, err := os.MkdirTemp(cfg.DataDir, "genesis-*")
	if err != nil {
		return fmt.Errorf("failed to create genesis staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	params := genesisParams{
		ChainID:          cfg.Network.ChainID,
		SecondsPerSlot:   cfg.Network.SecondsPerSlot,
		NumValidators:    cfg.Validators.Count,
		Mnemonic:         cfg.Validators.Mnemonic,
		ElectraForkEpoch: cfg.Network.ElectraForkEpoch,
		FuluForkEpoch:    cfg.Network.FuluForkEpoch,
		GenesisTimestamp: genesisTime,
	}

	valuesPath := filepath.Join(staging, "values.env")
	if err := os.WriteFile(valuesPath, []byte(valuesEnv(params)), 0o644); err != nil {
		return fmt.Errorf("failed to write values.env: %w", err)
	}

	contracts, err := json.Marshal(map[string]preloadedContract{
		config.DisperseContractAddress: {
			Balance: "0x0",
			Code:    disperseBytecode,
			Storage: map[string]string{},
			Nonce:   "0x1",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to encode preloaded contracts: %w", err)
	}
	contractsPath := filepath.Join(staging, "additional-contracts.json")
	if err := os.WriteFile(contractsPath, contracts, 0o644); err != nil {
		return fmt.Errorf("failed to write additional-contracts.json: %w", err)
	}

	outDir := filepath.Join(staging, "output")
	if err := os.MkdirAll(outDir, 0o777); err != nil {
		return fmt.Errorf("failed to create genesis output directory: %w", err)
	}

	log.Info().Str("image", cfg.Artifacts.GenesisGeneratorImage).Msg("Running genesis generator")
	out, err := runner.RunOneShot(ctx, docker.OneShot{
		Image:   cfg.Artifacts.GenesisGeneratorImage,
		Command: []string{"all"},
		Mounts: []service.Mount{
			{Source: valuesPath, Target: "/config/values.env", ReadOnly: true},
			{Source: contractsPath, Target: "/config/additional-contracts.json", ReadOnly: true},
			{Source: outDir, Target: "/data"},
		},
		User: containerUser(),
	})
	if err != nil {
		return fmt.Errorf("genesis generation failed: %w", err)
	}
	log.Debug().Str("output", out).Msg("Genesis generator finished")

	metadata := filepath.Join(outDir, "metadata")
	for _, name := range []string{"genesis.json", "genesis.ssz", "config.yaml", "genesis_validators_root.txt"} {
		src := filepath.Join(metadata, name)
		if err := copyFile(src, filepath.Join(beaconDir, name)); err != nil {
			return fmt.Errorf("genesis generator did not produce %s: %w", name, err)
		}
	}
	for _, name := range []string{"deploy_block.txt", "deposit_contract_block.txt"} {
		if err := os.WriteFile(filepath.Join(beaconDir, name), []byte("0"), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// valuesEnv renders the generator's environment file. The long tail of knobs
// is pinned to the Kurtosis ethereum-package defaults so the generated chain
// config matches what the client images were tested against.
func valuesEnv(p genesisParams) string {
	premine, _ := json.Marshal(prefundedAlloc())

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line(`export PRESET_BASE="mainnet"`)
	line(`export CHAIN_ID="%d"`, p.ChainID)
	line(`export DEPOSIT_CONTRACT_ADDRESS="%s"`, config.DepositContractAddress)
	line(`export EL_AND_CL_MNEMONIC="%s"`, p.Mnemonic)
	line(`export CL_EXEC_BLOCK="0"`)
	line(`export SLOT_DURATION_IN_SECONDS=%d`, p.SecondsPerSlot)
	line(`export SLOT_DURATION_MS=%d`, p.SecondsPerSlot*1000)
	line(`export DEPOSIT_CONTRACT_BLOCK="0x0000000000000000000000000000000000000000000000000000000000000000"`)
	line(`export NUMBER_OF_VALIDATORS=%d`, p.NumValidators)
	line(`export GENESIS_FORK_VERSION="%s"`, config.GenesisForkVersion)
	line(`export ALTAIR_FORK_VERSION="%s"`, config.AltairForkVersion)
	line(`export ALTAIR_FORK_EPOCH="0"`)
	line(`export BELLATRIX_FORK_VERSION="%s"`, config.BellatrixForkVersion)
	line(`export BELLATRIX_FORK_EPOCH="0"`)
	line(`export CAPELLA_FORK_VERSION="%s"`, config.CapellaForkVersion)
	line(`export CAPELLA_FORK_EPOCH="0"`)
	line(`export DENEB_FORK_VERSION="%s"`, config.DenebForkVersion)
	line(`export DENEB_FORK_EPOCH="0"`)
	line(`export ELECTRA_FORK_VERSION="%s"`, config.ElectraForkVersion)
	line(`export ELECTRA_FORK_EPOCH="%d"`, p.ElectraForkEpoch)
	line(`export FULU_FORK_VERSION="%s"`, config.FuluForkVersion)
	line(`export FULU_FORK_EPOCH="%d"`, p.FuluForkEpoch)
	line(`export GLOAS_FORK_VERSION="0x80000038"`)
	line(`export GLOAS_FORK_EPOCH="%d"`, config.FarFutureEpoch)
	line(`export EIP7805_FORK_VERSION="0x90000038"`)
	line(`export EIP7805_FORK_EPOCH="%d"`, config.FarFutureEpoch)
	line(`export EIP7441_FORK_VERSION="0xa0000038"`)
	line(`export EIP7441_FORK_EPOCH="%d"`, config.FarFutureEpoch)
	line(`export WITHDRAWAL_TYPE="0x01"`)
	line(`export WITHDRAWAL_ADDRESS="0x8943545177806ED17B9F23F0a21ee5948eCaa776"`)
	line(`export VALIDATOR_BALANCE="32000000000"`)
	line(`export GENESIS_TIMESTAMP=%d`, p.GenesisTimestamp)
	line(`export GENESIS_DELAY=0`)
	line(`export GENESIS_GASLIMIT=30000000`)
	line(`export MAX_PER_EPOCH_ACTIVATION_CHURN_LIMIT=8`)
	line(`export CHURN_LIMIT_QUOTIENT=65536`)
	line(`export EJECTION_BALANCE=16000000000`)
	line(`export ETH1_FOLLOW_DISTANCE=2048`)
	line(`export SHADOW_FORK_FILE=""`)
	line(`export MIN_VALIDATOR_WITHDRAWABILITY_DELAY=256`)
	line(`export SHARD_COMMITTEE_PERIOD=256`)
	line(`export DATA_COLUMN_SIDECAR_SUBNET_COUNT=128`)
	line(`export SAMPLES_PER_SLOT=8`)
	line(`export CUSTODY_REQUIREMENT=4`)
	line(`export MAX_BLOBS_PER_BLOCK_ELECTRA=9`)
	line(`export TARGET_BLOBS_PER_BLOCK_ELECTRA=6`)
	line(`export MAX_REQUEST_BLOCKS_DENEB=128`)
	line(`export MAX_REQUEST_BLOB_SIDECARS_ELECTRA=1152`)
	line(`export BASEFEE_UPDATE_FRACTION_ELECTRA=5007716`)
	line(`export ADDITIONAL_PRELOADED_CONTRACTS=/config/additional-contracts.json`)
	line(`export EL_PREMINE_ADDRS='%s'`, premine)
	line(`export MAX_PAYLOAD_SIZE=10485760`)
	for i := 1; i <= 5; i++ {
		line(`export BPO_%d_EPOCH="%d"`, i, config.FarFutureEpoch)
		line(`export BPO_%d_MAX_BLOBS=0`, i)
		line(`export BPO_%d_TARGET_BLOBS=0`, i)
		line(`export BPO_%d_BASE_FEE_UPDATE_FRACTION=0`, i)
	}
	line(`export MIN_EPOCHS_FOR_DATA_COLUMN_SIDECARS_REQUESTS=4096`)
	line(`export MIN_EPOCHS_FOR_BLOCK_REQUESTS=33024`)
	line(`export ATTESTATION_DUE_BPS_GLOAS=4000`)
	line(`export AGGREGATE_DUE_BPS_GLOAS=8000`)
	line(`export SYNC_MESSAGE_DUE_BPS_GLOAS=4000`)
	line(`export CONTRIBUTION_DUE_BPS_GLOAS=8000`)
	line(`export PAYLOAD_ATTESTATION_DUE_BPS=5000`)
	line(`export VIEW_FREEZE_CUTOFF_BPS=6000`)
	line(`export INCLUSION_LIST_SUBMISSION_DUE_BPS=5000`)
	line(`export PROPOSER_INCLUSION_LIST_CUTOFF_BPS=6000`)

	return b.String()
}

func prefundedAlloc() map[string]map[string]string {
	alloc := make(map[string]map[string]string, len(config.PrefundedAddresses))
	for _, addr := range config.PrefundedAddresses {
		alloc[addr] = map[string]string{"balance": prefundedBalance}
	}
	return alloc
}

// readGenesisTime extracts the genesis timestamp from the EL genesis file.
func readGenesisTime(beaconDir string) (int64, error) {
	raw, err := os.ReadFile(filepath.Join(beaconDir, "genesis.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to read EL genesis: %w", err)
	}
	var genesis struct {
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(raw, &genesis); err != nil {
		return 0, fmt.Errorf("failed to parse EL genesis: %w", err)
	}
	ts, err := parseTimestamp(genesis.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("invalid genesis timestamp %q: %w", genesis.Timestamp, err)
	}
	return ts, nil
}

func parseTimestamp(s string) (int64, error) {
	var ts int64
	if strings.HasPrefix(s, "0x") {
		_, err := fmt.Sscanf(s, "0x%x", &ts)
		return ts, err
	}
	_, err := fmt.Sscanf(s, "%d", &ts)
	return ts, err
}

// readValidatorsRoot returns the genesis validators root with a 0x prefix.
func readValidatorsRoot(beaconDir string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(beaconDir, "genesis_validators_root.txt"))
	if err != nil {
		return "", fmt.Errorf("failed to read genesis validators root: %w", err)
	}
	root := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(root, "0x") {
		root = "0x" + root
	}
	return root, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// defaultGenesisTime picks a genesis timestamp for a fresh network.
func defaultGenesisTime(delay time.Duration) int64 {
	return time.Now().Add(delay).Unix()
}

// containerUser runs one-shot containers as the invoking user so the output
// files under the staging directory remain removable.
func containerUser() string {
	return fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
}
