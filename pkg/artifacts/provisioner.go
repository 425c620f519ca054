// Package artifacts provisions the shared devnet artifacts: the engine API
// JWT secret, the coordinated EL and CL genesis produced by
// ethereum-genesis-generator, and the validator keystores derived with
// eth2-val-tools. Provisioning is skippable: a complete artifact set on disk
// is reused as-is so repeated starts resume the same chain.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/docker"
)

// OneShotRunner runs a container to completion and returns its output.
type OneShotRunner interface {
	RunOneShot(ctx context.Context, job docker.OneShot) (string, error)
}

// GenesisInfo is what the components need to know about the generated chain.
type GenesisInfo struct {
	Time           int64
	ValidatorsRoot string
}

// Provisioner generates or reuses the artifact set under the data dir.
type Provisioner struct {
	cfg    *config.Config
	runner OneShotRunner
}

// NewProvisioner builds a provisioner over the given one-shot runner.
func NewProvisioner(cfg *config.Config, runner OneShotRunner) *Provisioner {
	return &Provisioner{cfg: cfg, runner: runner}
}

// requiredFiles lists the artifacts that must all exist for the set to count
// as complete. A partial set (for example after an interrupted generation) is
// regenerated from scratch.
func requiredFiles(cfg *config.Config) []string {
	return []string{
		filepath.Join(cfg.ArtifactsDir(), "jwt.hex"),
		filepath.Join(cfg.ArtifactsDir(), "genesis.json"),
		filepath.Join(cfg.BeaconDir(), "genesis.ssz"),
		filepath.Join(cfg.BeaconDir(), "config.yaml"),
		filepath.Join(cfg.BeaconDir(), "genesis_validators_root.txt"),
		filepath.Join(cfg.ValidatorsDir(), "validator_definitions.yml"),
	}
}

// Complete reports whether every required artifact is present on disk.
func (p *Provisioner) Complete() bool {
	for _, path := range requiredFiles(p.cfg) {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}

// Ensure makes the artifact set available and returns the genesis info.
// Existing complete artifacts are reused; otherwise everything is generated
// fresh with genesis time set to now plus the configured delay.
func (p *Provisioner) Ensure(ctx context.Context) (*GenesisInfo, error) {
	if p.Complete() {
		log.Info().Str("dir", p.cfg.ArtifactsDir()).Msg("Using existing artifacts")
		return p.Info()
	}

	log.Info().Str("dir", p.cfg.ArtifactsDir()).Msg("Generating artifacts")
	beaconDir := p.cfg.BeaconDir()
	for _, dir := range []string{p.cfg.ArtifactsDir(), beaconDir, p.cfg.ValidatorsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create artifact directory %s: %w", dir, err)
		}
	}

	jwtPath := filepath.Join(p.cfg.ArtifactsDir(), "jwt.hex")
	if _, err := WriteJWTSecret(jwtPath); err != nil {
		return nil, err
	}

	genesisTime := defaultGenesisTime(time.Duration(p.cfg.Network.GenesisDelaySec) * time.Second)
	if err := generateGenesis(ctx, p.runner, p.cfg, beaconDir, genesisTime); err != nil {
		return nil, err
	}

	// The EL genesis also lives at the artifacts root, where reth mounts it,
	// and the JWT is mirrored into the beacon dir for lighthouse.
	if err := copyFile(filepath.Join(beaconDir, "genesis.json"), filepath.Join(p.cfg.ArtifactsDir(), "genesis.json")); err != nil {
		return nil, fmt.Errorf("failed to copy EL genesis: %w", err)
	}
	if err := copyFile(jwtPath, filepath.Join(beaconDir, "jwt.hex")); err != nil {
		return nil, fmt.Errorf("failed to copy JWT secret: %w", err)
	}

	if err := generateValidatorKeys(ctx, p.runner, p.cfg, p.cfg.ValidatorsDir()); err != nil {
		return nil, err
	}

	info, err := p.Info()
	if err != nil {
		return nil, err
	}
	log.Info().
		Int64("genesis_time", info.Time).
		Str("validators_root", info.ValidatorsRoot).
		Msg("Artifacts ready")
	return info, nil
}

// Info reads genesis time and validators root back from the artifacts.
func (p *Provisioner) Info() (*GenesisInfo, error) {
	genesisTime, err := readGenesisTime(p.cfg.BeaconDir())
	if err != nil {
		return nil, err
	}
	root, err := readValidatorsRoot(p.cfg.BeaconDir())
	if err != nil {
		return nil, err
	}
	return &GenesisInfo{Time: genesisTime, ValidatorsRoot: root}, nil
}
