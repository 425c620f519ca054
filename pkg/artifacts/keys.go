package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/docker"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// keystorePassword protects every generated keystore. The keys are derived
// from a public mnemonic on a throwaway network, so a shared trivial password
// is fine.
const keystorePassword = "secret"

// validatorDefinition is one entry of lighthouse's validator_definitions.yml.
type validatorDefinition struct {
	Enabled              bool   `yaml:"enabled"`
	VotingPublicKey      string `yaml:"voting_public_key"`
	Type                 string `yaml:"type"`
	VotingKeystorePath   string `yaml:"voting_keystore_path"`
	VotingKeystorePwPath string `yaml:"voting_keystore_password_path"`
}

// generateValidatorKeys derives the validator keystores from the genesis
// mnemonic with eth2-val-tools and lays them out the way lighthouse's
// validator client loads them: one keystore and one password file per
// validator, indexed by derivation position, plus a validator_definitions.yml
// that points at the in-container paths.
func generateValidatorKeys(ctx context.Context, runner OneShotRunner, cfg *config.Config, validatorsDir string) error {
	staging, err := os.MkdirTemp(cfg.DataDir, "keystores-*")
	if err != nil {
		return fmt.Errorf("failed to create keystore staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	// eth2-val-tools insists on creating its output directory itself, so the
	// mount covers the parent and the tool writes /parent/keystores.
	log.Info().Int("count", cfg.Validators.Count).Msg("Generating validator keystores")
	out, err := runner.RunOneShot(ctx, docker.OneShot{
		Image: cfg.Artifacts.Eth2ValToolsImage,
		Command: []string{
			"keystores",
			"--insecure",
			"--prysm-pass", keystorePassword,
			"--out-loc", "/parent/keystores",
			"--source-mnemonic", cfg.Validators.Mnemonic,
			"--source-min", "0",
			"--source-max", strconv.Itoa(cfg.Validators.Count),
		},
		Mounts: []service.Mount{{Source: staging, Target: "/parent"}},
	})
	if err != nil {
		return fmt.Errorf("keystore generation failed: %w", err)
	}
	log.Debug().Str("output", out).Msg("eth2-val-tools finished")

	keysDir := filepath.Join(staging, "keystores", "keys")
	secretsSrc := filepath.Join(staging, "keystores", "secrets")
	entries, err := os.ReadDir(keysDir)
	if err != nil {
		return fmt.Errorf("eth2-val-tools produced no keystores: %w", err)
	}

	keystoresDst := filepath.Join(validatorsDir, "keystores")
	secretsDst := filepath.Join(validatorsDir, "secrets")
	for _, dir := range []string{keystoresDst, secretsDst} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var definitions []validatorDefinition
	idx := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pubkey := entry.Name() // 0x-prefixed BLS pubkey

		dstDir := filepath.Join(keystoresDst, fmt.Sprintf("validator_%d", idx))
		if err := os.MkdirAll(dstDir, 0o755); err != nil {
			return fmt.Errorf("failed to create keystore directory: %w", err)
		}
		srcKeystore := filepath.Join(keysDir, pubkey, "voting-keystore.json")
		if err := copyFile(srcKeystore, filepath.Join(dstDir, "voting-keystore.json")); err != nil {
			return fmt.Errorf("failed to copy keystore for %s: %w", pubkey, err)
		}

		secretDst := filepath.Join(secretsDst, fmt.Sprintf("validator_%d", idx))
		if err := copyFile(filepath.Join(secretsSrc, pubkey), secretDst); err != nil {
			if err := os.WriteFile(secretDst, []byte(keystorePassword), 0o600); err != nil {
				return fmt.Errorf("failed to write secret for %s: %w", pubkey, err)
			}
		}

		definitions = append(definitions, validatorDefinition{
			Enabled:              true,
			VotingPublicKey:      pubkey,
			Type:                 "local_keystore",
			VotingKeystorePath:   fmt.Sprintf("/data/validators/keystores/validator_%d/voting-keystore.json", idx),
			VotingKeystorePwPath: fmt.Sprintf("/data/validators/secrets/validator_%d", idx),
		})
		idx++
	}

	if len(definitions) == 0 {
		return fmt.Errorf("eth2-val-tools produced no keystores in %s", keysDir)
	}

	raw, err := yaml.Marshal(definitions)
	if err != nil {
		return fmt.Errorf("failed to encode validator definitions: %w", err)
	}
	if err := os.WriteFile(filepath.Join(validatorsDir, "validator_definitions.yml"), raw, 0o644); err != nil {
		return fmt.Errorf("failed to write validator definitions: %w", err)
	}
	log.Info().Int("validators", len(definitions)).Msg("Validator keystores ready")
	return nil
}
