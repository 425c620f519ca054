// Package components is the catalog of playground services. Each factory
// returns a fully populated service description; factories that need
// generated configuration files or data directories create them on the way.
package components

import (
	"fmt"
	"os"

	"github.com/jihwankim/mev-playground/pkg/config"
)

// Canonical service names. These are the container names, the registry keys
// and the values allowed in a DependsOn list.
const (
	NameReth         = "reth"
	NameLighthouseBN = "lighthouse-bn"
	NameLighthouseVC = "lighthouse-vc"
	NameMEVBoost     = "mev-boost"
	NameRelay        = "mev-ultrasound-relay"
	NameRedis        = "redis"
	NameMevDB        = "mevdb"
	NameLocalDB      = "localdb"
	NameGlobalDB     = "globaldb"
	NameRBuilder     = "rbuilder"
	NameDora         = "dora"
	NameContender    = "contender"
)

// StartOrder is the fixed boot sequence. Infrastructure before consumers:
// the chain first, then the relay's stores, then the relay and the builder.
// The contender is absent on purpose; it only starts once the core devnet is
// healthy.
var StartOrder = []string{
	NameReth,
	NameLighthouseBN,
	NameMEVBoost,
	NameLighthouseVC,
	NameDora,
	NameRedis,
	NameMevDB,
	NameLocalDB,
	NameGlobalDB,
	NameRelay,
	NameRBuilder,
}

// AllNames lists every container the playground may create, used for
// pre-start cleanup and teardown sweeps.
var AllNames = append(append([]string{}, StartOrder...), NameContender)

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

func rethHTTPURL() string {
	return fmt.Sprintf("http://%s:%d", config.IPReth, config.PortRethHTTP)
}

func beaconAPIURL() string {
	return fmt.Sprintf("http://%s:%d", config.IPLighthouseBN, config.PortLighthouseHTTP)
}

func relayURL() string {
	return fmt.Sprintf("http://%s:%d", config.IPRelay, config.PortRelayHTTP)
}

func postgresURL(ip string) string {
	return fmt.Sprintf("postgres://postgres:postgres@%s:%d/postgres?sslmode=disable", ip, config.PortPostgres)
}
