package components

import (
	"fmt"
	"time"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// MEVBoost builds the mev-boost sidecar, pointed at the local relay. The
// getHeader timeout stays just under lighthouse's 3s builder header timeout
// so a slow relay degrades to local block production instead of a missed
// slot.
func MEVBoost(cfg *config.Config, genesisTime int64) *service.Service {
	relay := fmt.Sprintf("http://%s@%s:%d", config.MEVPubkey, config.IPRelay, config.PortRelayHTTP)

	command := []string{
		"-addr", fmt.Sprintf("0.0.0.0:%d", config.PortMEVBoost),
		"-relay", relay,
		"-relay-check",
		"-genesis-fork-version", config.GenesisForkVersion,
		"-genesis-timestamp", fmt.Sprintf("%d", genesisTime),
		"-request-timeout-getheader", "2900",
		"-request-timeout-getpayload", "4000",
		"-request-timeout-regval", "6000",
		"-loglevel", "debug",
	}

	// The alpine image has wget but no bash, so the usual /dev/tcp probe
	// does not work here.
	probe := &service.Probe{
		Test: []string{
			"CMD-SHELL",
			fmt.Sprintf("wget -q --spider http://localhost:%d/ || exit 1", config.PortMEVBoost),
		},
		Interval:    5 * time.Second,
		Timeout:     3 * time.Second,
		Retries:     10,
		StartPeriod: 5 * time.Second,
	}

	return &service.Service{
		Name:      NameMEVBoost,
		Image:     cfg.MEV.Boost.Image,
		StaticIP:  config.IPMEVBoost,
		Command:   command,
		Ports:     map[int]int{config.PortMEVBoost: config.PortMEVBoost},
		Health:    probe,
		DependsOn: []string{NameRelay},
	}
}
