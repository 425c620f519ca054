package components

import (
	"strconv"

	"github.com/jihwankim/mev-playground/pkg/config"
	"github.com/jihwankim/mev-playground/pkg/service"
)

// Contender builds the transaction spammer service. It has no health probe
// and declares no dependencies: the orchestrator only starts it after the
// core devnet has passed its health barrier.
func Contender(cfg *config.Config) *service.Service {
	command := []string{
		"spam",
		"--rpc-url", rethHTTPURL(),
		"--min-balance", "10 ether",
		"--tps", strconv.Itoa(cfg.Contender.TPS),
		"--forever",
		"transfers",
	}

	return &service.Service{
		Name:     NameContender,
		Image:    cfg.Contender.Image,
		StaticIP: config.IPContender,
		Command:  command,
	}
}
