// Package spammer sends a steady stream of plain transfers between the
// prefunded dev accounts, giving the builder pipeline a mempool to work with.
package spammer

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/jihwankim/mev-playground/pkg/config"
)

const transferGasLimit = 21000

// transferValue is 0.001 ETH per transaction.
var transferValue = big.NewInt(1_000_000_000_000_000)

type account struct {
	key   *ecdsa.PrivateKey
	addr  common.Address
	nonce uint64
}

// Options tune a spam run.
type Options struct {
	// TxPerSlot transactions are sent at the start of each slot.
	TxPerSlot int
	// DurationSlots stops the run after that many slots; 0 runs until the
	// context is cancelled.
	DurationSlots int
	// SlotTime is the slot length; defaults to 12s.
	SlotTime time.Duration
}

// Spammer rotates transfers through the prefunded dev accounts. Nonces are
// fetched once and tracked locally, so a single spammer instance must be the
// only user of these accounts while it runs.
type Spammer struct {
	client   *ethclient.Client
	chainID  *big.Int
	signer   types.Signer
	accounts []*account
}

// New connects to the execution client and loads the prefunded accounts.
func New(ctx context.Context, rpcURL string) (*Spammer, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to query chain id: %w", err)
	}

	accounts := make([]*account, 0, len(config.PrefundedKeys))
	for _, hexKey := range config.PrefundedKeys {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("invalid prefunded key: %w", err)
		}
		accounts = append(accounts, &account{
			key:  key,
			addr: crypto.PubkeyToAddress(key.PublicKey),
		})
	}

	return &Spammer{
		client:   client,
		chainID:  chainID,
		signer:   types.LatestSignerForChainID(chainID),
		accounts: accounts,
	}, nil
}

// Close releases the RPC connection.
func (s *Spammer) Close() {
	s.client.Close()
}

// Run sends opts.TxPerSlot transfers per slot until the slot budget is spent
// or the context is cancelled. Cancellation is a clean exit, not an error.
// Individual send failures are logged and the run continues.
func (s *Spammer) Run(ctx context.Context, opts Options) error {
	if opts.TxPerSlot < 1 {
		opts.TxPerSlot = 5
	}
	if opts.SlotTime <= 0 {
		opts.SlotTime = 12 * time.Second
	}

	if err := s.loadNonces(ctx); err != nil {
		return err
	}

	log.Info().
		Int("tx_per_slot", opts.TxPerSlot).
		Str("chain_id", s.chainID.String()).
		Msg("Starting spammer")

	total := 0
	for slot := 0; opts.DurationSlots == 0 || slot < opts.DurationSlots; slot++ {
		slotStart := time.Now()

		for i := 0; i < opts.TxPerSlot; i++ {
			sender := s.accounts[i%len(s.accounts)]
			receiver := s.accounts[(i+1)%len(s.accounts)]

			hash, err := s.sendTransfer(ctx, sender, receiver.addr)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					log.Info().Int("sent", total).Msg("Spammer stopped")
					return nil
				}
				log.Warn().Err(err).Str("from", sender.addr.Hex()).Msg("Transfer failed")
				continue
			}
			total++
			log.Debug().Int("slot", slot).Str("tx", hash.Hex()).Msg("Sent transfer")
		}

		remaining := opts.SlotTime - time.Since(slotStart)
		if remaining > 0 {
			select {
			case <-ctx.Done():
				log.Info().Int("sent", total).Msg("Spammer stopped")
				return nil
			case <-time.After(remaining):
			}
		}
	}

	log.Info().Int("sent", total).Msg("Spammer finished")
	return nil
}

// loadNonces primes the local nonce cache from the pending state.
func (s *Spammer) loadNonces(ctx context.Context) error {
	for _, acct := range s.accounts {
		nonce, err := s.client.PendingNonceAt(ctx, acct.addr)
		if err != nil {
			return fmt.Errorf("failed to fetch nonce for %s: %w", acct.addr.Hex(), err)
		}
		acct.nonce = nonce
	}
	return nil
}

func (s *Spammer) sendTransfer(ctx context.Context, from *account, to common.Address) (common.Hash, error) {
	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to fetch gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    from.nonce,
		GasPrice: gasPrice,
		Gas:      transferGasLimit,
		To:       &to,
		Value:    transferValue,
	})
	signed, err := types.SignTx(tx, s.signer, from.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign transfer: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transfer: %w", err)
	}
	from.nonce++
	return signed.Hash(), nil
}
