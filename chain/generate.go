package chain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/shopspring/decimal"
)

// picoPerXDR is the number of base ledger units in one XDR
var picoPerXDR = decimal.NewFromInt(1_000_000_000_000)

// maxPicoAllocation is the largest allocation representable in the genesis
// document without truncation
var maxPicoAllocation = decimal.NewFromInt(math.MaxInt64)

// GenerateParams parametrizes genesis generation
type GenerateParams struct {
	// Amount is the initial allocation for the genesis account,
	// denominated in Currency
	Amount decimal.Decimal

	// Currency is the ISO code the amount is denominated in. "XDR" skips
	// the exchange-rate lookup entirely
	Currency string

	// Network is the network identifier, DefaultNetworkName if empty
	Network string

	// Rates supplies SDR exchange rates for non-XDR currencies
	Rates RateSource
}

// Generate creates a genesis document for a fresh network, along with the
// secrets of the three controlling accounts (genesis, rewards, fee sink)
func Generate(ctx context.Context, params GenerateParams) (*Genesis, *Secrets, error) {
	amountXDR, err := toXDR(ctx, params)
	if err != nil {
		return nil, nil, err
	}

	if amountXDR.Sign() <= 0 {
		return nil, nil, fmt.Errorf("genesis allocation must be positive, got %s XDR", amountXDR)
	}

	genesisAcct, err := newAccount()
	if err != nil {
		return nil, nil, err
	}

	rewardsAcct, err := newAccount()
	if err != nil {
		return nil, nil, err
	}

	feeSinkAcct, err := newAccount()
	if err != nil {
		return nil, nil, err
	}

	network := params.Network
	if network == "" {
		network = DefaultNetworkName
	}

	// 1 XDR = 1e12 picoXDR, truncated to whole base units
	amountPico := amountXDR.Mul(picoPerXDR).Truncate(0)
	if amountPico.Cmp(maxPicoAllocation) > 0 {
		return nil, nil, fmt.Errorf("genesis allocation %s XDR exceeds the maximum representable balance", amountXDR)
	}

	genesis := &Genesis{
		Alloc: []AllocEntry{
			{
				Address: genesisAcct.Address,
				State: AllocState{
					MicroAlgos: uint64(amountPico.IntPart()),
					Online:     1,
				},
			},
		},
		FeeSink:     feeSinkAcct.Address,
		Network:     network,
		Protocol:    DefaultProtocol,
		RewardsPool: rewardsAcct.Address,
		Timestamp:   time.Now().Unix(),
	}

	secrets := &Secrets{
		Genesis: genesisAcct,
		Rewards: rewardsAcct,
		FeeSink: feeSinkAcct,
	}

	return genesis, secrets, nil
}

// toXDR resolves the configured amount into XDR, consulting the rate
// source when the amount is denominated in another currency
func toXDR(ctx context.Context, params GenerateParams) (decimal.Decimal, error) {
	if params.Currency == "" || params.Currency == "XDR" {
		return params.Amount, nil
	}

	if params.Rates == nil {
		return decimal.Zero, fmt.Errorf("no rate source configured for currency %s", params.Currency)
	}

	rates, err := params.Rates.SDRRates(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch SDR rates: %w", err)
	}

	rate, ok := rates[params.Currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("currency %s not found in SDR rate data", params.Currency)
	}

	// SDRs = amount in currency * SDRs per unit of currency
	return params.Amount.Mul(rate), nil
}

func newAccount() (Account, error) {
	acct := crypto.GenerateAccount()

	mnemo, err := mnemonic.FromPrivateKey(acct.PrivateKey)
	if err != nil {
		return Account{}, fmt.Errorf("failed to derive mnemonic: %w", err)
	}

	return Account{
		Address:  acct.Address.String(),
		Mnemonic: mnemo,
	}, nil
}
