package chain

import (
	"encoding/json"
	"fmt"
	"os"

	"solarnode/helper/common"
)

const (
	// DefaultNetworkName is the network identifier written into fresh genesis documents
	DefaultNetworkName = "solarfunk"

	// DefaultProtocol is the consensus protocol version the node boots with
	DefaultProtocol = "future"
)

// Genesis describes the initial ledger state of a network. It is created
// once, before any node process exists, and never mutated afterward
type Genesis struct {
	Alloc       []AllocEntry `json:"alloc"`
	FeeSink     string       `json:"fees"`
	Network     string       `json:"network"`
	Protocol    string       `json:"proto"`
	RewardsPool string       `json:"rwd"`
	Timestamp   int64        `json:"timestamp"`
}

// AllocEntry is a single account allocation in the genesis document
type AllocEntry struct {
	Address string     `json:"addr"`
	State   AllocState `json:"state"`
}

// AllocState holds the initial state of an allocated account
type AllocState struct {
	// MicroAlgos is the initial balance, denominated in picoXDR
	MicroAlgos uint64 `json:"algo"`

	// Online marks the account as participating in consensus
	Online uint64 `json:"onl"`
}

// Account pairs an address with the mnemonic that controls it
type Account struct {
	Address  string `json:"address"`
	Mnemonic string `json:"mnemonic"`
}

// Secrets holds the controlling accounts generated alongside a genesis
// document. This file is sensitive and is written with owner-only access
type Secrets struct {
	Genesis Account `json:"genesis"`
	Rewards Account `json:"rewards"`
	FeeSink Account `json:"fee_sink"`
}

// ImportGenesis reads and parses a genesis document from the specified path
func ImportGenesis(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genesis file: %w", err)
	}

	genesis := &Genesis{}
	if err := json.Unmarshal(data, genesis); err != nil {
		return nil, fmt.Errorf("failed to parse genesis file: %w", err)
	}

	return genesis, nil
}

// WriteGenesisToDisk writes the passed in genesis document to a file at the
// specified path. An existing genesis document is never overwritten
func WriteGenesisToDisk(genesis *Genesis, path string) error {
	if common.FileExists(path) {
		return fmt.Errorf("genesis file %s already exists", path)
	}

	data, err := json.MarshalIndent(genesis, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate genesis: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write genesis: %w", err)
	}

	return nil
}

// WriteSecretsToDisk writes the genesis account secrets with owner-only access
func WriteSecretsToDisk(secrets *Secrets, path string) error {
	if common.FileExists(path) {
		return fmt.Errorf("genesis secrets file %s already exists", path)
	}

	data, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate genesis secrets: %w", err)
	}

	if err := os.WriteFile(path, data, common.SecretPerms); err != nil {
		return fmt.Errorf("failed to write genesis secrets: %w", err)
	}

	return nil
}
