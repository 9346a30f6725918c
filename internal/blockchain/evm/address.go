package evm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ComputeContractAddress computes the address of a contract created with CREATE
//
// CREATE formula: address = keccak256(rlp([sender, nonce]))[12:]
//
// The address depends only on the deploying account and its nonce, so
// deploying the same bytecode twice yields two different addresses.
func ComputeContractAddress(deployer common.Address, nonce uint64) (common.Address, error) {
	if deployer == (common.Address{}) {
		return common.Address{}, fmt.Errorf("deployer address cannot be zero")
	}
	return crypto.CreateAddress(deployer, nonce), nil
}

// VerifyContractAddress verifies that a given address matches the expected CREATE address
func VerifyContractAddress(address, deployer common.Address, nonce uint64) (bool, error) {
	computed, err := ComputeContractAddress(deployer, nonce)
	if err != nil {
		return false, err
	}
	return address == computed, nil
}
