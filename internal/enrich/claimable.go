package enrich

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"claimscope/internal/chain"
	"claimscope/internal/sale"
)

// ClaimableReader reads the currently claimable balance for an account
// via eth_call against the sale contract.
type ClaimableReader struct {
	chain    *chain.Client
	contract common.Address
	saleABI  abi.ABI
}

// NewClaimableReader builds a reader bound to the sale contract.
func NewClaimableReader(chainClient *chain.Client, contract common.Address) (*ClaimableReader, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	parsed, err := sale.SaleABI()
	if err != nil {
		return nil, fmt.Errorf("parse sale abi: %w", err)
	}
	return &ClaimableReader{
		chain:    chainClient,
		contract: contract,
		saleABI:  parsed,
	}, nil
}

// Read implements Reader.
func (r *ClaimableReader) Read(ctx context.Context, account common.Address) (*big.Int, error) {
	data, err := r.saleABI.Pack("claimable", account)
	if err != nil {
		return nil, fmt.Errorf("pack claimable: %w", err)
	}

	msg := ethereum.CallMsg{To: &r.contract, Data: data}
	resp, err := r.chain.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call claimable: %w", err)
	}

	values, err := r.saleABI.Unpack("claimable", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack claimable: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected claimable values: %d", len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected claimable type %T", values[0])
	}
	return value, nil
}
