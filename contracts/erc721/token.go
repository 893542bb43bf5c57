package erc721

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Token is a read-only binding to a deployed ERC-721 contract.
type Token struct {
	address  common.Address
	contract *bind.BoundContract
}

// New connects to an already-deployed ERC-721 contract at addr.
func New(addr common.Address, backend bind.ContractBackend) (*Token, error) {
	parsed, err := abi.JSON(strings.NewReader(ABI))
	if err != nil {
		return nil, err
	}
	return &Token{
		address:  addr,
		contract: bind.NewBoundContract(addr, parsed, backend, backend),
	}, nil
}

// TokenURI calls tokenURI(tokenId) at the latest block.
func (t *Token) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := t.contract.Call(opts, &out, "tokenURI", tokenID); err != nil {
		return "", err
	}
	return out[0].(string), nil
}

// TotalSupply calls totalSupply() at the latest block.
func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := t.contract.Call(opts, &out, "totalSupply"); err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}
