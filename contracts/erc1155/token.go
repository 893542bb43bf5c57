package erc1155

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Token is a read-only binding to a deployed ERC-1155 contract.
type Token struct {
	address  common.Address
	contract *bind.BoundContract
}

// New connects to an already-deployed ERC-1155 contract at addr.
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

// URI calls uri(id) at the latest block.
func (t *Token) URI(ctx context.Context, id *big.Int) (string, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := t.contract.Call(opts, &out, "uri", id); err != nil {
		return "", err
	}
	return out[0].(string), nil
}
