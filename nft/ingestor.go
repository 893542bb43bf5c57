package nft

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"

	"github.com/samsondavid964/nft-wikepedia/contracts/erc1155"
	"github.com/samsondavid964/nft-wikepedia/contracts/erc721"
)

var (
	transferTopic       = crypto.Keccak256Hash([]byte(erc721.TransferEventSignature))
	transferSingleTopic = crypto.Keccak256Hash([]byte(erc1155.TransferSingleEventSignature))
	transferBatchTopic  = crypto.Keccak256Hash([]byte(erc1155.TransferBatchEventSignature))

	// batchTransferArgs describes TransferBatch's two non-indexed
	// parameters (ids, values) so its ABI-encoded log data can be decoded
	// without a generated binding.
	batchTransferArgs = mustUint256ArrayArgs()
)

func mustUint256ArrayArgs() abi.Arguments {
	uint256ArrayType, err := abi.NewType("uint256[]", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "ids", Type: uint256ArrayType},
		{Name: "values", Type: uint256ArrayType},
	}
}

// decodeUint256Arrays decodes TransferBatch's data field and returns the
// ids array; values is parsed but ignored for job emission.
func decodeUint256Arrays(data []byte) ([]*big.Int, error) {
	values, err := batchTransferArgs.Unpack(data)
	if err != nil {
		return nil, err
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("nft: unexpected transfer-batch field count: %d", len(values))
	}
	ids, ok := values[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("nft: unexpected transfer-batch ids type %T", values[0])
	}
	return ids, nil
}

// zeroTopic is the indexed-address representation of the zero address - the
// "from" of every mint.
var zeroTopic = common.Hash{}

// Producer is the subset of the Job Bus client the Event Ingestor needs.
// Produce is expected to be fire-and-forget from the caller's perspective:
// the ingestor does not wait for broker acknowledgment before decoding the
// next log.
type Producer interface {
	Produce(ctx context.Context, job MintJob) error
}

// ChainSubscriber is the subset of ethclient.Client the ingestor needs -
// persistent log subscription plus whatever bind.ContractBackend requires
// to drive the read-only erc721/erc1155 bindings.
type ChainSubscriber interface {
	bind.ContractBackend
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// EventIngestor is Component F: it subscribes to chain logs, decodes mint
// transfers for the ERC-721 and ERC-1155 standards, and emits one MintJob
// per minted token id via the Job Bus.
type EventIngestor struct {
	Chain    ChainSubscriber
	Producer Producer
	ChainTag string

	// lastSend is closed once the most recently spawned send has finished;
	// emit chains each new send behind it.
	lastSend chan struct{}
}

// NewEventIngestor builds an ingestor against an already-dialed chain
// client. chainTag is the short name (e.g. "ethereum") stamped onto every
// emitted MintJob.
func NewEventIngestor(chain ChainSubscriber, producer Producer, chainTag string) *EventIngestor {
	return &EventIngestor{Chain: chain, Producer: producer, ChainTag: chainTag}
}

// filterQuery is the disjunction of the three event signatures this
// ingestor watches for, across all contracts.
func filterQuery() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Topics: [][]common.Hash{{transferTopic, transferSingleTopic, transferBatchTopic}},
	}
}

// Run subscribes to chain logs and processes them until ctx is cancelled or
// the subscription drops. A dropped subscription is fatal - per §7 of the
// ingestion design, the caller is expected to exit the process and rely on
// external supervision to restart it.
func (ing *EventIngestor) Run(ctx context.Context) error {
	logs := make(chan types.Log, 256)
	sub, err := ing.Chain.SubscribeFilterLogs(ctx, filterQuery(), logs)
	if err != nil {
		return fmt.Errorf("nft: subscribe to chain logs: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("nft: chain log subscription lost: %w", err)
		case vLog := <-logs:
			ing.handleLog(ctx, vLog)
		}
	}
}

// handleLog decodes a single chain log and, if it represents a mint,
// emits one job per resulting token id (see emit). Decoding failures are logged and skipped; they never stop the
// stream.
func (ing *EventIngestor) handleLog(ctx context.Context, vLog types.Log) {
	if len(vLog.Topics) == 0 {
		return
	}

	switch vLog.Topics[0] {
	case transferTopic:
		ing.handleTransfer(ctx, vLog)
	case transferSingleTopic:
		ing.handleTransferSingle(ctx, vLog)
	case transferBatchTopic:
		ing.handleTransferBatch(ctx, vLog)
	}
}

// handleTransfer decodes an ERC-721 Transfer(address,address,uint256) log.
// tokenId lives in topics[3]; this assumes all three parameters are indexed,
// the canonical OpenZeppelin layout.
func (ing *EventIngestor) handleTransfer(ctx context.Context, vLog types.Log) {
	if len(vLog.Topics) < 4 {
		log.Warn("event ingestor: transfer log missing topics", "address", vLog.Address)
		return
	}
	if vLog.Topics[1] != zeroTopic {
		return // not a mint
	}
	tokenID := new(big.Int).SetBytes(vLog.Topics[3].Bytes())
	ing.emit(ctx, vLog.Address, tokenID, ing.fetchTokenURI)
}

// handleTransferSingle decodes an ERC-1155
// TransferSingle(address,address,address,uint256,uint256) log. id lives in
// topics[4].
func (ing *EventIngestor) handleTransferSingle(ctx context.Context, vLog types.Log) {
	if len(vLog.Topics) < 5 {
		log.Warn("event ingestor: transfer-single log missing topics", "address", vLog.Address)
		return
	}
	if vLog.Topics[2] != zeroTopic {
		return // not a mint
	}
	id := new(big.Int).SetBytes(vLog.Topics[4].Bytes())
	ing.emit(ctx, vLog.Address, id, ing.fetchURI)
}

// handleTransferBatch decodes an ERC-1155
// TransferBatch(address,address,address,uint256[],uint256[]) log. ids and
// values are ABI-encoded in data; values is ignored for job emission.
func (ing *EventIngestor) handleTransferBatch(ctx context.Context, vLog types.Log) {
	if len(vLog.Topics) < 3 {
		log.Warn("event ingestor: transfer-batch log missing topics", "address", vLog.Address)
		return
	}
	if vLog.Topics[2] != zeroTopic {
		return // not a mint
	}
	ids, err := decodeUint256Arrays(vLog.Data)
	if err != nil {
		log.Warn("event ingestor: transfer-batch data decode failed", "address", vLog.Address, "err", err)
		return
	}
	for _, id := range ids {
		ing.emit(ctx, vLog.Address, id, ing.fetchURI)
	}
}

// emit builds and produces a MintJob for one minted token id, attaching the
// result of a best-effort metadata-uri view call. The view call is awaited
// synchronously, in log order. Only the broker send itself is detached, so
// a slow produce never blocks decoding of the next log; each send waits for
// the previous one to finish, so jobs reach the Producer in the order they
// were observed.
func (ing *EventIngestor) emit(ctx context.Context, contract common.Address, tokenID *big.Int, resolveURI func(context.Context, common.Address, *big.Int) (string, error)) {
	job := MintJob{
		ContractAddress: strings.ToLower(contract.Hex()),
		TokenID:         tokenID.String(),
		Chain:           ing.ChainTag,
	}

	if uri, err := resolveURI(ctx, contract, tokenID); err != nil {
		log.Warn("event ingestor: uri view call failed", "address", contract, "tokenID", tokenID, "err", err)
	} else {
		job.MetadataURI = &uri
	}

	prev := ing.lastSend
	done := make(chan struct{})
	ing.lastSend = done
	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if err := ing.Producer.Produce(ctx, job); err != nil {
			log.Warn("event ingestor: produce failed", "address", contract, "tokenID", tokenID, "err", err)
		}
	}()
}

func (ing *EventIngestor) fetchTokenURI(ctx context.Context, contract common.Address, tokenID *big.Int) (string, error) {
	token, err := erc721.New(contract, ing.Chain)
	if err != nil {
		return "", err
	}
	return token.TokenURI(ctx, tokenID)
}

func (ing *EventIngestor) fetchURI(ctx context.Context, contract common.Address, id *big.Int) (string, error) {
	token, err := erc1155.New(contract, ing.Chain)
	if err != nil {
		return "", err
	}
	return token.URI(ctx, id)
}
