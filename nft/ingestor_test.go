package nft

import (
	"context"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

// stubChain is a bind.ContractBackend that answers every view call with a
// fixed ABI-encoded string, so erc721.Token.TokenURI/erc1155.Token.URI
// resolve without a real RPC endpoint. CodeAt reports non-empty code;
// everything else is unused by these tests and returns a zero value.
type stubChain struct {
	uri string
}

func (s stubChain) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x1}, nil
}
func (s stubChain) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		return nil, err
	}
	return (abi.Arguments{{Type: stringType}}).Pack(s.uri)
}
func (s stubChain) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return nil, nil
}
func (s stubChain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}
func (s stubChain) SuggestGasPrice(ctx context.Context) (*big.Int, error)   { return nil, nil }
func (s stubChain) SuggestGasTipCap(ctx context.Context) (*big.Int, error) { return nil, nil }
func (s stubChain) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 0, nil
}
func (s stubChain) SendTransaction(ctx context.Context, tx *types.Transaction) error { return nil }
func (s stubChain) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return nil, nil
}
func (s stubChain) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}
func (s stubChain) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, nil
}

// chanProducer records every produced job on a channel so tests can await
// the detached Produce call spawned by emit.
type chanProducer struct {
	jobs chan MintJob
}

func newChanProducer() *chanProducer {
	return &chanProducer{jobs: make(chan MintJob, 16)}
}

func (p *chanProducer) Produce(ctx context.Context, job MintJob) error {
	p.jobs <- job
	return nil
}

func (p *chanProducer) expectJob(t *testing.T) MintJob {
	t.Helper()
	select {
	case job := <-p.jobs:
		return job
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for produced job")
		return MintJob{}
	}
}

func (p *chanProducer) expectNoJob(t *testing.T) {
	t.Helper()
	select {
	case job := <-p.jobs:
		t.Fatalf("expected no job, got %+v", job)
	case <-time.After(50 * time.Millisecond):
	}
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func TestHandleLogDispatchesOnTopic0(t *testing.T) {
	contract := common.HexToAddress("0xAbC0000000000000000000000000000000000A")
	to := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000b0b"))

	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{uri: "ipfs://transfer"}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{
		Address: contract,
		Topics:  []common.Hash{transferTopic, zeroTopic, to, common.BigToHash(big.NewInt(42))},
	}
	ing.handleLog(context.Background(), vLog)

	job := producer.expectJob(t)
	require.Equal(t, "42", job.TokenID)
}

func TestHandleTransferMintEmitsLowercaseAddressAndDecimalID(t *testing.T) {
	contract := common.HexToAddress("0xABCDEF000000000000000000000000000000000A")
	to := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000b0b"))

	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{uri: "ipfs://cid/1"}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{
		Address: contract,
		Topics:  []common.Hash{transferTopic, zeroTopic, to, common.BigToHash(big.NewInt(7))},
	}
	ing.handleTransfer(context.Background(), vLog)

	job := producer.expectJob(t)
	require.Equal(t, "0xabcdef000000000000000000000000000000000a", job.ContractAddress)
	require.Equal(t, "7", job.TokenID)
	require.Equal(t, "ethereum", job.Chain)
	require.NotNil(t, job.MetadataURI)
	require.Equal(t, "ipfs://cid/1", *job.MetadataURI)
}

func TestHandleTransferNonMintProducesNoJob(t *testing.T) {
	contract := common.HexToAddress("0xABCDEF0000000000000000000000000000000A")
	from := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000aaa"))
	to := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000b0b"))

	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{
		Address: contract,
		Topics:  []common.Hash{transferTopic, from, to, common.BigToHash(big.NewInt(7))},
	}
	ing.handleTransfer(context.Background(), vLog)

	producer.expectNoJob(t)
}

func TestHandleTransferMissingTopicsIsSkipped(t *testing.T) {
	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{Topics: []common.Hash{transferTopic, zeroTopic}}
	ing.handleTransfer(context.Background(), vLog)

	producer.expectNoJob(t)
}

func TestHandleTransferSingleMintUsesTopic4ForID(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000c1a")
	operator := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000ccc"))
	to := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000b0b"))

	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{uri: "ipfs://single/9"}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{
		Address: contract,
		Topics:  []common.Hash{transferSingleTopic, operator, zeroTopic, to, common.BigToHash(big.NewInt(9))},
	}
	ing.handleTransferSingle(context.Background(), vLog)

	job := producer.expectJob(t)
	require.Equal(t, "9", job.TokenID)
	require.Equal(t, "ipfs://single/9", *job.MetadataURI)
}

func TestHandleTransferSingleNonMintProducesNoJob(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000c1a")
	operator := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000ccc"))
	from := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000aaa"))
	to := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000b0b"))

	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{
		Address: contract,
		Topics:  []common.Hash{transferSingleTopic, operator, from, to, common.BigToHash(big.NewInt(9))},
	}
	ing.handleTransferSingle(context.Background(), vLog)

	producer.expectNoJob(t)
}

func TestHandleTransferBatchMintEmitsOneJobPerID(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000d2b")
	operator := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000ccc"))
	to := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000b0b"))

	ids := []*big.Int{big.NewInt(3), big.NewInt(4)}
	values := []*big.Int{big.NewInt(1), big.NewInt(1)}
	data, err := batchTransferArgs.Pack(ids, values)
	require.NoError(t, err)

	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{uri: "ipfs://batch"}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{
		Address: contract,
		Topics:  []common.Hash{transferBatchTopic, operator, zeroTopic, to},
		Data:    data,
	}
	ing.handleTransferBatch(context.Background(), vLog)

	first := producer.expectJob(t)
	second := producer.expectJob(t)
	require.ElementsMatch(t, []string{"3", "4"}, []string{first.TokenID, second.TokenID})
	producer.expectNoJob(t)
}

// TestHandleTransferBatchEmptyIDsEmitsNoJobs covers the §8 boundary case: a
// TransferBatch mint with an empty ids array must emit zero jobs.
func TestHandleTransferBatchEmptyIDsEmitsNoJobs(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000d2b")
	operator := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000ccc"))
	to := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000b0b"))

	data, err := batchTransferArgs.Pack([]*big.Int{}, []*big.Int{})
	require.NoError(t, err)

	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{
		Address: contract,
		Topics:  []common.Hash{transferBatchTopic, operator, zeroTopic, to},
		Data:    data,
	}
	ing.handleTransferBatch(context.Background(), vLog)

	producer.expectNoJob(t)
}

func TestHandleTransferBatchNonMintProducesNoJobs(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000d2b")
	operator := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000ccc"))
	from := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000aaa"))
	to := addressTopic(common.HexToAddress("0x00000000000000000000000000000000000b0b"))

	data, err := batchTransferArgs.Pack([]*big.Int{big.NewInt(1)}, []*big.Int{big.NewInt(1)})
	require.NoError(t, err)

	producer := newChanProducer()
	ing := &EventIngestor{Chain: stubChain{}, Producer: producer, ChainTag: "ethereum"}

	vLog := types.Log{
		Address: contract,
		Topics:  []common.Hash{transferBatchTopic, operator, from, to},
		Data:    data,
	}
	ing.handleTransferBatch(context.Background(), vLog)

	producer.expectNoJob(t)
}

func TestDecodeUint256Arrays(t *testing.T) {
	uint256ArrayType, err := abi.NewType("uint256[]", "", nil)
	require.NoError(t, err)
	args := abi.Arguments{
		{Name: "ids", Type: uint256ArrayType},
		{Name: "values", Type: uint256ArrayType},
	}
	ids := []*big.Int{big.NewInt(7), big.NewInt(9)}
	values := []*big.Int{big.NewInt(1), big.NewInt(1)}
	packed, err := args.Pack(ids, values)
	require.NoError(t, err)

	decoded, err := decodeUint256Arrays(packed)
	require.NoError(t, err)
	require.Equal(t, []*big.Int{big.NewInt(7), big.NewInt(9)}, decoded)
}

func TestDecodeUint256ArraysEmpty(t *testing.T) {
	uint256ArrayType, _ := abi.NewType("uint256[]", "", nil)
	args := abi.Arguments{
		{Name: "ids", Type: uint256ArrayType},
		{Name: "values", Type: uint256ArrayType},
	}
	packed, err := args.Pack([]*big.Int{}, []*big.Int{})
	require.NoError(t, err)

	decoded, err := decodeUint256Arrays(packed)
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDecodeUint256ArraysMalformed(t *testing.T) {
	_, err := decodeUint256Arrays([]byte("not abi encoded"))
	require.Error(t, err)
}
