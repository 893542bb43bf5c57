// backfill is a one-shot driver that enumerates a contract's existing
// supply via totalSupply() and issues one MintJob per token id from 1 to
// the supply, inclusive, via the Job Bus. It is not part of the core
// steady-state loop - it exists to seed jobs for tokens minted before the
// Event Ingestor started watching.
//
// Usage:
//   backfill --eth.http <endpoint> --contracts 0xabc...,0xdef... --kafka.brokers <host:port,...>
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/cmd/utils"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/samsondavid964/nft-wikepedia/contracts/erc721"
	"github.com/samsondavid964/nft-wikepedia/nft"
	"github.com/samsondavid964/nft-wikepedia/nft/bus"
)

var (
	app = cli.NewApp()

	ethHTTPFlag = cli.StringFlag{
		Name:   "eth.http",
		Usage:  "Request/response chain endpoint (ETHEREUM_HTTP_URL)",
		EnvVar: "ETHEREUM_HTTP_URL",
	}
	contractsFlag = cli.StringFlag{
		Name:   "contracts",
		Usage:  "Comma-separated contract addresses to backfill (BACKFILL_CONTRACTS)",
		EnvVar: "BACKFILL_CONTRACTS",
	}
	chainFlag = cli.StringFlag{
		Name:  "chain",
		Usage: "Short chain tag stamped onto every emitted job",
		Value: "ethereum",
	}
	kafkaBrokersFlag = cli.StringFlag{
		Name:   "kafka.brokers",
		Usage:  "Comma-separated broker endpoints (KAFKA_BROKERS)",
		EnvVar: "KAFKA_BROKERS",
	}
	kafkaTopicFlag = cli.StringFlag{
		Name:   "kafka.topic",
		Usage:  "Job bus topic (KAFKA_TOPIC)",
		EnvVar: "KAFKA_TOPIC",
		Value:  bus.DefaultTopic,
	}
)

func init() {
	app.Name = "backfill"
	app.Usage = "One-shot driver: enumerates a contract's existing supply and emits mint jobs"
	app.Version = "0.1.0"
	app.Action = run
	app.Flags = []cli.Flag{ethHTTPFlag, contractsFlag, chainFlag, kafkaBrokersFlag, kafkaTopicFlag}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(os.Stderr, log.TerminalFormat(true))))

	if !cliCtx.IsSet("eth.http") || !cliCtx.IsSet("contracts") || !cliCtx.IsSet("kafka.brokers") {
		utils.Fatalf("--eth.http, --contracts and --kafka.brokers are all required.")
	}

	ctx := context.Background()

	client, err := ethclient.DialContext(ctx, cliCtx.String("eth.http"))
	if err != nil {
		utils.Fatalf("Failed to dial chain endpoint: %v", err)
	}

	producer, err := bus.NewProducer(bus.Config{
		Brokers: strings.Split(cliCtx.String("kafka.brokers"), ","),
		Topic:   cliCtx.String("kafka.topic"),
	})
	if err != nil {
		utils.Fatalf("Failed to connect to job bus: %v", err)
	}
	defer producer.Close()

	chainTag := cliCtx.String("chain")
	for _, addr := range strings.Split(cliCtx.String("contracts"), ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if err := backfillContract(ctx, client, producer, addr, chainTag); err != nil {
			log.Error("backfill: contract failed", "contract", addr, "err", err)
		}
	}
	return nil
}

// backfillContract enumerates token ids 1..totalSupply inclusive and
// produces one MintJob per id. The 1-based inclusive bound is an
// acknowledged quirk: contracts minting from token id 0 will never have
// that id backfilled.
func backfillContract(ctx context.Context, client *ethclient.Client, producer *bus.Producer, addr, chainTag string) error {
	contractAddr := common.HexToAddress(addr)
	token, err := erc721.New(contractAddr, client)
	if err != nil {
		return fmt.Errorf("backfill: build erc721 binding: %w", err)
	}

	supply, err := token.TotalSupply(ctx)
	if err != nil {
		return fmt.Errorf("backfill: read totalSupply: %w", err)
	}

	lowerAddr := strings.ToLower(contractAddr.Hex())
	log.Info("backfill: enumerating contract", "contract", lowerAddr, "totalSupply", supply)

	one := big.NewInt(1)
	for id := big.NewInt(1); id.Cmp(supply) <= 0; id = new(big.Int).Add(id, one) {
		job := nft.MintJob{
			ContractAddress: lowerAddr,
			TokenID:         id.String(),
			Chain:           chainTag,
		}
		if uri, err := token.TokenURI(ctx, id); err != nil {
			log.Warn("backfill: tokenURI failed", "contract", lowerAddr, "tokenID", id, "err", err)
		} else {
			job.MetadataURI = &uri
		}
		if err := producer.Produce(ctx, job); err != nil {
			log.Warn("backfill: produce failed", "contract", lowerAddr, "tokenID", id, "err", err)
		}
	}
	return nil
}
