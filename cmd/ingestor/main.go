// ingestor watches an EVM-compatible chain for ERC-721 and ERC-1155 mint
// transfers and emits one MintJob per minted token id to the Job Bus.
//
// Usage:
//   ingestor --eth.ws <endpoint> --kafka.brokers <host:port,...>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/cmd/utils"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/log"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/samsondavid964/nft-wikepedia/nft"
	"github.com/samsondavid964/nft-wikepedia/nft/bus"
)

var (
	app = cli.NewApp()

	ethWSFlag = cli.StringFlag{
		Name:   "eth.ws",
		Usage:  "Persistent-session chain endpoint (ETHEREUM_WS_URL)",
		EnvVar: "ETHEREUM_WS_URL",
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
	kafkaUsernameFlag = cli.StringFlag{
		Name:   "kafka.username",
		Usage:  "SASL/PLAIN username (KAFKA_USERNAME)",
		EnvVar: "KAFKA_USERNAME",
	}
	kafkaPasswordFlag = cli.StringFlag{
		Name:   "kafka.password",
		Usage:  "SASL/PLAIN password (KAFKA_PASSWORD)",
		EnvVar: "KAFKA_PASSWORD",
	}
)

func init() {
	app.Name = "ingestor"
	app.Usage = "Event Ingestor: subscribes to chain logs and emits mint jobs"
	app.Version = "0.1.0"
	app.Action = run
	app.Flags = []cli.Flag{
		ethWSFlag,
		chainFlag,
		kafkaBrokersFlag,
		kafkaTopicFlag,
		kafkaUsernameFlag,
		kafkaPasswordFlag,
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(os.Stderr, log.TerminalFormat(true))))

	if !cliCtx.IsSet("eth.ws") || !cliCtx.IsSet("kafka.brokers") {
		utils.Fatalf("Both --eth.ws and --kafka.brokers are required.")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("event ingestor starting",
		"chain", cliCtx.String("chain"),
		"wsEndpoint", cliCtx.String("eth.ws"),
		"topic", cliCtx.String("kafka.topic"),
	)

	client, err := ethclient.DialContext(ctx, cliCtx.String("eth.ws"))
	if err != nil {
		utils.Fatalf("Failed to dial chain endpoint: %v", err)
	}

	producer, err := bus.NewProducer(bus.Config{
		Brokers:  strings.Split(cliCtx.String("kafka.brokers"), ","),
		Topic:    cliCtx.String("kafka.topic"),
		Username: cliCtx.String("kafka.username"),
		Password: cliCtx.String("kafka.password"),
	})
	if err != nil {
		utils.Fatalf("Failed to connect to job bus: %v", err)
	}
	defer producer.Close()

	ingestor := nft.NewEventIngestor(client, producer, cliCtx.String("chain"))

	log.Info("event ingestor ready, subscribing to chain logs")
	if err := ingestor.Run(ctx); err != nil && ctx.Err() == nil {
		utils.Fatalf("Chain log subscription lost: %v", err)
	}
	log.Info("event ingestor shutting down")
	return nil
}
