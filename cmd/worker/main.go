// worker consumes MintJobs from the Job Bus and resolves, normalizes,
// mirrors and persists each one's metadata and media.
//
// Usage:
//   worker --database-url <dsn> --kafka.brokers <host:port,...> --s3.bucket <bucket>
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/ethereum/go-ethereum/cmd/utils"
	"github.com/ethereum/go-ethereum/log"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/samsondavid964/nft-wikepedia/nft"
	"github.com/samsondavid964/nft-wikepedia/nft/bus"
)

var (
	app = cli.NewApp()

	databaseURLFlag = cli.StringFlag{
		Name:   "database-url",
		Usage:  "Relational store connection string (DATABASE_URL)",
		EnvVar: "DATABASE_URL",
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
	kafkaGroupIDFlag = cli.StringFlag{
		Name:   "kafka.group-id",
		Usage:  "Consumer group id (KAFKA_GROUP_ID)",
		EnvVar: "KAFKA_GROUP_ID",
		Value:  bus.DefaultGroupID,
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
	s3BucketFlag = cli.StringFlag{
		Name:   "s3.bucket",
		Usage:  "Object-store bucket for mirrored media (S3_BUCKET)",
		EnvVar: "S3_BUCKET",
	}
	awsRegionFlag = cli.StringFlag{
		Name:   "aws.region",
		Usage:  "Object-store region (AWS_REGION)",
		EnvVar: "AWS_REGION",
	}
)

func init() {
	app.Name = "worker"
	app.Usage = "Metadata Worker: resolves, normalizes, mirrors and persists minted NFT metadata"
	app.Version = "0.1.0"
	app.Action = run
	app.Flags = []cli.Flag{
		databaseURLFlag,
		kafkaBrokersFlag,
		kafkaTopicFlag,
		kafkaGroupIDFlag,
		kafkaUsernameFlag,
		kafkaPasswordFlag,
		s3BucketFlag,
		awsRegionFlag,
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

	if !cliCtx.IsSet("database-url") || !cliCtx.IsSet("kafka.brokers") {
		utils.Fatalf("Both --database-url and --kafka.brokers are required.")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := nft.NewPostgresStore(ctx, cliCtx.String("database-url"))
	if err != nil {
		utils.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	objectStore := buildObjectStore(cliCtx)

	worker := nft.NewWorker(&http.Client{}, store, objectStore)

	consumer, err := bus.NewConsumer(bus.Config{
		Brokers:  strings.Split(cliCtx.String("kafka.brokers"), ","),
		Topic:    cliCtx.String("kafka.topic"),
		GroupID:  cliCtx.String("kafka.group-id"),
		Username: cliCtx.String("kafka.username"),
		Password: cliCtx.String("kafka.password"),
	}, worker.HandleJob)
	if err != nil {
		utils.Fatalf("Failed to connect to job bus: %v", err)
	}
	defer consumer.Close()

	log.Info("metadata worker ready",
		"group", cliCtx.String("kafka.group-id"),
		"topic", cliCtx.String("kafka.topic"),
	)
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Warn("metadata worker: consumer loop ended", "err", err)
	}
	log.Info("metadata worker shutting down")
	return nil
}

// buildObjectStore wires an S3 client from --s3.bucket/--aws.region when
// --s3.bucket is set; otherwise it returns nil and the media mirror stage fails every
// job's media with ErrObjectStoreNotConfigured, matching §4.C's "no local
// fallback" invariant.
func buildObjectStore(cliCtx *cli.Context) *nft.ObjectStore {
	bucket := cliCtx.String("s3.bucket")
	if bucket == "" {
		log.Warn("metadata worker: S3_BUCKET not set, media mirroring is disabled")
		return nil
	}
	sess := session.Must(session.NewSession(&aws.Config{
		Region: aws.String(cliCtx.String("aws.region")),
	}))
	return &nft.ObjectStore{Client: s3.New(sess), Bucket: bucket}
}
