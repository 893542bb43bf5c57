// api serves the read-only HTTP API that exposes stored NFT metadata rows.
// It is an external collaborator of the core ingestion pipeline: it only
// ever reads from the database.
//
// Usage:
//   api --database-url <dsn> --port 3000
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/cmd/utils"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	app = cli.NewApp()

	databaseURLFlag = cli.StringFlag{
		Name:   "database-url",
		Usage:  "Relational store connection string (DATABASE_URL)",
		EnvVar: "DATABASE_URL",
	}
	portFlag = cli.StringFlag{
		Name:   "port",
		Usage:  "Listening port (PORT)",
		EnvVar: "PORT",
		Value:  "3000",
	}
	corsOriginFlag = cli.StringFlag{
		Name:   "cors-origin",
		Usage:  "Single allowed CORS origin (API_CORS_ORIGIN)",
		EnvVar: "API_CORS_ORIGIN",
		Value:  "https://nft-wikepedia-1.onrender.com",
	}
)

func init() {
	app.Name = "api"
	app.Usage = "Read-only HTTP API over stored NFT metadata"
	app.Version = "0.1.0"
	app.Action = run
	app.Flags = []cli.Flag{databaseURLFlag, portFlag, corsOriginFlag}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cliCtx *cli.Context) error {
	log.Root().SetHandler(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(os.Stderr, log.TerminalFormat(true))))

	if !cliCtx.IsSet("database-url") {
		utils.Fatalf("--database-url is required.")
	}

	pool, err := pgxpool.Connect(context.Background(), cliCtx.String("database-url"))
	if err != nil {
		utils.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	h := &nftHandler{pool: pool}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cliCtx.String("cors-origin")))
	router.GET("/nfts", h.listNFTs)

	addr := ":" + cliCtx.String("port")
	log.Info("api listening", "addr", addr, "corsOrigin", cliCtx.String("cors-origin"))
	return router.Run(addr)
}

func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
