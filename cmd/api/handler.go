package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
)

// nftRow is one entry of the GET /nfts response: a metadata row left-joined
// to its image media row, with cached_url exposed as cached_image_url.
type nftRow struct {
	ContractAddress string          `json:"contract_address"`
	TokenID         string          `json:"token_id"`
	Chain           string          `json:"chain"`
	Name            *string         `json:"name"`
	Description     *string         `json:"description"`
	Attributes      json.RawMessage `json:"attributes"`
	RawMetadata     json.RawMessage `json:"raw_metadata"`
	CachedImageURL  *string         `json:"cached_image_url"`
}

const listNFTsSQL = `
SELECT m.contract_address, m.token_id, m.chain, m.name, m.description, m.attributes, m.raw_metadata, d.cached_url
FROM nft_metadata m
LEFT JOIN nft_media d ON d.contract_address = m.contract_address
	AND d.token_id = m.token_id
	AND d.media_type = 'image'
ORDER BY m.created_at DESC
LIMIT 50`

type nftHandler struct {
	pool *pgxpool.Pool
}

// listNFTs serves GET /nfts. A query failure is logged and answered with
// an empty array rather than a 5xx - failures are never surfaced
// synchronously to callers of the read API.
func (h *nftHandler) listNFTs(c *gin.Context) {
	rows, err := h.pool.Query(context.Background(), listNFTsSQL)
	if err != nil {
		log.Warn("api: list nfts query failed", "err", err)
		c.JSON(http.StatusOK, []nftRow{})
		return
	}
	defer rows.Close()

	result := []nftRow{}
	for rows.Next() {
		var row nftRow
		if err := rows.Scan(&row.ContractAddress, &row.TokenID, &row.Chain, &row.Name, &row.Description, &row.Attributes, &row.RawMetadata, &row.CachedImageURL); err != nil {
			log.Warn("api: scan nft row failed", "err", err)
			continue
		}
		result = append(result, row)
	}
	c.JSON(http.StatusOK, result)
}
