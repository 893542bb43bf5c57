// Package nft resolves, normalizes and persists the metadata and media of
// minted NFTs. It implements the Metadata Worker's A→B→C→D pipeline (URI
// Resolver, Metadata Normalizer, Media Mirror, Persistence Gateway) and the
// Event Ingestor that feeds it via the Job Bus.
package nft

import "encoding/json"

// MediaType names the kind of media referenced by a metadata document.
type MediaType string

const (
	MediaImage     MediaType = "image"
	MediaAnimation MediaType = "animation"
)

// MintJob is the unit of work carried on the Job Bus. contract_address is
// always lowercase hex with a 0x prefix; token_id is a decimal string wide
// enough to hold an unsigned 256-bit integer without precision loss.
type MintJob struct {
	ContractAddress string  `json:"contract_address"`
	TokenID         string  `json:"token_id"`
	Chain           string  `json:"chain"`
	MetadataURI     *string `json:"metadata_uri"`
}

// NormalizedMetadata is the transient, per-job result of the Metadata
// Normalizer. Attributes and Raw are kept as json.RawMessage so that the
// original document bytes - including high-precision number literals - pass
// through unmodified end to end.
type NormalizedMetadata struct {
	Name         *string         `json:"name,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Image        *string         `json:"image,omitempty"`
	AnimationURL *string         `json:"animation_url,omitempty"`
	Attributes   json.RawMessage `json:"attributes,omitempty"`
	Raw          json.RawMessage `json:"raw"`
}

// NftMetadataRow is a persisted metadata row, unique on
// (ContractAddress, TokenID, Chain).
type NftMetadataRow struct {
	ContractAddress string
	TokenID         string
	Chain           string
	Name            *string
	Description     *string
	Attributes      json.RawMessage
	RawMetadata     json.RawMessage
}

// NftMediaRow is a persisted media row, unique on
// (ContractAddress, TokenID, MediaType).
type NftMediaRow struct {
	ContractAddress string
	TokenID         string
	MediaType       MediaType
	OriginalURL     string
	CachedURL       string
	StorageBackend  string
}
