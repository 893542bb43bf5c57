package nft

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Store is the Persistence Gateway: idempotent writes of metadata and
// media rows. Both methods are insert-if-absent on their natural key; on
// conflict they do nothing and still report success - this is never an
// upsert, so a redelivered job can never overwrite an existing row's
// raw_metadata or cached_url.
type Store interface {
	InsertMetadata(ctx context.Context, row NftMetadataRow) error
	InsertMedia(ctx context.Context, row NftMediaRow) error
}

// PostgresStore is the Store backed by a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the relational store at dsn.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("nft: connect to database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

const insertMetadataSQL = `
INSERT INTO nft_metadata (contract_address, token_id, chain, name, description, attributes, raw_metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (contract_address, token_id, chain) DO NOTHING`

// InsertMetadata inserts row if no row exists for its natural key
// (contract_address, token_id, chain); otherwise it is a no-op. created_at
// is populated by the database, never by the caller.
func (s *PostgresStore) InsertMetadata(ctx context.Context, row NftMetadataRow) error {
	_, err := s.pool.Exec(ctx, insertMetadataSQL,
		row.ContractAddress, row.TokenID, row.Chain, row.Name, row.Description, row.Attributes, row.RawMetadata)
	if err != nil {
		return fmt.Errorf("nft: insert metadata: %w", err)
	}
	return nil
}

const insertMediaSQL = `
INSERT INTO nft_media (contract_address, token_id, media_type, original_url, cached_url, storage_backend, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (contract_address, token_id, media_type) DO NOTHING`

// InsertMedia inserts row if no row exists for its natural key
// (contract_address, token_id, media_type); otherwise it is a no-op. The
// first successful mirror for a given token and media type always wins.
func (s *PostgresStore) InsertMedia(ctx context.Context, row NftMediaRow) error {
	_, err := s.pool.Exec(ctx, insertMediaSQL,
		row.ContractAddress, row.TokenID, string(row.MediaType), row.OriginalURL, row.CachedURL, row.StorageBackend)
	if err != nil {
		return fmt.Errorf("nft: insert media: %w", err)
	}
	return nil
}
