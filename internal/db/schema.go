package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// schemaStatements is applied in order at startup. All statements are
// idempotent so restarting the service against an existing database is safe.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,

	`CREATE TABLE IF NOT EXISTS collections (
		id         BIGSERIAL PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		name       TEXT NOT NULL,
		metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (owner_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS documents (
		id            BIGSERIAL PRIMARY KEY,
		collection_id BIGINT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		url           TEXT NOT NULL DEFAULT '',
		blob_path     TEXT NOT NULL DEFAULT '',
		metadata      JSONB NOT NULL DEFAULT '{}'::jsonb,
		num_pages     BIGINT NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (collection_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS pages (
		id          BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		page_number BIGINT NOT NULL,
		image_b64   TEXT NOT NULL DEFAULT '',
		content     TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (document_id, page_number)
	)`,

	`CREATE TABLE IF NOT EXISTS page_embeddings (
		id        BIGSERIAL PRIMARY KEY,
		page_id   BIGINT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		embedding HALFVEC(128) NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS page_embeddings_page_id_idx
		ON page_embeddings (page_id)`,

	// Late-interaction score: for each query vector take the best inner
	// product over the page's vectors, then sum the maxima. <#> returns the
	// negative inner product, hence the * -1.
	`CREATE OR REPLACE FUNCTION max_sim(page halfvec[], query halfvec[])
	RETURNS double precision AS $BODY$
		WITH queries AS (
			SELECT row_number() OVER () AS query_number, *
			FROM (SELECT unnest(query) AS query_vector) q
		),
		page_vectors AS (
			SELECT unnest(page) AS page_vector
		),
		similarities AS (
			SELECT query_number, (page_vector <#> query_vector) * -1 AS similarity
			FROM queries CROSS JOIN page_vectors
		),
		max_similarities AS (
			SELECT MAX(similarity) AS max_similarity
			FROM similarities GROUP BY query_number
		)
		SELECT COALESCE(SUM(max_similarity), 0)
		FROM max_similarities
	$BODY$ LANGUAGE sql`,
}

// InitSchema creates the extension, tables, and the max_sim scoring function.
func InitSchema(ctx context.Context, bdb *bun.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := bdb.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
