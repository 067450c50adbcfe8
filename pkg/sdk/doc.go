// Package pagesight provides an embedded Go client for the pagesight visual
// document retrieval engine: documents go in as files, URLs or stored blobs,
// every page is rasterized and embedded with a late-interaction vision model,
// and queries come back as scored page images.
//
// The client talks directly to Postgres and the external embedding and
// conversion services; it does not go through the HTTP API.
//
//	client, _ := pagesight.New(ctx,
//	    pagesight.WithPostgres("postgres://localhost:5432/pagesight"),
//	    pagesight.WithEmbeddingService("http://localhost:8000/runsync", token),
//	    pagesight.WithConversionService("http://localhost:3000"),
//	)
//	defer client.Close()
//
//	_, _ = client.Collections().Ensure(ctx, "papers", nil)
//	_, _ = client.Documents("papers").Upsert(ctx, "attention.pdf", pagesight.Source{
//	    URL: "https://arxiv.org/pdf/1706.03762",
//	}, nil)
//	hits, _ := client.Search(ctx, "scaled dot-product attention",
//	    pagesight.InCollection("papers"))
package pagesight
