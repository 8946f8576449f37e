// Package procsearch provides an in-process Go client for the procurement
// semantic search pipeline: query normalization, embedding, approximate
// retrieval against the procurement store and result shaping.
//
//	client, _ := procsearch.New(ctx,
//	    procsearch.WithPostgres(os.Getenv("PROCUREMENT_DB_URL")),
//	    procsearch.WithOpenAIEmbedding(procsearch.EmbeddingConfig{
//	        BaseURL:    "http://localhost:8081/v1",
//	        Model:      "ai-forever/ru-en-RoSBERTa",
//	        Dimensions: 1024,
//	    }),
//	)
//	defer client.Close()
//
//	results, _ := client.Search(ctx, procsearch.SearchParams{
//	    Query:     "Бензин АИ-92",
//	    Threshold: procsearch.Threshold(0.5),
//	})
package procsearch
