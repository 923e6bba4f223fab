// Package colmap maps the columns of a tabular dataset onto a catalog of
// target fields using embedding similarity, with a lexical fallback for
// low-confidence matches.
//
//	client, _ := colmap.New(colmap.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""))
//	mappings, _ := client.AutoMap(ctx, rows, colmap.SalesCatalog())
//	for _, m := range mappings {
//	    fmt.Println(m.Column, m.BestMatch, m.Score)
//	}
//
// Bring your own provider with WithEmbedder; it only needs to vectorize a
// batch of texts in input order.
package colmap
