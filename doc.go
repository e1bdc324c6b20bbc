// Package solrdex provides a typed Go client for Apache Solr: collection
// administration, schema management, document ingestion and structured
// queries through fluent, deferred-execution builders.
//
// Builders accumulate parameters through chained calls and materialize them
// into a single request on Commit. Every builder is single-use: Commit
// consumes it, and reuse fails with ErrUsage before any network I/O.
//
//	client, _ := solrdex.New("http", "localhost", 8983)
//
//	users, _ := client.Collections().Create("users").
//	    RouterField("id").
//	    NumShards(16).
//	    MaxShardsPerNode(16).
//	    Commit(ctx)
//
//	_ = users.Schema().
//	    AddField(solrdex.String("name")).
//	    AddField(solrdex.Numeric("age")).
//	    Commit(ctx)
//
//	_ = users.Add(map[string]any{"name": "Some", "age": 19}).
//	    Add(map[string]any{"name": "Dude", "age": 21}).
//	    Commit(ctx)
//
//	res, _ := users.Search().
//	    Query("age:21").
//	    Fields("name", "age").
//	    Sort("name asc").
//	    Commit(ctx)
//
// The driver imposes no concurrency of its own: one HTTP round trip per
// commit, honoring the caller's context. Client and Collection handles are
// read-only and safe to share; independent builders may be committed
// concurrently.
package solrdex
