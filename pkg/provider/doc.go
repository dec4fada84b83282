/*
Package provider serves the loyalty-provider catalog from a disk cache.

	            +-------------+
	            |    Cache    |
	            | (Providers) |
	            +------+------+
	                   |
	      +------------+------------+
	      |                         |
	+-----+-----+            +------+------+
	|   state   |            |   Fetcher   |
	| (on disk) |            | (remote API)|
	+-----------+            +------+------+
	                                |
	                         +------+------+
	                         |    logo     |
	                         | (data URIs) |
	                         +-------------+

🎯 Purpose:
- Answers "which providers exist in this country" without network I/O while
  the catalog is younger than the TTL
- Rebuilds the catalog in full when it is stale, missing or unreadable
- Embeds logos so cached records render offline

🔄 Flow:
1. Load metadata.json; missing, corrupt or stale means a full fetch
2. Fresh: read every indexed record concurrently, drop the unreadable ones
3. Fetch: embed logos and write records with bounded concurrency (errgroup)
4. Write metadata.json covering the records that were saved
5. Filter by market

⚠️ Failure handling:
- A failed catalog fetch is returned to the caller; stale data is not served
- A failed logo download keeps the remote URL
- A failed record write leaves the provider out of the index

🔍 Example:

	cache, err := provider.NewCache(provider.Options{
		Store:   store,
		Fetcher: provider.NewRemoteFetcher(client, settings.ProvidersPath),
		Logos:   logo.New(logo.Options{HTTPClient: httpClient}),
		TTL:     settings.CacheTTL,
	})
	list, err := cache.Providers(ctx, "FR", false)
	hits := provider.Search(list, "carre")
*/
package provider
