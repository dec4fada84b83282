/*
Package status inspects the on-disk provider cache.

	+-------------+       +-------------+
	| state.Store | ----> |   Inspect   |
	| (metadata + |       |   Report    |
	|  records)   |       +------+------+
	+-------------+              |
	                      +------+------+
	                      |   Format    |
	                      |  (console)  |
	                      +-------------+

🎯 Purpose:
- Tells whether the next catalog lookup would hit the network
- Finds records that are indexed but missing, unreadable, or not indexed at all

🔄 Flow:
1. Load the metadata index (a missing index is not an error)
2. Read every indexed record and compare its provider id
3. List the records directory for orphans
4. Render a colored summary for the CLI

⚡ Inspect never writes. Repairs happen through a refresh or a clean.
*/
package status
