/*
Package operation turns the catalog, importer and cache into CLI actions.

	+--------------+
	|    Runner    |
	|  (in order / |
	| side by side)|
	+------+-------+
	       |
	+------+------+------------+-----------+
	|  providers  |   import   |  status   |
	|   search    |            |   clean   |
	+------+------+-----+------+-----+-----+
	       |            |            |
	   Catalog     CardImporter   state.Store
	               cards.Store

🎯 Purpose:
- Keeps the commands thin: each command builds one or more operations
- Prints through the console logger carried in the context

🔄 Flow:
1. The command builds Options from the loaded config
2. It creates the operations it needs
3. The Runner executes them and wraps failures with the operation name

🤝 Interfaces:
- Catalog: provider.Cache
- CardImporter: cards.Importer
- cards.Store: the local card database, only for import --save

🔍 Example:

	op := operation.NewProvidersOperation(opts, operation.ProvidersParams{Country: "FR"})
	err := operation.NewRunner(false, 0).Run(ctx, op)
*/
package operation
