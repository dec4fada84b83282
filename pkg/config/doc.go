/*
Package config manages configuration parsing and validation for loyalty.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	     +-------------+-------------+
	     |             |             |
	+----+----+   +----+----+   +----+----+
	|  YAML   |   |   HCL   |   |  JSON   |
	| Parser  |   | Parser  |   | Parser  |
	+---------+   +---------+   +---------+
	                   |
	          +--------+--------+
	          |  env / .env /   |
	          |    keyring      |
	          +-----------------+

🎯 Purpose:
- Loads the upstream endpoints, region client ids, cache and retry settings
- Applies defaults so an empty file (or no file) is a working setup
- Resolves the refresh-token secret from the environment or the OS keyring

🔄 Flow:
1. Load .env files (godotenv), never overriding the real environment
2. Parse the config file by extension, or fall back to defaults
3. Apply LOYALTY_* overrides
4. Validate and convert to typed Settings

⚠️ Errors:
A missing secret is reported as *Error. It is fatal at first use and is never
retried by the network layer.

🔍 Example:

	cfg, err := config.LoadOrDefault(ctx, "loyalty.hcl")
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	secrets := config.NewSecrets(settings, config.SystemKeyring())
*/
package config
