/*
Package config reads allocator and workload settings from YAML or JSON.

Accessors never fail: a missing key or a value of the wrong type yields the
default passed by the caller.

	cfg, err := config.FromFile("allocator.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	name := cfg.String("allocator", "system")
	capacity := cfg.Int("pool_capacity", 0)

Nested mappings are reached with Sub:

	retry := cfg.Sub("retry")
	attempts := retry.Int("max_attempts", 1)
*/
package config
