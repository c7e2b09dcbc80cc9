package commands

import (
	"github.com/ignitedb/ignitedb/pkg/config"
	"github.com/ignitedb/ignitedb/pkg/ignite"
	"github.com/ignitedb/ignitedb/pkg/options"
)

var configPath string

// openStore resolves configuration (config file + environment, with
// --data-dir as the final override) and opens an Instance against it.
func openStore() (*ignite.Instance, error) {
	resolved, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	optFuncs := []options.OptionFunc{options.WithOptions(*resolved)}
	if dataDir != "" {
		optFuncs = append(optFuncs, options.WithDataDir(dataDir))
	}

	return ignite.Open("ignitedb-cli", optFuncs...)
}
