package main

import (
	"bufio"
	"fmt"
	"os"
	"reflect"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"

	"github.com/shardnet/shardsim/model"
	"github.com/shardnet/shardsim/server"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

type shardsimConfig struct {
	Strategy string `toml:",omitempty"`
	Sim      model.Config
	Server   server.Config
}

func defaultConfig() shardsimConfig {
	return shardsimConfig{
		Strategy: "backpressure",
		Sim:      model.DefaultConfig,
		Server:   server.DefaultConfig,
	}
}

func loadConfig(file string, cfg *shardsimConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	if err != nil {
		err = fmt.Errorf("%s: %w", file, err)
	}
	return err
}

// makeConfig assembles the run configuration: defaults, then the config file,
// then command line flags, later sources overriding earlier ones.
func makeConfig(ctx *cli.Context) (shardsimConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(strategyFlag.Name) {
		cfg.Strategy = ctx.String(strategyFlag.Name)
	}
	if ctx.IsSet(shardsFlag.Name) {
		cfg.Sim.Shards = ctx.Uint64(shardsFlag.Name)
	}
	if ctx.IsSet(blocksFlag.Name) {
		cfg.Sim.Blocks = ctx.Uint64(blocksFlag.Name)
	}
	if ctx.IsSet(seedFlag.Name) {
		cfg.Sim.Seed = ctx.Int64(seedFlag.Name)
	}
	if ctx.IsSet(workloadFlag.Name) {
		cfg.Sim.Workload = ctx.String(workloadFlag.Name)
	}
	if ctx.IsSet(txPerShardFlag.Name) {
		cfg.Sim.TxPerShard = ctx.Int(txPerShardFlag.Name)
	}
	if ctx.IsSet(gasLimitFlag.Name) {
		cfg.Sim.ChunkGasLimit = ctx.Uint64(gasLimitFlag.Name)
	}
	if ctx.IsSet(httpAddrFlag.Name) {
		cfg.Server.Addr = ctx.String(httpAddrFlag.Name)
	}
	return cfg, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
