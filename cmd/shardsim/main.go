// shardsim is a closed-loop simulator of congestion control in a sharded
// execution layer. Each block, every shard decides how much work to admit
// from its pool and from cross-shard receipts, throttled by the congestion
// its peers published one block earlier.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shardnet/shardsim/internal/flags"
	"github.com/shardnet/shardsim/model"
	"github.com/shardnet/shardsim/server"
	"github.com/shardnet/shardsim/strategy"
)

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

var app = flags.NewApp(gitCommit, gitDate, "a congestion simulator for sharded execution layers")

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.SimCategory,
	}
	shardsFlag = &cli.Uint64Flag{
		Name:     "shards",
		Usage:    "Number of shards to simulate",
		Value:    model.DefaultConfig.Shards,
		Category: flags.SimCategory,
	}
	blocksFlag = &cli.Uint64Flag{
		Name:     "blocks",
		Usage:    "Number of blocks to run",
		Value:    model.DefaultConfig.Blocks,
		Category: flags.SimCategory,
	}
	seedFlag = &cli.Int64Flag{
		Name:     "seed",
		Usage:    "Workload randomness seed; identical seeds reproduce identical runs",
		Value:    model.DefaultConfig.Seed,
		Category: flags.SimCategory,
	}
	workloadFlag = &cli.StringFlag{
		Name:     "workload",
		Usage:    `Traffic pattern ("balanced", "hotspot", "crossword")`,
		Value:    model.DefaultConfig.Workload,
		Category: flags.SimCategory,
	}
	txPerShardFlag = &cli.IntFlag{
		Name:     "txs",
		Usage:    "Transactions entering each shard's pool per block",
		Value:    model.DefaultConfig.TxPerShard,
		Category: flags.SimCategory,
	}
	gasLimitFlag = &cli.Uint64Flag{
		Name:     "gaslimit",
		Usage:    "Executable gas per chunk, in GGas",
		Value:    model.DefaultConfig.ChunkGasLimit,
		Category: flags.SimCategory,
	}
	strategyFlag = &cli.StringFlag{
		Name:     "strategy",
		Usage:    `Congestion strategy ("backpressure", "none")`,
		Value:    "backpressure",
		Category: flags.SimCategory,
	}
	httpFlag = &cli.BoolFlag{
		Name:     "http",
		Usage:    "Serve block summaries over HTTP while running",
		Category: flags.APICategory,
	}
	httpAddrFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "HTTP summary server listen address",
		Value:    server.DefaultConfig.Addr,
		Category: flags.APICategory,
	}
	verbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value:    3,
		Category: flags.LoggingCategory,
	}
	logJSONFlag = &cli.BoolFlag{
		Name:     "log.json",
		Usage:    "Format logs with JSON",
		Category: flags.LoggingCategory,
	}
	logFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Write logs to a rotated file instead of stderr",
		Category: flags.LoggingCategory,
	}
	metricsFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and reporting",
		Category: flags.MetricsCategory,
	}
)

var runFlags = []cli.Flag{
	configFileFlag,
	shardsFlag,
	blocksFlag,
	seedFlag,
	workloadFlag,
	txPerShardFlag,
	gasLimitFlag,
	strategyFlag,
	httpFlag,
	httpAddrFlag,
	verbosityFlag,
	logJSONFlag,
	logFileFlag,
	metricsFlag,
}

var runCommand = &cli.Command{
	Name:   "run",
	Usage:  "run a simulation and print the per-shard report",
	Flags:  runFlags,
	Action: runSimulation,
}

var dumpConfigCommand = &cli.Command{
	Name:   "dumpconfig",
	Usage:  "write the effective TOML configuration to stdout",
	Flags:  runFlags,
	Action: dumpConfig,
}

func init() {
	app.Commands = []*cli.Command{
		runCommand,
		dumpConfigCommand,
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(ctx *cli.Context) {
	var output io.Writer = os.Stderr
	usecolor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
	if logFile := ctx.String(logFileFlag.Name); logFile != "" {
		output = &lumberjack.Logger{Filename: logFile, MaxSize: 100, MaxBackups: 10, Compress: true}
		usecolor = false
	} else if usecolor {
		output = colorable.NewColorableStderr()
	}
	var handler slog.Handler
	if ctx.Bool(logJSONFlag.Name) {
		handler = log.JSONHandler(output)
	} else {
		level := log.FromLegacyLevel(ctx.Int(verbosityFlag.Name))
		handler = log.NewTerminalHandlerWithLevel(output, level, usecolor)
	}
	log.SetDefault(log.NewLogger(handler))
}

func newStrategyBuilder(name string) (func() model.CongestionStrategy, error) {
	switch name {
	case "backpressure":
		return func() model.CongestionStrategy { return strategy.NewBackpressure() }, nil
	case "none":
		return func() model.CongestionStrategy { return strategy.NewPassthrough() }, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func runSimulation(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.Bool(metricsFlag.Name) {
		metrics.Enabled = true
	}
	workload, err := model.NewWorkload(cfg.Sim)
	if err != nil {
		return err
	}
	newStrategy, err := newStrategyBuilder(cfg.Strategy)
	if err != nil {
		return err
	}
	sim, err := model.New(cfg.Sim, workload, newStrategy)
	if err != nil {
		return err
	}
	defer sim.Close()

	if ctx.Bool(httpFlag.Name) {
		srv, err := server.New(cfg.Server, sim)
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Stop()
	}

	log.Info("starting simulation", "shards", cfg.Sim.Shards, "blocks", cfg.Sim.Blocks,
		"workload", cfg.Sim.Workload, "strategy", cfg.Strategy, "seed", cfg.Sim.Seed)
	start := time.Now()
	if err := sim.Run(); err != nil {
		return err
	}
	log.Info("simulation complete", "blocks", cfg.Sim.Blocks, "elapsed", time.Since(start))

	printReport(os.Stdout, sim.Report())
	return nil
}
