// Command paymentprocessord is a thin demonstration driver for the
// paymentpool core: it wires a LevelDB-backed store and a fake SCI
// together and runs the sendout/overdue loop on a timer, the way
// cmd/geth wires node components together but without any of its own
// business logic.
package main

import (
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/golemfactory/golem-payments/paymentpool"
	"github.com/golemfactory/golem-payments/paymentpool/sci"
	"github.com/golemfactory/golem-payments/paymentstore"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Directory holding the LevelDB payment record store",
		Value: "./paymentprocessord-data",
	}
	paymentMaxDelayFlag = &cli.DurationFlag{
		Name:  "payment-max-delay",
		Usage: "Opportunistic sendout threshold",
		Value: paymentpool.DefaultConfig.PaymentMaxDelay,
	}
	paymentDeadlineFlag = &cli.DurationFlag{
		Name:  "payment-deadline",
		Usage: "Overdue promotion threshold",
		Value: paymentpool.DefaultConfig.PaymentDeadline,
	}
	blockGasLimitRatioFlag = &cli.Uint64Flag{
		Name:  "block-gas-limit-ratio",
		Usage: "Denominator of the per-block gas fraction a batch may consume",
		Value: paymentpool.DefaultConfig.BlockGasLimitRatio,
	}
	sendoutIntervalFlag = &cli.DurationFlag{
		Name:  "sendout-interval",
		Usage: "How often to call SendOut with the configured ClosureTimeDelay (0 by default, which forces an immediate send)",
		Value: 30 * time.Second,
	}
	seedPaymentFlag = &cli.BoolFlag{
		Name:  "seed-demo-payment",
		Usage: "Enqueue one demo payment on startup, for a self-contained smoke run",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML config file overriding the scheduling tunables above",
	}
)

func main() {
	app := &cli.App{
		Name:  "paymentprocessord",
		Usage: "run the payment processor core against a demo SCI",
		Flags: []cli.Flag{
			dataDirFlag,
			paymentMaxDelayFlag,
			paymentDeadlineFlag,
			blockGasLimitRatioFlag,
			sendoutIntervalFlag,
			seedPaymentFlag,
			configFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Crit("paymentprocessord: fatal error", "err", err)
	}
}

func run(ctx *cli.Context) error {
	store, err := paymentstore.NewLevelDBStore(ctx.String(dataDirFlag.Name))
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := paymentpool.Config{
		PaymentMaxDelay:     ctx.Duration(paymentMaxDelayFlag.Name),
		PaymentDeadline:     ctx.Duration(paymentDeadlineFlag.Name),
		BlockGasLimitRatio:  ctx.Uint64(blockGasLimitRatioFlag.Name),
		ConfirmationWorkers: paymentpool.DefaultConfig.ConfirmationWorkers,
	}
	if path := ctx.String(configFlag.Name); path != "" {
		fileCfg, err := paymentpool.LoadConfigFile(path)
		if err != nil {
			return err
		}
		cfg = fileCfg
	}

	demoSci := demoInterface()
	proc, err := paymentpool.New(store, demoSci, sci.NewFakeConverter(), cfg)
	if err != nil {
		return err
	}
	defer proc.Close()

	if err := proc.LoadFromDB(); err != nil {
		return err
	}

	if ctx.Bool(seedPaymentFlag.Name) {
		ts, err := proc.Add(uuid.NewString(), common.HexToAddress("0x1"), big.NewInt(1e9))
		if err != nil {
			return err
		}
		log.Info("paymentprocessord: seeded demo payment", "processed_ts", ts)
	}

	sendoutTicker := time.NewTicker(ctx.Duration(sendoutIntervalFlag.Name))
	defer sendoutTicker.Stop()
	overdueTicker := time.NewTicker(time.Minute)
	defer overdueTicker.Stop()

	log.Info("paymentprocessord: running", "datadir", ctx.String(dataDirFlag.Name))
	for {
		select {
		case <-sendoutTicker.C:
			sent, err := proc.SendOut(cfg.ClosureTimeDelay)
			if err != nil {
				log.Error("paymentprocessord: sendout failed", "err", err)
				continue
			}
			log.Info("paymentprocessord: sendout tick", "sent", sent, "reserved", proc.ReservedAmount(), "recipients", proc.RecipientsCount())
		case <-overdueTicker.C:
			if err := proc.UpdateOverdue(); err != nil {
				log.Error("paymentprocessord: update_overdue failed", "err", err)
			}
		}
	}
}

// demoInterface builds a Fake SCI pre-seeded with generous balances, so
// this binary runs standalone without a real chain connection. A
// production deployment would instead construct an Interface backed
// by a deployed contract client (out of scope here, see spec §1).
func demoInterface() *sci.Fake {
	f := sci.NewFake()
	f.Schedule = sci.GasSchedule{GasPerPayment: 300_000, GasBatchPaymentBase: 100_000}
	f.TokenBalance = new(big.Int).Mul(big.NewInt(1e9), big.NewInt(1e9))
	f.GasAssetBal = new(big.Int).Mul(big.NewInt(1e9), big.NewInt(1e9))
	f.CurrentGasPrice = big.NewInt(1e9)
	f.LatestBlock = sci.Block{GasLimit: 30_000_000}
	f.NextTxHash = "0x" + uuid.NewString()
	return f
}
