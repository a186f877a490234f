// ════════════════════════════════════════════════════════════════════════════════════════════════
// ringbench - Broadcast Ring Workload Runner
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Command-line entry point
//
// Description:
//   Runs a unicast (1P1C) or pipeline (1P3C) workload over a broadcast ring, verifies every
//   record on every consumer, then persists the outcome.
//   Configure → Run → benchmark-result.<scenario>.json → SQLite history
//
// Exit status: 0 clean run, 1 setup or I/O failure, 2 corrupt or missing records.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"onetomany/constants"
	"onetomany/debug"
	"onetomany/harness"
	"onetomany/report"
	"onetomany/utils"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ringbench", flag.ContinueOnError)
	var (
		scenario  = fs.String("scenario", harness.ScenarioUnicast, "workload: unicast | pipeline")
		pow       = fs.Int("pow", constants.DefaultPowSize, "ring capacity exponent (10..31)")
		consumers = fs.Int("consumers", 0, "consumer count (0: scenario default)")
		messages  = fs.Int("messages", constants.DefaultMessages, "records to publish")
		payload   = fs.Int("payload", constants.DefaultPayloadSize, "payload bytes per record")
		slack     = fs.Int("slack", constants.RecordSlack, "per-record slack bytes (0 for none)")
		pin       = fs.Bool("pin", false, "pin consumers to cores 1..N")
		out       = fs.String("out", ".", "directory for the JSON result file")
		db        = fs.String("db", constants.DefaultHistoryDB, "SQLite history file (empty: skip)")
		history   = fs.Int("history", 0, "print the N most recent runs of -scenario and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *history > 0 {
		return printHistory(*db, *scenario, *history)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// producer runs on this goroutine; keep it on one thread like the consumers
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	cfg := harness.Config{
		Scenario:    *scenario,
		PowSize:     *pow,
		Consumers:   *consumers,
		Messages:    *messages,
		PayloadSize: *payload,
		Slack:       *slack,
		Pin:         *pin,
	}
	if cfg.Slack == 0 {
		cfg.Slack = -1 // explicit zero on the command line means none
	}

	rep, err := harness.Run(ctx, cfg)
	if err != nil && rep.Scenario == "" {
		debug.DropError("ringbench", err)
		return 1
	}

	debug.DropMessage("RESULT", rep.Scenario+": "+utils.Itoa(rep.Messages)+" msgs in "+rep.Elapsed.String()+
		", "+strconv.FormatFloat(rep.MsgsPerSec, 'f', 0, 64)+" msg/s, "+
		utils.Itoa(int(rep.WriteRetries))+" write retries")

	path, saveErr := report.Save(*out, rep)
	if saveErr != nil {
		debug.DropError("ringbench: save", saveErr)
		return 1
	}
	debug.DropMessage("SAVED", path)

	if *db != "" {
		if err := appendHistory(*db, rep); err != nil {
			debug.DropError("ringbench: history", err)
			return 1
		}
	}

	if err != nil {
		debug.DropError("ringbench: run interrupted", err)
		return 1
	}
	if !rep.OK() {
		for c := range rep.Delivered {
			debug.DropMessage("CONSUMER "+utils.Itoa(c), utils.Itoa(int(rep.Delivered[c]))+" delivered, "+
				utils.Itoa(int(rep.Corrupt[c]))+" corrupt, "+utils.Itoa(int(rep.OutOfOrder[c]))+" out of order")
		}
		return 2
	}
	return 0
}

func appendHistory(path string, rep harness.Report) error {
	s, err := report.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = s.Append(rep)
	return err
}

func printHistory(path, scenario string, n int) int {
	s, err := report.Open(path)
	if err != nil {
		debug.DropError("ringbench: history", err)
		return 1
	}
	defer s.Close()

	runs, err := s.Recent(scenario, n)
	if err != nil {
		debug.DropError("ringbench: history", err)
		return 1
	}
	for _, r := range runs {
		utils.PrintInfo(r.StartedAt.Format("2006-01-02 15:04:05") + "  " + r.Scenario +
			"  pow=" + utils.Itoa(r.PowSize) + " consumers=" + utils.Itoa(r.Consumers) +
			"  " + strconv.FormatFloat(r.MsgsPerSec, 'f', 0, 64) + " msg/s\n")
	}
	return 0
}
