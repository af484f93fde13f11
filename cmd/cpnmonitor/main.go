// Command cpnmonitor drives a go-cpn-monitor Monitor from a stream of
// NDJSON-encoded events on stdin — the stand-in for "the interpreter
// calls observe(event)" (spec §1), since the interpreter itself is an
// external collaborator out of scope for this repo.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"go-cpn-monitor/internal/config"
	"go-cpn-monitor/internal/dispatch"
	"go-cpn-monitor/internal/monitor"
	"go-cpn-monitor/internal/monitorlog"
	"go-cpn-monitor/internal/violation"
)

func main() {
	os.Exit(run())
}

// wireEvent is the NDJSON shape a line of stdin decodes into: either
// an event ({"event": "...", "fields": {...}}) or the exec_end_marker
// sentinel ({"exec_end_marker": true}).
type wireEvent struct {
	Event         string            `json:"event"`
	Fields        map[string]uint64 `json:"fields"`
	ExecEndMarker bool              `json:"exec_end_marker"`
}

func run() int {
	enablePath := flag.String("enable", "", "path to the CPN monitor configuration file; absent disables the monitor")
	logPath := flag.String("log", "", "path to append JSONL log records to; absent discards them")
	failFast := flag.Bool("fail-fast", true, "abort on the first protocol violation (default)")
	noFailFast := flag.Bool("no-fail-fast", false, "log violations and keep monitoring instead of aborting")
	printMarking := flag.Bool("print-marking-on-each-event", false, "echo the post-event marking hash to stderr")
	flag.Parse()

	if *enablePath == "" {
		log.Printf("cpn monitor: -enable not given, monitor disabled")
		return 0
	}

	cfg, err := config.LoadFile(*enablePath)
	if err != nil {
		log.Printf("cpn monitor: %v", err)
		return 1
	}

	policy := violation.FailFast
	if *noFailFast || !*failFast {
		policy = violation.Continue
	}

	var logWriter *monitorlog.Writer
	if *logPath != "" {
		logWriter = monitorlog.Open(*logPath)
	}

	mon := monitor.New(cfg.Net, cfg.EventMapping, policy, logWriter)

	aborted := processStdin(mon, *printMarking)

	if aborted || mon.ViolationCount() > 0 {
		return 1
	}
	return 0
}

// processStdin feeds NDJSON lines from stdin to mon until EOF or an
// aborting violation. It reports whether it stopped on an abort.
func processStdin(mon *monitor.Monitor, printMarking bool) bool {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var wev wireEvent
		if err := json.Unmarshal(line, &wev); err != nil {
			log.Printf("cpn monitor: malformed event line, skipped: %v", err)
			continue
		}

		if wev.ExecEndMarker {
			mon.OnExecutionEnd()
			continue
		}

		obsErr := mon.Observe(dispatch.Event{Kind: wev.Event, Fields: wev.Fields})
		if printMarking {
			fmt.Fprintf(os.Stderr, "marking_hash=%d\n", mon.MarkingHash())
		}
		if obsErr != nil {
			log.Printf("cpn monitor: %v", obsErr)
			return true
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("cpn monitor: reading events: %v", err)
	}
	return false
}
