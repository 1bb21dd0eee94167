package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status, job counts, and tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, ctx)
		},
	}
}

func runStatus(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	report := statusReport{out: cmd.OutOrStdout(), colorize: shouldColorize(os.Stdout)}

	report.section("Daemon")
	status, reachable := fetchDaemonStatus(cfg.Paths.APIBind)
	if !reachable {
		report.line("Daemon", healthWarn, "not reachable at "+cfg.Paths.APIBind)
	} else {
		report.line("Daemon", healthOK, fmt.Sprintf("running (pid %d)", status.PID))
		report.line("Workers", healthInfo, fmt.Sprintf("%d process(es)", status.Workers))
		if status.Stats.QueueLength >= 0 {
			report.line("Queue depth", healthInfo, fmt.Sprintf("%d", status.Stats.QueueLength))
		} else {
			report.line("Queue depth", healthWarn, "redis unavailable")
		}
		for _, name := range sortedKeys(status.Stats.Counts) {
			report.line("Jobs "+name, healthInfo, fmt.Sprintf("%d", status.Stats.Counts[name]))
		}
	}

	report.section("Tools")
	for _, dep := range deps.Check(cfg) {
		state := healthOK
		detail := dep.Command
		if !dep.Available {
			detail = dep.Detail
			state = healthErr
			if dep.Optional {
				state = healthWarn
			}
		}
		report.line(dep.Name, state, detail)
	}
	return nil
}

// fetchDaemonStatus asks the running daemon over HTTP; a dead daemon is not
// an error, just a reported condition.
func fetchDaemonStatus(bind string) (api.DaemonStatus, bool) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + bind + "/api/status")
	if err != nil {
		return api.DaemonStatus{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return api.DaemonStatus{}, false
	}
	var status api.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return api.DaemonStatus{}, false
	}
	return status, true
}

func sortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
