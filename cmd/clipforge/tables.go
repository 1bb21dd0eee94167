package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"clipforge/internal/store"
)

// renderJobTable lays out jobs for `jobs list`: lifecycle status colored,
// progress right-aligned.
func renderJobTable(jobs []*store.Job, colorize bool) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"ID", "Source", "Status", "Stage", "Progress", "Created"})
	for _, job := range jobs {
		tw.AppendRow(table.Row{
			shortID(job.ID),
			jobSourceLabel(job),
			string(job.Status),
			string(job.Stage),
			strconv.Itoa(job.Progress) + "%",
			job.CreatedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Transformer: statusCell(colorize)},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// renderClipTable lays out a job's clips for `jobs show`.
func renderClipTable(clips []*store.Clip, colorize bool) string {
	tw := newTableWriter()
	tw.AppendHeader(table.Row{"Clip", "Range", "Score", "Reason", "Status", "Video"})
	for _, clip := range clips {
		tw.AppendRow(table.Row{
			shortID(clip.ID),
			formatRange(clip.Start, clip.End),
			fmt.Sprintf("%.2f", clip.Score),
			clip.Reason,
			string(clip.Status),
			clip.VideoPath,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Transformer: statusCell(colorize)},
	})
	return tw.Render()
}

func newTableWriter() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	return tw
}

// statusCell colors lifecycle states: green once ready, red on error, yellow
// while work is in flight. Job and clip statuses share the ready/error names.
func statusCell(colorize bool) text.Transformer {
	return func(val interface{}) string {
		status := fmt.Sprint(val)
		if !colorize {
			return status
		}
		switch status {
		case string(store.JobReady):
			return text.FgGreen.Sprint(status)
		case string(store.JobError):
			return text.FgRed.Sprint(status)
		case string(store.JobProcessing), string(store.ClipRendering):
			return text.FgYellow.Sprint(status)
		default:
			return status
		}
	}
}
