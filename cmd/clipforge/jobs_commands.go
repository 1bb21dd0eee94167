package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/clipper"
	"clipforge/internal/logging"
	"clipforge/internal/storage"
	"clipforge/internal/store"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Submit and inspect clip-generation jobs",
	}
	jobsCmd.AddCommand(newJobsAddCommand(ctx))
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

type jobOptionFlags struct {
	language    string
	clips       int
	preset      string
	subtitles   string
	noSmartCrop bool
}

func (f *jobOptionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.language, "language", "", "Transcription language (default from config)")
	cmd.Flags().IntVar(&f.clips, "clips", 0, "Number of clips to generate")
	cmd.Flags().StringVar(&f.preset, "preset", "", "Clip duration preset (short, normal, long)")
	cmd.Flags().StringVar(&f.subtitles, "subtitles", "", "Subtitle mode (off, srt, burned)")
	cmd.Flags().BoolVar(&f.noSmartCrop, "no-smart-crop", false, "Disable centered smart cropping")
}

func (f *jobOptionFlags) toOptions() *api.JobOptions {
	defaults := store.DefaultJobOptions()
	opts := api.JobOptions{
		Language:       defaults.Language,
		ClipCount:      defaults.ClipCount,
		DurationPreset: string(defaults.DurationPreset),
		Subtitles:      string(defaults.Subtitles),
		SmartCrop:      !f.noSmartCrop,
	}
	if f.language != "" {
		opts.Language = f.language
	}
	if f.clips > 0 {
		opts.ClipCount = f.clips
	}
	if f.preset != "" {
		opts.DurationPreset = f.preset
	}
	if f.subtitles != "" {
		opts.Subtitles = f.subtitles
	}
	return &opts
}

func newJobsAddCommand(ctx *commandContext) *cobra.Command {
	var flags jobOptionFlags

	cmd := &cobra.Command{
		Use:   "add <youtube-url-or-file>",
		Short: "Queue a job for a YouTube URL or a local media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			tq, redisClient, err := ctx.connectQueue()
			if err != nil {
				return err
			}
			defer redisClient.Close()
			service := ctx.newService(st, tq, logging.NewNop())

			req := api.SubmitJobRequest{Options: flags.toOptions()}
			target := strings.TrimSpace(args[0])
			if clipper.IsYouTubeURL(target) {
				req.URL = target
			} else {
				uploadID, err := stageUpload(ctx, target)
				if err != nil {
					return err
				}
				req.UploadID = uploadID
			}

			job, err := service.SubmitJob(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s\n", job.ID)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// stageUpload copies a local media file into the uploads directory and
// returns the upload identifier.
func stageUpload(ctx *commandContext, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("source file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("source %q is a directory", path)
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.Paths.UploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("prepare uploads dir: %w", err)
	}
	name := filepath.Base(path)
	if err := storage.CopyFileVerified(path, filepath.Join(cfg.Paths.UploadsDir, name)); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}
	return name, nil
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			var statuses []store.JobStatus
			for _, value := range statusFlags {
				status, ok := store.ParseJobStatus(value)
				if !ok {
					return fmt.Errorf("unknown status %q", value)
				}
				statuses = append(statuses, status)
			}

			jobs, err := st.ListJobs(cmd.Context(), statuses...)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs found.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderJobTable(jobs, shouldColorize(os.Stdout)))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&statusFlags, "status", nil, "Filter by status (pending, processing, ready, error)")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job and its clips",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			job, err := st.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if job == nil {
				return fmt.Errorf("job %q not found", args[0])
			}
			clips, err := st.ListClips(cmd.Context(), job.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job:      %s\n", job.ID)
			fmt.Fprintf(out, "Source:   %s\n", jobSourceLabel(job))
			fmt.Fprintf(out, "Status:   %s (%s, %d%%)\n", job.Status, job.Stage, job.Progress)
			if job.Metadata != nil && job.Metadata.Title != "" {
				fmt.Fprintf(out, "Title:    %s\n", job.Metadata.Title)
			}
			if job.Error != "" {
				fmt.Fprintf(out, "Error:    %s\n", job.Error)
			}
			fmt.Fprintf(out, "Options:  %d clips, %s preset, subtitles %s, language %s\n",
				job.Options.ClipCount, job.Options.DurationPreset, job.Options.Subtitles, job.Options.Language)

			if len(clips) == 0 {
				fmt.Fprintln(out, "No clips yet.")
				return nil
			}
			fmt.Fprintln(out, renderClipTable(clips, shouldColorize(os.Stdout)))
			return nil
		},
	}
}

func jobSourceLabel(job *store.Job) string {
	if job.UploadID != "" {
		return job.UploadID
	}
	if job.SourceURL != "" {
		return job.SourceURL
	}
	return string(job.SourceType)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRange(start, end float64) string {
	return fmt.Sprintf("%s-%s", formatClock(start), formatClock(end))
}

func formatClock(seconds float64) string {
	total := int(seconds)
	minutes := total / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}
