package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/logging"
	"clipforge/internal/pipeline"
)

func newClipCommand(ctx *commandContext) *cobra.Command {
	clipCmd := &cobra.Command{
		Use:   "clip",
		Short: "Re-render and generate individual clips",
	}
	clipCmd.AddCommand(newClipRerenderCommand(ctx))
	clipCmd.AddCommand(newClipGenerateCommand(ctx))
	return clipCmd
}

func newClipRerenderCommand(ctx *commandContext) *cobra.Command {
	var start, end float64
	var burnSubtitles, smartCrop bool

	cmd := &cobra.Command{
		Use:   "rerender <job-id> <clip-id>",
		Short: "Queue a clip re-render with new bounds",
		Args:  cobra.ExactArgs(2),
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

			err = service.RequestRerender(cmd.Context(), args[0], args[1], api.RerenderRequest{
				Start:         start,
				End:           end,
				BurnSubtitles: burnSubtitles,
				SmartCrop:     smartCrop,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued re-render of clip %s\n", args[1])
			return nil
		},
	}
	cmd.Flags().Float64Var(&start, "start", 0, "Clip start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Clip end in seconds")
	cmd.Flags().BoolVar(&burnSubtitles, "burn-subtitles", false, "Burn subtitles into the re-rendered clip")
	cmd.Flags().BoolVar(&smartCrop, "smart-crop", true, "Apply centered smart cropping")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newClipGenerateCommand(ctx *commandContext) *cobra.Command {
	var url, file string
	var start, end float64
	var flags jobOptionFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render one clip from a caller-chosen time range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" && file == "" {
				return fmt.Errorf("either --url or --file is required")
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			pipe, err := ctx.buildPipeline(st, logger)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}

			req := pipeline.GenerateRequest{
				URL:     url,
				Start:   start,
				End:     end,
				Options: api.ToOptions(flags.toOptions()),
			}
			if file != "" {
				uploadID, err := stageUpload(ctx, file)
				if err != nil {
					return err
				}
				req.UploadID = uploadID
			}

			clip, err := pipe.GenerateClip(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered clip %s (%s)\n%s\n",
				clip.ID, formatRange(clip.Start, clip.End), clip.VideoPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "YouTube URL to cut from")
	cmd.Flags().StringVar(&file, "file", "", "Local media file to cut from")
	cmd.Flags().Float64Var(&start, "start", 0, "Clip start in seconds")
	cmd.Flags().Float64Var(&end, "end", 0, "Clip end in seconds")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
