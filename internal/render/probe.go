package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultFFprobeBinary is used when no override is configured.
const DefaultFFprobeBinary = "ffprobe"

// Dimensions probes the first video stream of path and returns its pixel
// width and height. Missing fields fall back to 1920x1080 so a render can
// still proceed on containers with sparse metadata.
func Dimensions(ctx context.Context, binary, path string) (int, int, error) {
	binary = probeBinary(binary)
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, 0, errors.New("ffprobe dimensions: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-select_streams", "v:0", "-show_entries", "stream=width,height", "-of", "json", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe dimensions: %w: %s", err, summarize(output))
	}

	var result struct {
		Streams []struct {
			Width  int `json:"width"`
			Height int `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, 0, fmt.Errorf("ffprobe parse: %w: %s", err, summarize(output))
	}

	width, height := 1920, 1080
	if len(result.Streams) > 0 {
		if result.Streams[0].Width > 0 {
			width = result.Streams[0].Width
		}
		if result.Streams[0].Height > 0 {
			height = result.Streams[0].Height
		}
	}
	return width, height, nil
}

// Duration returns the container duration of path in seconds, or 0 when
// ffprobe reports no parseable value.
func Duration(ctx context.Context, binary, path string) (float64, error) {
	binary = probeBinary(binary)
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, errors.New("ffprobe duration: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w: %s", err, summarize(output))
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, nil
	}
	return value, nil
}

func probeBinary(binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return DefaultFFprobeBinary
	}
	return binary
}

func summarize(output []byte) string {
	return strings.Join(strings.Fields(string(output)), " ")
}
