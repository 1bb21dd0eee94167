package subtitles

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// FormatSRT serializes a transcript as SubRip text:
// index, "HH:MM:SS,mmm --> HH:MM:SS,mmm", text, blank line.
func FormatSRT(t Transcript) string {
	var b strings.Builder
	for i, segment := range t.Segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", i+1, formatTimestamp(segment.Start), formatTimestamp(segment.End), segment.Text)
		if i < len(t.Segments)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SRTToVTT derives WebVTT from SRT by prefixing the magic header and
// switching the millisecond separator in timestamps to a period.
func SRTToVTT(srt string) string {
	return "WEBVTT\n\n" + timestampLine.ReplaceAllStringFunc(srt, func(line string) string {
		return strings.ReplaceAll(line, ",", ".")
	})
}

var timestampLine = regexp.MustCompile(`(?m)^\d{2}:\d{2}:\d{2},\d{3} --> \d{2}:\d{2}:\d{2},\d{3}$`)

// ParseSRT decodes SubRip text into a transcript tagged with language.
// Malformed blocks are skipped rather than failing the whole document.
func ParseSRT(srt, lang string) Transcript {
	transcript := Transcript{Language: lang}
	blocks := strings.Split(strings.ReplaceAll(srt, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := nonEmptyLines(block)
		if len(lines) < 2 {
			continue
		}
		timeLine := lines[0]
		textStart := 1
		if strings.Contains(lines[1], "-->") {
			timeLine = lines[1]
			textStart = 2
		}
		parts := strings.SplitN(timeLine, "-->", 2)
		if len(parts) != 2 {
			continue
		}
		start, errStart := parseTimestamp(strings.TrimSpace(parts[0]))
		end, errEnd := parseTimestamp(strings.TrimSpace(parts[1]))
		if errStart != nil || errEnd != nil {
			continue
		}
		transcript.Segments = append(transcript.Segments, Segment{
			Start: start,
			End:   end,
			Text:  strings.Join(lines[textStart:], " "),
		})
	}
	return transcript
}

func nonEmptyLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(math.Floor(seconds))
	millis := int(math.Floor((seconds - float64(whole)) * 1000))
	return fmt.Sprintf("%02d:%02d:%02d,%03d", whole/3600, (whole%3600)/60, whole%60, millis)
}

func parseTimestamp(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	// Tolerate the WebVTT period separator alongside the SRT comma.
	normalized := strings.ReplaceAll(value, ".", ",")
	timeParts := strings.SplitN(normalized, ",", 2)
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	if errH != nil || errM != nil || errS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	millis := 0
	if len(timeParts) == 2 {
		// The fraction is milliseconds: ",5" means 500 ms, not 5 ms.
		frac := timeParts[1]
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		parsed, err := strconv.Atoi(frac)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		millis = parsed
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
