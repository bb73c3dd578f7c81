package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	eventsTail    int
	eventsFollow  bool
	eventsKind    string
	eventsLevel   string
	eventsComp    string
	eventsSession string
	eventsPost    int64
	eventsJSON    bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the JSONL event log",
	Example: `  eidnews events --kind fetch --level warn
  eidnews events -f --comp realtime
  eidnews events --kind analytics --session 3f2a...`,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().IntVarP(&eventsTail, "tail", "n", 50, "number of recent matching lines to show")
	eventsCmd.Flags().BoolVarP(&eventsFollow, "follow", "f", false, "keep printing new events (like tail -f)")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "event kind prefix (e.g. cache, poll.error)")
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "minimum level: debug, info, warn, error")
	eventsCmd.Flags().StringVar(&eventsComp, "comp", "", "component name (fetch, cache, realtime, ui, analytics)")
	eventsCmd.Flags().StringVar(&eventsSession, "session", "", "session id")
	eventsCmd.Flags().Int64Var(&eventsPost, "post", 0, "post id")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "print raw JSON lines")
}

// eventRecord decodes otel events without importing the package, so old
// logs stay readable as the schema grows.
type eventRecord struct {
	Time      time.Time      `json:"t"`
	Level     string         `json:"level"`
	Kind      string         `json:"kind"`
	Comp      string         `json:"comp"`
	SessionID string         `json:"session_id"`
	DurMs     float64        `json:"dur_ms"`
	Count     int            `json:"count"`
	PostID    int64          `json:"post_id"`
	Source    string         `json:"source"`
	Query     string         `json:"query"`
	Err       string         `json:"err"`
	Msg       string         `json:"msg"`
	Extra     map[string]any `json:"extra"`
}

// levelRank orders levels for --level; unknown levels rank as debug.
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 0
	}
}

type eventFilter struct {
	kind    string
	level   string
	comp    string
	session string
	post    int64
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.session != "" && ev.SessionID != f.session {
		return false
	}
	if f.post != 0 && ev.PostID != f.post {
		return false
	}
	return true
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.EventsPath()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no event log at %s; run eidnews first to generate events", path)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	filter := eventFilter{
		kind:    eventsKind,
		level:   eventsLevel,
		comp:    eventsComp,
		session: eventsSession,
		post:    eventsPost,
	}
	out := cmd.OutOrStdout()

	lines, err := readTailLines(f, eventsTail, filter.match)
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Fprintln(out, formatEvent(l.ev, l.raw, eventsJSON))
	}
	if !eventsFollow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return followEvents(ctx, f, out, filter.match)
}

// followEvents prints matching events appended to r until ctx is done.
func followEvents(ctx context.Context, r io.Reader, out io.Writer, match func(eventRecord) bool) error {
	reader := bufio.NewReader(r)
	var partial []byte
	for {
		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			// Hold an unterminated write until the rest arrives.
			partial = append(partial, line...)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return err
		}
		if len(partial) > 0 {
			line = append(partial, line...)
			partial = nil
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if match(ev) {
			fmt.Fprintln(out, formatEvent(ev, line, eventsJSON))
		}
	}
}

// formatEvent renders one event as a single line.
func formatEvent(ev eventRecord, raw []byte, rawJSON bool) string {
	if rawJSON {
		return string(raw)
	}
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}
	parts := []string{fmt.Sprintf("%s %-5s [%-9s] %-26s", ev.Time.Local().Format("15:04:05.000"), lvl, ev.Comp, ev.Kind)}

	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.PostID != 0 {
		parts = append(parts, fmt.Sprintf("post=%d", ev.PostID))
	}
	if ev.Source != "" {
		parts = append(parts, "src="+ev.Source)
	}
	if ev.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%q", ev.Query))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines returns the last n lines of r that decode and match.
// Malformed lines are skipped.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) ([]parsedLine, error) {
	if n <= 0 {
		return nil, nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]parsedLine, 0, n)
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil || !match(ev) {
			continue
		}
		// Scanner reuses its buffer.
		pl := parsedLine{ev: ev, raw: append([]byte(nil), raw...)}
		if len(ring) < n {
			ring = append(ring, pl)
			continue
		}
		copy(ring, ring[1:])
		ring[n-1] = pl
	}
	return ring, scanner.Err()
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	switch {
	case ms >= 100:
		return 0
	case ms >= 1:
		return 1
	default:
		return 2
	}
}
