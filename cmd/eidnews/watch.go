package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlexLem84/east-idaho-news-app/internal/logging"
	"github.com/AlexLem84/east-idaho-news-app/internal/realtime"
)

var (
	watchInterval time.Duration
	watchPrime    bool
	watchJSON     bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print new articles as they are published",
	Long: `watch polls the site like the reader does and prints one line per
never-seen post, starting with the posts already on the site. --prime (or
realtime.prime) skips those and reports only what is published afterwards.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "poll interval (default realtime.interval)")
	watchCmd.Flags().BoolVar(&watchPrime, "prime", false, "skip posts already published at startup")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print updates as JSON lines")
}

type watchRecord struct {
	Type      realtime.UpdateType `json:"type"`
	ID        int64               `json:"id"`
	Title     string              `json:"title"`
	Link      string              `json:"link"`
	Timestamp time.Time           `json:"timestamp"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchInterval > 0 {
		cfg.Realtime.Interval = watchInterval.String()
	}

	svc, err := newServices(cfg, false)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(os.Stdout)
	unsubscribe := svc.detector.Subscribe(func(u realtime.Update) {
		if watchJSON {
			_ = enc.Encode(watchRecord{
				Type:      u.Type,
				ID:        u.Item.ID,
				Title:     u.Item.PlainTitle(),
				Link:      u.Item.Link,
				Timestamp: u.Timestamp,
			})
			return
		}
		fmt.Println(formatUpdate(u))
	})
	defer unsubscribe()

	if watchPrime || cfg.Realtime.Prime {
		if err := svc.detector.Prime(ctx); err != nil {
			logging.Warn("priming change detector", "err", err)
		}
	}
	svc.detector.Start(ctx)
	fmt.Fprintf(os.Stderr, "watching %s every %s\n", cfg.Source.BaseURL, cfg.Realtime.IntervalDuration())

	<-ctx.Done()
	return nil
}

// formatUpdate renders an update as "15:04:05 [breaking] title <link>".
func formatUpdate(u realtime.Update) string {
	label := updateLabel(u.Type)
	return fmt.Sprintf("%s [%s] %s <%s>", u.Timestamp.Local().Format("15:04:05"), label, u.Item.PlainTitle(), u.Item.Link)
}

func updateLabel(t realtime.UpdateType) string {
	switch t {
	case realtime.BreakingNews:
		return "breaking"
	case realtime.UpdatedArticle:
		return "updated"
	default:
		return "new"
	}
}
