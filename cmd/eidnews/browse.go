package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AlexLem84/east-idaho-news-app/internal/fetch"
	"github.com/AlexLem84/east-idaho-news-app/internal/images"
	"github.com/AlexLem84/east-idaho-news-app/internal/model"
	"github.com/AlexLem84/east-idaho-news-app/internal/realtime"
	"github.com/AlexLem84/east-idaho-news-app/internal/ui"
)

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := newServices(cfg, true)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	resolver := images.Resolver{PreferSmall: cfg.Images.PreferSmall}
	load := func(f fetch.Filter) tea.Cmd {
		return func() tea.Msg { return svc.page(ctx, f) }
	}

	app := ui.NewApp(ui.AppConfig{
		LoadPage: load,
		Refresh: func(f fetch.Filter) tea.Cmd {
			svc.cache.Invalidate(f)
			return load(f)
		},
		ClearCache: func() tea.Cmd {
			return func() tea.Msg {
				svc.cache.Clear()
				return ui.CacheCleared{}
			}
		},
		Images: func(item model.ContentItem) []string {
			return resolver.Resolve(item, cfg.Images.TargetWidth)
		},
		Tracker:    svc.tracker,
		Categories: cfg.Categories.Browse,
		PerPage:    cfg.Source.PerPage,
		Ring:       svc.ring,
		Logger:     svc.events,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())

	if cfg.Realtime.Enabled {
		unsubscribe := svc.detector.Subscribe(func(u realtime.Update) {
			p.Send(ui.UpdateReceived{Update: u})
		})
		defer unsubscribe()

		started := startRealtime(ctx, svc.detector, cfg.Realtime.Prime)
		// Join before Close so the detector is never started after Stop.
		defer func() {
			cancel()
			<-started
		}()
	}

	go svc.tracker.SessionStart()

	_, err = p.Run()
	return err
}
