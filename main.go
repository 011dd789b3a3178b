package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"

	"KhataPad/internal/config"
	"KhataPad/internal/ink"
	"KhataPad/internal/palm"
	"KhataPad/internal/store"
	"KhataPad/internal/sync"
	"KhataPad/internal/ui"
)

const initialPage = "page-1"

func main() {
	configPath := flag.String("config", "", "path to khatapad.toml (default: search standard locations)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		log.Error("database path", slog.Any("err", err))
		os.Exit(1)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		log.Error("database open failed", slog.String("path", dbPath), slog.Any("err", err))
		os.Exit(1)
	}
	defer db.Close()

	strokes, err := store.NewStrokeStore(db)
	if err != nil {
		log.Error("stroke store init failed", slog.Any("err", err))
		os.Exit(1)
	}

	shell := ui.NewShell(palmConfig(cfg.Palm), log)
	engine := shell.Surface.Engine()
	applyToolDefaults(engine, cfg.Tools, log)

	doc, err := ink.NewDocument(engine, strokes, initialPage, log)
	if err != nil {
		log.Error("document init failed", slog.Any("err", err))
		os.Exit(1)
	}

	if cfg.Sync.Enabled {
		startSync(cfg.Sync, engine, doc, log)
	}

	defer func() {
		if err := doc.Flush(); err != nil {
			log.Warn("final page flush failed", slog.Any("err", err))
		}
	}()

	log.Info("starting", slog.String("db", dbPath), slog.Bool("sync", cfg.Sync.Enabled))
	shell.Run(doc)
}

func palmConfig(p config.Palm) palm.Config {
	return palm.Config{
		SizeThreshold:          p.SizeThreshold,
		TemporalDelay:          p.TemporalDelayDuration(),
		VelocityThreshold:      p.VelocityThreshold,
		EdgeRejectionZone:      p.EdgeRejectionZone,
		EnableTemporalDelay:    p.TemporalDelay,
		EnableVelocityAnalysis: p.VelocityAnalysis,
		EnableEdgeFiltering:    p.EdgeFiltering,
	}
}

func applyToolDefaults(engine *ink.Engine, t config.Tools, log *slog.Logger) {
	tool, err := ink.ParseTool(t.Tool)
	if err != nil {
		log.Warn("unknown startup tool, using pen", slog.String("tool", t.Tool))
		tool = ink.ToolPen
	}
	engine.SetTool(tool)
	engine.SetColor(t.Color)
	engine.SetBaseWidth(t.BaseWidth)
	engine.SetOpacity(t.Opacity)
}

// startSync opens the companion-device link: committed strokes go out,
// remote strokes for the current page come in. The endpoint comes from
// config or, when empty, from one mDNS discovery pass.
func startSync(sc config.Sync, engine *ink.Engine, doc *ink.Document, log *slog.Logger) {
	endpoint := sc.Endpoint
	if endpoint == "" {
		found := make(chan string, 1)
		if err := sync.Browse(func(addr string) {
			select {
			case found <- "ws://" + addr + "/sync":
			default:
			}
		}); err != nil {
			log.Warn("sync discovery failed", slog.Any("err", err))
			return
		}
		select {
		case endpoint = <-found:
		case <-time.After(2 * time.Second):
			log.Info("no sync peer found, drawing offline")
			return
		}
	}

	client := sync.NewClient(endpoint, func(m sync.Message) {
		// Remote frames arrive on the client goroutine; hop to the event
		// loop before touching the engine.
		fyne.Do(func() {
			if m.PageID != doc.PageID() {
				return
			}
			switch m.Type {
			case "stroke_add":
				engine.AddRemote(m.Stroke)
			case "page_clear":
				engine.ClearCanvas()
			}
		})
	}, log)
	client.Start()

	engine.SetCommitHook(func(s *ink.Stroke) {
		doc.CommitStroke(s)
		client.PublishStroke(doc.PageID(), s)
	})
	engine.SetClearHook(func() {
		client.PublishClear(doc.PageID())
	})

	if server, err := sync.Advertise(sc.Port); err != nil {
		log.Warn("mdns advertise failed", slog.Any("err", err))
	} else {
		log.Info("sync advertised", slog.String("addr", sync.OutgoingIP()), slog.Int("port", sc.Port))
		_ = server // shut down with the process
	}
}
