package main

import (
	"context"
	"flag"
	"os"

	"FrameStudio/internal/config"
	"FrameStudio/internal/export"
	"FrameStudio/internal/logging"
	"FrameStudio/internal/net"
	"FrameStudio/internal/state"
	"FrameStudio/internal/studio"
	"FrameStudio/internal/ui"

	"github.com/rs/zerolog"
)

func main() {
	configDir := flag.String("config", ".", "directory holding "+config.FileName)
	flag.Parse()

	if err := config.Load(*configDir); err != nil {
		bootLog := logging.Setup("info", os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	settings, err := config.Get()
	if err != nil {
		bootLog := logging.Setup("info", os.Stderr)
		bootLog.Fatal().Err(err).Msg("decode config")
	}
	log := logging.Setup(settings.LogLevel, os.Stderr)

	tool := state.DefaultTool()
	tool.Width = settings.Tool.Width
	if c, err := state.ParseHexColor(settings.Tool.Color); err == nil {
		tool.Color = c
	} else {
		log.Warn().Err(err).Str("color", settings.Tool.Color).Msg("ignoring tool.color")
	}

	s := studio.New(studio.Options{
		Width:        settings.Canvas.Width,
		Height:       settings.Canvas.Height,
		FPS:          settings.Playback.FPS,
		Tool:         tool,
		OnionOpacity: settings.Onion.Opacity,
		Log:          log.With().Str("component", "studio").Logger(),
	})
	defer s.Close()

	opts := ui.Options{
		Width:  settings.Canvas.Width,
		Height: settings.Canvas.Height,
		Export: export.Options{
			FileName:         settings.Export.FileName,
			CompressionLevel: settings.Export.CompressionLevel,
			Order:            export.ParseOrder(settings.Export.Order),
		},
		Sheet: export.SheetOptions{Order: export.ParseOrder(settings.Export.Order)},
		Log:   log.With().Str("component", "ui").Logger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if settings.Presence.Enabled {
		startPresence(ctx, settings.Presence, s.SessionID(), log, &opts)
	}

	ui.RunApp(s, opts)
}

// startPresence runs the viewer-count hub and, if asked, advertises it on
// the LAN.
func startPresence(ctx context.Context, cfg config.PresenceConfig, sessionID string, log zerolog.Logger, opts *ui.Options) {
	hubLog := log.With().Str("component", "presence").Logger()
	hub := net.NewHub(hubLog)
	go func() {
		if err := hub.ListenAndServe(ctx, cfg.Port); err != nil {
			hubLog.Error().Err(err).Msg("presence hub stopped")
		}
	}()

	ip := net.GetOutgoingIP()
	opts.HubURL = net.HubURL("127.0.0.1", cfg.Port)
	opts.ShareAddr = net.HubURL(ip, cfg.Port)

	if !cfg.Advertise {
		return
	}
	srv, err := net.Advertise(cfg.Port, sessionID)
	if err != nil {
		hubLog.Warn().Err(err).Msg("mDNS advertise failed")
		return
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown()
	}()
	hubLog.Info().Str("service", net.ServiceType).Str("share", opts.ShareAddr).Msg("advertising on LAN")

	share := opts.ShareAddr
	go func() {
		err := net.Browse(ctx, func(url string) {
			if url != share {
				hubLog.Info().Str("hub", url).Msg("found another studio")
			}
		})
		if err != nil {
			hubLog.Debug().Err(err).Msg("mDNS browse")
		}
	}()
}
