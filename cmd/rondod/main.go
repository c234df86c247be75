// Command rondod is the device runtime: it connects to the gateway, renders
// the pushed UI, and streams interactions, telemetry, and audio back.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rondoware/rondo"
	"github.com/rondoware/rondo/audio"
	"github.com/rondoware/rondo/config"
	"github.com/rondoware/rondo/logger"
	"github.com/rondoware/rondo/telemetry"
	"github.com/rondoware/rondo/transport"
)

var version = "dev"

// connectingLayout is shown until the gateway pushes the first real screen.
const connectingLayout = `{
	"type": "container",
	"flex": "column",
	"justify": "center",
	"align_items": "center",
	"gap": 12,
	"children": [
		{"type": "particle", "w": 160, "h": 160, "count": 20, "color": "#4a90d9"},
		{"type": "label", "id": "status", "text": "Connecting...",
		 "text_color": "#aaaaaa", "anim": {"type": "breathe", "duration": 1500}}
	]
}`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var serverURL string

	rootCmd := &cobra.Command{
		Use:           "rondod",
		Short:         "rondod - server-driven UI runtime for round displays",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if serverURL != "" {
				cfg.Server.URL = serverURL
			}
			if err := logger.Init(cfg.Log); err != nil {
				return err
			}
			defer func() { _ = logger.Close() }()
			return run(cfg)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.Flags().StringVarP(&serverURL, "server", "s", "", "gateway websocket URL (overrides config)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("rondod", version)
		},
	})
	return rootCmd
}

func run(cfg *config.Config) error {
	log := logger.Get()

	bus := rondo.NewBus(*log)
	rt := rondo.NewRuntime(bus, rondo.Config{
		ScreenW:     cfg.Display.Width,
		ScreenH:     cfg.Display.Height,
		SafePadding: cfg.Display.SafePadding,
		IdleTimeout: cfg.Display.IdleTimeout(),
		Logger:      *log,
	})

	recorder := audio.NewRecorder(&audio.SilentSource{}, bus, cfg.Audio.SampleRate, *log)
	player := audio.NewPlayer(audio.DiscardSink{}, *log)
	if err := bus.Subscribe(audio.TopicRecord, recorder.HandleRecord); err != nil {
		return err
	}
	if err := bus.Subscribe(audio.TopicRecordStart, recorder.HandleRecordStart); err != nil {
		return err
	}
	if err := bus.Subscribe(audio.TopicRecordStop, recorder.HandleRecordStop); err != nil {
		return err
	}
	if err := bus.Subscribe(audio.TopicPlay, player.HandlePlay); err != nil {
		return err
	}
	rt.SetParticleGate(recorder.Recording)

	reporter := telemetry.NewReporter(bus, cfg.Telemetry.Interval(), *log)
	log.Info().Str("device_id", reporter.DeviceID()).Str("server", cfg.Server.URL).Msg("starting")

	client := transport.New(transport.Options{
		URL:               cfg.Server.URL,
		ReconnectInterval: cfg.Server.ReconnectInterval(),
		Logger:            *log,
		OnMessage:         bus.RouteDown,
		OnDisconnect: func() {
			rt.RenderLayout(connectingLayout)
		},
	})
	bus.AttachTransport(client)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Run(ctx)
	go reporter.Run(ctx)

	rt.RenderLayout(connectingLayout)

	return rondo.Run(rt, "rondod")
}
