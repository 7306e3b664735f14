package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/lmittmann/tint"
	log "log/slog"

	"elisa/internal/audio"
	"elisa/internal/avatar"
	"elisa/internal/bus"
	"elisa/internal/config"
	"elisa/internal/convo"
	"elisa/internal/dialogue"
	"elisa/internal/ipc"
	"elisa/internal/notify"
	"elisa/internal/proxy"
	"elisa/internal/speech"
	"elisa/internal/transcribe"
	"elisa/internal/tts"
	"elisa/internal/tts/espeak"
	"elisa/internal/turn"
	"elisa/internal/ui"
	"elisa/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	cfgFile := cli.StringP("config", "c", "elisa.yaml", "Config file path")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	headless := cli.Bool("headless", false, "Run without the terminal UI")
	cli.Parse()

	// stdout belongs to the TUI
	log.SetDefault(log.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevelMap[*logLevel],
		TimeFormat: time.TimeOnly,
	})))

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file", "path", *envFile)
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}
	locale := cfg.Locale()

	httpClient, err := proxy.NewHTTPClient(cfg.Proxy, 0)
	if err != nil {
		log.Error("Failed to set up proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()

	player := audio.NewPlayer()
	if err := player.Init(); err != nil {
		log.Error("Failed to init speaker", "err", err)
		os.Exit(1)
	}
	defer player.Close()

	log.Debug("Loaded audio")

	whisper, err := stt.NewEngine(cfg.STT.Model)
	if err != nil {
		log.Error("Failed to init whisper", "err", err)
		os.Exit(1)
	}
	defer whisper.Close()

	log.Debug("Loaded whisper", "model", cfg.STT.Model)

	synth, err := newSynthesizer(cfg, httpClient)
	if err != nil {
		log.Error("Failed to init tts", "engine", cfg.TTS.Engine, "err", err)
		os.Exit(1)
	}

	speaker, err := speech.New(synth, player, cfg.TTS.Dir, cfg.TTS.Timeout)
	if err != nil {
		log.Error("Failed to init speech", "err", err)
		os.Exit(1)
	}
	if cfg.Audio.Duck {
		speaker.WithDucker(audio.NewDucker([]string{"elisa", "ALSA plug-in [elisa]"}, cfg.Audio.DuckFactor, 5, 200*time.Millisecond))
	}

	chat := dialogue.NewChat(dialogue.ChatConfig{
		BaseURL:   cfg.LLM.BaseURL,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		MaxTokens: int64(cfg.LLM.MaxTokens),
	}, httpClient)

	labels := ui.SpanishLabels
	listening := "Escuchando..."
	if locale.UserLabel == dialogue.English.UserLabel {
		labels, listening = ui.EnglishLabels, "Listening..."
	}

	ctrl := turn.New(turn.Deps{
		Recorder: rec,
		Transcriber: transcribe.New(whisper, transcribe.Config{
			Path:        cfg.STT.RecordingPath,
			Language:    cfg.Language,
			Temperature: cfg.STT.Temperature,
			BeamSize:    cfg.STT.BeamSize,
			Denylist:    cfg.STT.Denylist,
			Timeout:     cfg.STT.Timeout,
		}),
		Responder:      dialogue.NewEngine(chat, locale, cfg.LLM.MaxWords, cfg.LLM.Timeout),
		Commands:       dialogue.NewCommands(cfg.Commands, dialogue.ExecLauncher{}),
		Speaker:        speaker,
		Cue:            notify.NewCue(player, cfg.Audio.CueSound, notify.NotifySend, cfg.AssistantName, listening),
		Log:            &convo.Log{},
		Transcript:     convo.NewTranscript(cfg.TranscriptPath, cfg.AssistantName, locale.UserLabel),
		RecordDuration: cfg.Audio.RecordDuration,
	}, dialogue.Session{AssistantName: cfg.AssistantName})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	if cfg.BusURL != "" {
		pub := bus.NewPublisher(cfg.AssistantName, cfg.BusURL, 2*time.Second)
		ctrl.Observe(bus.View{P: pub})
		g.Go(func() error {
			pub.Run(ctx)
			return nil
		})
	}

	var screen *ui.TUI
	if !*headless {
		avatars := avatar.LoadSet(cfg.Avatar.Idle, cfg.Avatar.Active)
		screen = ui.New(ui.NewModel(ctrl, avatars, cfg.AssistantName, labels))
		ctrl.Observe(screen)
	}

	srv, err := ipc.Listen(cfg.Socket)
	if err != nil {
		log.Error("Failed ipc server", "socket", cfg.Socket, "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful", "headless", *headless, "socket", srv.Path())

	g.Go(func() error {
		ctrl.Run(ctx)
		stop()
		return nil
	})
	g.Go(func() error {
		return srv.Serve(ctx, ipc.Dispatch(ctrl))
	})
	if screen != nil {
		g.Go(func() error {
			defer ctrl.Close()
			return screen.Run(ctx)
		})
	}

	ctrl.Greet()

	if err := g.Wait(); err != nil {
		log.Error("Stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("Bye")
}

func newSynthesizer(cfg *config.Config, httpClient *http.Client) (tts.Synthesizer, error) {
	if cfg.TTS.Engine == "espeak" {
		s, err := espeak.New(cfg.Language, cfg.TTS.Slow)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return tts.NewGoogle(httpClient, cfg.Language, cfg.TTS.Slow), nil
}
