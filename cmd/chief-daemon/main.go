package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"chief/internal/audio"
	"chief/internal/brain"
	"chief/internal/feed"
	"chief/internal/ipc"
	"chief/internal/orchestrator"
	"chief/internal/proxy"
	"chief/internal/refdata"
	"chief/internal/speech"
	"chief/internal/state"
	"chief/internal/telemetry"
	"chief/internal/trigger"
	"chief/internal/tts"
	"chief/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "chief_config.json", "Settings file path")
	telemetryURL := cli.StringP("telemetry-url", "t", "http://127.0.0.1:8111/state", "Simulator telemetry endpoint")
	referenceDir := cli.StringP("reference-dir", "r", "reference_data", "Aircraft reference data directory")
	feedAddr := cli.StringP("feed", "f", "", "Telemetry feed listen address, e.g. :8090 (disabled when empty)")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address for network backends (direct when empty)")
	socketPath := cli.StringP("socket", "s", ipc.DefaultSocketPath, "Control socket path")
	whisperModel := cli.StringP("whisper-model", "w", "third_party/whisper.cpp/models/ggml-base.en.bin", "Whisper model path")
	chimePath := cli.String("chime", "assets/chime.mp3", "Listening chime sound")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	store := state.New(*configPath)

	var httpClient *http.Client
	if *proxyAddr != "" {
		var err error
		httpClient, err = proxy.NewSocksClient(*proxyAddr, 0)
		if err != nil {
			log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
			os.Exit(1)
		}
		log.Debug("Loaded proxy")
	}

	if err := audio.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer audio.Terminate()

	rec := audio.NewRecorder(audio.DefaultRecorderConfig())
	log.Debug("Loaded recorder")

	ducker := audio.NewDucker([]string{"chief", "chief-daemon"}, 30)
	player := audio.NewPlayer(ducker)

	chime := audio.NewChime(*chimePath)
	chimeFn := func() {
		if err := chime.Play(); err != nil {
			log.Debug("Chime failed", "err", err)
		}
	}

	registry := refdata.NewRegistry(*referenceDir)
	composer := brain.NewComposer(store, registry)

	transcriber := buildTranscriber(store, httpClient, *whisperModel)
	synthesizer := buildSynthesizer(store, httpClient)
	completer := buildCompleter(httpClient)

	orch := orchestrator.New(orchestrator.Config{
		State:       store,
		Composer:    composer,
		Capturer:    rec,
		Transcriber: transcriber,
		Synthesizer: synthesizer,
		Player:      player,
		Completer:   completer,
		Chime:       chimeFn,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pollCfg := telemetry.DefaultConfig()
	pollCfg.Endpoint = *telemetryURL
	publish := []func(telemetry.Snapshot){store.SetSnapshot}

	if *feedAddr != "" {
		srv := feed.NewServer()
		publish = append(publish, srv.Broadcast)
		mux := http.NewServeMux()
		mux.Handle("/ws", srv.Handler())
		go func() {
			log.Info("Telemetry feed listening", "addr", *feedAddr)
			if err := http.ListenAndServe(*feedAddr, mux); err != nil {
				log.Error("Feed server stopped", "err", err)
			}
		}()
	}

	poller := telemetry.NewPoller(pollCfg, publish...)
	go poller.Run(ctx)
	log.Debug("Loaded telemetry poller")

	if err := ipc.StartServer(*socketPath, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "trigger":
			go orch.HandleTrigger()
		case "mode":
			mode, err := store.ToggleModeFromCommand(msg.Arg)
			if err != nil {
				log.Error("Failed to switch mode", "err", err)
				return
			}
			log.Info("Mode switched", "mode", mode)
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	hotkeys := trigger.NewHotkeyListener(store.Hotkey, orch.HandleTrigger)
	go func() {
		if err := hotkeys.Run(ctx); err != nil {
			log.Warn("Hotkey listener unavailable", "err", err)
		}
	}()

	if transcriber != nil {
		wake := trigger.NewWakeWordListener(trigger.DefaultWakeWordConfig(),
			store.WakeWord, rec, transcriber, orch.HandleTrigger)
		go wake.Run(ctx)
	} else {
		log.Warn("No STT backend, wake word listener disabled")
	}

	log.Info("Boot up - successful")
	select {}
}

func buildTranscriber(store *state.Store, httpClient *http.Client, modelPath string) orchestrator.Transcriber {
	switch store.STTBackend() {
	case "whisper":
		tr, err := stt.NewTranscriber(modelPath, stt.Options{Language: "en"})
		if err != nil {
			log.Warn("Whisper unavailable, speech-to-text disabled", "model", modelPath, "err", err)
			return nil
		}
		log.Debug("Loaded whisper", "model", modelPath)
		return tr
	case "elevenlabs":
		client, err := speech.NewSTTClient(speech.STTConfig{
			APIKey: os.Getenv("ELEVENLABS_API_KEY"),
			Client: httpClient,
		})
		if err != nil {
			log.Warn("ElevenLabs STT not configured", "err", err)
			return nil
		}
		log.Debug("Loaded ElevenLabs STT")
		return client
	default:
		log.Warn("Unknown STT backend", "backend", store.STTBackend())
		return nil
	}
}

func buildSynthesizer(store *state.Store, httpClient *http.Client) orchestrator.Synthesizer {
	switch store.TTSBackend() {
	case "elevenlabs":
		client, err := speech.NewTTSClient(speech.TTSConfig{
			APIKey:  os.Getenv("ELEVENLABS_API_KEY"),
			VoiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
			Client:  httpClient,
		})
		if err != nil {
			log.Warn("ElevenLabs TTS not configured", "err", err)
			return nil
		}
		log.Debug("Loaded ElevenLabs TTS")
		return client
	case "espeak":
		log.Debug("Loaded espeak TTS")
		return tts.Espeak{}
	default:
		log.Warn("Unknown TTS backend", "backend", store.TTSBackend())
		return nil
	}
}

func buildCompleter(httpClient *http.Client) orchestrator.Completer {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Warn("OPENAI_API_KEY not set, free-form questions disabled")
		return nil
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	client := openai.NewClient(opts...)

	log.Debug("Loaded API client")
	return brain.NewOpenAIClient(client, "")
}
