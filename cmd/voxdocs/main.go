package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/voxdocs/voxdocs/internal/config"
	"github.com/voxdocs/voxdocs/internal/correct"
	"github.com/voxdocs/voxdocs/internal/httpc"
	"github.com/voxdocs/voxdocs/internal/log"
	"github.com/voxdocs/voxdocs/internal/pipeline"
	"github.com/voxdocs/voxdocs/internal/speakable"
	"github.com/voxdocs/voxdocs/pkg/docs"
	"github.com/voxdocs/voxdocs/pkg/llm"
	"github.com/voxdocs/voxdocs/pkg/stt"
	"github.com/voxdocs/voxdocs/pkg/tts"
	"github.com/voxdocs/voxdocs/pkg/web"
)

func main() {
	port := flag.String("port", "", "HTTP listen port (overrides PORT env)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	envFile := flag.String("env-file", ".env", "env file to load before reading the environment")
	flag.Parse()

	// Missing env file is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load(*envFile)

	cfg := config.DefaultConfig()
	cfg.LoadEnv()
	cfg.LogLevel = *logLevel
	if *port != "" {
		cfg.Port = *port
	}

	log.Init(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	llmOpts := []llm.Option{
		llm.WithAPIKey(cfg.OpenAIKey),
		llm.WithModel(cfg.CompletionModel),
		llm.WithTimeout(config.CompletionTimeout),
		llm.WithHTTPClient(httpc.NewClient(config.CompletionTimeout)),
		llm.WithLogger(log.L()),
	}
	if cfg.OpenAIBaseURL != "" {
		llmOpts = append(llmOpts, llm.WithBaseURL(cfg.OpenAIBaseURL))
	}
	provider, err := llm.NewClient(llmOpts...)
	if err != nil {
		log.Error("completion client init failed", "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	corrector := correct.New(provider,
		correct.WithTimeout(config.CorrectionTimeout),
		correct.WithLogger(log.L()),
	)

	// Zero overall timeout: the MCP transport holds a long-lived stream,
	// and the per-call deadlines come from the resolve and fetch timeouts.
	docsClient := docs.NewClient(
		docs.WithEndpoint(cfg.DocsServiceURL),
		docs.WithResolveTimeout(config.ResolveTimeout),
		docs.WithFetchTimeout(config.FetchTimeout),
		docs.WithHTTPClient(httpc.NewClient(0)),
		docs.WithLogger(log.L()),
	)
	defer docsClient.Close()

	pipe := pipeline.New(corrector, docsClient, provider, pipeline.WithLogger(log.L()))
	rewriter := speakable.NewRewriter(provider, speakable.WithRewriteLogger(log.L()))

	serverOpts := []web.Option{
		web.WithPort(cfg.Port),
		web.WithModel(cfg.CompletionModel),
		web.WithCleaner(rewriter),
		web.WithLogger(log.L()),
	}

	if cfg.WebSpeechOnly() {
		log.Info("no TTS key configured, callers will use on-device speech")
	} else {
		speech, err := tts.NewElevenLabs(
			tts.WithAPIKey(cfg.ElevenLabsKey),
			tts.WithVoice(cfg.Voice),
			tts.WithAltVoice(cfg.AltVoice),
			tts.WithSpeed(cfg.SpeechSpeed),
			tts.WithHTTPClient(httpc.NewClient(config.SynthesisTimeout)),
			tts.WithLogger(log.L()),
		)
		if err != nil {
			log.Error("TTS init failed", "error", err)
			os.Exit(1)
		}
		defer speech.Close()
		serverOpts = append(serverOpts, web.WithTTS(speech))
	}

	if cfg.RelayEnabled() {
		transcriber, err := stt.NewClient(
			stt.WithAPIKey(cfg.AssemblyAIKey),
			stt.WithLogger(log.L()),
		)
		if err != nil {
			log.Error("transcription client init failed", "error", err)
			os.Exit(1)
		}
		serverOpts = append(serverOpts, web.WithSTT(transcriber))
	} else {
		log.Info("no transcription key configured, voice relay disabled")
	}

	server := web.NewServer(pipe, docsClient, serverOpts...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("starting voxdocs",
		"port", cfg.Port,
		"model", cfg.CompletionModel,
		"webSpeechOnly", cfg.WebSpeechOnly(),
		"relay", cfg.RelayEnabled(),
	)
	if err := server.Start(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
