// edgerun main entry point.
//
// Usage:
//
//	edgerun turn --in speech.wav              # run one demo voice turn
//	edgerun turn --config edgerun.yaml --in speech.wav --out reply.wav
//	edgerun models --config edgerun.yaml      # list registered models
//	edgerun version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/edgerun-ai/edgerun"
	"github.com/edgerun-ai/edgerun/config"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "turn":
		runTurn(os.Args[2:])
	case "models":
		runModels(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func runTurn(args []string) {
	fs := flag.NewFlagSet("turn", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	inPath := fs.String("in", "", "Input WAV file (16-bit mono PCM)")
	outPath := fs.String("out", "reply.wav", "Output WAV file for the synthesized reply")
	timeout := fs.Duration("timeout", 30*time.Second, "Turn deadline")
	fs.Parse(args)

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "turn requires --in <file.wav>")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	useDemoBackends(cfg)

	rt, err := edgerun.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize runtime: %v\n", err)
		os.Exit(1)
	}
	logger := rt.Logger()
	defer logger.Sync()

	logger.Info("starting edgerun",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	registerDemoProviders(rt.Backends())

	agent, err := rt.NewVoiceAgent()
	if err != nil {
		logger.Fatal("failed to create voice agent", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := agent.Initialize(ctx); err != nil {
		logger.Fatal("failed to initialize voice agent", zap.Error(err))
	}
	defer agent.Cleanup()

	pcm, sampleRate, err := readWAV(*inPath)
	if err != nil {
		logger.Fatal("failed to read input audio", zap.String("path", *inPath), zap.Error(err))
	}
	logger.Info("read input audio",
		zap.String("path", *inPath),
		zap.Int("bytes", len(pcm)),
		zap.Int("sample_rate", sampleRate),
	)

	result, err := agent.ProcessVoiceTurn(ctx, pcm)
	if err != nil {
		logger.Fatal("voice turn failed", zap.Error(err))
	}

	fmt.Printf("Transcription: %s\n", result.Transcription)
	fmt.Printf("Response:      %s\n", result.Response)
	fmt.Printf("Duration:      %s\n", result.Duration.Round(time.Millisecond))

	if err := os.WriteFile(*outPath, result.Audio, 0o644); err != nil {
		logger.Fatal("failed to write reply audio", zap.String("path", *outPath), zap.Error(err))
	}
	fmt.Printf("Reply audio:   %s (%d bytes)\n", *outPath, len(result.Audio))

	if err := rt.Shutdown(context.Background()); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func runModels(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)
	rt, err := edgerun.New(cfg, edgerun.WithLogger(zap.NewNop()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize runtime: %v\n", err)
		os.Exit(1)
	}

	listed := rt.Models().List("")
	if len(listed) == 0 {
		fmt.Println("No models registered.")
		return
	}
	for _, info := range listed {
		fmt.Printf("%-20s %-4s %-12s %s\n", info.ID, info.Capability, info.Framework, info.Path)
	}
}

func printVersion() {
	fmt.Printf("edgerun %s\n", Version)
	fmt.Printf("  build time: %s\n", BuildTime)
	fmt.Printf("  git commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`edgerun - on-device multi-modal AI runtime

Usage:
  edgerun turn --in <file.wav> [--config <file>] [--out <file.wav>]
  edgerun models [--config <file>]
  edgerun version
  edgerun help`)
}
