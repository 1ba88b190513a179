// ABOUTME: Entry point for the Robot player
// ABOUTME: Parses CLI flags and plays a Robot file with audio-driven frame pacing
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scummtools/robot-go/internal/app"
	"github.com/scummtools/robot-go/internal/cache"
	"github.com/scummtools/robot-go/internal/config"
	"github.com/scummtools/robot-go/internal/storage"
	"github.com/scummtools/robot-go/internal/version"
	"github.com/scummtools/robot-go/pkg/audio/reconstruct"
)

var (
	configPath    = flag.String("config", config.DefaultPath(), "YAML config file")
	stride        = flag.Int("stride", 0, "Interpolation stride, 2 or 4 (default from config)")
	volume        = flag.Int("volume", -1, "Initial volume 0-100 (default from config)")
	bufferMs      = flag.Int("buffer-ms", 0, "Audio per output write in milliseconds (default from config)")
	checkInterval = flag.Float64("check-interval", 0, "Sync check interval in seconds (default from config)")
	cacheDir      = flag.String("cache-dir", "", "Decode cache directory (enables the cache)")
	noCache       = flag.Bool("no-cache", false, "Disable the decode cache")
	resourceDir   = flag.String("resource-dir", "", "Directory holding <id>.rbt resources")
	logFile       = flag.String("log-file", "robot-player.log", "Log file path")
	noTUI         = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <file.rbt | s3://bucket/key | resource-id>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	cfg, err := config.Load(*configPath, false)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	playerCfg, closeCache, err := buildConfig(cfg, flag.Arg(0), useTUI)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer closeCache()

	log.Printf("Starting %s: %s (stride %s)", version.String(), playerCfg.Input, playerCfg.Stride)

	p := app.New(playerCfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Printf("Shutdown signal received")
			p.Stop()
		case <-p.Done():
		}
	}()

	if err := p.Start(); err != nil {
		log.Printf("Playback failed: %v", err)
		p.Stop()
		closeCache()
		os.Exit(1)
	}
	p.Stop()
	log.Printf("Player stopped")
}

// buildConfig merges flags over the config file
func buildConfig(cfg *config.Config, input string, useTUI bool) (app.Config, func(), error) {
	if *stride != 0 {
		cfg.Playback.Stride = *stride
	}
	if *volume >= 0 {
		cfg.Playback.Volume = *volume
	}
	if *bufferMs > 0 {
		cfg.Playback.BufferMs = *bufferMs
	}
	if *checkInterval > 0 {
		cfg.Sync.CheckInterval = *checkInterval
	}
	if *cacheDir != "" {
		cfg.Cache.Enabled = true
		cfg.Cache.Dir = *cacheDir
	}
	if *noCache {
		cfg.Cache.Enabled = false
	}
	if *resourceDir != "" {
		cfg.Storage.Dir = *resourceDir
		cfg.Storage.Bucket = ""
	}
	if err := cfg.Validate(); err != nil {
		return app.Config{}, nil, fmt.Errorf("invalid settings: %w", err)
	}

	s, _ := reconstruct.ParseStride(cfg.Playback.Stride)
	pc := app.Config{
		Input:         input,
		Stride:        s,
		CheckInterval: cfg.Sync.CheckInterval,
		Volume:        cfg.Playback.Volume,
		BufferMs:      cfg.Playback.BufferMs,
		UseTUI:        useTUI,
		S3:            cfg.S3(),
	}

	store, ok, err := cfg.Store()
	if err != nil {
		return app.Config{}, nil, fmt.Errorf("failed to open resource store: %w", err)
	}
	if ok {
		pc.Source = storage.NewResourceSource(store, "")
	}

	closeCache := func() {}
	if cfg.Cache.Enabled {
		c, err := cache.Open(cache.Options{Dir: cfg.Cache.Dir})
		if err != nil {
			log.Printf("Cache disabled: %v", err)
		} else {
			pc.Cache = c
			closeCache = func() { _ = c.Close() }
		}
	}
	return pc, closeCache, nil
}
