package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentlens/agentlens/internal/config"
	"github.com/agentlens/agentlens/internal/layout"
	"github.com/agentlens/agentlens/internal/spancache"
	"github.com/agentlens/agentlens/internal/watch"
)

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	cachePath := fs.String("cache", "", "span cache path (default from config)")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fatalf("loading config: %v", err)
	}
	if *cachePath != "" {
		cfg.CachePath = *cachePath
	}

	cache, err := spancache.Open(cfg.CachePath)
	if err != nil {
		fatalf("opening cache: %v", err)
	}
	defer cache.Close()

	engine := watch.NewEngine(
		cache, layout.OpenCodeResolver{}, cfg.MaxMatches,
	)

	watcher, err := watch.NewWatcher(cfg.WatchDebounce,
		func(paths []string) {
			n, err := engine.Rescan(paths)
			if err != nil {
				log.Printf("rescan stopped: %v", err)
				return
			}
			if n > 0 {
				log.Printf("refreshed %d file(s)", n)
			}
		})
	if err != nil {
		fatalf("creating watcher: %v", err)
	}

	total := 0
	for _, dir := range cfg.WatchDirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		n, err := watcher.WatchRecursive(dir)
		if err != nil {
			log.Printf("watching %s: %v", dir, err)
		}
		total += n
	}
	if total == 0 {
		fatalf("no watchable session directories found")
	}
	log.Printf("watching %d directories", total)

	watcher.Start()
	defer watcher.Stop()
	defer engine.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Printf("shutting down")
}
