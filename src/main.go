package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/kkdai/youtube/v2"
	log "github.com/sirupsen/logrus"

	"cosette/src/handler/web"
	"cosette/src/inspect"
	"cosette/src/search"
	"cosette/src/storage"
)

var (
	build       = "%BUILD%"
	version     = "%VERSION%"
	versionDate = "%VERSION_DATE%"
)

func main() {
	defaultLogLevel := "warn"
	if build == "debug" {
		defaultLogLevel = "debug"
	}

	configFile := flag.String("conf", confFile, "Path to the configuration file")
	printVersion := flag.Bool("version", false, "Print version information and exit")
	logLevel := flag.String("log", defaultLogLevel, "Sets the log level. [debug, info, warn, error]")
	flag.Parse()

	if ll, err := log.ParseLevel(*logLevel); err != nil {
		log.Fatalf("Could not parse log level: %v", err)
	} else {
		log.SetLevel(ll)
	}
	log.SetReportCaller(true)

	if *printVersion {
		fmt.Printf("Version: %v (%v)\n", version, versionDate)
		fmt.Printf("Build: %v\n", build)
		return
	}

	log.Infof("Version: %v (%v)\n", version, build)
	config, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	if errs := config.Validate(); len(errs) > 0 {
		log.Fatalf("Could not load config: %v", errs)
	}

	ctx := context.Background()
	store, err := openStore(ctx, config)
	if err != nil {
		log.Fatalf("Unable to open storage: %v", err)
	}
	defer store.Close()
	if err := store.AddTags(ctx, config.Tags...); err != nil {
		log.Fatalf("Unable to store tags: %v", err)
	}

	videos, err := search.NewYouTube(ctx, config.YouTubeAPIKey)
	if err != nil {
		log.Fatal(err)
	}
	searcher := search.NewSearcher(store, search.NewLastFM(config.LastFMAPIKey), videos)

	inspector := inspect.New(&youtube.Client{}, store, config.InspectQueue)
	go inspector.Run(ctx)

	service := web.New(build, version, config.URLRoot, store, searcher, inspector)

	if build == "debug" {
		service.Get("/debug/pprof/*", pprof.Index)
	}
	log.Infof("Now accepting HTTP connections on %v", config.Address)
	server := &http.Server{
		Addr:              config.Address,
		Handler:           service,
		ReadHeaderTimeout: 10 * time.Second,
		// Track streams stay open for as long as a search takes.
		WriteTimeout:   0,
		IdleTimeout:    2 * time.Minute,
		MaxHeaderBytes: 1 << 20,
	}
	log.Fatalf("Error running webserver: %v", server.ListenAndServe())
}

func openStore(ctx context.Context, config *config) (storage.Store, error) {
	if config.Redis.Host == "" {
		log.Warn("No Redis host configured, nothing will be remembered across restarts")
		return storage.NewMemoryStore(), nil
	}
	addr := config.Redis.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "6379")
	}
	log.Infof("Using Redis at %s, database %d", addr, config.Redis.DB)
	store, err := storage.NewRedisStore(ctx, addr, config.Redis.DB)
	if err != nil {
		return nil, err
	}
	return store, nil
}
