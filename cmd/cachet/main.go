package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"github.com/cachet-go/cachet"
	"github.com/cachet-go/cachet/provider"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	configFilenameFlag string
	portFlag           int
	originFlag         string
	providerFlag       string
	defaultTTLFlag     int
	verbosityTraceFlag bool
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&originFlag, "origin", "", "Origin to proxy to (overrides config)")
	flag.StringVar(&providerFlag, "provider", "", "Caching provider to use: memory, sqlite or redis (overrides config)")
	flag.IntVar(&defaultTTLFlag, "ttl", 0, "Default TTL in seconds (overrides config)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
}

func main() {
	flag.Parse()

	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}
	log.Logger = log.Level(logLevel).Output(zerolog.ConsoleWriter{Out: os.Stdout})

	var config cachet.FileConfig
	if configFilenameFlag != "" {
		var err error
		config, err = cachet.LoadFile(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not load config")
		}
	}

	if originFlag != "" {
		config.Origin = originFlag
	}
	if providerFlag != "" {
		config.Provider = providerFlag
	}
	if defaultTTLFlag > 0 {
		config.DefaultTTL = defaultTTLFlag
	}
	if config.Listen == "" {
		config.Listen = fmt.Sprintf(":%d", portFlag)
	}
	if config.Origin == "" {
		log.Fatal().Msg("Please specify origin")
	}

	originURL, err := url.Parse(config.Origin)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid origin URL")
	}

	cacheProvider := newProvider(config, originURL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := cacheProvider.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("Could not connect to cache backend")
	}
	defer cacheProvider.Close()

	rules, err := config.RuleSet()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid caching rules")
	}

	cache := cachet.New(cachet.Config{
		Provider:     cacheProvider,
		Rules:        rules,
		DefaultTTL:   time.Duration(config.DefaultTTL) * time.Second,
		KeyWithQuery: config.WithQuery,
	})

	proxy := httputil.NewSingleHostReverseProxy(originURL)

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(g chi.Router) {
		g.Use(cache.Middleware)
		g.Handle("/*", proxy)
	})

	log.Info().
		Str("listen", config.Listen).
		Str("origin", originURL.String()).
		Msg("Starting cachet")
	if err := http.ListenAndServe(config.Listen, r); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}

func newProvider(config cachet.FileConfig, origin *url.URL) provider.CacheProvider {
	namespace := origin.Host
	switch config.Provider {
	case "", "memory":
		return provider.NewMemCache()
	case "sqlite":
		p, err := provider.NewSQLiteCache(config.SQLiteFile, namespace)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not open sqlite cache")
		}
		return p
	case "redis":
		return provider.NewRedisCache(config.Redis, namespace)
	default:
		log.Fatal().Msgf("Unsupported cache provider: %s", config.Provider)
		return nil
	}
}
