// sapd serves a periodically-refreshed record cache as a SAP provider.
// Records come from HTTP endpoints or JSON files named in a YAML config.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	logging "github.com/ipfs/go-log/v2"

	"github.com/sashell/go-libsap/provider"
	"github.com/sashell/go-libsap/rcache"
	"github.com/sashell/go-libsap/registry"
)

var log = logging.Logger("sapd")

func main() {
	cfgPath := flag.String("config", "sapd.yaml", "path to the provider config file")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %s", err)
	}

	runner, err := buildRunner(cfg)
	if err != nil {
		log.Fatalf("runner: %s", err)
	}

	srv, err := buildServer(cfg, runner)
	if err != nil {
		log.Fatalf("server: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = srv.Start(); err != nil {
		log.Fatalf("start: %s", err)
	}
	log.Infof("SAP provider %q running at %s", cfg.Name, srv.URL())

	<-ctx.Done()
	log.Info("Shutting down")
	if err = srv.Close(); err != nil {
		log.Errorw("Shutdown finished with errors", "err", err)
		os.Exit(1)
	}
}

func buildRunner(cfg *Config) (*rcache.Runner, error) {
	var sources []rcache.Source
	for _, sc := range cfg.Sources {
		if sc.URL != "" {
			src, err := rcache.NewHTTPSource(sc.URL, nil)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
			continue
		}
		sources = append(sources, rcache.NewFileSource(sc.File))
	}

	opts := []rcache.Option{rcache.WithSource(sources...)}
	if cfg.IntervalSeconds != nil {
		opts = append(opts, rcache.WithInterval(seconds(*cfg.IntervalSeconds)))
	}
	if cfg.FetchTimeoutSeconds != nil {
		opts = append(opts, rcache.WithFetchTimeout(seconds(*cfg.FetchTimeoutSeconds)))
	}
	if cfg.RunImmediately != nil {
		opts = append(opts, rcache.WithRunImmediately(*cfg.RunImmediately))
	}
	return rcache.New(opts...)
}

func buildServer(cfg *Config, runner *rcache.Runner) (*provider.Server, error) {
	opts := []provider.Option{
		provider.WithListenAddr(cfg.Listen),
		provider.WithAutoPort(cfg.AutoPort),
		provider.WithRefreshToken(cfg.RefreshToken),
	}
	if cfg.Register {
		sink, err := registry.NewFileSink(cfg.RegistryPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, provider.WithRegistry(sink))
	}
	if cfg.RequireInitialFetch {
		opts = append(opts, provider.WithRequireInitialFetch(seconds(cfg.InitialFetchTimeoutSeconds)))
	}

	info := provider.Info{
		Name:        cfg.Name,
		Description: cfg.Description,
		Version:     cfg.Version,
	}
	return provider.New(info, runner, opts...)
}
