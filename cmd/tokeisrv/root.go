package main

import (
	"context"
	"net"
	"strings"
	"time"

	"tokeisrv/internal/core/version"
	"tokeisrv/internal/platform/config"
	"tokeisrv/internal/platform/logger"
	phttp "tokeisrv/internal/platform/net/http"
	"tokeisrv/internal/platform/net/middleware"
	potel "tokeisrv/internal/platform/otel"

	"tokeisrv/internal/services/api"
	"tokeisrv/internal/services/badges/domain"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	defaultBind = "0.0.0.0"
	defaultPort = "8000"
	envPrefix   = "TOKEI_"
)

// flags holds the raw command line values, only the ones set by the user win over env
type flags struct {
	bind          string
	port          string
	quiet         bool
	userWhitelist []string
	hostWhitelist []string
	cacheSize     int
	cacheTTL      int
}

// settings is the fully resolved process configuration
type settings struct {
	Addr   string
	Badges domain.Config

	Swagger     bool
	Profiler    bool
	CORSOrigins []string
	SlowRequest time.Duration
	Drain       time.Duration
	Otel        potel.Options
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "tokeisrv",
		Short:         "Serve code statistics badges for git repositories",
		Long:          `tokeisrv counts the lines of code in a public repository and serves the totals as SVG badges or JSON.`,
		Version:       version.Info().Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// before resolve so config warnings respect --quiet
			initLogger(f.quiet)
			s := resolve(cmd.Flags(), f, config.New().Prefix(envPrefix))
			return serve(cmd.Context(), s)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.bind, "bind", "b", defaultBind, "address to bind to (env TOKEI_BIND)")
	fl.StringVarP(&f.port, "port", "p", defaultPort, "port to listen on (env TOKEI_PORT)")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "silence all log output")
	fl.StringSliceVar(&f.userWhitelist, "user-whitelist", nil, "owners allowed to be counted, comma separated (env TOKEI_USER_WHITELIST)")
	fl.StringSliceVar(&f.hostWhitelist, "host-whitelist", nil, "hosts allowed to be counted, comma separated (env TOKEI_HOST_WHITELIST)")
	fl.IntVar(&f.cacheSize, "cache-size", domain.DefaultMaxEntries, "maximum number of cached repositories (env TOKEI_CACHE_SIZE)")
	fl.IntVar(&f.cacheTTL, "cache-ttl", int(domain.DefaultTTL/time.Second), "seconds a cached result stays fresh (env TOKEI_CACHE_TTL)")
	return cmd
}

// resolve layers flags the user set over the environment over the defaults
func resolve(fl *pflag.FlagSet, f *flags, c config.Conf) settings {
	bind := c.MayString("BIND", defaultBind)
	if fl.Changed("bind") {
		bind = f.bind
	}
	port := c.MayPort("PORT", defaultPort)
	if fl.Changed("port") {
		port = f.port
	}

	cfg := domain.FromConf(c)
	if fl.Changed("user-whitelist") {
		cfg.UserWhitelist = config.SplitCSV(strings.Join(f.userWhitelist, ","))
	}
	if fl.Changed("host-whitelist") {
		cfg.HostWhitelist = config.SplitCSV(strings.Join(f.hostWhitelist, ","))
	}
	if fl.Changed("cache-size") && f.cacheSize > 0 {
		cfg.MaxEntries = f.cacheSize
	}
	if fl.Changed("cache-ttl") && f.cacheTTL > 0 {
		cfg.TTL = time.Duration(f.cacheTTL) * time.Second
	}

	return settings{
		Addr:        net.JoinHostPort(bind, port),
		Badges:      cfg,
		Swagger:     c.MayBool("SWAGGER", true),
		Profiler:    c.MayBool("PROFILER", false),
		CORSOrigins: c.MayCSV("CORS_ORIGINS", nil),
		SlowRequest: c.MayDuration("SLOW_REQUEST", 0),
		Drain:       c.MayDuration("DRAIN_TIMEOUT", 0),
		Otel:        potel.FromConf(c, version.Service, version.Info().Version),
	}
}

func initLogger(quiet bool) {
	opts := logger.FromEnv()
	opts.Service = version.Service
	opts.Quiet = opts.Quiet || quiet
	logger.Init(opts)
}

func serve(ctx context.Context, s settings) error {
	log := logger.Get()

	shutdown, err := potel.Setup(ctx, s.Otel)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Error().Err(err).Msg("tracer shutdown")
		}
	}()

	srv := phttp.NewServer(s.Addr, func(m *chi.Mux) {
		m.Use(middleware.Defaults()...)
		m.Use(middleware.Heartbeat("/health"))
	}).WithDrainTimeout(s.Drain)

	if err := api.Mount(srv.Router(), api.Options{
		Config:         config.New().Prefix(envPrefix),
		Badges:         s.Badges,
		Logger:         log,
		Tracer:         potel.Tracer("tokeisrv/badges"),
		EnableSwagger:  s.Swagger,
		EnableProfiler: s.Profiler,
		CORSOrigins:    s.CORSOrigins,
		SlowRequest:    s.SlowRequest,
	}); err != nil {
		return err
	}

	log.Info().
		Str("addr", s.Addr).
		Int("cache_size", s.Badges.MaxEntries).
		Dur("cache_ttl", s.Badges.TTL).
		Strs("user_whitelist", s.Badges.UserWhitelist).
		Strs("host_whitelist", s.Badges.HostWhitelist).
		Msg("tokeisrv starting")
	return srv.Run(ctx)
}
