package main

import (
	"testing"
	"time"

	"tokeisrv/internal/platform/config"
	"tokeisrv/internal/services/badges/domain"
)

func parse(t *testing.T, args ...string) settings {
	t.Helper()
	cmd := newRootCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	// the RunE closure owns the flags value so read it back through the flag set
	f := &flags{}
	fl := cmd.Flags()
	f.bind, _ = fl.GetString("bind")
	f.port, _ = fl.GetString("port")
	f.quiet, _ = fl.GetBool("quiet")
	f.userWhitelist, _ = fl.GetStringSlice("user-whitelist")
	f.hostWhitelist, _ = fl.GetStringSlice("host-whitelist")
	f.cacheSize, _ = fl.GetInt("cache-size")
	f.cacheTTL, _ = fl.GetInt("cache-ttl")
	return resolve(fl, f, config.New().Prefix(envPrefix))
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"BIND", "PORT", "USER_WHITELIST", "HOST_WHITELIST", "CACHE_SIZE", "CACHE_TTL", "CORS_ORIGINS", "SWAGGER", "PROFILER"} {
		t.Setenv(envPrefix+k, "")
	}
}

func TestResolve_Defaults(t *testing.T) {
	clearEnv(t)
	s := parse(t)
	if s.Addr != "0.0.0.0:8000" {
		t.Fatalf("addr = %q", s.Addr)
	}
	if s.Badges.MaxEntries != domain.DefaultMaxEntries || s.Badges.TTL != domain.DefaultTTL {
		t.Fatalf("cache defaults = %d %v", s.Badges.MaxEntries, s.Badges.TTL)
	}
	if s.Badges.UserWhitelist != nil || s.Badges.HostWhitelist != nil {
		t.Fatalf("whitelists should be open: %+v", s.Badges)
	}
	if !s.Swagger || s.Profiler {
		t.Fatalf("swagger=%v profiler=%v", s.Swagger, s.Profiler)
	}
}

func TestResolve_EnvApplies(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEI_BIND", "127.0.0.1")
	t.Setenv("TOKEI_PORT", "9090")
	t.Setenv("TOKEI_CACHE_SIZE", "5")
	t.Setenv("TOKEI_CACHE_TTL", "60")
	t.Setenv("TOKEI_USER_WHITELIST", "alice, bob")
	t.Setenv("TOKEI_CORS_ORIGINS", "https://readme.example")

	s := parse(t)
	if s.Addr != "127.0.0.1:9090" {
		t.Fatalf("addr = %q", s.Addr)
	}
	if s.Badges.MaxEntries != 5 || s.Badges.TTL != time.Minute {
		t.Fatalf("cache = %d %v", s.Badges.MaxEntries, s.Badges.TTL)
	}
	if len(s.Badges.UserWhitelist) != 2 || s.Badges.UserWhitelist[1] != "bob" {
		t.Fatalf("user whitelist = %v", s.Badges.UserWhitelist)
	}
	if len(s.CORSOrigins) != 1 || s.CORSOrigins[0] != "https://readme.example" {
		t.Fatalf("cors = %v", s.CORSOrigins)
	}
}

func TestResolve_FlagsBeatEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEI_PORT", "9090")
	t.Setenv("TOKEI_CACHE_SIZE", "5")
	t.Setenv("TOKEI_HOST_WHITELIST", "gitlab.com")

	s := parse(t, "-b", "::1", "-p", "7000", "--cache-size", "50", "--cache-ttl", "10", "--host-whitelist", "github.com,codeberg.org")
	if s.Addr != "[::1]:7000" {
		t.Fatalf("addr = %q", s.Addr)
	}
	if s.Badges.MaxEntries != 50 || s.Badges.TTL != 10*time.Second {
		t.Fatalf("cache = %d %v", s.Badges.MaxEntries, s.Badges.TTL)
	}
	hosts := s.Badges.HostWhitelist
	if len(hosts) != 2 || hosts[0] != "github.com" || hosts[1] != "codeberg.org" {
		t.Fatalf("host whitelist = %v", hosts)
	}
}

func TestResolve_NonPositiveCacheFlagsKeepEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOKEI_CACHE_SIZE", "5")
	s := parse(t, "--cache-size", "0")
	if s.Badges.MaxEntries != 5 {
		t.Fatalf("cache size = %d", s.Badges.MaxEntries)
	}
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.Args(cmd, []string{"extra"}); err == nil {
		t.Fatal("expected positional args to be rejected")
	}
}
