package domain

import (
	"os"
	"time"

	"tokeisrv/internal/platform/config"
	pstrings "tokeisrv/internal/platform/strings"
)

// Defaults
const (
	DefaultMaxEntries      = 1000
	DefaultTTL             = 86400 * time.Second
	DefaultPipelineTimeout = 2 * time.Minute
	DefaultFetchTimeout    = 90 * time.Second
	DefaultScanTimeout     = 60 * time.Second
	DefaultHomeURL         = "https://github.com/XAMPPRocky/tokei"
)

// Config is built once at startup and read-only afterwards
type Config struct {
	MaxEntries    int
	TTL           time.Duration
	UserWhitelist []string
	HostWhitelist []string

	PipelineTimeout time.Duration
	FetchTimeout    time.Duration
	ScanTimeout     time.Duration

	// SkipDuplicated counts byte identical files once, ExcludeExts are never counted
	SkipDuplicated bool
	ExcludeExts    []string

	WorkDir       string
	GitToken      string
	GitTokenHosts []string

	HomeURL               string
	AllowClientRevalidate bool
}

// DefaultConfig returns a config with every default applied and open whitelists
func DefaultConfig() Config {
	return Config{
		MaxEntries:      DefaultMaxEntries,
		TTL:             DefaultTTL,
		PipelineTimeout: DefaultPipelineTimeout,
		FetchTimeout:    DefaultFetchTimeout,
		ScanTimeout:     DefaultScanTimeout,
		WorkDir:         os.TempDir(),
		GitTokenHosts:   []string{"github.com"},
		HomeURL:         DefaultHomeURL,
	}
}

// FromConf reads the service settings from c, which is expected to carry the TOKEI_ prefix
func FromConf(c config.Conf) Config {
	d := DefaultConfig()
	return Config{
		MaxEntries:    c.MayPositiveInt("CACHE_SIZE", d.MaxEntries),
		TTL:           c.MaySeconds("CACHE_TTL", d.TTL),
		UserWhitelist: c.MayCSV("USER_WHITELIST", nil),
		HostWhitelist: c.MayCSV("HOST_WHITELIST", nil),

		PipelineTimeout: c.MayDuration("PIPELINE_TIMEOUT", d.PipelineTimeout),
		FetchTimeout:    c.MayDuration("FETCH_TIMEOUT", d.FetchTimeout),
		ScanTimeout:     c.MayDuration("SCAN_TIMEOUT", d.ScanTimeout),

		SkipDuplicated: c.MayBool("SKIP_DUPLICATED", false),
		ExcludeExts:    c.MayCSV("EXCLUDE_EXTS", nil),

		WorkDir:       c.MayString("WORK_DIR", d.WorkDir),
		GitToken:      pstrings.FirstNonEmpty(c.MayString("GIT_TOKEN", ""), os.Getenv("GITHUB_TOKEN")),
		GitTokenHosts: c.MayCSV("GIT_TOKEN_HOSTS", d.GitTokenHosts),

		HomeURL:               c.MayString("HOME_URL", d.HomeURL),
		AllowClientRevalidate: c.MayBool("ALLOW_CLIENT_REVALIDATE", false),
	}
}
