package main

import (
	"fmt"

	"upsolve/browser"
	"upsolve/codeforces"
	configs "upsolve/config"
	"upsolve/logger"
	"upsolve/ratelimit"
	"upsolve/scraper"
)

type scrapers struct {
	cf        *codeforces.Client
	limiter   *ratelimit.Limiter
	resolver  *scraper.Resolver
	extractor *scraper.Extractor
}

func loadConfig() (configs.Config, *logger.Logger, error) {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return configs.Config{}, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log, err := logger.New("upsolve", cfg.LogLevel)
	if err != nil {
		return configs.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// buildScrapers wires the browser, API client and shared limiter into the
// resolver and extractor. Both scrapers draw from the same limiter so the
// combined request rate against Codeforces stays bounded.
func buildScrapers(cfg configs.Config, log *logger.Logger) (*scrapers, error) {
	bcfg := browser.DefaultConfig()
	bcfg.Env = cfg.Browser.Env
	bcfg.Evasion = cfg.Browser.Evasion
	bcfg.ChromePath = cfg.Browser.ChromePath
	bcfg.BundledPath = cfg.Browser.BundledPath
	bcfg.NavigationTimeout = cfg.Scraper.NavigationTimeout
	bcfg.SelectorTimeout = cfg.Scraper.SelectorTimeout

	manager, err := browser.NewManager(bcfg, log)
	if err != nil {
		return nil, err
	}
	source := scraper.NewBrowserSource(manager)
	limiter := ratelimit.New(ratelimit.Config{
		MinInterval:   cfg.RateLimit.MinInterval,
		MaxConcurrent: cfg.RateLimit.MaxConcurrent,
	})
	cf := codeforces.NewClient(cfg.CodeforcesBaseURL, nil)

	return &scrapers{
		cf:      cf,
		limiter: limiter,
		resolver: scraper.NewResolver(source, cf, limiter, scraper.ResolverConfig{
			BaseURL:      cf.BaseURL(),
			ContestDelay: cfg.Scraper.ContestDelay,
		}, log),
		extractor: scraper.NewExtractor(source, limiter, log),
	}, nil
}
