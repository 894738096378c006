package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/term"

	"collegedecision/internal/capture"
	"collegedecision/internal/config"
	"collegedecision/internal/dataset"
	"collegedecision/internal/decision"
	"collegedecision/internal/jobs"
	"collegedecision/internal/listing"
	appLog "collegedecision/internal/log"
	"collegedecision/internal/logo"
	"collegedecision/internal/model"
	"collegedecision/internal/og"
	"collegedecision/internal/ratelimit"
	"collegedecision/internal/store"
	"collegedecision/internal/suggest"
	"collegedecision/internal/ticker"
	"collegedecision/internal/web"
)

const version = "0.1.0"

// stateTTL bounds how long an idle visitor's state survives in Redis.
const stateTTL = 90 * 24 * time.Hour

type flagConfig struct {
	configPath string
	listen     string
	watch      string
	ogDomain   string
	ogOut      string
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.ApplyEnv(); err != nil {
		appLog.Error("failed to apply environment", err)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.Configure(conf.LogLevel, conf.LogPretty)
	appLog.Info("collegedecision starting", "version", version)

	list, err := dataset.Load(conf.DataPath)
	if err != nil {
		appLog.Error("failed to load universities", err, "data_path", conf.DataPath)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"base_url", conf.BaseURL,
		"universities", len(list),
		"storage", conf.Storage.Driver,
		"redis", conf.Redis.URL != "",
		"discord", conf.Discord.WebhookURL != "",
		"digest", conf.Digest.Enabled,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.watch != "" {
		if err := watch(ctx, conf, list, flags.watch); err != nil {
			appLog.Error("watch failed", err, "domain", flags.watch)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, conf, list, flags); err != nil {
		appLog.Error("collegedecision stopped with error", err)
		os.Exit(1)
	}
	appLog.Info("collegedecision exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.watch, "watch", "", "Print a live countdown for the given domain and exit on Ctrl-C")
	flag.StringVar(&cfg.ogDomain, "og", "", "Render the Open Graph image for the given domain and exit")
	flag.StringVar(&cfg.ogOut, "out", "og.png", "Output path for -og")

	flag.Parse()

	return cfg
}

// run wires the stores, limiter, notifier and renderers, then serves until
// ctx is canceled. With -og it renders one image instead of serving.
func run(ctx context.Context, conf *config.Config, list []model.University, flags flagConfig) error {
	var rdb *redis.Client
	if conf.Redis.URL != "" {
		opt, err := redis.ParseURL(conf.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
	}

	st, err := newStore(conf, rdb)
	if err != nil {
		return err
	}

	var (
		limiter ratelimit.Limiter
		sweeper jobs.Sweeper
	)
	interval := time.Duration(conf.RateLimit.IntervalSeconds) * time.Second
	if rdb != nil {
		limiter = ratelimit.NewRedis(rdb, "cd:ratelimit", conf.RateLimit.Limit, interval)
	} else {
		mem := ratelimit.NewMemory(conf.RateLimit.Limit, interval)
		limiter, sweeper = mem, mem
	}

	discord := suggest.NewDiscord(conf.Discord.WebhookURL)
	if !discord.Configured() {
		appLog.Warn("discord webhook not configured; suggestions will be rejected")
	}

	logos := logo.NewFetcher(conf.LogoDir, conf.LogoCacheDir, conf.LogoRemoteBase)
	chromium := capture.NewChromium(capture.Options{
		Width:    conf.OG.Width,
		Height:   conf.OG.Height,
		Timeout:  time.Duration(conf.OG.TimeoutSeconds) * time.Second,
		ExecPath: conf.OG.ChromiumPath,
	})
	gen := og.NewGenerator(chromium, localURL(conf.Listen, "/og/card"), conf.OG.CacheDir,
		time.Duration(conf.OG.CacheTTLMinutes)*time.Minute)

	srv := web.NewServer(web.Deps{
		Config:       conf,
		Universities: list,
		Store:        st,
		Suggest:      suggest.NewService(limiter, discord),
		OG:           gen,
		Logos:        logos,
		Sorter:       listing.NewSorter(conf.Popular),
	})

	if flags.ogDomain != "" {
		return renderOG(ctx, conf.Listen, srv.Handler(), gen, og.CardKey(flags.ogDomain, list), flags.ogOut)
	}

	var notifier suggest.Notifier
	if discord.Configured() {
		notifier = discord
	}
	mgr := jobs.NewManager(jobs.Options{
		DigestEnabled:  conf.Digest.Enabled,
		DigestSchedule: conf.Digest.Schedule,
		BaseURL:        conf.BaseURL,
	}, func() []model.University { return list }, notifier, gen, sweeper)
	if err := mgr.Start(); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}
	defer mgr.Stop()

	return web.StartServer(ctx, conf.Listen, srv.Handler())
}

func newStore(conf *config.Config, rdb *redis.Client) (store.Store, error) {
	switch conf.Storage.Driver {
	case config.DriverFile:
		if err := os.MkdirAll(conf.Storage.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		return store.NewFile(conf.Storage.Dir), nil
	case config.DriverRedis:
		if rdb == nil {
			return nil, errors.New("storage driver redis requires redis.url")
		}
		return store.NewRedis(rdb, "cd:state", stateTTL), nil
	default:
		return store.NewMemory(), nil
	}
}

// renderOG serves the card page locally just long enough for the headless
// browser to capture it.
func renderOG(ctx context.Context, listen string, h http.Handler, gen *og.Generator, domain, out string) error {
	srvCtx, stop := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- web.StartServer(srvCtx, listen, h) }()
	defer func() {
		stop()
		<-errCh
	}()

	if err := waitHealthy(ctx, localURL(listen, "/health")); err != nil {
		return err
	}

	png, err := gen.Image(ctx, domain)
	if err != nil {
		return fmt.Errorf("render og image: %w", err)
	}
	if err := os.WriteFile(out, png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	appLog.Info("og image written", "domain", domain, "path", out, "bytes", len(png))
	return nil
}

// localURL is the loopback URL of path on the server listening at listen.
// A listen address without a host, or with a wildcard host, is reached
// through 127.0.0.1.
func localURL(listen, path string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen + path
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + path
}

func waitHealthy(ctx context.Context, url string) error {
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 50; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	return errors.New("local server did not become healthy")
}

// watch prints a live countdown for one university. On a terminal the line
// is redrawn in place; otherwise one line is printed per second.
func watch(ctx context.Context, conf *config.Config, list []model.University, domain string) error {
	u, err := listing.FindByDomain(list, domain)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	interval := time.Duration(conf.TickMS) * time.Millisecond
	if !interactive {
		interval = time.Second
	}

	fmt.Printf("%s (%s)\n", u.Name, u.Domain)
	loop := ticker.New(interval, func(now time.Time) {
		line := watchLine(decision.Snap(u, now))
		if interactive {
			fmt.Printf("\r\033[K%s", line)
		} else {
			fmt.Println(line)
		}
	})
	if err := loop.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	loop.Stop()
	if interactive {
		fmt.Println()
	}
	return nil
}

func watchLine(s decision.Snapshot) string {
	line := "regular: " + fieldLabel(s.Regular)
	if s.Early != nil {
		line = "early: " + fieldLabel(*s.Early) + "  " + line
	}
	return fmt.Sprintf("[%s] %s", s.Classification.Status, line)
}

func fieldLabel(c decision.Countdown) string {
	switch {
	case c.Invalid:
		return "date TBA"
	case c.Passed:
		return "released"
	case c.Remaining != nil:
		return c.Remaining.String()
	}
	return "-"
}
