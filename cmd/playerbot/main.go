package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/playerbot/internal/config"
	"github.com/l1jgo/playerbot/internal/data"
	"github.com/l1jgo/playerbot/internal/framework"
	"github.com/l1jgo/playerbot/internal/host/memhost"
	"github.com/l1jgo/playerbot/internal/journal"
	"github.com/l1jgo/playerbot/internal/observe"
	"github.com/l1jgo/playerbot/internal/persist"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Printf("\033[36;1m  │\033[0m         playerbot framework  v%s        \033[36;1m│\033[0m\n", version)
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m名稱:\033[0m %s\n\n", name)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Harness ────────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg := config.Default()
	if p := os.Getenv(config.EnvPath); p != "" {
		loaded, err := config.Load(p)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else if _, err := os.Stat("config/playerbot.toml"); err == nil {
		loaded, err := config.Load("config/playerbot.toml")
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Framework.Name)

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Static data
	printSection("資料")
	var opts []framework.Option
	dungeons, err := data.LoadDungeonTable(cfg.Data.Dungeons)
	if err != nil {
		return fmt.Errorf("dungeon table: %w", err)
	}
	opts = append(opts, framework.WithDungeons(dungeons))
	printStat("副本", dungeons.Count())

	// 4. Optional sinks
	printSection("輸出")
	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mp, shutdown, err := observe.InitProvider(sigCtx, observe.ProviderConfig{
			ServiceName:    cfg.Framework.Name,
			ServiceVersion: version,
		})
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
		m, err := observe.NewMetrics(mp)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		opts = append(opts, framework.WithMetrics(m))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.BindAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		printOK(fmt.Sprintf("指標端點 http://%s/metrics", cfg.Metrics.BindAddress))
	}

	if cfg.Archive.Enabled {
		ctx, cancel := context.WithTimeout(sigCtx, 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Archive, log)
		if err != nil {
			cancel()
			return fmt.Errorf("archive database: %w", err)
		}
		defer db.Close()
		err = persist.RunMigrations(ctx, db.Pool)
		cancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		opts = append(opts, framework.WithArchive(persist.NewStatsRepo(db), persist.NewAuditRepo(db)))
		printOK("統計封存已啟用")
	}

	var jr *journal.Journal
	if cfg.Journal.Enabled {
		jr = journal.New(cfg.Journal.Dir, log)
		opts = append(opts, framework.WithJournal(jr))
		printOK(fmt.Sprintf("事件日誌寫入 %s", cfg.Journal.Dir))
	}
	fmt.Println()

	// 5. Framework against the in-memory host
	printSection("框架")
	h := memhost.New(memhost.WithTeleport())
	fw, err := framework.New(cfg, h, log, opts...)
	if err != nil {
		return fmt.Errorf("framework: %w", err)
	}
	defer fw.Close()

	s := newSim(h, fw, cfg.Sim, log)
	if err := s.build(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	printStat("代理", fw.Agents.Len())
	printStat("怪物群", cfg.Sim.Packs*cfg.Sim.Groups)
	printStat("副本腳本", len(fw.Scripts.Scripts()))
	fmt.Println()

	// 6. Run
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if jr != nil {
		g.Go(func() error { return jr.Run(gctx) })
	}
	if metricsSrv != nil {
		g.Go(func() error {
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			return metricsSrv.Shutdown(sctx)
		})
	}

	printSection("就緒")
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Framework.TickRate))
	fmt.Println()

	g.Go(func() error {
		defer cancel()
		return tickLoop(gctx, fw, s, cfg, log)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fctx, fcancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer fcancel()
	fw.FlushArchive(fctx)

	printSection("匯流排統計")
	if err := fw.DumpBusStats(os.Stdout); err != nil {
		return err
	}
	log.Info("框架已停止")
	return nil
}

func tickLoop(ctx context.Context, fw *framework.Framework, s *sim, cfg *config.Config, log *zap.Logger) error {
	dt := cfg.Framework.TickRate
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	var elapsed time.Duration
	for {
		select {
		case <-ticker.C:
			s.step(dt)
			fw.Tick(dt)
			elapsed += dt
			if s.cleared() {
				log.Info("所有怪物群已清除", zap.Duration("elapsed", elapsed))
				return nil
			}
			if cfg.Sim.Duration > 0 && elapsed >= cfg.Sim.Duration {
				log.Info("模擬時間到", zap.Duration("elapsed", elapsed))
				return nil
			}
		case <-ctx.Done():
			log.Info("收到關閉信號")
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
