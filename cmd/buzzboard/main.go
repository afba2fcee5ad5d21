package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"buzzboard/internal/api"
	"buzzboard/internal/config"
	"buzzboard/internal/logging"
	"buzzboard/internal/metrics"
	"buzzboard/internal/server"
	"buzzboard/internal/service/excel"
	"buzzboard/internal/service/persist"
	"buzzboard/internal/service/staging"
	memstore "buzzboard/internal/service/store"
	"buzzboard/internal/store"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  BuzzBoard - 声量分析筛选服务")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		fmt.Printf("加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("配置无效", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("服务异常退出", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("创建数据目录失败: %w", err)
	}
	fmt.Printf("数据目录: %s\n", dir)

	m := metrics.New()
	state := memstore.NewMemoryStore()

	// 持久化后端
	var (
		backend persist.Backend
		db      *store.Store
	)
	switch cfg.Storage.Backend {
	case config.BackendFile:
		fb, err := persist.NewFileBackend(filepath.Join(dir, "state"))
		if err != nil {
			return err
		}
		backend = fb
	default:
		db, err = store.New(filepath.Join(dir, "buzzboard.db"))
		if err != nil {
			return err
		}
		defer db.Close()
		backend = db
	}

	adapter := persist.NewAdapter(backend, cfg.Storage.Key, logger.With("component", "persist"), m)
	if adapter.Restore(state) {
		logger.Info("已恢复上次的数据与筛选", "rows", state.Count())
	}
	m.SetDatasetRows(state.Count())
	adapter.Attach(state)
	state.Subscribe(func(ev memstore.EventType) {
		if ev == memstore.EventDataReplaced || ev == memstore.EventCleared {
			m.SetDatasetRows(state.Count())
		}
	})

	ctrl := staging.NewController(state,
		staging.WithDelay(time.Duration(cfg.Filter.DebounceMS)*time.Millisecond),
		staging.WithLogger(logger.With("component", "staging")),
		staging.WithRecorder(m),
	)
	ctrl.Attach(state)

	opts := []api.Option{
		api.WithLogger(logger.With("component", "api")),
		api.WithParseOptions(excel.ParseOptions{SubcategoryCategories: cfg.Ingest.SubcategoryCategories}),
	}
	if db != nil {
		opts = append(opts, api.WithImportLog(db))
	}
	srv := server.NewServer(cfg, api.NewHandler(state, ctrl, opts...), m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		fmt.Printf("请访问 http://localhost:%d/api/status\n", cfg.Server.Port)
		fmt.Println("\n按 Ctrl+C 停止服务...")
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		fmt.Println("\n正在关闭服务...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	// 未生效的草稿随会话结束而丢弃，只保存已生效的状态
	ctrl.Close()
	if saveErr := adapter.SaveNow(state); saveErr != nil {
		logger.Error("退出前保存失败", "error", saveErr)
	}
	return err
}
