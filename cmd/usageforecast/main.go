// 用电预测服务
//
// 读取 YAML 配置，连接 MySQL（未配置 dsn 时使用内存存储），
// 提供 /get_data、/usage、/predict、/model 接口。
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"usageforecast/config"
	"usageforecast/infra/observe/log/staticLog"
	"usageforecast/server"
	"usageforecast/store"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	if *cfgPath != "" {
		if err := config.Init(*cfgPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	cfg := config.Get()

	if err := staticLog.Init(staticLog.Options{
		Path:       cfg.Log.Path,
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("init log: %v", err)
	}
	defer staticLog.Close()

	var st store.UsageStore
	if cfg.MySQL.DSN != "" {
		ms, err := store.OpenMySQL(cfg.MySQL.DSN, cfg.MySQL.Table, cfg.MySQL.PredictionTable)
		if err != nil {
			staticLog.Log.Fatalf("open store: %v", err)
		}
		defer ms.Close()
		st = ms
	} else {
		staticLog.Log.Warn("mysql dsn not configured, using in-memory store")
		st = store.NewMemStore()
	}

	srv, err := server.NewServer(server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, server.NewHandler(st, cfg.Model))
	if err != nil {
		staticLog.Log.Fatalf("create server: %v", err)
	}

	addr, err := srv.Start()
	if err != nil {
		staticLog.Log.Fatalf("start server: %v", err)
	}
	staticLog.Log.Infof("listening on %s, model VARMA(%d,%d), %d steps", addr, cfg.Model.P, cfg.Model.Q, cfg.Model.Steps)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		staticLog.Log.Errorf("shutdown: %v", err)
	}
}
