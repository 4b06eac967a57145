package configwatcher

import (
	"context"
	"learnhub_backend/internal/config"
	"learnhub_backend/pkg/logger"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg *config.Config)

const debounce = time.Second

// WatchConfig 监听配置文件所在目录，写入后防抖 1 秒再重新加载
// 监听目录而不是文件，编辑器原子替换文件时也能收到事件
func WatchConfig(ctx context.Context, configDir string, reloader ConfigReloader) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	absDir, err := filepath.Abs(configDir)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		return err
	}
	target := filepath.Join(absDir, "config.yaml")
	log := logger.Named("configwatcher")

	go func() {
		defer watcher.Close()

		timer := time.NewTimer(debounce)
		if !timer.Stop() {
			<-timer.C
		}

		for {
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					timer.Reset(debounce)
				}
			case <-timer.C:
				newCfg, err := config.LoadConfig(configDir)
				if err != nil {
					log.Error("Failed to reload config", zap.Error(err))
					continue
				}
				log.Info("Config reloaded", zap.String("path", target))
				reloader(newCfg)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error("Config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
