package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/zheng/cuml/internal/config"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/project"
	"github.com/zheng/cuml/internal/storage"
)

var (
	successf = color.New(color.FgGreen).PrintfFunc()
	warnf    = color.New(color.FgYellow).FprintfFunc()
)

func warn(format string, args ...any) {
	warnf(os.Stderr, format, args...)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// loadConfig returns the --config file, or the one discovered above dir
func loadConfig(dir string) (*config.Config, error) {
	if ConfigPath != "" {
		cfg, err := config.Load(ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}
	return cfg, nil
}

// dbPath resolves the database location. An explicit --db wins; otherwise a
// relative db setting is taken relative to the config file.
func dbPath(cmd *cobra.Command, cfg *config.Config) string {
	if cmd.Flags().Changed("db") || cfg.DB == "" {
		return DbPath
	}
	if cfg.Path != "" && !filepath.IsAbs(cfg.DB) {
		return filepath.Join(filepath.Dir(cfg.Path), cfg.DB)
	}
	return cfg.DB
}

func openDB(cmd *cobra.Command, cfg *config.Config) (*storage.DB, error) {
	db, err := storage.Open(dbPath(cmd, cfg))
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	return db, nil
}

// loadModels opens the configured database and returns its stored models
func loadModels(cmd *cobra.Command) ([]*model.File, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, err
	}
	db, err := openDB(cmd, cfg)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	files, err := project.Load(db)
	if err != nil {
		return nil, fmt.Errorf("读取模型失败: %w", err)
	}
	if len(files) == 0 {
		warn("数据库为空\n\n💡 提示：请先运行 analyze 命令分析项目：\n   cuml analyze .\n")
	}
	return files, nil
}

func printNotFound(what, name string) {
	fmt.Printf("未找到名为 '%s' 的%s\n", name, what)
	fmt.Println("\n💡 提示：如果代码最近有更新，请先运行：")
	fmt.Println("   cuml analyze -i")
}
