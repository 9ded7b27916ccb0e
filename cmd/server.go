package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zheng/cuml/internal/mcp"
	"github.com/zheng/cuml/internal/project"
	"github.com/zheng/cuml/internal/watcher"
	"github.com/zheng/cuml/internal/web"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "启动 MCP (Model Context Protocol) 服务器",
		Long: `启动 MCP 服务器，允许 AI 助手（如 Cursor、Claude）直接查询项目类型模型。

MCP 工具包括：
  - diagram: 生成类图
  - hierarchy: 查询类的继承层次
  - impact: 分析类型变更的影响范围
  - search: 搜索类型
  - list: 列出所有类型`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(".")
			if err != nil {
				return err
			}
			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			server := mcp.NewServer(db)
			return server.Run()
		},
	}

	return cmd
}

func watchCmd() *cobra.Command {
	var debounceMs int
	var port int

	cmd := &cobra.Command{
		Use:   "watch [project-path]",
		Short: "监控文件变更并自动更新模型",
		Long: `启动 watch 模式，监控项目中的源文件变更。
当检测到文件变更时，自动重新分析并更新模型数据库。

特性：
  - 自动递归监控所有目录
  - 防抖处理，避免频繁触发分析
  - 忽略隐藏目录、vendor、node_modules、_test.go、.d.ts 等
  - 指定 --port 时同时启动 Web UI，分析完成后浏览器自动刷新

示例：
  cuml watch .                 # 监控当前目录
  cuml watch . -d .cuml.db     # 指定数据库路径
  cuml watch . --debounce 1000 # 设置 1 秒防抖延迟
  cuml watch . --port 9998     # 同时启动 Web UI`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath := "."
			if len(args) > 0 {
				projectPath = args[0]
			}
			cfg, err := loadConfig(projectPath)
			if err != nil {
				return err
			}
			path := dbPath(cmd, cfg)

			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Println("执行初始分析...")
			result, err := project.Analyze(cmd.Context(), db, projectPath, cfg)
			if err != nil {
				return fmt.Errorf("初始分析失败: %w", err)
			}
			successf("初始分析完成: %s\n", result)

			var view *web.Server
			if port > 0 {
				stored, err := db.LoadFiles()
				if err != nil {
					return fmt.Errorf("读取模型失败: %w", err)
				}
				view = web.NewServer(stored, port)
				go func() {
					if err := view.Run(); err != nil {
						warn("Web UI 退出: %v\n", err)
					}
				}()
			}

			fmt.Printf("\n开始监控目录: %s\n", projectPath)
			fmt.Printf("数据库路径: %s\n", path)
			fmt.Printf("防抖延迟: %dms\n", debounceMs)
			fmt.Println("\n按 Ctrl+C 停止...")
			fmt.Println()

			w, err := watcher.New(
				projectPath,
				path,
				cfg,
				watcher.WithDebounceDelay(time.Duration(debounceMs)*time.Millisecond),
				watcher.WithRunner(func(ctx context.Context, changed []string) (*project.SyncResult, error) {
					return project.Analyze(ctx, db, projectPath, cfg)
				}),
				watcher.WithOnAnalysisStart(func(changed []string) {
					fmt.Printf("[%s] 检测到 %d 个文件变更，开始分析...\n", time.Now().Format("15:04:05"), len(changed))
				}),
				watcher.WithOnAnalysisDone(func(result *project.SyncResult, duration time.Duration) {
					fmt.Printf("[%s] 分析完成: %s (耗时 %v)\n",
						time.Now().Format("15:04:05"), result, duration.Round(time.Millisecond))
					if view == nil || result.Saved+int(result.Deleted) == 0 {
						return
					}
					stored, err := db.LoadFiles()
					if err != nil {
						warn("[%s] 读取模型失败: %v\n", time.Now().Format("15:04:05"), err)
						return
					}
					view.Update(stored)
				}),
				watcher.WithOnError(func(err error) {
					warn("[%s] 错误: %v\n", time.Now().Format("15:04:05"), err)
				}),
			)
			if err != nil {
				return fmt.Errorf("创建监控器失败: %w", err)
			}

			w.Start()
			defer w.Stop()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			fmt.Println("\n停止监控...")
			return nil
		},
	}

	cmd.Flags().IntVar(&debounceMs, "debounce", 500, "防抖延迟（毫秒）")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "同时启动 Web UI 的端口 (0=不启动)")

	return cmd
}

func viewCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "view",
		Short: "启动 Web UI 浏览类图",
		Long: `启动一个本地 Web 服务器，在浏览器中浏览项目类图。

特性：
  - Mermaid 类图实时渲染
  - 切换关系推断模式、只看类或接口
  - 聚焦某个类的继承层次
  - 类型搜索和统计

示例：
  cuml view              # 使用默认端口 9998
  cuml view -p 3000      # 指定端口
  cuml view -d my.db     # 指定数据库`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(".")
			if err != nil {
				return err
			}
			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			stored, err := db.LoadFiles()
			db.Close()
			if err != nil {
				return fmt.Errorf("读取模型失败: %w", err)
			}

			server := web.NewServer(stored, port)
			return server.Run()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 9998, "服务器端口")

	return cmd
}
