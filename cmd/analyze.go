package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zheng/cuml/internal/analyzer"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/project"
)

func analyzeCmd() *cobra.Command {
	var outputPath string
	var language string
	var incremental bool
	var gitBase string
	var namespaces bool

	cmd := &cobra.Command{
		Use:   "analyze [project-path]",
		Short: "分析项目并提取类型模型",
		Long: `分析 Go 或 TypeScript 项目，提取类、接口、枚举及其成员，写入模型数据库。

增量模式 (-i) 先通过 git 检测变更，没有变更时直接跳过；
有变更时只重新写入内容哈希发生变化的文件。

示例：
  cuml analyze .                    # 分析当前 Go 项目
  cuml analyze web --lang typescript
  cuml analyze . -i --base main     # 与 main 分支对比`,
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
			if cmd.Flags().Changed("lang") {
				cfg.Language = language
			}
			if cmd.Flags().Changed("namespaces") {
				cfg.Namespaces = namespaces
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if outputPath != "" {
				if err := cmd.Flags().Set("db", outputPath); err != nil {
					return err
				}
			}

			if incremental {
				fmt.Println("检测 git 变更...")
				changes, err := analyzer.GetGitChanges(projectPath, gitBase, cfg.SourceExtensions()...)
				if err != nil {
					warn("警告: 无法获取 git 变更，将执行全量分析: %v\n", err)
				} else if !changes.HasChanges() {
					fmt.Println("没有检测到源文件变更，跳过分析")
					return nil
				} else {
					fmt.Printf("检测到 %d 个变更文件，涉及 %d 个包:\n", len(changes.ChangedFiles), len(changes.ChangedPackages))
					for _, f := range changes.ChangedFiles {
						fmt.Printf("  - %s\n", f)
					}
				}
			}

			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if !incremental {
				if err := db.Clear(); err != nil {
					return fmt.Errorf("清空数据库失败: %w", err)
				}
			}

			start := time.Now()
			result, err := project.Analyze(cmd.Context(), db, projectPath, cfg)
			if err != nil {
				return fmt.Errorf("分析失败: %w", err)
			}

			stats, err := db.GetStats()
			if err != nil {
				return fmt.Errorf("读取统计失败: %w", err)
			}
			fmt.Printf("写入数据库: %s\n", dbPath(cmd, cfg))
			successf("完成! 写入 %d 个文件, %d 个未变化, 删除 %d 个 (耗时 %v)\n",
				result.Saved, result.Unchanged, result.Deleted, time.Since(start).Round(time.Millisecond))
			fmt.Printf("数据库总计: %d 个文件, %d 个类型声明\n", stats.Files, stats.Declarations)
			for _, kind := range []model.Kind{model.KindNamespace, model.KindClass, model.KindInterface, model.KindEnum} {
				if n := stats.ByKind[kind]; n > 0 {
					fmt.Printf("  %-10s %d\n", kind, n)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "输出数据库路径")
	cmd.Flags().StringVar(&language, "lang", "go", "源码语言 (go/typescript)")
	cmd.Flags().BoolVar(&namespaces, "namespaces", false, "按包名生成命名空间")
	cmd.Flags().BoolVarP(&incremental, "incremental", "i", false, "增量分析模式 (只分析 git 变更)")
	cmd.Flags().StringVar(&gitBase, "base", "", "git 比较基准 (默认只看未提交的变更)")

	return cmd
}
