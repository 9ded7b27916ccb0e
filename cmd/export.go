package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zheng/cuml/internal/analyzer"
	"github.com/zheng/cuml/internal/export"
	"github.com/zheng/cuml/internal/format"
	"github.com/zheng/cuml/internal/relation"
)

func exportCmd() *cobra.Command {
	var outputFile string
	var incremental bool
	var gitBase string
	var dialect string
	var relationships string
	var noPerFile bool
	var name string
	var jobs int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出类图文档",
		Long:  "导出完整的项目类图文档（Markdown 格式），包含总览类图、关系表和逐文件的类型说明，可作为 AI 编码上下文",
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

			stored, err := db.LoadFiles()
			if err != nil {
				return fmt.Errorf("读取模型失败: %w", err)
			}

			opts := export.DefaultExportOptions()
			if cmd.Flags().Changed("format") {
				if opts.Dialect, err = format.ParseDialect(dialect); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("relationships") {
				if opts.Relationships, err = relation.ParseMode(relationships); err != nil {
					return err
				}
			}
			opts.PerFile = !noPerFile
			opts.Jobs = jobs
			if name != "" {
				opts.ProjectName = name
			} else if cwd, err := os.Getwd(); err == nil {
				opts.ProjectName = filepath.Base(cwd) + " "
			}

			var w *os.File
			if outputFile == "" || outputFile == "-" {
				w = os.Stdout
			} else {
				w, err = os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("创建输出文件失败: %w", err)
				}
				defer w.Close()
			}

			exporter := export.NewExporter(stored)
			if incremental {
				changes, err := analyzer.GetGitChanges(".", gitBase, cfg.SourceExtensions()...)
				if err != nil {
					return fmt.Errorf("获取 git 变更失败: %w", err)
				}

				if !changes.HasChanges() {
					fmt.Fprintln(os.Stderr, "没有检测到变更")
					return nil
				}

				fmt.Fprintf(os.Stderr, "检测到 %d 个变更文件\n", len(changes.ChangedFiles))
				return exporter.ExportIncremental(w, changes.ChangedFiles, opts)
			}

			return exporter.Export(cmd.Context(), w, opts)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "输出文件路径 (默认输出到 stdout)")
	cmd.Flags().BoolVarP(&incremental, "incremental", "i", false, "增量导出 (只输出 git 变更部分)")
	cmd.Flags().StringVar(&gitBase, "base", "", "git 比较基准")
	cmd.Flags().StringVarP(&dialect, "format", "f", "mermaid", "类图格式 (plantuml/mermaid)")
	cmd.Flags().StringVarP(&relationships, "relationships", "r", "association", "成员关系推断 (none/composition/association)")
	cmd.Flags().BoolVar(&noPerFile, "no-per-file", false, "不生成逐文件类图")
	cmd.Flags().StringVar(&name, "name", "", "文档标题中的项目名称")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "并行渲染数量 (0=CPU 数)")

	return cmd
}
