package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zheng/cuml/internal/config"
	"github.com/zheng/cuml/internal/format"
	"github.com/zheng/cuml/internal/model"
	"github.com/zheng/cuml/internal/project"
	"github.com/zheng/cuml/internal/relation"
	"github.com/zheng/cuml/internal/remote"
	"github.com/zheng/cuml/internal/render"
)

func renderCmd() *cobra.Command {
	var dialect string
	var relationships string
	var compositions bool
	var associations bool
	var onlyInterfaces bool
	var onlyClasses bool
	var targetClass string
	var outputFile string
	var server string

	cmd := &cobra.Command{
		Use:   "render [project-path]",
		Short: "生成类图 (PlantUML / Mermaid)",
		Long: `生成项目类图。指定项目路径时直接分析源码，否则读取 analyze 写入的数据库。

输出文件扩展名为 svg、png 或 txt 时，通过 PlantUML 服务器渲染为图片。

示例：
  cuml render                          # 从数据库生成 PlantUML
  cuml render . -f mermaid -A          # 直接分析当前目录，推断关联关系
  cuml render -t Circle -o circle.svg  # 聚焦 Circle 的继承层次并渲染为图片`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cfg, err := loadConfig(dir)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("format") {
				cfg.Dialect = dialect
			}
			switch {
			case flags.Changed("relationships"):
				cfg.Relationships = relationships
			case associations:
				cfg.Relationships = string(relation.ModeAssociation)
			case compositions:
				cfg.Relationships = string(relation.ModeComposition)
			}
			if flags.Changed("only-interfaces") {
				cfg.OnlyInterfaces = onlyInterfaces
			}
			if flags.Changed("only-classes") {
				cfg.OnlyClasses = onlyClasses
			}
			if flags.Changed("target-class") {
				cfg.TargetClass = targetClass
			}
			if flags.Changed("output") {
				cfg.Output = outputFile
			}
			if flags.Changed("server") {
				cfg.PlantUMLServer = server
			}
			if compositions && associations {
				return fmt.Errorf("--compositions 和 --associations 不能同时使用")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts, err := cfg.RenderOptions()
			if err != nil {
				return err
			}
			image := cfg.Output != "" && remote.IsImageExtension(filepath.Ext(cfg.Output))
			if image && opts.Dialect != format.DialectPlantUML {
				return fmt.Errorf("图片输出只支持 PlantUML 格式")
			}

			var files []*model.File
			if len(args) > 0 {
				files, err = extractModels(cmd, dir, cfg)
			} else {
				files, err = loadModels(cmd)
			}
			if err != nil {
				return err
			}

			text, err := render.Render(files, opts)
			if err != nil {
				return fmt.Errorf("生成类图失败: %w", err)
			}

			switch {
			case cfg.Output == "" || cfg.Output == "-":
				fmt.Println(text)
				return nil
			case image:
				client := remote.NewClient(cfg.PlantUMLServer)
				data, err := client.Fetch(cmd.Context(), filepath.Ext(cfg.Output), text)
				if err != nil {
					return fmt.Errorf("渲染图片失败: %w", err)
				}
				if err := os.WriteFile(cfg.Output, data, 0o644); err != nil {
					return fmt.Errorf("写入输出文件失败: %w", err)
				}
			default:
				if err := os.WriteFile(cfg.Output, []byte(text+format.EOL), 0o644); err != nil {
					return fmt.Errorf("写入输出文件失败: %w", err)
				}
			}
			successf("已写入: %s\n", cfg.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dialect, "format", "f", "plantuml", "输出格式 (plantuml/mermaid)")
	cmd.Flags().StringVarP(&relationships, "relationships", "r", "none", "成员关系推断 (none/composition/association)")
	cmd.Flags().BoolVarP(&compositions, "compositions", "C", false, "推断组合关系 (等同 -r composition)")
	cmd.Flags().BoolVarP(&associations, "associations", "A", false, "推断关联关系及基数 (等同 -r association)")
	cmd.Flags().BoolVarP(&onlyInterfaces, "only-interfaces", "I", false, "只输出接口")
	cmd.Flags().BoolVar(&onlyClasses, "only-classes", false, "只输出类")
	cmd.Flags().StringVarP(&targetClass, "target-class", "t", "", "聚焦某个类的继承层次")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "输出文件 (默认 stdout；svg/png/txt 通过 PlantUML 服务器渲染)")
	cmd.Flags().StringVar(&server, "server", config.DefaultPlantUMLServer, "PlantUML 服务器地址")

	return cmd
}

// extractModels analyzes dir directly without touching the database
func extractModels(cmd *cobra.Command, dir string, cfg *config.Config) ([]*model.File, error) {
	sources, err := project.Extract(cmd.Context(), dir, cfg)
	if err != nil {
		return nil, fmt.Errorf("分析失败: %w", err)
	}
	files := make([]*model.File, 0, len(sources))
	for _, s := range sources {
		files = append(files, s.File)
	}
	return files, nil
}
