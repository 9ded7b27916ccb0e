package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zheng/cuml/internal/display"
	"github.com/zheng/cuml/internal/hierarchy"
	"github.com/zheng/cuml/internal/impact"
	"github.com/zheng/cuml/internal/model"
)

func treeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tree <class-name>",
		Short: "查询类的继承层次",
		Long: `显示类的祖先链、实现的接口，以及所有子类组成的继承树。

示例：
  cuml tree Shape
  cuml tree Shape --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			className := args[0]

			files, err := loadModels(cmd)
			if err != nil {
				return err
			}

			entries, err := hierarchy.FocusEntries(files, className)
			if errors.Is(err, hierarchy.ErrTargetNotFound) {
				printNotFound("类", className)
				return nil
			}
			if err != nil {
				return err
			}

			if format == "json" {
				type row struct {
					Role string     `json:"role"`
					Kind model.Kind `json:"kind"`
					Name string     `json:"name"`
				}
				rows := make([]row, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, row{Role: string(e.Role), Kind: e.Part.Kind(), Name: e.Part.NodeName()})
				}
				return outputJSON(rows)
			}

			fmt.Print(display.FormatFocus(entries))
			fmt.Println()

			tree := display.BuildTree(files, className)
			maxWidth, maxDepth := 0, 0
			display.CalcTreeMaxWidth(tree, &maxWidth, 0, &maxDepth)

			fmt.Println("📍 当前类")
			fmt.Println(className)
			if len(tree) == 0 {
				fmt.Println("└── (无子类)")
				return nil
			}
			fmt.Print(display.FormatTree(tree, "", maxWidth, maxDepth, 0))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json)")

	return cmd
}

func impactCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "impact <type-name>",
		Short: "分析类型变更的影响范围",
		Long: `列出修改某个类型时需要检查的代码：
  - 成员类型引用了它的类型 (含基数)
  - 所有子类 (传递)
  - 实现类
  - 扩展它的接口

示例：
  cuml impact Shape
  cuml impact Shape --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName := args[0]

			files, err := loadModels(cmd)
			if err != nil {
				return err
			}

			report, err := impact.Analyze(files, typeName)
			if errors.Is(err, impact.ErrTypeNotFound) {
				printNotFound("类型", typeName)
				return nil
			}
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return outputJSON(report)
			case "markdown":
				fmt.Print(report.FormatMarkdown())
			default:
				fmt.Print(report.FormatTree())
				fmt.Println(report.Summary())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "输出格式 (text/json/markdown)")

	return cmd
}

func listCmd() *cobra.Command {
	var limit int
	var offset int
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出所有类型声明",
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

			stats, err := db.GetStats()
			if err != nil {
				return fmt.Errorf("查询失败: %w", err)
			}
			total := stats.Declarations
			if kind != "" {
				total = stats.ByKind[model.Kind(kind)]
			}

			decls, err := db.ListDeclarations(model.Kind(kind), limit, offset)
			if err != nil {
				return fmt.Errorf("查询失败: %w", err)
			}

			fmt.Printf("共 %d 个类型:\n\n", total)
			rows := make([][]string, 0, len(decls))
			for _, d := range decls {
				rows = append(rows, []string{string(d.Kind), d.Name, d.Path})
			}
			fmt.Print(display.FormatDeclarations(rows))

			if rest := total - int64(offset+len(decls)); limit > 0 && rest > 0 {
				fmt.Printf("... 还有 %d 个类型\n", rest)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "限制显示数量 (0=全部)")
	cmd.Flags().IntVar(&offset, "offset", 0, "跳过前 N 个")
	cmd.Flags().StringVar(&kind, "kind", "", "只列出某种声明 (class/interface/enum/namespace)")

	return cmd
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "搜索类型",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := args[0]

			cfg, err := loadConfig(".")
			if err != nil {
				return err
			}
			db, err := openDB(cmd, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			decls, err := db.FindDeclarations(pattern)
			if err != nil {
				return fmt.Errorf("搜索失败: %w", err)
			}

			if len(decls) == 0 {
				fmt.Println("未找到匹配的类型")
				return nil
			}

			fmt.Printf("找到 %d 个匹配:\n\n", len(decls))
			rows := make([][]string, 0, len(decls))
			for _, d := range decls {
				rows = append(rows, []string{string(d.Kind), d.Name, d.Path})
			}
			fmt.Print(display.FormatDeclarations(rows))
			return nil
		},
	}

	return cmd
}
