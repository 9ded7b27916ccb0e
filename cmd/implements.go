package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zheng/cuml/internal/impact"
	"github.com/zheng/cuml/internal/model"
)

func implementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "implements <interface-or-class>",
		Short: "查询接口实现关系",
		Long: `查询接口的实现类，或类实现的接口。

示例：
  cuml implements Shape     # 查询谁实现了 Shape 接口
  cuml implements Circle    # 查询 Circle 实现了哪些接口
  cuml implements --list    # 列出所有接口`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listAll, _ := cmd.Flags().GetBool("list")

			files, err := loadModels(cmd)
			if err != nil {
				return err
			}

			if listAll {
				var ifaces []model.Declaration
				for _, d := range model.Declarations(files) {
					if d.Part.Kind() == model.KindInterface {
						ifaces = append(ifaces, d)
					}
				}
				if len(ifaces) == 0 {
					fmt.Println("项目中没有接口定义")
					return nil
				}

				fmt.Printf("项目接口列表 (共 %d 个)\n\n", len(ifaces))
				for _, d := range ifaces {
					fmt.Printf("  %s\n", d.Part.NodeName())
					fmt.Printf("    方法: %s\n", memberNames(d.Part.(*model.Interface).Members))
					fmt.Printf("    位置: %s\n\n", d.File.Name)
				}
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("请提供接口或类名称，或使用 --list 列出所有接口")
			}
			name := args[0]

			if iface := model.FindInterface(files, name); iface != nil {
				report, err := impact.Analyze(files, name)
				if err != nil {
					return err
				}
				fmt.Printf("接口: %s\n", name)
				fmt.Printf("位置: %s\n", report.File)
				fmt.Printf("方法: %s\n\n", memberNames(iface.Members))

				if len(report.Implementors) == 0 {
					fmt.Println("没有找到实现此接口的类")
				} else {
					fmt.Printf("实现类 (共 %d 个):\n\n", len(report.Implementors))
					for _, d := range report.Implementors {
						fmt.Printf("  %s\n", d.Name)
						fmt.Printf("    %s\n", d.File)
					}
				}
				if len(report.Extenders) > 0 {
					fmt.Printf("\n扩展接口 (共 %d 个):\n\n", len(report.Extenders))
					for _, d := range report.Extenders {
						fmt.Printf("  %s (继承自 %s)\n", d.Name, d.Via)
					}
				}
				return nil
			}

			if class := model.FindClass(files, name); class != nil {
				report, err := impact.Analyze(files, name)
				if err != nil && !errors.Is(err, impact.ErrTypeNotFound) {
					return err
				}
				fmt.Printf("类: %s\n", name)
				if report != nil {
					fmt.Printf("位置: %s\n", report.File)
				}
				fmt.Println()

				if len(class.Implements) == 0 {
					fmt.Println("此类没有实现任何接口")
					return nil
				}
				fmt.Printf("实现的接口 (共 %d 个):\n\n", len(class.Implements))
				for _, ref := range class.Implements {
					fmt.Printf("  %s\n", ref.Name)
					if iface := model.FindInterface(files, ref.Name); iface != nil {
						fmt.Printf("    方法: %s\n", memberNames(iface.Members))
					} else {
						fmt.Println("    (项目外部接口)")
					}
				}
				return nil
			}

			printNotFound("接口或类", name)
			return nil
		},
	}

	cmd.Flags().Bool("list", false, "列出所有接口")

	return cmd
}

func memberNames(members []model.Member) string {
	if len(members) == 0 {
		return "(空接口)"
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.NodeName())
	}
	return strings.Join(names, ", ")
}
