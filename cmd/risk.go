package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zheng/cuml/internal/impact"
)

func riskCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "risk [type-name]",
		Short: "分析类型变更风险",
		Long: `根据依赖某个类型的声明数量评估修改它的风险。

风险等级说明：
  - critical: 直接依赖 >= 20 或总依赖 >= 50
  - high:     直接依赖 >= 10 或总依赖 >= 25
  - medium:   直接依赖 >= 3 或总依赖 >= 8
  - low:      其他

示例：
  cuml risk Shape      # 查看单个类型的风险
  cuml risk --top 20   # 显示风险最高的20个类型`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showTop, _ := cmd.Flags().GetBool("top")

			files, err := loadModels(cmd)
			if err != nil {
				return err
			}

			if showTop || len(args) == 0 {
				scores := impact.Rank(files)
				if len(scores) == 0 {
					fmt.Println("项目中没有类型")
					return nil
				}
				if limit > 0 && len(scores) > limit {
					scores = scores[:limit]
				}

				fmt.Printf("高风险类型排行 (Top %d)\n\n", len(scores))
				for _, s := range scores {
					fmt.Printf("%s %-8s  %s\n", getRiskIcon(s.Level), s.Level, s.Target)
					fmt.Printf("             直接依赖: %d  总依赖: %d  %s\n\n", s.Direct, s.Total, s.File)
				}

				fmt.Println("风险等级: 🔴critical(>=20) 🟠high(>=10) 🟡medium(>=3) 🟢low")
				fmt.Println("\n💡 使用 cuml risk <类型名> 查看详细分析")
				return nil
			}

			typeName := args[0]
			report, err := impact.Analyze(files, typeName)
			if errors.Is(err, impact.ErrTypeNotFound) {
				return fmt.Errorf("未找到类型: %s", typeName)
			}
			if err != nil {
				return err
			}
			risk := report.Risk()

			fmt.Printf("## 变更风险分析: %s\n\n", risk.Target)
			fmt.Printf("**类型:** %s\n", risk.Kind)
			fmt.Printf("**位置:** %s\n\n", risk.File)

			fmt.Printf("### 风险等级: %s %s\n\n", getRiskIcon(risk.Level), risk.Level)
			fmt.Printf("直接依赖: %d\n", risk.Direct)
			fmt.Printf("总依赖: %d\n", risk.Total)
			fmt.Printf("涉及文件: %d\n", len(report.AffectedFiles()))

			fmt.Println("\n**建议:**")
			switch risk.Level {
			case impact.RiskCritical:
				fmt.Println("- ⚠️  此类型被大量依赖，修改需极其谨慎")
				fmt.Println("- 建议先运行 `cuml impact` 查看完整影响范围")
				fmt.Println("- 考虑新增类型或接口而非修改现有定义")
			case impact.RiskHigh:
				fmt.Println("- ⚠️  此类型依赖较多，修改需谨慎")
				fmt.Println("- 建议运行 `cuml impact` 查看子类和实现类")
			case impact.RiskMedium:
				fmt.Println("- 正常风险，注意检查子类和引用处是否需要同步修改")
			case impact.RiskLow:
				fmt.Println("- 低风险，影响范围较小")
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "显示数量")
	cmd.Flags().Bool("top", false, "显示风险最高的类型列表")

	return cmd
}

func getRiskIcon(level string) string {
	switch level {
	case impact.RiskCritical:
		return "🔴"
	case impact.RiskHigh:
		return "🟠"
	case impact.RiskMedium:
		return "🟡"
	default:
		return "🟢"
	}
}
