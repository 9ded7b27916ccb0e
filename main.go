package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zheng/cuml/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cuml",
		Short: "cuml - 类图生成工具",
		Long: `cuml 从 Go 或 TypeScript 源码中提取类、接口和枚举，
生成 PlantUML / Mermaid 类图，并追踪类型变更的影响范围。`,
		SilenceUsage: true,
	}

	cmd.RegisterCommands(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
