package cmd

import (
	"github.com/spf13/cobra"
)

var (
	DbPath     string
	ConfigPath string
)

// RegisterCommands adds the global flags and all subcommands to the root command
func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().StringVarP(&DbPath, "db", "d", ".cuml.db", "数据库文件路径")
	rootCmd.PersistentFlags().StringVar(&ConfigPath, "config", "", "配置文件路径 (默认向上查找 .cuml.yaml / .cuml.toml)")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(impactCmd())
	rootCmd.AddCommand(implementsCmd())
	rootCmd.AddCommand(riskCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(viewCmd())
}
