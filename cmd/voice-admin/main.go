package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feelins/flask-admin/config"
)

const programName = "voice-admin"

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "语音数据管理后台",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml 与 ./config.yaml）")

	rootCmd.AddCommand(
		serveCommand(),
		seedCommand(),
		exportCommand(),
		tokenCommand(),
		hashPasswordCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}
	return cfg, nil
}
