package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "重建表结构并从 seed 配置的表格导入示例数据",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := bootstrap(cfg)
			if err != nil {
				return err
			}
			defer a.close()
			return runSeed(cmd.Context(), a)
		},
	}
}

func runSeed(ctx context.Context, a *app) error {
	result, err := a.svc.Seed.Seed(ctx)
	if err != nil {
		return fmt.Errorf("导入示例数据失败: %w", err)
	}
	fmt.Printf("导入完成: information=%d evaluation=%d version=%d\n",
		result.Information, result.Evaluation, result.Version)
	return nil
}
