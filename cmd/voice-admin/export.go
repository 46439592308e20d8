package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feelins/flask-admin/internal/admin"
	"github.com/feelins/flask-admin/internal/dto"
)

func exportCommand() *cobra.Command {
	var (
		format string
		output string
		search string
	)
	cmd := &cobra.Command{
		Use:   "export <endpoint>",
		Short: "按视图导出全部记录为 csv 或 xlsx",
		Args:  cobra.ExactArgs(1),
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

			v, ok := a.admin.ModelView(args[0])
			if !ok {
				return fmt.Errorf("未知视图: %s", args[0])
			}

			buf, filename, err := a.svc.Export.Export(cmd.Context(), v, &dto.ListRequest{Search: search}, format)
			if err != nil {
				return err
			}
			if output == "" {
				output = filename
			}
			if output == "-" {
				_, err = os.Stdout.Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("写入导出文件失败: %w", err)
			}
			fmt.Fprintf(os.Stderr, "已导出到 %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", admin.ExportCSV, "导出格式: csv | xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件，- 表示标准输出（默认使用生成的文件名）")
	cmd.Flags().StringVar(&search, "search", "", "与列表页相同的搜索词")
	return cmd
}
