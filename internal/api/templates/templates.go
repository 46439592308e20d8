// Package templates 内嵌后台页面模板。
//
// layout.html 提供 header / footer 两个公共片段，其余每个文件即一个页面，
// 模板名为文件名。
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

//go:embed *.html
var files embed.FS

// Load 解析全部页面模板，并确认基础模板存在
func Load(baseTemplate string) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(files, "*.html")
	if err != nil {
		return nil, fmt.Errorf("解析页面模板失败: %w", err)
	}
	if baseTemplate != "" && tmpl.Lookup(baseTemplate) == nil {
		return nil, fmt.Errorf("基础模板 %q 不存在", baseTemplate)
	}
	for _, name := range []string{"header", "footer"} {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("缺少公共片段 %q", name)
		}
	}
	return tmpl, nil
}

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	// query 在 base URL 上追加查询参数
	"query": func(base string, kv ...string) string {
		q := url.Values{}
		for i := 0; i+1 < len(kv); i += 2 {
			q.Set(kv[i], kv[i+1])
		}
		if len(q) == 0 {
			return base
		}
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + q.Encode()
	},
}
