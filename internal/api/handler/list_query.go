package handler

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/feelins/flask-admin/internal/dto"
	"github.com/feelins/flask-admin/internal/repository"
)

const filterPrefix = "flt_"

// 按长度从长到短匹配，not_like 必须先于 like
var filterOps = []repository.FilterOp{
	repository.OpNotLike,
	repository.OpBetween,
	repository.OpEmpty,
	repository.OpLike,
	repository.OpEqual,
	repository.OpNotEqual,
	repository.OpGreater,
	repository.OpSmaller,
}

// parseListRequest 解析列表查询参数：page / search / sort / desc / flt_<column>_<op>
func parseListRequest(q url.Values) *dto.ListRequest {
	req := &dto.ListRequest{
		Search: strings.TrimSpace(q.Get("search")),
		Sort:   q.Get("sort"),
		Desc:   q.Get("desc") == "1",
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		req.Page = page
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		if strings.HasPrefix(k, filterPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		column, op := splitFilterKey(strings.TrimPrefix(k, filterPrefix))
		for _, v := range q[k] {
			req.Filters = append(req.Filters, dto.FilterParam{Column: column, Op: op, Value: v})
		}
	}
	return req
}

// splitFilterKey 将 "<column>_<op>" 拆分；无法识别操作时 op 为空
func splitFilterKey(key string) (string, string) {
	for _, op := range filterOps {
		suffix := "_" + string(op)
		if strings.HasSuffix(key, suffix) && len(key) > len(suffix) {
			return strings.TrimSuffix(key, suffix), string(op)
		}
	}
	return key, ""
}

func filterKey(p dto.FilterParam) string {
	return filterPrefix + p.Column + "_" + p.Op
}

// listState 列表当前状态参数（不含页码），用于生成排序、翻页与导出链接
func listState(q url.Values) url.Values {
	state := url.Values{}
	for k, vs := range q {
		if k == "page" {
			continue
		}
		state[k] = append([]string(nil), vs...)
	}
	return state
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, vs := range q {
		out[k] = append([]string(nil), vs...)
	}
	return out
}

func withQuery(base string, q url.Values) string {
	if len(q) == 0 {
		return base
	}
	return base + "?" + q.Encode()
}
