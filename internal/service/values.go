package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm/schema"

	"github.com/feelins/flask-admin/internal/repository"
)

// DisplayTimeLayout 时间的展示与导出格式
const DisplayTimeLayout = "2006-01-02 15:04:05"

const dateLayout = "2006-01-02"

// 表单与筛选接受的时间格式
var timeLayouts = []string{DisplayTimeLayout, "2006-01-02T15:04", dateLayout}

// 区间筛选值的分隔符：2022-10-01 to 2022-10-31
const rangeSeparator = " to "

var (
	errInvalidTime   = errors.New("时间格式无效，应为 YYYY-MM-DD 或 YYYY-MM-DD HH:MM:SS")
	errInvalidNumber = errors.New("数字格式无效")
	errInvalidBool   = errors.New("布尔值无效")
	errInvalidRange  = errors.New("区间格式无效，应为 <起> to <止>")
)

// FieldErrors 表单校验错误，键为列名
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "表单校验失败: " + strings.Join(parts, "; ")
}

// parseTime 按本地时区解析，dateOnly 表示输入只有日期
func parseTime(s string) (time.Time, bool, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, layout == dateLayout, nil
		}
	}
	return time.Time{}, false, errInvalidTime
}

// dayRange 当天 00:00:00 至 23:59:59.999999999
func dayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes", "y":
		return true, nil
	case "", "0", "false", "off", "no", "n":
		return false, nil
	}
	return false, errInvalidBool
}

func parseNumber(f *schema.Field, s string) (interface{}, error) {
	switch f.DataType {
	case schema.Int:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errInvalidNumber
		}
		return n, nil
	case schema.Uint:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errInvalidNumber
		}
		return n, nil
	default:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, errInvalidNumber
		}
		return n, nil
	}
}

// parseFieldValue 将表单字符串转换为列的值
//   - 字符串去除首尾空白并校验长度
//   - 可空列的空值存 NULL，非空时间列的空值取当前时间
func parseFieldValue(t *repository.Table, column, raw string) (interface{}, error) {
	f, ok := t.Field(column)
	if !ok {
		return nil, fmt.Errorf("未知列 %q", column)
	}
	raw = strings.TrimSpace(raw)
	nullable := t.Nullable(column)

	switch t.Kind(column) {
	case repository.KindTime:
		if raw == "" {
			if nullable {
				return nil, nil
			}
			return time.Now(), nil
		}
		v, _, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		return v, nil
	case repository.KindNumber:
		if raw == "" {
			if nullable {
				return nil, nil
			}
			raw = "0"
		}
		return parseNumber(f, raw)
	case repository.KindBool:
		return parseBool(raw)
	default:
		if raw == "" && nullable {
			return nil, nil
		}
		if f.Size > 0 && utf8.RuneCountInString(raw) > f.Size {
			return nil, fmt.Errorf("长度不能超过 %d 个字符", f.Size)
		}
		return raw, nil
	}
}

// filterValues 将筛选参数转换为 repository.Filter 的取值
func filterValues(t *repository.Table, column string, op repository.FilterOp, raw string) ([]interface{}, error) {
	raw = strings.TrimSpace(raw)
	if op == repository.OpEmpty {
		b, err := parseBool(raw)
		if err != nil {
			return nil, err
		}
		return []interface{}{b}, nil
	}

	f, _ := t.Field(column)
	switch t.Kind(column) {
	case repository.KindTime:
		return timeFilterValues(op, raw)
	case repository.KindNumber:
		if op == repository.OpBetween {
			lo, hi, err := splitRange(raw)
			if err != nil {
				return nil, err
			}
			a, err := parseNumber(f, lo)
			if err != nil {
				return nil, err
			}
			b, err := parseNumber(f, hi)
			if err != nil {
				return nil, err
			}
			return []interface{}{a, b}, nil
		}
		n, err := parseNumber(f, raw)
		if err != nil {
			return nil, err
		}
		return []interface{}{n}, nil
	case repository.KindBool:
		b, err := parseBool(raw)
		if err != nil {
			return nil, err
		}
		return []interface{}{b}, nil
	default:
		return []interface{}{raw}, nil
	}
}

// timeFilterValues eq / ne 按整天比较，gt / lt / between 对纯日期取当天边界
func timeFilterValues(op repository.FilterOp, raw string) ([]interface{}, error) {
	switch op {
	case repository.OpBetween:
		lo, hi, err := splitRange(raw)
		if err != nil {
			return nil, err
		}
		from, fromDate, err := parseTime(lo)
		if err != nil {
			return nil, err
		}
		to, toDate, err := parseTime(hi)
		if err != nil {
			return nil, err
		}
		if fromDate {
			from, _ = dayRange(from)
		}
		if toDate {
			_, to = dayRange(to)
		}
		return []interface{}{from, to}, nil
	default:
		v, dateOnly, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		start, end := dayRange(v)
		switch op {
		case repository.OpEqual, repository.OpNotEqual:
			return []interface{}{start, end}, nil
		case repository.OpGreater:
			if dateOnly {
				return []interface{}{end}, nil
			}
		case repository.OpSmaller:
			if dateOnly {
				return []interface{}{start}, nil
			}
		}
		return []interface{}{v}, nil
	}
}

func splitRange(raw string) (string, string, error) {
	parts := strings.SplitN(raw, rangeSeparator, 2)
	if len(parts) != 2 {
		return "", "", errInvalidRange
	}
	lo, hi := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if lo == "" || hi == "" {
		return "", "", errInvalidRange
	}
	return lo, hi, nil
}

// formatValue 列值的展示文本
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.In(time.Local).Format(DisplayTimeLayout)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}

// inputType 表单控件类型
func inputType(t *repository.Table, column string) string {
	switch t.Kind(column) {
	case repository.KindTime:
		return "datetime"
	case repository.KindNumber:
		return "number"
	case repository.KindBool:
		return "checkbox"
	}
	if f, ok := t.Field(column); ok && f.Size == 0 {
		return "textarea"
	}
	return "text"
}
