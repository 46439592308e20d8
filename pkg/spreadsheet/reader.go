// Package spreadsheet 读写 .xlsx 工作簿：按表头把数据行转换为键值行，或把表格写成单个工作表。
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrSheetNotFound         = errors.New("工作表不存在")
	ErrHeaderRowOutOfRange   = errors.New("表头行超出工作表范围")
	ErrNegativeSheetPosition = errors.New("工作表序号与表头行不能为负数")
)

// Sheet 读取结果：列名按出现顺序排列，每行以列名为键
type Sheet struct {
	Name    string
	Columns []string
	Rows    []map[string]string
}

// Column 按位置取列名
func (s *Sheet) Column(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.Columns) {
		return "", false
	}
	return s.Columns[idx], true
}

// LoadFile 打开工作簿文件，读取第 sheetIndex 个工作表，以第 headerRow 行为表头
func LoadFile(path string, sheetIndex, headerRow int) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("打开工作簿 %s 失败: %w", path, err)
	}
	defer f.Close()

	return load(f, sheetIndex, headerRow)
}

// Load 从 reader 读取工作簿，其余同 LoadFile
func Load(r io.Reader, sheetIndex, headerRow int) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析工作簿失败: %w", err)
	}
	defer f.Close()

	return load(f, sheetIndex, headerRow)
}

func load(f *excelize.File, sheetIndex, headerRow int) (*Sheet, error) {
	if sheetIndex < 0 || headerRow < 0 {
		return nil, ErrNegativeSheetPosition
	}

	sheets := f.GetSheetList()
	if sheetIndex >= len(sheets) {
		return nil, fmt.Errorf("%w: 序号 %d，共 %d 个", ErrSheetNotFound, sheetIndex, len(sheets))
	}
	name := sheets[sheetIndex]

	// 读取原始值，避免数字格式（千分位、日期格式等）改变单元格文本
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("读取工作表 %s 失败: %w", name, err)
	}
	if headerRow >= len(rows) {
		return nil, fmt.Errorf("%w: 第 %d 行，共 %d 行", ErrHeaderRowOutOfRange, headerRow, len(rows))
	}

	columns := headerNames(padTo(rows[headerRow], sheetWidth(rows[headerRow:])))
	sheet := &Sheet{
		Name:    name,
		Columns: columns,
		Rows:    make([]map[string]string, 0, len(rows)-headerRow-1),
	}

	for _, raw := range rows[headerRow+1:] {
		if isBlank(raw) {
			continue
		}
		row := make(map[string]string, len(columns))
		for j, col := range columns {
			if j < len(raw) {
				row[col] = strings.TrimSpace(raw[j])
			} else {
				row[col] = ""
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

// headerNames 规范化表头：空白表头命名为 "Unnamed: j"，重复表头依次追加 .1 .2 后缀
func headerNames(raw []string) []string {
	names := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for j, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(j)
		}
		if n, dup := seen[h]; dup {
			seen[h] = n + 1
			candidate := h + "." + strconv.Itoa(n+1)
			for {
				if _, taken := seen[candidate]; !taken {
					break
				}
				seen[h]++
				candidate = h + "." + strconv.Itoa(seen[h])
			}
			seen[candidate] = 0
			h = candidate
		} else {
			seen[h] = 0
		}
		names[j] = h
	}
	return names
}

// sheetWidth 取表头及其后各行的最大列数；GetRows 会丢弃行尾空单元格
func sheetWidth(rows [][]string) int {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	return width
}

func padTo(raw []string, width int) []string {
	if len(raw) >= width {
		return raw
	}
	padded := make([]string, width)
	copy(padded, raw)
	return padded
}

func isBlank(raw []string) bool {
	for _, v := range raw {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
