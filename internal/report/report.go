// Package report renders the CSV artifact into a static HTML preview.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/spider"
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>招聘数据展示</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; padding-top: 60px; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        tr:hover { background-color: #f1f1f1; }
        .navbar {
            position: fixed; top: 0; left: 0; width: 100%;
            background-color: #333; padding: 10px 20px;
            box-shadow: 0 2px 5px rgba(0,0,0,0.2); z-index: 1000;
            box-sizing: border-box;
        }
        .nav-button {
            color: white; text-decoration: none; padding: 8px 15px;
            border-radius: 5px; transition: background-color 0.3s;
        }
        .nav-button:hover { background-color: #555; }
    </style>
</head>
<body>
<div class="navbar"><a href="/" class="nav-button">返回主页</a></div>
<h1>招聘数据展示</h1>
<table>
<thead>
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
</body>
</html>
`))

type pageData struct {
	Headers []string
	Rows    [][]string
}

// Render converts the CSV artifact into a static HTML table. A missing or
// empty artifact falls back to the known header set with zero rows. I/O
// failures are returned to the caller, never retried.
func Render(csvPath, htmlPath string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	headers, rows, err := readArtifact(csvPath)
	if err != nil {
		logger.Warn("artifact missing or empty, rendering header-only table",
			zap.String("path", csvPath),
			zap.Error(err),
		)
		headers, rows = spider.Columns, nil
	}

	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o750); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("create report %s: %w", htmlPath, err)
	}
	defer f.Close()

	if err := pageTemplate.Execute(f, pageData{Headers: headers, Rows: rows}); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	logger.Info("report rendered", zap.String("path", htmlPath), zap.Int("rows", len(rows)))
	return nil
}

func readArtifact(path string) (headers []string, rows [][]string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read artifact: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	r := csv.NewReader(bytes.NewReader(data))
	headers, err = r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("artifact has no header row")
		}
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	rows, err = r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return headers, rows, nil
}
