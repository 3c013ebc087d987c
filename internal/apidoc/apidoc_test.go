package apidoc

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ant-design/antd-tools/internal/output"
)

const buttonDoc = `---
category: Components
title: Button
---

## API

| Property | Description | Type |
| --- | --- | --- |
| onClick | Click handler | function |
| xl | Extra large | number |
| ~~ghost~~ | Deprecated | boolean |
| Type | Button type | string |
| afterChange | Callback | function |
| block | Fit width | boolean |
| sm | Small | number |
| danger | Danger | boolean |

Trailing text stays.
`

const buttonSorted = `---
category: Components
title: Button
---

## API

| Property | Description | Type |
| --- | --- | --- |
| block | Fit width | boolean |
| danger | Danger | boolean |
| Type | Button type | string |
| sm | Small | number |
| xl | Extra large | number |
| afterChange | Callback | function |
| onClick | Click handler | function |
| ~~ghost~~ | Deprecated | boolean |

Trailing text stays.
`

func TestClassify(t *testing.T) {
	assert.Equal(t, GroupEvent, Classify("onChange", false))
	assert.Equal(t, GroupEvent, Classify("beforeChange", false))
	assert.Equal(t, GroupStatic, Classify("once", false))
	assert.Equal(t, GroupSize, Classify("xxl", false))
	assert.Equal(t, GroupStatic, Classify("size", false))
	assert.Equal(t, GroupDeprecated, Classify("onClick", true))
}

func TestSortTables(t *testing.T) {
	rep := Report{}
	out, err := SortTables([]byte(buttonDoc), "button", rep)
	require.NoError(t, err)
	assert.Equal(t, buttonSorted, string(out))

	api := rep["button"]
	require.NotNil(t, api)
	assert.Equal(t, []string{"xl", "sm"}, api.Size)
	assert.Equal(t, []string{"onClick", "afterChange"}, api.Dynamic)
	assert.Equal(t, []string{"ghost"}, api.Deprecated)
	assert.Equal(t, []string{"Type", "block", "danger"}, api.Static)

	again, err := SortTables(out, "button", nil)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))
}

func TestSortTablesWithoutTables(t *testing.T) {
	src := "# Title\n\nNo tables here.\n"
	out, err := SortTables([]byte(src), "x", nil)
	require.NoError(t, err)
	assert.Equal(t, src, string(out))
}

func TestComponentName(t *testing.T) {
	name, ok := ComponentName("components/date-picker/index.en-US.md")
	require.True(t, ok)
	assert.Equal(t, "date-picker", name)
	_, ok = ComponentName("docs/readme.md")
	assert.False(t, ok)
}

func writeDoc(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func TestSorterRun(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "components/button/index.en-US.md", buttonDoc)
	writeDoc(t, root, "components/button/index.zh-CN.md", buttonSorted)
	writeDoc(t, root, "components/button/demo/basic.md", buttonDoc)
	var buf bytes.Buffer

	s := &Sorter{Root: root, Out: output.NewPrinter(&buf)}
	res, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, []string{"components/button/index.en-US.md", "components/button/index.zh-CN.md"}, res.Files)
	assert.Equal(t, []string{"components/button/index.en-US.md"}, res.Changed)

	data, err := os.ReadFile(filepath.Join(root, "components/button/index.en-US.md"))
	require.NoError(t, err)
	assert.Equal(t, buttonSorted, string(data))

	demo, err := os.ReadFile(filepath.Join(root, "components/button/demo/basic.md"))
	require.NoError(t, err)
	assert.Equal(t, buttonDoc, string(demo))

	raw, err := os.ReadFile(filepath.Join(root, DefaultReportFile))
	require.NoError(t, err)
	var apis map[string]ComponentAPI
	require.NoError(t, json.Unmarshal(raw, &apis))
	assert.Equal(t, []string{"ghost"}, apis["button"].Deprecated)
	assert.Contains(t, buf.String(), DefaultReportFile)
}

func TestSorterReportOnly(t *testing.T) {
	root := t.TempDir()
	writeDoc(t, root, "components/button/index.en-US.md", buttonDoc)
	var buf bytes.Buffer

	s := &Sorter{Root: root, ReportOnly: true, Output: "api.json", Out: output.NewPrinter(&buf)}
	res, err := s.Run()
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Equal(t, filepath.Join(root, "api.json"), res.ReportPath)

	data, err := os.ReadFile(filepath.Join(root, "components/button/index.en-US.md"))
	require.NoError(t, err)
	assert.Equal(t, buttonDoc, string(data))
	assert.Contains(t, buf.String(), "report components/button/index.en-US.md")
}

func TestCollection(t *testing.T) {
	fsys := fstest.MapFS{
		"components/button/index.en-US.md": {Data: []byte("| Property | Description |\n| --- | --- |\n| disabled | x |\n| onClick | y |\n| size | z |\n")},
		"components/input/index.en-US.md":  {Data: []byte("| Property | Description |\n| --- | --- |\n| disabled | x |\n| size | y |\n| allowClear | z |\n")},
		"components/input/index.zh-CN.md":  {Data: []byte("| 参数 | 说明 |\n| --- | --- |\n| disabled | x |\n")},
		"components/select/index.en-US.md": {Data: []byte("| `value` | code spans are ignored |\n| size | z |\n")},
	}
	props, err := CollectProps(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"disabled", "onClick", "size"}, props["button"])
	assert.Equal(t, []string{"size"}, props["select"])

	usages := SharedProps(props)
	require.NotEmpty(t, usages)
	assert.Equal(t, PropUsage{Name: "size", Components: []string{"button", "input", "select"}}, usages[0])
	assert.Equal(t, PropUsage{Name: "disabled", Components: []string{"button", "input"}}, usages[1])

	var buf bytes.Buffer
	PrintCollection(output.NewPrinter(&buf), usages)
	assert.Contains(t, buf.String(), "| size | button, input, select | |\n")
}
