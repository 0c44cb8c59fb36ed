package core

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatNumberTemplate(t *testing.T) {
	cases := map[any]string{
		0:             "0",
		999:           "999",
		1000:          "1,000",
		int64(123456): "123,456",
		-1234567:      "-1,234,567",
		"n/a":         "n/a",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatNumberTemplate(in), "input %v", in)
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcd…", TruncateText("abcdefgh", 5))
	assert.Equal(t, "éé…", TruncateText("éééé", 3))
	assert.Equal(t, "unbounded", TruncateText("unbounded", 0))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "badge-success", statusClass("complete"))
	assert.Equal(t, "badge-warning", statusClass("Running"))
	assert.Equal(t, "badge-light", statusClass("unknown"))
}

func TestRenderSection(t *testing.T) {
	var tmpl *template.Template
	funcs := Funcs(Deps{
		Template:           &tmpl,
		ContentTemplateFor: func(page string) string { return page + "-content" },
	})
	parsed, err := template.New("root").Funcs(funcs).Parse(
		`{{define "a-content"}}<b>{{.}}</b>{{end}}{{define "page"}}{{renderSection "a" .}}{{end}}`)
	require.NoError(t, err)
	tmpl = parsed

	var out strings.Builder
	require.NoError(t, tmpl.ExecuteTemplate(&out, "page", "<x>"))
	assert.Equal(t, "<b>&lt;x&gt;</b>", out.String())
}

func TestRenderSectionWithoutTemplate(t *testing.T) {
	funcs := Funcs(Deps{ContentTemplateFor: func(string) string { return "" }})
	render, ok := funcs["renderSection"].(func(string, any) (template.HTML, error))
	require.True(t, ok)
	_, err := render("a", nil)
	assert.Error(t, err)
}
