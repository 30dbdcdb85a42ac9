// Package template renders the small templating grammar FileCopyExec and
// file-copy/template Tasks use: Go text/template delimiters ({{ }}) for
// substitution and control flow, with Starlark backing any inline
// expression a {{ }} action evaluates through a "star" function — the
// split SPEC_FULL.md §12 calls out, grounded on
// original_source/op-exec/src/exec/template's expression-grammar split.
// No third-party templating library appears anywhere in the example pack,
// so text/template is the standard-library choice, not a deviation from
// one.
package template

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/opereon/opereon/internal/model"
)

// Render executes src as a text/template body against data, exposing a
// "star" function that evaluates a Starlark expression with the same
// hosts/users/procs bindings model.Query uses, for templates that need to
// reach into the manifest inline rather than via pre-computed data.
func Render(src string, m *model.Manifest, data map[string]interface{}) (string, error) {
	tmpl, err := template.New("file").Funcs(template.FuncMap{
		"star": func(expr string) (interface{}, error) {
			values, err := model.Query(m, expr)
			if err != nil {
				return nil, err
			}
			if len(values) == 1 {
				return values[0], nil
			}
			return values, nil
		},
	}).Parse(src)
	if err != nil {
		return "", fmt.Errorf("template: parse: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template: render: %w", err)
	}
	return buf.String(), nil
}
