package env

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/streamspace-dev/kioto/kerr"
)

// TemplateVar is one declared substitution variable under
// `-kt-build.templates.<field>.<var>`: either a bare "" placeholder with
// no default, or an inline table carrying an optional match pattern and
// default value.
type TemplateVar struct {
	Match   string
	Default string
}

var templateTag = regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)

// normalizeTemplates converts the raw, heterogeneously-typed
// `templates.<field>.<var>` table (each var is either a bare string or
// an inline {match=, default=} table) into typed TemplateVar declarations.
func normalizeTemplates(raw map[string]map[string]any) (map[string]map[string]TemplateVar, error) {
	out := make(map[string]map[string]TemplateVar, len(raw))
	for field, vars := range raw {
		fieldVars := make(map[string]TemplateVar, len(vars))
		for name, v := range vars {
			switch val := v.(type) {
			case string:
				fieldVars[name] = TemplateVar{Default: val}
			case map[string]any:
				tv := TemplateVar{}
				if m, ok := val["match"].(string); ok {
					tv.Match = m
				}
				if d, ok := val["default"].(string); ok {
					tv.Default = d
				}
				fieldVars[name] = tv
			default:
				return nil, kerr.LoadPluginError(fmt.Sprintf("templates.%s.%s: unsupported declaration", field, name))
			}
		}
		out[field] = fieldVars
	}
	return out, nil
}

// tags returns the set of {{var}} names referenced by value, in order of
// first appearance.
func tags(value string) []string {
	matches := templateTag.FindAllStringSubmatch(value, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// validateField checks that every {{var}} tag in value was declared
// under -kt-build.templates.<field>, at build time, before any
// substitution is attempted.
func validateField(field, value string, declared map[string]TemplateVar) error {
	for _, t := range tags(value) {
		if _, ok := declared[t]; !ok {
			return kerr.LoadPluginError(fmt.Sprintf("field %q uses undeclared template var %q", field, t))
		}
	}
	return nil
}

// renderField substitutes every {{var}} tag in value using input (the
// per-field table/object supplied to Apply), falling back to each
// declared var's Default. A declared var with neither an input value nor
// a default is a structured I/O error; input keys with no corresponding
// tag are ignored.
func renderField(field, value string, declared map[string]TemplateVar, input map[string]any) (string, error) {
	out := value
	for _, t := range tags(value) {
		var rendered string
		var ok bool
		if raw, present := input[t]; present {
			rendered, ok = fmt.Sprint(raw), true
		} else if d, has := declared[t]; has && d.Default != "" {
			rendered, ok = d.Default, true
		}
		if !ok {
			return "", kerr.IOError(fmt.Sprintf("missing template input for %q in field %q", t, field))
		}
		out = strings.ReplaceAll(out, "{{"+t+"}}", rendered)
		out = strings.ReplaceAll(out, "{{ "+t+" }}", rendered)
	}
	return out, nil
}

// ApplyTemplates renders every field of doc declared under templates,
// using the matching sub-object of input (input[field] supplies the
// vars for that field), and writes the rendered string back into doc.
func ApplyTemplates(doc map[string]any, templates map[string]map[string]TemplateVar, input map[string]any) error {
	for field, declared := range templates {
		raw, ok := doc[field].(string)
		if !ok {
			continue
		}
		fieldInput, _ := input[field].(map[string]any)
		rendered, err := renderField(field, raw, declared, fieldInput)
		if err != nil {
			return err
		}
		doc[field] = rendered
	}
	return nil
}
