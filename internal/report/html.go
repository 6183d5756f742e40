package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/classworks/gradekeeper/internal/rubric"
)

const rubricStyle = `<style>
ul.rubric { list-style-type: none; margin-left: 0; padding-left: 1em; text-indent: -1em; }
.nono:before { content: "🔴"; padding-right: 5px; }
.yesyes:before { content: "🟢"; padding-right: 5px; }
.maybemaybe:before { content: "🟡"; padding-right: 5px; }
.nomatter:before { content: "⚪"; padding-right: 5px; }
</style>
`

var htmlFuncs = template.FuncMap{
	"grades": orderedGrades,
	"nodeClass": func(n *rubric.Node) string {
		return GradeClass(gradeValues(n.Overall), n.Requirement)
	},
	"problemClass": func(p *rubric.Problem) string {
		return GradeClass(gradeValues(p.Overall), p.Requirement)
	},
	"gradeClass": func(g int) string { return classOf(g) },
	"critClass": func(req rubric.RequirementType, cr *rubric.Criterion) string {
		gs, _ := criterionSummary(cr)
		return GradeClass(gs, req)
	},
	"oneline": func(cr *rubric.Criterion) string {
		gs, cats := criterionSummary(cr)
		parts := make([]string, len(gs))
		for i, g := range gs {
			parts[i] = fmt.Sprint(g)
		}
		return fmt.Sprintf("%s (%s)", strings.Join(parts, ","), strings.Join(cats, ", "))
	},
	"score": func(cr *rubric.Criterion) string {
		if !cr.Graded {
			return "-"
		}
		return fmt.Sprint(cr.Score)
	},
}

var rubricTmpl = template.Must(template.New("rubric").Funcs(htmlFuncs).Parse(`
{{- define "gradelist" -}}
<ul class="rubric grades">
{{- range grades . }}<li class="{{gradeClass .Grade}}">{{.Category}}: {{.Grade}}</li>{{end -}}
</ul>
{{- end -}}

{{- define "problem" -}}
<li class="{{problemClass .}}">{{.Sequence}}. {{.Title}} ({{.Requirement}})
<ul class="rubric criteria">
{{- $req := .Requirement -}}
{{- range .Criteria }}<li class="{{critClass $req .}}">{{.Title}}: {{score .}}/{{.MaxPoints}} = {{oneline .}}</li>{{end -}}
</ul></li>
{{- end -}}

{{- define "node" -}}
<li class="{{nodeClass .}}">{{.Sequence}}. {{.Title}} ({{.Requirement}})
{{- template "gradelist" .Overall -}}
<ul class="rubric">
{{- range .Problems -}}
{{- if .Ref }}{{template "node" .Ref}}{{else}}{{template "problem" .}}{{end -}}
{{- end -}}
</ul></li>
{{- end -}}

{{- define "page" -}}
<h1>{{.Title}}</h1>
<h2 class="{{nodeClass .}}">Overall</h2>
{{- template "gradelist" .Overall -}}
<ul class="rubric">{{template "node" .}}</ul>
{{- end -}}`))

// RenderHTML writes the graded tree as the traffic-light rubric page. The
// rubric must have been aggregated already.
func RenderHTML(w io.Writer, r *rubric.Rubric) error {
	if _, err := io.WriteString(w, rubricStyle); err != nil {
		return err
	}
	return rubricTmpl.ExecuteTemplate(w, "page", r.Root)
}
