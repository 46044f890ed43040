package page

import (
	"fmt"
	"io"
	"text/template"

	"github.com/manifoldco/promptui"
)

const pageTemplate = `{{ "<-" | faint }} {{ .CollectionName | cyan }}{{ if .Verified }} {{ "(verified)" | green }}{{ end }} {{ .CollectionPath | faint }}
{{ .TokenName | bold }}{{ if .Flagged }} {{ "!" | red }} {{ .FlaggedText | red }}{{ end }}
{{- if .OwnedText }}
{{ .OwnedText }} {{ "Sell:" | faint }} {{ .SellPath }}
{{- end }}
{{- if .ShowOwner }}
{{ "Owner" | faint }} {{ .OwnerDisplay }} {{ .OwnerPath | faint }}
{{- end }}
{{- if .Rarity }}
{{ .Rarity }}
{{- end }}
{{ "Floor" | faint }} {{ .FloorAsk }}  {{ "Top bid" | faint }} {{ .TopBid }}
{{- if .ShowActions }}
{{ "Refresh" | faint }} {{ if .Refresh.Spinning }}{{ "refreshing..." | yellow }}{{ else }}{{ "ready" | green }}{{ end }}
{{- end }}
{{- if .AttributesInline }}
{{ template "attributes" . }}
{{- end }}
{{ range .Tabs }}{{ if eq . $.ActiveTab }}[{{ . | bold }}]{{ else }} {{ . }} {{ end }}{{ end }}
{{- if eq .ActiveTab "attributes" }}
{{ template "attributes" . }}
{{- else }}
{{ .Title | bold }}
{{ .Description }}
{{- if .Image }}
{{ .Image | faint }}
{{- end }}
{{- end }}
{{ define "attributes" }}
{{- range .Attributes }}
  {{ .Key | faint }}: {{ .Value | bold }} {{ .Percent }} {{ "floor" | faint }} {{ .Floor }}
{{- end }}
{{- end }}`

var compiled = template.Must(template.New("page").Funcs(promptui.FuncMap).Parse(pageTemplate))

// Render writes the model as a terminal page.
func Render(w io.Writer, m Model) error {
	if err := compiled.Execute(w, m); err != nil {
		return fmt.Errorf("failed to render token page: %w", err)
	}

	return nil
}
