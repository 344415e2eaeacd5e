package frontend

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl templates/widgets/*.tpl
var embeddedTemplates embed.FS

// TemplateName is the template a step is rendered with.
const TemplateName = "form"

// NoticeTemplateName renders notices when no step is shown.
const NoticeTemplateName = "notices"

// TemplatesFS exposes the built-in step templates so callers can reuse or
// override them.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}
