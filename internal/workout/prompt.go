package workout

import (
	"embed"
	"strings"
	"text/template"

	"github.com/zonroxx/FitQuest-AI/internal/catalog"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
)

//go:embed prompts
var promptFS embed.FS

//nolint:gochecknoglobals // parsed once, read-only.
var planPrompt = template.Must(template.New("plan.tmpl").Funcs(template.FuncMap{
	"join":  strings.Join,
	"upper": func(c catalog.Category) string { return strings.ToUpper(string(c)) },
}).ParseFS(promptFS, "prompts/plan.tmpl"))

type promptSection struct {
	Category catalog.Category
	Entries  []catalog.Entry
}

type promptData struct {
	Profile  Profile
	Minutes  int
	Sections []promptSection
}

// BuildPrompt renders the generation instructions for profile. Every catalog entry is listed by category so the model
// picks names the catalog knows.
func BuildPrompt(profile Profile, cat *catalog.Catalog) (string, error) {
	data := promptData{
		Profile:  profile,
		Minutes:  profile.WorkoutDuration,
		Sections: make([]promptSection, 0, len(catalog.Categories())),
	}
	for _, c := range catalog.Categories() {
		data.Sections = append(data.Sections, promptSection{Category: c, Entries: cat.Entries(c)})
	}

	var sb strings.Builder
	if err := planPrompt.Execute(&sb, data); err != nil {
		return "", errors.Wrap(err, "execute plan prompt")
	}
	return sb.String(), nil
}
