// Package planview renders workout plans for people: GitHub-flavoured Markdown for the CLI and HTML for the web.
package planview

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
)

const missing = "-"

//nolint:gochecknoglobals // goldmark instances are safe for concurrent use.
var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders plan as one section per day with a table of exercises followed by their instructions.
func Markdown(plan workout.Plan) string {
	var sb strings.Builder
	p := plan.UserProfile

	fmt.Fprintf(&sb, "# Workout plan %s\n\n", plan.ID)
	fmt.Fprintf(&sb, "Generated %s for %d days per week, %s level, goal %s.",
		plan.GeneratedDate, p.DaysPerWeek, p.FitnessLevel, strings.ReplaceAll(string(p.Goal), "_", " "))
	if plan.Source == workout.SourceRules {
		sb.WriteString(" Built from training rules.")
	}
	sb.WriteString("\n")

	for _, d := range plan.WeeklySchedule {
		fmt.Fprintf(&sb, "\n## Day %d: %s (%d min)\n\n", d.Day, cell(d.Focus), d.TotalDuration)
		if len(d.Exercises) == 0 {
			sb.WriteString("_Rest or free training, no exercises matched the available equipment._\n")
			continue
		}
		sb.WriteString("| Exercise | Type | Sets | Reps | Duration | Rest | Equipment |\n")
		sb.WriteString("| --- | --- | ---: | ---: | ---: | ---: | --- |\n")
		for _, e := range d.Exercises {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s | %s |\n",
				cell(e.Name), e.Type, number(e.Sets, ""), number(e.Reps, ""), number(e.Duration, "s"),
				number(e.Rest, "s"), text(e.Equipment))
		}

		var instructions []string
		for _, e := range d.Exercises {
			if e.Instructions != nil && *e.Instructions != "" {
				instructions = append(instructions, fmt.Sprintf("- **%s**: %s", e.Name, *e.Instructions))
			}
		}
		if len(instructions) > 0 {
			sb.WriteString("\n")
			sb.WriteString(strings.Join(instructions, "\n"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// HTML renders the Markdown form of plan to HTML.
func HTML(plan workout.Plan) (string, error) {
	return MarkdownToHTML(Markdown(plan))
}

// MarkdownToHTML converts GitHub-flavoured Markdown to HTML. Raw HTML in the input is omitted.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", errors.Wrap(err, "convert markdown")
	}
	return buf.String(), nil
}

func number(v *int, unit string) string {
	if v == nil {
		return missing
	}
	return strconv.Itoa(*v) + unit
}

func text(s *string) string {
	if s == nil || *s == "" {
		return missing
	}
	return cell(*s)
}

// cell escapes characters that would break a table row or start inline HTML.
func cell(s string) string {
	return strings.NewReplacer("|", `\|`, "<", `\<`, "\n", " ").Replace(s)
}
