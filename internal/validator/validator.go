// Package validator statically checks authored entities before they are run.
package validator

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/registry"
	"github.com/aretw0/vignette/pkg/steps"
	"github.com/charmbracelet/lipgloss"
)

// Severity ranks an Issue. Errors make content unrunnable as authored; warnings are legal
// but probably unintended (the runtime degrades them to no-ops).
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding, located by entity, page index and step.
type Issue struct {
	Severity Severity
	Entity   string
	Page     int
	Step     string
	Message  string
}

func (i Issue) Location() string {
	loc := i.Entity
	if i.Page >= 0 {
		loc = fmt.Sprintf("%s#%d", loc, i.Page)
	}
	if i.Step != "" {
		loc += "/" + i.Step
	}
	return loc
}

// Report collects the issues of one validation run.
type Report struct {
	Entities int
	Issues   []Issue
}

// Errors counts error-severity issues.
func (r *Report) Errors() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings counts warning-severity issues.
func (r *Report) Warnings() int {
	return len(r.Issues) - r.Errors()
}

// Err summarizes the report as an error when it has errors.
func (r *Report) Err() error {
	if n := r.Errors(); n > 0 {
		return fmt.Errorf("found %d errors", n)
	}
	return nil
}

func (r *Report) add(sev Severity, entity string, page int, step, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: sev, Entity: entity, Page: page, Step: step,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks every spec against reg, which supplies the known step and condition kinds.
// A nil reg uses the built-in kinds.
func Validate(specs []domain.DefinitionSpec, reg *registry.Registry) *Report {
	if reg == nil {
		reg = registry.NewDefault()
	}
	report := &Report{Entities: len(specs)}

	known := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.ID == "" {
			report.add(SeverityError, "(unnamed)", -1, "", "entity has no id")
			continue
		}
		if known[spec.ID] {
			report.add(SeverityError, spec.ID, -1, "", "duplicate entity id")
		}
		known[spec.ID] = true
	}

	for _, spec := range specs {
		if spec.ID == "" {
			continue
		}
		if len(spec.Pages) == 0 {
			report.add(SeverityWarning, spec.ID, -1, "", "entity has no pages; every activation is a no-op")
		}
		for i, page := range spec.Pages {
			validatePage(report, reg, known, spec.ID, i, page)
		}
	}
	return report
}

func validatePage(report *Report, reg *registry.Registry, entities map[string]bool, entity string, index int, page domain.PageSpec) {
	if _, err := domain.ParseTrigger(page.Trigger); err != nil {
		report.add(SeverityError, entity, index, "", "%v", err)
	}
	if _, err := reg.BuildConditions(page.Conditions, nil); err != nil {
		report.add(SeverityError, entity, index, "", "conditions: %v", err)
	}
	if len(page.Steps) == 0 {
		report.add(SeverityWarning, entity, index, "", "page has no steps")
		return
	}

	built := make(map[string]domain.Step, len(page.Steps))
	for _, ss := range page.Steps {
		if ss.ID == "" {
			report.add(SeverityError, entity, index, "", "step of kind %q has no id", ss.Kind)
			continue
		}
		if _, dup := built[ss.ID]; dup {
			report.add(SeverityError, entity, index, ss.ID, "duplicate step id")
			continue
		}
		step, err := reg.BuildStep(ss, nil)
		if err != nil {
			report.add(SeverityError, entity, index, ss.ID, "%v", err)
			built[ss.ID] = nil
			continue
		}
		built[ss.ID] = step
		if act, ok := step.(*steps.Activate); ok && act.Entity != "" && !entities[act.Entity] {
			report.add(SeverityWarning, entity, index, ss.ID, "activates unknown entity %q", act.Entity)
		}
	}

	start := page.EntryStep()
	if _, ok := built[start]; !ok {
		report.add(SeverityError, entity, index, "", "start step %q does not exist", start)
		return
	}

	reachable := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		step := built[id]
		if step == nil {
			continue
		}
		for _, next := range step.Successors() {
			if next == "" {
				continue
			}
			if _, ok := built[next]; !ok {
				report.add(SeverityError, entity, index, id, "successor %q does not exist", next)
				continue
			}
			if !reachable[next] {
				reachable[next] = true
				queue = append(queue, next)
			}
		}
	}

	var orphans []string
	for id := range built {
		if !reachable[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	for _, id := range orphans {
		report.add(SeverityWarning, entity, index, id, "step is unreachable from %q", start)
	}
}

var (
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f87171"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fbbf24"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#34d399"))
	locStyle     = lipgloss.NewStyle().Faint(true)
)

// Render writes a human-readable report. Styles degrade to plain text when the
// output has no color support.
func (r *Report) Render(w io.Writer) {
	for _, issue := range r.Issues {
		tag := warningStyle.Render("warning")
		if issue.Severity == SeverityError {
			tag = errorStyle.Render("error  ")
		}
		fmt.Fprintf(w, "%s %s %s\n", tag, locStyle.Render(issue.Location()), issue.Message)
	}

	summary := fmt.Sprintf("%d entities, %d errors, %d warnings", r.Entities, r.Errors(), r.Warnings())
	if r.Errors() == 0 {
		fmt.Fprintln(w, okStyle.Render("✓ "+summary))
		return
	}
	fmt.Fprintln(w, errorStyle.Render("✗ "+summary))
}

// String renders the report without styles.
func (r *Report) String() string {
	var sb strings.Builder
	for _, issue := range r.Issues {
		fmt.Fprintf(&sb, "%s %s %s\n", issue.Severity, issue.Location(), issue.Message)
	}
	return sb.String()
}
