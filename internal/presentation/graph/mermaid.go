package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/registry"
	"github.com/aretw0/vignette/pkg/steps"
)

// Overlay marks the step an activation is currently suspended on.
type Overlay struct {
	Entity string
	Page   string // page label, as reported by the engine snapshot
	Step   string
}

// GenerateMermaid renders entities as a Mermaid flowchart: one subgraph per entity,
// one hexagon per page, and the page's step chain below it.
// Step shapes follow their kind:
// - message: [/Parallelogram/]
// - choice, branch: {Rhombus}
// - wait: ((Circle))
// - activate: [[Subroutine]] with a dotted edge to the target entity
// - await: ([Stadium])
// - default: [Rectangle]
func GenerateMermaid(specs []domain.DefinitionSpec, overlay *Overlay) string {
	reg := registry.NewDefault()
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var current string
	for _, spec := range specs {
		entityID := sanitizeMermaidID(spec.ID)
		title := spec.ID
		if spec.Name != "" {
			title = fmt.Sprintf("%s (%s)", spec.ID, spec.Name)
		}
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", entityID, escape(title))

		for i, page := range spec.Pages {
			pageID := fmt.Sprintf("%s_p%d", entityID, i)
			label := pageLabel(page, i)
			header := fmt.Sprintf("%s<br/>on %s", label, page.Trigger)
			if n := len(page.Conditions); n > 0 {
				header += fmt.Sprintf("<br/>%d conditions", n)
			}
			fmt.Fprintf(&sb, "        %s{{\"%s\"}}\n", pageID, escape(header))
			if start := page.EntryStep(); start != "" {
				fmt.Fprintf(&sb, "        %s --> %s\n", pageID, stepNodeID(pageID, start))
			}

			for _, ss := range page.Steps {
				nodeID := stepNodeID(pageID, ss.ID)
				if overlay != nil && overlay.Entity == spec.ID && overlay.Page == label && overlay.Step == ss.ID {
					current = nodeID
				}
				step, err := reg.BuildStep(ss, nil)
				opener, closer := shape(ss.Kind)
				fmt.Fprintf(&sb, "        %s%s\"%s<br/><i>%s</i>\"%s\n", nodeID, opener, escape(ss.ID), ss.Kind, closer)
				if err != nil {
					if ss.Next != "" {
						fmt.Fprintf(&sb, "        %s --> %s\n", nodeID, stepNodeID(pageID, ss.Next))
					}
					continue
				}
				writeEdges(&sb, pageID, nodeID, step)
			}
		}
		sb.WriteString("    end\n")
	}

	// Cross-entity edges are written after all subgraphs so targets are declared.
	for _, spec := range specs {
		for i, page := range spec.Pages {
			pageID := fmt.Sprintf("%s_p%d", sanitizeMermaidID(spec.ID), i)
			for _, ss := range page.Steps {
				if ss.Kind != steps.KindActivate {
					continue
				}
				step, err := reg.BuildStep(ss, nil)
				if err != nil {
					continue
				}
				act := step.(*steps.Activate)
				target := act.Entity
				if target == "" {
					target = spec.ID
				}
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", stepNodeID(pageID, ss.ID), act.Trigger, sanitizeMermaidID(target))
			}
		}
	}

	if current != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", current)
	}
	return sb.String()
}

func writeEdges(sb *strings.Builder, pageID, nodeID string, step domain.Step) {
	edge := func(label, target string) {
		if target == "" {
			return
		}
		to := stepNodeID(pageID, target)
		if label == "" {
			fmt.Fprintf(sb, "        %s --> %s\n", nodeID, to)
			return
		}
		fmt.Fprintf(sb, "        %s -- \"%s\" --> %s\n", nodeID, escape(label), to)
	}

	switch s := step.(type) {
	case *steps.Choice:
		for _, opt := range s.Options {
			edge(opt.Label, firstNonEmpty(opt.Next, s.Next()))
		}
		if s.Cancel != "" {
			edge("cancel", s.Cancel)
		}
	case *steps.Branch:
		edge("then", firstNonEmpty(s.Then, s.Next()))
		edge("else", firstNonEmpty(s.Else, s.Next()))
	case *steps.Await:
		keys := make([]string, 0, len(s.Routes))
		for k := range s.Routes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			edge(k, s.Routes[k])
		}
		edge("", s.Next())
	default:
		for _, next := range step.Successors() {
			edge("", next)
		}
	}
}

func shape(kind string) (string, string) {
	switch kind {
	case steps.KindMessage:
		return "[/", "/]"
	case steps.KindChoice, steps.KindBranch:
		return "{", "}"
	case steps.KindWait:
		return "((", "))"
	case steps.KindActivate:
		return "[[", "]]"
	case steps.KindAwait:
		return "([", "])"
	}
	return "[", "]"
}

func pageLabel(p domain.PageSpec, index int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("page-%d", index+1)
}

func stepNodeID(pageID, stepID string) string {
	return pageID + "_" + sanitizeMermaidID(stepID)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
