/*
Package steps provides the built-in step kinds.

Each kind is built from a domain.StepSpec by a factory listed in Builtins. Arguments
are decoded from StepSpec.Args with mapstructure, so YAML, JSON and frontmatter
content share the same shapes:

	- id: greet
	  kind: message
	  args: {speaker: "Old Man", text: "Fine weather today."}
	  next: mark
	- id: mark
	  kind: set_flag
	  args: {name: talked_to_old_man, value: true}
*/
package steps
