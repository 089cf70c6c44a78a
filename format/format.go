// Package format renders keyword and module documentation as Markdown hover
// contents.
package format

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tminor/lspansible/docs"
)

const DefaultReferenceURL = "https://docs.ansible.com/ansible/latest/collections"

var (
	policy = bluemonday.StrictPolicy()

	linkMacro       = regexp.MustCompile(`\bL\(([^,)]*),\s*([^)]*)\)`)
	inlineMacro     = regexp.MustCompile(`\b(RV|[IBCUMOVEP])\(([^)]*)\)`)
	horizontalMacro = regexp.MustCompile(`\s*\bHORIZONTALLINE\b\s*`)
)

func markdown(value string) protocol.MarkupContent {
	return protocol.MarkupContent{
		Kind:  protocol.MarkupKindMarkdown,
		Value: value,
	}
}

// Keyword turns a keyword table entry into hover contents. Strings are taken
// as Markdown, markup is passed through.
func Keyword(documentation interface{}) (protocol.MarkupContent, bool) {
	switch documentation_ := documentation.(type) {
	case string:
		if documentation_ == "" {
			return protocol.MarkupContent{}, false
		}
		return markdown(Description(documentation_)), true

	case protocol.MarkupContent:
		return documentation_, true

	case *protocol.MarkupContent:
		if documentation_ != nil {
			return *documentation_, true
		}
	}
	return protocol.MarkupContent{}, false
}

// Module renders a module summary. route, when not nil, is the routing entry
// of the name the module was found under and contributes a deprecation
// banner.
func Module(documentation *docs.Documentation, fqcn string, route *docs.Route, referenceURL string) protocol.MarkupContent {
	var sections []string

	if fqcn != "" {
		if url, ok := ReferenceURL(referenceURL, fqcn); ok {
			sections = append(sections, fmt.Sprintf("[%s](%s)", fqcn, url))
		} else {
			sections = append(sections, fmt.Sprintf("**%s**", fqcn))
		}
	}

	if deprecated := documentation.Deprecated; deprecated != nil {
		sections = append(sections, "**DEPRECATED**")
		if deprecated.Why != "" {
			sections = append(sections, Description(deprecated.Why))
		}
		if deprecated.Alternative != "" {
			sections = append(sections, "Alternative: "+Description(deprecated.Alternative))
		}
		if line := removal(deprecated.RemovedAtDate, deprecated.RemovedIn); line != "" {
			sections = append(sections, line)
		}
	} else if route != nil && route.Deprecation != nil {
		sections = append(sections, notice("DEPRECATED", route.Deprecation)...)
	}

	if documentation.ShortDescription != "" {
		sections = append(sections, "*"+Description(documentation.ShortDescription)+"*")
	}

	if len(documentation.Description) > 0 {
		sections = append(sections, "**Description**")
		for _, paragraph := range documentation.Description {
			sections = append(sections, Description(paragraph))
		}
	}

	if len(documentation.Requirements) > 0 {
		sections = append(sections, "**Requirements**", list(documentation.Requirements))
	}

	if len(documentation.Notes) > 0 {
		sections = append(sections, "**Notes**", list(documentation.Notes))
	}

	return markdown(strings.Join(sections, "\n\n"))
}

// Option renders the documentation of a module option. withDetails adds the
// type line, default, choices and aliases.
func Option(option *docs.Option, withDetails bool) protocol.MarkupContent {
	var sections []string

	if withDetails {
		var details []string
		if option.Required {
			details = append(details, "(required)")
		}
		if option.Type != "" {
			if option.Type == "list" && option.Elements != "" {
				details = append(details, fmt.Sprintf("list(%s)", option.Elements))
			} else {
				details = append(details, option.Type)
			}
		}
		if len(details) > 0 {
			sections = append(sections, "`"+strings.Join(details, " ")+"`")
		}
	}

	for _, paragraph := range option.Description {
		sections = append(sections, Description(paragraph))
	}

	if withDetails {
		if option.Default != nil {
			sections = append(sections, fmt.Sprintf("*Default*: `%v`", option.Default))
		}
		if len(option.Choices) > 0 {
			choices := make([]string, len(option.Choices))
			for index, choice := range option.Choices {
				choices[index] = fmt.Sprintf("`%v`", choice)
			}
			sections = append(sections, "*Choices*: "+strings.Join(choices, ", "))
		}
		if len(option.Aliases) > 0 {
			aliases := make([]string, len(option.Aliases))
			for index, alias := range option.Aliases {
				aliases[index] = "`" + alias + "`"
			}
			sections = append(sections, "*Aliases*: "+strings.Join(aliases, ", "))
		}
	}

	return markdown(strings.Join(sections, "\n\n"))
}

// Tombstone renders a routing entry of a module that has no documentation of
// its own.
func Tombstone(route *docs.Route) protocol.MarkupContent {
	var sections []string
	if route.Deprecation != nil {
		sections = append(sections, notice("DEPRECATED", route.Deprecation)...)
	}
	if route.Tombstone != nil {
		sections = append(sections, notice("REMOVED", route.Tombstone)...)
	}
	if route.Redirect != "" {
		sections = append(sections, fmt.Sprintf("Redirected to `%s`", route.Redirect))
	}
	return markdown(strings.Join(sections, "\n\n"))
}

// Description renders Ansible documentation text as Markdown: HTML is
// stripped and the formatting macros are replaced.
func Description(text string) string {
	text = html.UnescapeString(policy.Sanitize(text))
	text = horizontalMacro.ReplaceAllString(text, "\n\n---\n\n")
	text = linkMacro.ReplaceAllString(text, "[$1]($2)")
	return inlineMacro.ReplaceAllStringFunc(text, func(match string) string {
		groups := inlineMacro.FindStringSubmatch(match)
		value := groups[2]
		switch groups[1] {
		case "I":
			return "*" + value + "*"
		case "B":
			return "**" + value + "**"
		case "U":
			return fmt.Sprintf("[%s](%s)", value, value)
		case "P":
			if index := strings.IndexByte(value, '#'); index >= 0 {
				value = value[:index]
			}
		}
		return "`" + value + "`"
	})
}

// ReferenceURL is the documentation page of a module on the Ansible
// documentation site, or of its mirror at base.
func ReferenceURL(base string, fqcn string) (string, bool) {
	namespace, collection, name, ok := docs.SplitFQCN(fqcn)
	if !ok {
		return "", false
	}
	if base == "" {
		base = DefaultReferenceURL
	}
	return fmt.Sprintf("%s/%s/%s/%s_module.html", strings.TrimRight(base, "/"), namespace, collection, name), true
}

func notice(title string, routeNotice *docs.RouteNotice) []string {
	sections := []string{"**" + title + "**"}
	if routeNotice.WarningText != "" {
		sections = append(sections, Description(routeNotice.WarningText))
	}
	if line := removal(routeNotice.RemovalDate, routeNotice.RemovalVersion); line != "" {
		sections = append(sections, line)
	}
	return sections
}

func removal(date string, version string) string {
	var parts []string
	if date != "" {
		parts = append(parts, "removal date: "+date)
	}
	if version != "" {
		parts = append(parts, "removal version: "+version)
	}
	if len(parts) == 0 {
		return ""
	}
	line := strings.Join(parts, ", ")
	return strings.ToUpper(line[:1]) + line[1:]
}

func list(items []string) string {
	lines := make([]string, len(items))
	for index, item := range items {
		lines[index] = "- " + Description(item)
	}
	return strings.Join(lines, "\n")
}
