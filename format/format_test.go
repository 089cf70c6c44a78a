package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tminor/lspansible/docs"
	"github.com/tminor/lspansible/format"
)

func TestDescription(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"plain", "Target hosts documentation", "Target hosts documentation"},
		{"italic", "See I(path)", "See *path*"},
		{"bold", "B(Never) do this", "**Never** do this"},
		{"code", "Same as C(delegate_to: localhost).", "Same as `delegate_to: localhost`."},
		{"link", "Read L(the guide,https://example.com/guide).", "Read [the guide](https://example.com/guide)."},
		{"url", "U(https://example.com)", "[https://example.com](https://example.com)"},
		{"module", "Use M(ansible.builtin.copy)", "Use `ansible.builtin.copy`"},
		{"option value", "O(state=present) or V(absent)", "`state=present` or `absent`"},
		{"environment", "E(HOME) and RV(changed)", "`HOME` and `changed`"},
		{"plugin", "P(ansible.builtin.file#lookup)", "`ansible.builtin.file`"},
		{"not a macro", "SCOPE(x) stays", "SCOPE(x) stays"},
		{"html", "<b>bold</b> & co's", "bold & co's"},
		{"horizontal line", "one HORIZONTALLINE two", "one\n\n---\n\ntwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, format.Description(tt.text))
		})
	}
}

func TestKeyword(t *testing.T) {
	content, ok := format.Keyword("Target hosts documentation")
	require.True(t, ok)
	assert.Equal(t, protocol.MarkupKindMarkdown, content.Kind)
	assert.Equal(t, "Target hosts documentation", content.Value)

	markup := protocol.MarkupContent{Kind: protocol.MarkupKindPlainText, Value: "plain"}
	content, ok = format.Keyword(markup)
	require.True(t, ok)
	assert.Equal(t, markup, content)

	content, ok = format.Keyword(&markup)
	require.True(t, ok)
	assert.Equal(t, markup, content)

	_, ok = format.Keyword("")
	assert.False(t, ok)
	_, ok = format.Keyword(nil)
	assert.False(t, ok)
	_, ok = format.Keyword(42)
	assert.False(t, ok)
}

func TestReferenceURL(t *testing.T) {
	url, ok := format.ReferenceURL("", "ansible.builtin.debug")
	require.True(t, ok)
	assert.Equal(t, "https://docs.ansible.com/ansible/latest/collections/ansible/builtin/debug_module.html", url)

	url, ok = format.ReferenceURL("https://mirror.example/docs/", "community.general.ufw")
	require.True(t, ok)
	assert.Equal(t, "https://mirror.example/docs/community/general/ufw_module.html", url)

	_, ok = format.ReferenceURL("", "debug")
	assert.False(t, ok)
	_, ok = format.ReferenceURL("", "community.debug")
	assert.False(t, ok)
}

func TestModule(t *testing.T) {
	documentation := &docs.Documentation{
		ShortDescription: "Print statements during execution",
		Description:      []string{"This module prints statements.", "Useful with C(when:)."},
		Requirements:     []string{"python >= 3.6"},
		Notes:            []string{"Works on I(all) hosts."},
	}

	content := format.Module(documentation, "ansible.builtin.debug", nil, "")
	assert.Equal(t, protocol.MarkupKindMarkdown, content.Kind)
	assert.Equal(t, "[ansible.builtin.debug](https://docs.ansible.com/ansible/latest/collections/ansible/builtin/debug_module.html)\n\n"+
		"*Print statements during execution*\n\n"+
		"**Description**\n\n"+
		"This module prints statements.\n\n"+
		"Useful with `when:`.\n\n"+
		"**Requirements**\n\n"+
		"- python >= 3.6\n\n"+
		"**Notes**\n\n"+
		"- Works on *all* hosts.", content.Value)

	content = format.Module(&docs.Documentation{ShortDescription: "Local"}, "custom", nil, "")
	assert.Equal(t, "**custom**\n\n*Local*", content.Value)
}

func TestModuleDeprecation(t *testing.T) {
	documentation := &docs.Documentation{
		ShortDescription: "Old",
		Deprecated: &docs.Deprecation{
			RemovedIn:   "2.12",
			Why:         "Replaced",
			Alternative: "Use M(new.coll.mod)",
		},
	}
	content := format.Module(documentation, "old.coll.mod", nil, "https://example.com")
	assert.Equal(t, "[old.coll.mod](https://example.com/old/coll/mod_module.html)\n\n"+
		"**DEPRECATED**\n\n"+
		"Replaced\n\n"+
		"Alternative: Use `new.coll.mod`\n\n"+
		"Removal version: 2.12\n\n"+
		"*Old*", content.Value)

	route := &docs.Route{Deprecation: &docs.RouteNotice{WarningText: "Moved.", RemovalDate: "2025-01-01"}}
	content = format.Module(&docs.Documentation{ShortDescription: "Moved"}, "a.b.c", route, "https://example.com")
	assert.Equal(t, "[a.b.c](https://example.com/a/b/c_module.html)\n\n"+
		"**DEPRECATED**\n\n"+
		"Moved.\n\n"+
		"Removal date: 2025-01-01\n\n"+
		"*Moved*", content.Value)
}

func TestOption(t *testing.T) {
	option := &docs.Option{
		Name:        "msg",
		Description: []string{"The message."},
		Required:    true,
		Type:        "list",
		Elements:    "str",
		Default:     "hi",
		Choices:     []interface{}{"a", 1},
		Aliases:     []string{"message"},
	}

	content := format.Option(option, true)
	assert.Equal(t, protocol.MarkupKindMarkdown, content.Kind)
	assert.Equal(t, "`(required) list(str)`\n\n"+
		"The message.\n\n"+
		"*Default*: `hi`\n\n"+
		"*Choices*: `a`, `1`\n\n"+
		"*Aliases*: `message`", content.Value)

	assert.Equal(t, "The message.", format.Option(option, false).Value)

	assert.Equal(t, "`int`", format.Option(&docs.Option{Type: "int"}, true).Value)
}

func TestTombstone(t *testing.T) {
	route := &docs.Route{
		Tombstone: &docs.RouteNotice{
			RemovalVersion: "2.10",
			RemovalDate:    "2021-01-01",
			WarningText:    "Use C(community.general.foo) instead.",
		},
	}
	content := format.Tombstone(route)
	assert.Equal(t, protocol.MarkupKindMarkdown, content.Kind)
	assert.Equal(t, "**REMOVED**\n\n"+
		"Use `community.general.foo` instead.\n\n"+
		"Removal date: 2021-01-01, removal version: 2.10", content.Value)

	route = &docs.Route{
		Redirect:    "community.docker.docker_container",
		Deprecation: &docs.RouteNotice{WarningText: "Moved to a collection."},
	}
	assert.Equal(t, "**DEPRECATED**\n\n"+
		"Moved to a collection.\n\n"+
		"Redirected to `community.docker.docker_container`", format.Tombstone(route).Value)
}
