package ansible_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tminor/lspansible/ansible"
	"github.com/tminor/lspansible/yamlpath"
)

const playbook = `- hosts: web
  collections:
    - community.general
  roles:
    - role: common
      tags: base
  tasks:
    - name: install
      apt:
        name: nginx
    - block:
        - ping:
      rescue:
        - debug:
`

func pathAt(t *testing.T, text string, line, column int) yamlpath.Path {
	t.Helper()
	documents, err := yamlpath.Parse(text)
	require.NoError(t, err)
	path := yamlpath.PathAt(documents, yamlpath.Position{Line: line, Column: column})
	require.NotNil(t, path)
	require.Equal(t, yamlpath.Scalar, path.Last().Kind)
	return path
}

func TestDefaultKeywords(t *testing.T) {
	keywords := ansible.Default()

	assert.True(t, keywords.Play.Has("hosts"))
	assert.True(t, keywords.Block.Has("rescue"))
	assert.True(t, keywords.Role.Has("delegate_to"))
	assert.True(t, keywords.Task.Has("register"))
	assert.NotEmpty(t, keywords.Play["hosts"])

	assert.True(t, keywords.IsPlayMarker("hosts"))
	assert.True(t, keywords.IsPlayMarker("tasks"))
	assert.False(t, keywords.IsPlayMarker("name"), "name is valid on tasks too")

	assert.True(t, keywords.IsTaskKeyword("when"))
	assert.True(t, keywords.IsTaskKeyword("with_items"))
	assert.False(t, keywords.IsTaskKeyword("with_"))
	assert.False(t, keywords.IsTaskKeyword("apt"))
}

func TestLoadRejectsBrokenYAML(t *testing.T) {
	_, err := ansible.Load([]byte("play: ["))
	require.Error(t, err)
}

func TestClassification(t *testing.T) {
	keywords := ansible.Default()

	tests := []struct {
		name   string
		line   int
		column int
		text   string
		play   bool
		block  bool
		role   bool
		task   bool
	}{
		{name: "play keyword", line: 0, column: 3, text: "hosts", play: true},
		{name: "role keyword", line: 4, column: 7, text: "role", role: true},
		{name: "role tags", line: 5, column: 7, text: "tags", role: true},
		{name: "task name", line: 7, column: 8, text: "name", task: true},
		{name: "module", line: 8, column: 7, text: "apt", task: true},
		{name: "module option", line: 9, column: 9, text: "name"},
		{name: "block keyword", line: 10, column: 7, text: "block", block: true},
		{name: "task inside block", line: 11, column: 11, text: "ping", task: true},
		{name: "task inside rescue", line: 13, column: 11, text: "debug", task: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := pathAt(t, playbook, tt.line, tt.column)
			require.Equal(t, tt.text, path.Last().Text)

			assert.Equal(t, tt.play, keywords.IsPlayParam(path), "play")
			assert.Equal(t, tt.block, keywords.IsBlockParam(path), "block")
			assert.Equal(t, tt.role, keywords.IsRoleParam(path), "role")
			assert.Equal(t, tt.task, keywords.IsTaskParam(path), "task")
		})
	}
}

func TestTaskFileRootIsTaskList(t *testing.T) {
	keywords := ansible.Default()
	path := pathAt(t, "- name: t\n  debug:\n    msg: hi\n", 1, 3)

	assert.False(t, keywords.IsPlayParam(path))
	assert.True(t, keywords.IsTaskParam(path))
}

func TestUnknownTopLevelKey(t *testing.T) {
	keywords := ansible.Default()
	path := pathAt(t, "foo: bar\n", 0, 1)

	assert.False(t, keywords.IsPlayParam(path))
	assert.False(t, keywords.IsBlockParam(path))
	assert.False(t, keywords.IsRoleParam(path))
	assert.False(t, keywords.IsTaskParam(path))
}

func TestDeclaredCollections(t *testing.T) {
	path := pathAt(t, playbook, 8, 7)
	assert.Equal(t, []string{"community.general"}, ansible.DeclaredCollections(path))

	path = pathAt(t, "- name: t\n  debug:\n", 1, 3)
	assert.Empty(t, ansible.DeclaredCollections(path))
}
