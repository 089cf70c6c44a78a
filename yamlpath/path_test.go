package yamlpath_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tminor/lspansible/yamlpath"
)

const playbook = `- hosts: all
  tasks:
    - name: say hi
      debug:
        msg: "hi \"there\""
    - block:
        - ping:
      rescue: []
`

func kinds(path yamlpath.Path) []yamlpath.Kind {
	out := make([]yamlpath.Kind, len(path))
	for i, node := range path {
		out[i] = node.Kind
	}
	return out
}

func span(startLine, startColumn, endLine, endColumn int) yamlpath.Span {
	return yamlpath.Span{
		Start: yamlpath.Position{Line: startLine, Column: startColumn},
		End:   yamlpath.Position{Line: endLine, Column: endColumn},
	}
}

func TestParseSpans(t *testing.T) {
	documents, err := yamlpath.Parse(playbook)
	require.NoError(t, err)
	require.Len(t, documents, 1)

	root := documents[0]
	assert.Equal(t, yamlpath.Sequence, root.Kind)
	assert.Equal(t, yamlpath.Position{Line: 0, Column: 0}, root.Span.Start)

	play := root.Items[0]
	require.Equal(t, yamlpath.Mapping, play.Kind)
	assert.Equal(t, []string{"hosts", "tasks"}, yamlpath.MapKeys(play))
	assert.Equal(t, span(0, 2, 0, 7), play.Items[0].Key.Span)
	assert.Equal(t, span(0, 9, 0, 12), play.Items[0].Value.Span)

	tasks := yamlpath.Lookup(play, "tasks")
	require.NotNil(t, tasks)
	debug := yamlpath.Lookup(tasks.Items[0], "debug")
	require.NotNil(t, debug)
	msg := debug.Items[0]
	assert.Equal(t, span(4, 8, 4, 11), msg.Key.Span)
	assert.Equal(t, `hi "there"`, msg.Value.Text)
	assert.Equal(t, span(4, 13, 4, 27), msg.Value.Span, "double quoted scalar ends after the closing quote")

	rescue := yamlpath.Lookup(tasks.Items[1], "rescue")
	require.NotNil(t, rescue)
	assert.Equal(t, span(7, 14, 7, 16), rescue.Span, "empty flow sequence covers its brackets")

	ping := yamlpath.Lookup(yamlpath.Lookup(tasks.Items[1], "block").Items[0], "ping")
	require.NotNil(t, ping)
	assert.True(t, ping.Span.Empty(), "null value takes no room")
}

func TestParseBlockScalar(t *testing.T) {
	documents, err := yamlpath.Parse("script: |\n  echo one\n  echo two\nnext: 1\n")
	require.NoError(t, err)
	require.Len(t, documents, 1)

	script := yamlpath.Lookup(documents[0], "script")
	require.NotNil(t, script)
	assert.Equal(t, span(0, 8, 2, 10), script.Span)
}

func TestParseMultipleDocuments(t *testing.T) {
	documents, err := yamlpath.Parse("a: 1\n---\n- b\n")
	require.NoError(t, err)
	require.Len(t, documents, 2)
	assert.Equal(t, yamlpath.Mapping, documents[0].Kind)
	assert.Equal(t, yamlpath.Sequence, documents[1].Kind)
}

func TestParseKeepsDocumentsBeforeError(t *testing.T) {
	documents, err := yamlpath.Parse("a: 1\n---\nb: [\n")
	require.Error(t, err)
	require.NotEmpty(t, documents)
	assert.Equal(t, []string{"a"}, yamlpath.MapKeys(documents[0]))
}

const halfTyped = `- hosts: all
  tasks:
    - name: t
      debug:
        msg: hi
    - name: u
      copy: src: x
`

func TestParseRecoversFromSyntaxError(t *testing.T) {
	documents, err := yamlpath.Parse(halfTyped)
	require.Error(t, err)
	line, ok := yamlpath.ErrorLine(err)
	require.True(t, ok)
	assert.Equal(t, 6, line)

	require.Len(t, documents, 1)
	assert.Equal(t, "hosts", yamlpath.PathAt(documents, yamlpath.Position{Line: 0, Column: 3}).Last().Text)
	assert.Equal(t, "debug", yamlpath.PathAt(documents, yamlpath.Position{Line: 3, Column: 8}).Last().Text)
	assert.Equal(t, "msg", yamlpath.PathAt(documents, yamlpath.Position{Line: 4, Column: 9}).Last().Text)
}

func TestErrorLine(t *testing.T) {
	_, ok := yamlpath.ErrorLine(nil)
	assert.False(t, ok)

	_, err := yamlpath.Parse("a: b\nc: d: e\n")
	line, ok := yamlpath.ErrorLine(err)
	require.True(t, ok)
	assert.Equal(t, 1, line)
}

func TestParseSkipsAnchorsAndTags(t *testing.T) {
	tests := []struct {
		name string
		text string
		key  yamlpath.Span
	}{
		{"anchor", "- name: t\n  &k debug:\n    msg: hi\n", span(1, 5, 1, 10)},
		{"tag", "- name: t\n  !!str debug:\n    msg: hi\n", span(1, 8, 1, 13)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			documents, err := yamlpath.Parse(tt.text)
			require.NoError(t, err)
			require.Len(t, documents, 1)

			task := documents[0].Items[0]
			require.Equal(t, []string{"name", "debug"}, yamlpath.MapKeys(task))
			assert.Equal(t, tt.key, task.Items[1].Key.Span)

			path := yamlpath.PathAt(documents, yamlpath.Position{Line: 2, Column: 5})
			require.NotNil(t, path)
			assert.Equal(t, "msg", path.Last().Text)
		})
	}
}

func TestPathAt(t *testing.T) {
	documents, err := yamlpath.Parse(playbook)
	require.NoError(t, err)

	tests := []struct {
		name     string
		position yamlpath.Position
		want     []yamlpath.Kind
		text     string
	}{
		{
			name:     "play key",
			position: yamlpath.Position{Line: 0, Column: 4},
			want:     []yamlpath.Kind{yamlpath.Sequence, yamlpath.Mapping, yamlpath.Pair, yamlpath.Scalar},
			text:     "hosts",
		},
		{
			name:     "play value",
			position: yamlpath.Position{Line: 0, Column: 10},
			want:     []yamlpath.Kind{yamlpath.Sequence, yamlpath.Mapping, yamlpath.Pair, yamlpath.Scalar},
			text:     "all",
		},
		{
			name:     "module option",
			position: yamlpath.Position{Line: 4, Column: 8},
			want: []yamlpath.Kind{
				yamlpath.Sequence, yamlpath.Mapping, yamlpath.Pair, yamlpath.Sequence,
				yamlpath.Mapping, yamlpath.Pair, yamlpath.Mapping, yamlpath.Pair, yamlpath.Scalar,
			},
			text: "msg",
		},
		{
			name:     "right after a key",
			position: yamlpath.Position{Line: 0, Column: 7},
			want:     []yamlpath.Kind{yamlpath.Sequence, yamlpath.Mapping, yamlpath.Pair, yamlpath.Scalar},
			text:     "hosts",
		},
		{
			name:     "between key and value",
			position: yamlpath.Position{Line: 0, Column: 8},
			want:     []yamlpath.Kind{yamlpath.Sequence, yamlpath.Mapping, yamlpath.Pair, yamlpath.Empty},
		},
		{
			name:     "sequence dash",
			position: yamlpath.Position{Line: 0, Column: 0},
			want:     []yamlpath.Kind{yamlpath.Sequence, yamlpath.Empty},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := yamlpath.PathAt(documents, tt.position)
			require.NotNil(t, path)
			if diff := cmp.Diff(tt.want, kinds(path)); diff != "" {
				t.Errorf("kinds mismatch (-want +got):\n%s", diff)
			}
			if tt.text != "" {
				assert.Equal(t, tt.text, path.Last().Text)
			}
		})
	}

	t.Run("outside every document", func(t *testing.T) {
		assert.Nil(t, yamlpath.PathAt(documents, yamlpath.Position{Line: 20, Column: 0}))
	})
}

func TestAncestry(t *testing.T) {
	documents, err := yamlpath.Parse(playbook)
	require.NoError(t, err)

	msgPath := yamlpath.PathAt(documents, yamlpath.Position{Line: 4, Column: 9})
	require.Equal(t, "msg", msgPath.Last().Text)

	t.Run("parent of key", func(t *testing.T) {
		owner := yamlpath.NewAncestry(msgPath).ParentOfKey().Get()
		require.NotNil(t, owner)
		assert.Equal(t, []string{"msg"}, yamlpath.MapKeys(owner))
	})

	t.Run("value is not a key", func(t *testing.T) {
		valuePath := yamlpath.PathAt(documents, yamlpath.Position{Line: 4, Column: 15})
		require.Equal(t, yamlpath.Scalar, valuePath.Last().Kind)
		assert.Nil(t, yamlpath.NewAncestry(valuePath).ParentOfKey().Get())
	})

	t.Run("key path of the owning module", func(t *testing.T) {
		keyPath := yamlpath.NewAncestry(msgPath).ParentOfKey().ParentOf(yamlpath.Mapping).KeyPath()
		require.NotNil(t, keyPath)
		assert.Equal(t, "debug", keyPath.Last().Text)
		assert.Len(t, keyPath, 7)
	})

	t.Run("string key of the task list", func(t *testing.T) {
		taskList := yamlpath.NewAncestry(msgPath).ParentOfKey().ParentOf(yamlpath.Mapping).ParentOf(yamlpath.Sequence)
		require.NotNil(t, taskList.Get())
		key, ok := taskList.ParentOf(yamlpath.Mapping).StringKey()
		require.True(t, ok)
		assert.Equal(t, "tasks", key)
	})

	t.Run("invalid chain stays invalid", func(t *testing.T) {
		chain := yamlpath.NewAncestry(msgPath).ParentOf(yamlpath.Sequence)
		assert.Nil(t, chain.Get())
		assert.Nil(t, chain.Parent().Get())
		assert.Nil(t, chain.Path())
		assert.Nil(t, chain.KeyPath())
		_, ok := chain.StringKey()
		assert.False(t, ok)
	})
}
