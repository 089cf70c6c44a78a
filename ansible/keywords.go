// Package ansible knows the shape of a playbook: which keywords are valid at
// play, block, role and task level, and where in a YAML tree each level sits.
package ansible

import (
	_ "embed"
	"regexp"
	"sync"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

//go:embed keywords.yml
var defaultKeywords []byte

// Table maps a keyword to its documentation: either a string (Markdown) or a
// protocol.MarkupContent.
type Table map[string]interface{}

func (t Table) Has(name string) bool {
	_, ok := t[name]
	return ok
}

// Keywords holds one table per playbook level. It is read-only once built.
type Keywords struct {
	Play  Table
	Block Table
	Role  Table
	Task  Table

	playMarkers map[string]struct{}
}

var loopKeyword = regexp.MustCompile(`^with_.+`)

func NewKeywords(play, block, role, task Table) *Keywords {
	k := &Keywords{
		Play:        play,
		Block:       block,
		Role:        role,
		Task:        task,
		playMarkers: make(map[string]struct{}),
	}
	for name := range play {
		if !task.Has(name) && !block.Has(name) && !role.Has(name) {
			k.playMarkers[name] = struct{}{}
		}
	}
	return k
}

type keywordFile struct {
	Descriptions map[string]string `yaml:"descriptions"`
	Play         []string          `yaml:"play"`
	Role         []string          `yaml:"role"`
	Block        []string          `yaml:"block"`
	Task         []string          `yaml:"task"`
}

// Load builds keyword tables from YAML listing keyword descriptions and the
// keywords valid at each level.
func Load(data []byte) (*Keywords, error) {
	var file keywordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Errorf("decoding keywords: %w", err)
	}

	table := func(names []string) Table {
		t := make(Table, len(names))
		for _, name := range names {
			t[name] = file.Descriptions[name]
		}
		return t
	}

	return NewKeywords(table(file.Play), table(file.Block), table(file.Role), table(file.Task)), nil
}

var (
	defaultOnce sync.Once
	defaults    *Keywords
)

// Default returns the built-in keyword tables.
func Default() *Keywords {
	defaultOnce.Do(func() {
		var err error
		if defaults, err = Load(defaultKeywords); err != nil {
			panic(err)
		}
	})
	return defaults
}

// IsTaskKeyword reports whether name is a task keyword rather than a module;
// with_<lookup> loops count as keywords.
func (k *Keywords) IsTaskKeyword(name string) bool {
	return k.Task.Has(name) || loopKeyword.MatchString(name)
}

// IsPlayMarker reports whether name only makes sense on a play.
func (k *Keywords) IsPlayMarker(name string) bool {
	_, ok := k.playMarkers[name]
	return ok
}
