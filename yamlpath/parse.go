package yamlpath

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

const maxRecoveries = 8

var errorLine = regexp.MustCompile(`line (\d+)`)

// Parse decodes every document of a YAML stream. On a syntax error the line
// the parser names is blanked and the text decoded again, so a half-typed
// line does not hide the rest of the file. Whatever could be recovered is
// returned together with the first error.
func Parse(text string) ([]*Node, error) {
	documents, err := parse(text)
	if err == nil {
		return documents, nil
	}

	lines := strings.Split(text, "\n")
	recoverErr := err
	for attempt := 0; attempt < maxRecoveries; attempt++ {
		line, ok := ErrorLine(recoverErr)
		if !ok || !blankLine(lines, line) {
			break
		}

		var recovered []*Node
		recovered, recoverErr = parse(strings.Join(lines, "\n"))
		if len(recovered) >= len(documents) {
			documents = recovered
		}
		if recoverErr == nil {
			break
		}
	}

	return documents, err
}

// ErrorLine returns the zero-based line a YAML syntax error refers to.
func ErrorLine(err error) (int, bool) {
	if err == nil {
		return 0, false
	}
	match := errorLine.FindStringSubmatch(err.Error())
	if match == nil {
		return 0, false
	}
	line, err := strconv.Atoi(match[1])
	if err != nil || line < 1 {
		return 0, false
	}
	return line - 1, true
}

// blankLine empties line, or the closest non-blank line above it. Line
// numbers of the rest of the text stay the same.
func blankLine(lines []string, line int) bool {
	if line >= len(lines) {
		line = len(lines) - 1
	}
	for ; line >= 0; line-- {
		if strings.TrimSpace(lines[line]) != "" {
			lines[line] = ""
			return true
		}
	}
	return false
}

func parse(text string) ([]*Node, error) {
	b := newBuilder(text)
	decoder := yaml.NewDecoder(strings.NewReader(text))

	var documents []*Node
	for {
		var document yaml.Node
		if err := decoder.Decode(&document); err != nil {
			if errors.Is(err, io.EOF) {
				return documents, nil
			}
			return documents, errors.Errorf("parsing document %d: %w", len(documents)+1, err)
		}
		if node := b.node(&document); node != nil {
			documents = append(documents, node)
		}
	}
}

type builder struct {
	lines [][]rune
}

func newBuilder(text string) *builder {
	raw := strings.Split(text, "\n")
	lines := make([][]rune, len(raw))
	for i, line := range raw {
		lines[i] = []rune(strings.TrimSuffix(line, "\r"))
	}
	return &builder{lines: lines}
}

func (b *builder) node(n *yaml.Node) *Node {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return b.node(n.Content[0])

	case yaml.MappingNode:
		mapping := &Node{Kind: Mapping, Tag: n.ShortTag()}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := b.node(n.Content[i])
			value := b.node(n.Content[i+1])
			if key == nil || value == nil {
				continue
			}
			end := key.Span.End
			if !value.Span.Empty() && end.Before(value.Span.End) {
				end = value.Span.End
			}
			mapping.Items = append(mapping.Items, &Node{
				Kind:  Pair,
				Key:   key,
				Value: value,
				Span:  Span{Start: key.Span.Start, End: end},
			})
		}
		mapping.Span = b.collectionSpan(n, mapping.Items, '}')
		return mapping

	case yaml.SequenceNode:
		sequence := &Node{Kind: Sequence, Tag: n.ShortTag()}
		for _, item := range n.Content {
			if child := b.node(item); child != nil {
				sequence.Items = append(sequence.Items, child)
			}
		}
		sequence.Span = b.collectionSpan(n, sequence.Items, ']')
		return sequence

	case yaml.ScalarNode:
		return &Node{
			Kind: Scalar,
			Tag:  n.ShortTag(),
			Text: n.Value,
			Span: b.scalarSpan(n),
		}

	case yaml.AliasNode:
		start := startOf(n)
		return &Node{
			Kind: Alias,
			Text: n.Value,
			Span: Span{Start: start, End: Position{Line: start.Line, Column: start.Column + 1 + len([]rune(n.Value))}},
		}
	}

	return nil
}

func startOf(n *yaml.Node) Position {
	return Position{Line: n.Line - 1, Column: n.Column - 1}
}

func (b *builder) collectionSpan(n *yaml.Node, items []*Node, closer rune) Span {
	start := startOf(n)
	end := start
	for _, item := range items {
		if !item.Span.Empty() && end.Before(item.Span.End) {
			end = item.Span.End
		}
	}
	if n.Style&yaml.FlowStyle != 0 {
		end = b.scanPast(end, closer)
	}
	return Span{Start: start, End: end}
}

func (b *builder) scalarSpan(n *yaml.Node) Span {
	start := startOf(n)
	if n.Value == "" && n.ShortTag() == "!!null" {
		return Span{Start: start, End: start}
	}
	start = b.skipProperties(start)

	var end Position
	switch {
	case n.Style&yaml.DoubleQuotedStyle != 0:
		end = b.quotedEnd(start, '"')
	case n.Style&yaml.SingleQuotedStyle != 0:
		end = b.quotedEnd(start, '\'')
	case n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0:
		end = b.continuationEnd(start)
	default:
		end = b.plainEnd(start, n.Value)
	}
	return Span{Start: start, End: end}
}

// skipProperties moves past the &anchor and !tag yaml.v3 counts as the start
// of a node. No scalar itself starts with either. A property alone on its line
// leaves start where it is.
func (b *builder) skipProperties(start Position) Position {
	line := b.line(start.Line)
	column := start.Column
	for column < len(line) && (line[column] == '&' || line[column] == '!') {
		for column < len(line) && !unicode.IsSpace(line[column]) {
			column++
		}
		for column < len(line) && unicode.IsSpace(line[column]) {
			column++
		}
	}
	if column >= len(line) {
		return start
	}
	return Position{Line: start.Line, Column: column}
}

func (b *builder) line(i int) []rune {
	if i < 0 || i >= len(b.lines) {
		return nil
	}
	return b.lines[i]
}

func (b *builder) lineEnd(i int) Position {
	return Position{Line: i, Column: len(trimRight(b.line(i)))}
}

func (b *builder) plainEnd(start Position, value string) Position {
	runes := []rune(value)
	line := b.line(start.Line)
	if start.Column+len(runes) <= len(line) && string(line[start.Column:start.Column+len(runes)]) == value {
		return Position{Line: start.Line, Column: start.Column + len(runes)}
	}
	return b.continuationEnd(start)
}

// quotedEnd finds the position just past the closing quote; quoted scalars may
// span lines.
func (b *builder) quotedEnd(start Position, quote rune) Position {
	line, column := start.Line, start.Column+1
	for line < len(b.lines) {
		runes := b.lines[line]
		for column < len(runes) {
			r := runes[column]
			if quote == '"' && r == '\\' {
				column += 2
				continue
			}
			if r == quote {
				if quote == '\'' && column+1 < len(runes) && runes[column+1] == '\'' {
					column += 2
					continue
				}
				return Position{Line: line, Column: column + 1}
			}
			column++
		}
		line++
		column = 0
	}
	return b.lineEnd(start.Line)
}

// continuationEnd covers block scalars and multi-line plain scalars: every
// following line indented deeper than the starting line belongs to the value.
func (b *builder) continuationEnd(start Position) Position {
	indent := indentation(b.line(start.Line))
	last := start.Line
	for i := start.Line + 1; i < len(b.lines); i++ {
		if len(trimRight(b.lines[i])) == 0 {
			continue
		}
		if indentation(b.lines[i]) <= indent {
			break
		}
		last = i
	}
	return b.lineEnd(last)
}

func (b *builder) scanPast(from Position, closer rune) Position {
	line, column := from.Line, from.Column
	for line < len(b.lines) {
		runes := b.lines[line]
		for column < len(runes) {
			if runes[column] == closer {
				return Position{Line: line, Column: column + 1}
			}
			column++
		}
		line++
		column = 0
	}
	return from
}

func indentation(line []rune) int {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return len(line)
}

func trimRight(line []rune) []rune {
	end := len(line)
	for end > 0 && unicode.IsSpace(line[end-1]) {
		end--
	}
	return line[:end]
}
