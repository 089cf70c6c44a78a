package implementation

import (
	contextpkg "context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// TextDocumentHover implements protocol.TextDocumentHoverFunc
func TextDocumentHover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	if resolver == nil {
		return nil, nil
	}

	content, ok := getDocument(params.TextDocument.URI)
	if !ok {
		log.Debugf("hover on unknown document %s", params.TextDocument.URI)
		return nil, nil
	}

	return resolver.Resolve(contextpkg.Background(), content, params.TextDocument.URI, params.Position), nil
}
