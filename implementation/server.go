package implementation

import (
	"github.com/op/go-logging"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
	"github.com/tminor/lspansible/hover"
)

const lsName = "ansible-lsp"

var version = "0.1.0"

var log = logging.MustGetLogger("ansible-lsp.server")

var Handler protocol.Handler

var resolver *hover.Resolver

func init() {
	Handler = protocol.Handler{
		Initialize:            Initialize,
		Initialized:           Initialized,
		Shutdown:              Shutdown,
		SetTrace:              SetTrace,
		TextDocumentDidOpen:   TextDocumentDidOpen,
		TextDocumentDidChange: TextDocumentDidChange,
		TextDocumentDidSave:   TextDocumentDidSave,
		TextDocumentDidClose:  TextDocumentDidClose,
		TextDocumentHover:     TextDocumentHover,
	}
}

// Configure sets the resolver hover requests are delegated to. It must be
// called before the server runs.
func Configure(resolver_ *hover.Resolver) {
	resolver = resolver_
}

func SetVersion(version_ string) {
	version = version_
}

func RunStdio(debug bool) error {
	log.Info("serving on stdio")
	return server.NewServer(&Handler, lsName, debug).RunStdio()
}

func RunTCP(address string, debug bool) error {
	log.Infof("serving on %s", address)
	return server.NewServer(&Handler, lsName, debug).RunTCP(address)
}
