package commands

import (
	contextpkg "context"

	"github.com/op/go-logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
	"github.com/tliron/kutil/util"
	"github.com/tminor/lspansible/ansible"
	"github.com/tminor/lspansible/config"
	"github.com/tminor/lspansible/docs"
	"github.com/tminor/lspansible/hover"
	"github.com/tminor/lspansible/implementation"
	"gitlab.com/tozd/go/errors"
)

const toolName = "ansible-lsp"

var log = logging.MustGetLogger("ansible-lsp")

var (
	configPath  string
	verbose     int
	logTo       string
	tcpAddress  string
	builtin     string
	collections []string
	watch       bool
)

func init() {
	rootCommand.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a TOML configuration file")
	rootCommand.PersistentFlags().CountVarP(&verbose, "verbose", "v", "add a log verbosity level (can be used multiple times)")
	rootCommand.PersistentFlags().StringVarP(&logTo, "log", "l", "", "log to file (defaults to stderr)")
	rootCommand.Flags().StringVarP(&tcpAddress, "tcp", "t", "", "serve on a TCP address instead of stdio")
	rootCommand.Flags().StringVar(&builtin, "builtin", "", "path of the ansible package holding the builtin modules")
	rootCommand.Flags().StringArrayVar(&collections, "collections", nil, "path of an ansible_collections directory (can be used multiple times)")
	rootCommand.Flags().BoolVar(&watch, "watch", false, "reload module documentation when files change")
}

var rootCommand = &cobra.Command{
	Use:          toolName,
	Short:        "Language server for Ansible playbooks",
	SilenceUsage: true,
	RunE: func(command *cobra.Command, args []string) error {
		configuration, err := loadConfiguration(command)
		if err != nil {
			return err
		}
		if err := configureLogging(configuration); err != nil {
			return err
		}
		return serve(configuration)
	},
}

func Execute() {
	if err := rootCommand.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// loadConfiguration reads the configuration file and applies the flags the
// user set on top of it.
func loadConfiguration(command *cobra.Command) (*config.Config, error) {
	configuration, err := config.Load(afero.NewOsFs(), configPath)
	if err != nil {
		return nil, err
	}

	flags := command.Flags()
	if flags.Changed("verbose") {
		configuration.Verbosity = verbose
	}
	if flags.Changed("log") {
		configuration.Log = logTo
	}
	if flags.Changed("tcp") {
		configuration.Server.Transport = config.TransportTCP
		configuration.Server.Address = tcpAddress
	}
	if flags.Changed("builtin") {
		configuration.Docs.Builtin = builtin
	}
	if flags.Changed("collections") {
		configuration.Docs.Collections = collections
	}
	if flags.Changed("watch") {
		configuration.Docs.Watch = watch
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}
	return configuration, nil
}

func serve(configuration *config.Config) error {
	context, cancel := contextpkg.WithCancel(contextpkg.Background())
	atexit.Register(cancel)

	stop := util.SetupSignalHandler()
	go func() {
		<-stop
		log.Notice("shutting down")
		atexit.Exit(0)
	}()

	library, err := docs.NewFileLibrary(afero.NewOsFs(), configuration.LibraryOptions())
	if err != nil {
		return errors.Errorf("creating module library: %w", err)
	}
	if err := library.Load(context); err != nil {
		return errors.Errorf("loading module library: %w", err)
	}
	if configuration.Docs.Watch {
		if err := library.Watch(context); err != nil {
			log.Warningf("not watching module documentation: %s", err.Error())
		}
	}

	implementation.SetVersion(serverVersion())
	implementation.Configure(hover.NewResolver(ansible.Default(), library, configuration.Docs.ReferenceURL))

	debug := configuration.Verbosity >= 2
	if configuration.Server.Transport == config.TransportTCP {
		return implementation.RunTCP(configuration.Server.Address, debug)
	}
	return implementation.RunStdio(debug)
}
