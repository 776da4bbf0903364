package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/arloliu/bitpack/internal/logger"
	"github.com/arloliu/bitpack/schema"
)

const envPrefix = "BITPACK"

// Flag names double as viper keys.
const (
	flagSchema      = "schema"
	flagIn          = "in"
	flagFrame       = "frame"
	flagFormat      = "format"
	flagCompression = "compression"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
)

type app struct {
	v   *viper.Viper
	log *zap.Logger
}

func newRootCommand(v *viper.Viper) *cobra.Command {
	a := &app{v: v, log: zap.NewNop()}

	cmd := &cobra.Command{
		Use:          "bitpack",
		Short:        "Inspect bitpack schemas and pack or unpack messages",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogger(cmd.ErrOrStderr())
		},
	}

	flags := cmd.PersistentFlags()
	flags.String(flagSchema, "", "Path to the YAML or JSON schema document")
	flags.String(flagIn, "-", "Input file, - for standard input")
	flags.Bool(flagFrame, false, "Wrap or unwrap the message in a frame")
	flags.String(flagFormat, "hex", "Packed message text format: hex, base64 or raw")
	flags.String(flagLogLevel, "warn", "Log level: debug, info, warn or error")
	flags.String(flagLogFormat, "console", "Log format: console or json")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(
		a.newInspectCommand(),
		a.newEncodeCommand(),
		a.newDecodeCommand(),
	)

	return cmd
}

func (a *app) setupLogger(w io.Writer) error {
	lvl, err := logger.ParseLevel(a.v.GetString(flagLogLevel))
	if err != nil {
		return err
	}

	cfg := logger.NewConfig()
	cfg.Level = lvl
	cfg.Format = a.v.GetString(flagLogFormat)

	log, err := cfg.New(w)
	if err != nil {
		return err
	}
	a.log = log.With(zap.String("service", "bitpack"))

	return nil
}

// loadSchema parses the schema document named by --schema.
func (a *app) loadSchema() (*schema.Document, error) {
	path := a.v.GetString(flagSchema)
	if path == "" {
		return nil, fmt.Errorf("--%s is required", flagSchema)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := schema.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	a.log.Debug("Loaded schema",
		zap.String("path", path),
		zap.String("root", doc.Root.Name()),
		zap.Uint64("fingerprint", doc.Root.Fingerprint()),
		zap.Int("types", len(doc.Names())),
	)

	return doc, nil
}

// readInput reads the whole of --in.
func (a *app) readInput(cmd *cobra.Command) ([]byte, error) {
	path := a.v.GetString(flagIn)
	if path == "-" || path == "" {
		return io.ReadAll(cmd.InOrStdin())
	}

	return os.ReadFile(path)
}

// encodeText renders a packed message in the --format text form.
func encodeText(format string, data []byte) ([]byte, error) {
	switch format {
	case "hex":
		return []byte(hex.EncodeToString(data) + "\n"), nil
	case "base64":
		return []byte(base64.StdEncoding.EncodeToString(data) + "\n"), nil
	case "raw":
		return data, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// decodeText parses a packed message in the --format text form.
func decodeText(format string, text []byte) ([]byte, error) {
	switch format {
	case "hex":
		return hex.DecodeString(strings.TrimSpace(string(text)))
	case "base64":
		return base64.StdEncoding.DecodeString(strings.TrimSpace(string(text)))
	case "raw":
		return text, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
