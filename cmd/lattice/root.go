package main

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/adapters/file"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/codec"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/rules"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/spf13/cobra"
)

// keyEnv holds a base64 AES-256 key. When set, stored trees are sealed.
const keyEnv = "LATTICE_ENCRYPTION_KEY"

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice edits block trees for page and form builders",
	Long: `Lattice keeps documents made of nested blocks (containers, sections,
headings, fields...) and applies structural edits to them while enforcing
the nesting rules of the document's variant.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".lattice/documents", "Directory holding stored documents")
	flags.String("format", "json", "File format for stored documents: json or yaml")
	flags.String("redis", "", "Redis address; stores documents in Redis and locks edits across processes")
	flags.String("rules", "", "YAML or JSON file overriding the nesting rules")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringSlice("mask", nil, "Attribute keys masked before storing (e.g. password)")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// openStore builds the configured DocumentStore. The returned func releases it.
func openStore(cmd *cobra.Command, logger *slog.Logger) (ports.DocumentStore, ports.DistributedLocker, func(), error) {
	flags := cmd.Flags()
	addr, _ := flags.GetString("redis")
	masked, _ := flags.GetStringSlice("mask")

	var (
		store  ports.DocumentStore
		locker ports.DistributedLocker
		closer = func() {}
	)
	if addr != "" {
		rs := redis.New(addr, "", 0)
		store = rs
		locker = redis.NewLocker(rs.Client(), "lattice:")
		closer = func() { _ = rs.Close() }
		logger.Debug("Using redis store", "address", addr)
	} else {
		dir, _ := flags.GetString("dir")
		name, _ := flags.GetString("format")
		format, err := codec.ParseFormat(name)
		if err != nil {
			return nil, nil, nil, err
		}
		store = file.New(dir, file.WithFormat(format), file.WithLogger(logger))
		logger.Debug("Using file store", "dir", dir, "format", format)
	}

	var mws []middleware.Middleware
	if len(masked) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(masked))
	}
	if raw := strings.TrimSpace(os.Getenv(keyEnv)); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil || len(key) != 32 {
			closer()
			return nil, nil, nil, fmt.Errorf("%s must be a base64 encoded 32 byte key", keyEnv)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	return middleware.Chain(store, mws...), locker, closer, nil
}

func editorOptions(cmd *cobra.Command) ([]lattice.Option, error) {
	table, err := loadRules(cmd)
	if err != nil || table == nil {
		return nil, err
	}
	return []lattice.Option{lattice.WithRules(table)}, nil
}

// loadRules reads the --rules table. It returns nil when the flag is unset.
func loadRules(cmd *cobra.Command) (*rules.Table, error) {
	path, _ := cmd.Flags().GetString("rules")
	if path == "" {
		return nil, nil
	}
	table, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return table, nil
}

// newManager wires logger, store, locker and rules into a session manager.
func newManager(cmd *cobra.Command, extra ...session.Option) (*session.Manager, *slog.Logger, func(), error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	store, locker, closer, err := openStore(cmd, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	edOpts, err := editorOptions(cmd)
	if err != nil {
		closer()
		return nil, nil, nil, err
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithEditorOptions(edOpts...),
	}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	return session.NewManager(store, append(opts, extra...)...), logger, closer, nil
}
