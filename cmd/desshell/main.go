// Command desshell is an interactive shell for DES catalog databases:
// query passthrough, dictionary lookups, and bulk table loading from
// tabular files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"desshell/internal/catalog"
	"desshell/internal/config"
	"desshell/internal/shell"
)

func main() {
	cfgPath := flag.String("config", "", "config file path (default: search standard locations)")
	profile := flag.String("profile", "", "connection profile (default: the config's default_profile)")
	command := flag.String("c", "", "run a single command and exit")
	noColor := flag.Bool("no-color", false, "disable styled output")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*cfgPath, *profile, *command, *noColor); err != nil {
		fmt.Fprintln(os.Stderr, "desshell:", err)
		os.Exit(1)
	}
}

func run(cfgPath, profileName, command string, noColor bool) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if cfgPath != "" {
		cfg, path, err = config.LoadFromPath(cfgPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}

	prof, name, err := cfg.Profile(profileName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Open(ctx, name, prof)
	if err != nil {
		return err
	}
	defer cat.Close()
	cat.SetChunkSize(cfg.ChunkSize)

	sh := shell.New(cfg, path, cat, name, os.Stdin, os.Stdout, noColor)

	if command != "" {
		if err := sh.Execute(ctx, command); err != nil && !shell.IsQuit(err) {
			return err
		}
		return nil
	}

	slog.Info("connected", "profile", name, "driver", prof.Driver)
	return sh.Run(ctx)
}
