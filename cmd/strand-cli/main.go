// Copyright 2026 The Strand Authors
// SPDX-License-Identifier: Apache-2.0

// strand-cli is an interactive command shell for a Strand server.
//
// It reads whitespace-delimited commands from stdin, fires each one on
// the control connection, and prints the response. With --watch it
// additionally opens the watch subscription and prints server-pushed
// events as they arrive, interleaved with the prompt.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	strand "github.com/strandkv/strand-go"
	"github.com/strandkv/strand-go/config"
	"github.com/strandkv/strand-go/wire"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		host       string
		port       int
		configPath string
		clientID   string
		watchMode  bool
		verbose    bool
	)

	flagSet := pflag.NewFlagSet("strand-cli", pflag.ContinueOnError)
	flagSet.StringVar(&host, "host", "localhost", "server hostname or IP address")
	flagSet.IntVar(&port, "port", config.DefaultPort, "server TCP port")
	flagSet.StringVar(&configPath, "config", "", "YAML config file (overrides --host/--port)")
	flagSet.StringVar(&clientID, "id", "", "client identity token (default: random UUID)")
	flagSet.BoolVar(&watchMode, "watch", false, "also subscribe to server-pushed events")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log connection lifecycle events")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	options := []strand.Option{strand.WithLogger(logger)}
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		host = cfg.Server.Host
		port = cfg.Server.Port
		if cfg.ID != "" && clientID == "" {
			clientID = cfg.ID
		}
		if cfg.DialTimeout > 0 {
			options = append(options, strand.WithDialTimeout(cfg.DialTimeout.Std()))
		}
		if cfg.RequestTimeout > 0 {
			options = append(options, strand.WithRequestTimeout(cfg.RequestTimeout.Std()))
		}
	}
	if clientID != "" {
		options = append(options, strand.WithID(clientID))
	}

	client, err := strand.New(host, port, options...)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("connected to %s (client %s)\n", client.Addr(), client.ID())

	if watchMode {
		watch, err := client.Watch()
		if err != nil {
			return fmt.Errorf("open watch subscription: %w", err)
		}
		go func() {
			for event := range watch.C() {
				fmt.Printf("\nwatch> %s\n> ", formatResponse(event))
			}
			fmt.Fprintln(os.Stderr, "watch subscription closed")
		}()
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "exit", line == "quit":
			return nil
		default:
			start := time.Now()
			resp := client.FireString(line)
			fmt.Printf("%s (%.1fms)\n", formatResponse(resp), float64(time.Since(start).Microseconds())/1000)
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

// formatResponse renders a response for terminal display.
func formatResponse(resp *wire.Response) string {
	if resp.IsErr() {
		return "ERR " + resp.Err
	}
	switch resp.Value.Kind {
	case wire.KindInt:
		return fmt.Sprintf("%d", resp.Int())
	case wire.KindStr:
		return resp.Str()
	case wire.KindFloat:
		return fmt.Sprintf("%g", resp.Float())
	case wire.KindBytes:
		return fmt.Sprintf("%q", resp.Bytes())
	}
	if len(resp.List) > 0 {
		parts := make([]string, len(resp.List))
		for i, v := range resp.List {
			parts[i] = formatResponse(&wire.Response{Value: v})
		}
		return strings.Join(parts, " ")
	}
	if len(resp.SSMap) > 0 {
		parts := make([]string, 0, len(resp.SSMap))
		for k, v := range resp.SSMap {
			parts = append(parts, k+"="+v)
		}
		return strings.Join(parts, " ")
	}
	return "(nil)"
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `Strand interactive shell.

Reads commands from stdin (first token is the command name, the rest
are arguments) and prints each response. Type "exit" or "quit" to
leave.

Usage:
  strand-cli [flags]

Examples:
  # Connect to a local server
  strand-cli

  # Connect to a remote server and subscribe to watch events
  strand-cli --host cache1.internal --port 7379 --watch

  # Use a config file
  strand-cli --config strand.yaml

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
