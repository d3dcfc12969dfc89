// Command ftclient sends files to a transfer server. When attached to a
// terminal it drives the interactive progress UI; otherwise it logs
// plain per-file outcomes.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/JamesMighty/honeywell-task/client"
	"github.com/JamesMighty/honeywell-task/config"
	"github.com/JamesMighty/honeywell-task/logging"
	"github.com/JamesMighty/honeywell-task/protocol"
	"github.com/JamesMighty/honeywell-task/tui"
)

// fileList collects repeated -file flags.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ", ") }

func (f *fileList) Set(value string) error {
	if value == "" {
		return errors.New("entry cannot be empty")
	}
	*f = append(*f, value)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var files fileList
	configPath := flag.String("config", config.DefaultFileName, "settings file path")
	serverEntry := flag.String("server", "", `server as "host:port", overrides the settings file`)
	flag.Var(&files, "file", `transfer entry as "src -> dest", repeatable, overrides the settings file`)
	logLevel := flag.String("log-level", "", "log level: debug, info, warning or error (default from settings)")
	logFile := flag.String("log-file", "client-log.txt", "log file path, empty to disable the file sink")
	plain := flag.Bool("plain", false, "disable the terminal UI")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	level := cfg.Level()
	if *logLevel != "" {
		level, err = logrus.ParseLevel(*logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", *logLevel, err)
		}
	}

	// The UI owns stdout; logs go to the file sink only while it runs.
	useTUI := !*plain && term.IsTerminal(int(os.Stdout.Fd()))
	var console io.Writer
	if !useTUI {
		console = os.Stdout
	}

	logger, closeLog, err := logging.New(level, console, *logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	rawEntries := cfg.Files
	if len(files) > 0 {
		rawEntries = files
	}
	entries := make([]client.FileEntry, 0, len(rawEntries))
	for _, raw := range rawEntries {
		entry, err := client.ParseFileEntry(raw)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}

	addr := *serverEntry
	if addr == "" && len(cfg.Servers) > 0 {
		addr = cfg.Servers[0]
	}
	if addr == "" {
		addr = fmt.Sprintf("127.0.0.1:%d", protocol.DefaultPort)
	}
	host, port, err := client.ParseServerEntry(addr)
	if err != nil {
		return err
	}

	c, err := client.New(&client.Options{
		BufferSize:    cfg.ClientBuffSize,
		FileBlockSize: cfg.ClientFileBlockSize,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return probe(c, host, port, logger)
	}

	var results []client.FileResult
	if useTUI {
		results, err = tui.Run(c, host, port, entries)
	} else {
		results, err = c.SendFiles(host, port, entries, func(r client.FileResult) {
			logger.WithFields(logrus.Fields{
				"status": r.Status.String(),
				"entry":  r.Entry.String(),
			}).Info("Transfer finished")
		})
	}
	if err != nil {
		return err
	}

	sent := 0
	for _, r := range results {
		if r.Status == client.FileSent {
			sent++
		}
	}
	logger.WithFields(logrus.Fields{
		"function": "run",
		"sent":     sent,
		"total":    len(entries),
	}).Info("Batch finished")

	if sent < len(entries) {
		return fmt.Errorf("%d of %d transfers completed", sent, len(entries))
	}
	return nil
}

// probe checks server reachability when no transfer entries are given.
func probe(c *client.Client, host string, port int, logger *logrus.Logger) error {
	if err := c.Connect(host, port); err != nil {
		return err
	}
	defer c.Close()

	res, ok := c.TestConnection()
	if !ok {
		return fmt.Errorf("connection test failed: %s", res.String())
	}

	logger.WithFields(logrus.Fields{
		"function": "probe",
		"server":   fmt.Sprintf("%s:%d", host, port),
	}).Info("Connection test passed")
	return nil
}
