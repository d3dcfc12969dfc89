// Command ftserver runs the receiving side of the file transfer system.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/JamesMighty/honeywell-task/logging"
	"github.com/JamesMighty/honeywell-task/protocol"
	"github.com/JamesMighty/honeywell-task/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	host := flag.String("host", "", "IP address or hostname to listen on, empty for all interfaces")
	port := flag.Int("port", protocol.DefaultPort, "listening port")
	rootDir := flag.String("root-dir", ".", "download root directory")
	buffSize := flag.Int("buffsize", protocol.DefaultControlBufferSize, "buffer size for control traffic")
	blockSize := flag.Int("file-block-size", protocol.DefaultFileBlockSize, "maximum file block size in bytes")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warning or error")
	logFile := flag.String("log-file", "server-log.txt", "log file path, empty to log to stdout only")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", *logLevel, err)
	}

	logger, closeLog, err := logging.New(level, os.Stdout, *logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	srv, err := server.New(&server.Options{
		Host:             *host,
		Port:             *port,
		BufferSize:       *buffSize,
		MaxFileBlockSize: *blockSize,
		RootDir:          *rootDir,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	sig := <-stop

	logger.WithFields(logrus.Fields{
		"function": "run",
		"signal":   sig.String(),
	}).Info("Shutting down")
	return srv.Close()
}
