package main

import (
	"bufio"
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpelShniopel/doorctl/internal/audit"
	"github.com/OpelShniopel/doorctl/internal/auth"
	"github.com/OpelShniopel/doorctl/internal/config"
	"github.com/OpelShniopel/doorctl/internal/door"
	"github.com/OpelShniopel/doorctl/internal/statusapi"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (optional; environment variables also apply)")
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	simulate := flag.Bool("simulate", false, "read hex card UIDs from stdin instead of a PC/SC reader")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if *logFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("configuration invalid", "err", err)
		os.Exit(1)
	}
	key, err := cfg.Key()
	if err != nil {
		slog.Error("key load failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Locate the authorization server
	serverAddr := cfg.Server.Address
	serverPort := cfg.Server.Port
	if serverAddr == "" {
		slog.Info("no server address configured, discovering via mDNS...")
		serverAddr, serverPort, err = auth.DiscoverServer(ctx, 30*time.Second)
		if err != nil {
			slog.Error("server discovery failed", "err", err)
			os.Exit(1)
		}
	}

	encoding, _ := auth.ParseUIDEncoding(cfg.Crypto.UIDEncoding)
	subject, _ := auth.ParseEncryptSubject(cfg.Crypto.EncryptSubject)
	client := auth.NewClient(auth.Config{
		ServerAddress: serverAddr,
		ServerPort:    serverPort,
		DeviceUUID:    cfg.Device.UUID,
		Key:           key,
		Encoding:      encoding,
		Subject:       subject,
		IVs:           cfg.IVSource(),
		Timeout:       time.Duration(cfg.Server.TimeoutMs) * time.Millisecond,
	})
	slog.Info("authorization client configured",
		"server", fmt.Sprintf("%s:%d", serverAddr, serverPort),
		"device", cfg.Device.UUID,
		"encryption", cfg.Crypto.Enabled,
		"encoding", encoding.String(),
	)

	auditLog, err := audit.NewLog(cfg.Audit.Path, cfg.Audit.MaxEntries)
	if err != nil {
		slog.Error("audit log open failed", "err", err)
		os.Exit(1)
	}
	defer auditLog.Close()

	var reader door.Reader
	if *simulate {
		reader = &stdinReader{scanner: bufio.NewScanner(os.Stdin)}
		slog.Warn("simulated reader active; UIDs come from stdin")
	} else {
		reader, err = door.NewPCSCReader(cfg.Device.ReaderIndex)
		if err != nil {
			slog.Error("card reader init failed", "err", err)
			os.Exit(1)
		}
	}
	defer reader.Close()

	d := door.New(door.LogLatch{}, 0, 0)
	controller := door.NewController(reader, client, d, nil, auditLog, encoding)

	probe := auth.StartProbe(ctx, serverAddr, serverPort, time.Duration(cfg.Server.ProbeIntervalSec)*time.Second)
	defer probe.Stop()

	api := statusapi.New(&service{controller: controller, probe: probe, log: auditLog}, cfg.Device.UUID)
	httpServer := &http.Server{Addr: cfg.API.Listen, Handler: api}
	go func() {
		slog.Info("status API listening", "addr", cfg.API.Listen)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("status API error", "err", err)
			cancel()
		}
	}()

	if err := controller.Run(ctx); err != nil {
		slog.Error("controller stopped", "err", err)
	}

	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("status API shutdown error", "err", err)
	}
	slog.Info("shutdown complete")
}

// service adapts the wired components to the status API surface.
type service struct {
	controller *door.Controller
	probe      *auth.Probe
	log        *audit.Log
}

func (s *service) DoorState() string                  { return s.controller.DoorState() }
func (s *service) Override(source string)             { s.controller.Override(source) }
func (s *service) ServerReachable() (bool, time.Time) { return s.probe.Reachable() }
func (s *service) Recent(n int) []audit.Entry         { return s.log.Recent(n) }
func (s *service) Counters() (int, int, int)          { return s.log.Counters() }

// stdinReader feeds hex UIDs typed on stdin into the scan loop. For
// development against a live server without reader hardware.
type stdinReader struct {
	scanner *bufio.Scanner
}

func (r *stdinReader) WaitForCard(ctx context.Context) ([]byte, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		uid, err := hex.DecodeString(line)
		if err != nil || len(uid) < 4 || len(uid) > 10 {
			slog.Warn("not a valid hex UID (4-10 bytes)", "input", line)
			continue
		}
		return uid, nil
	}
	// stdin closed; block until the service is stopped.
	<-ctx.Done()
	return nil, ctx.Err()
}

func (r *stdinReader) Close() error { return nil }
