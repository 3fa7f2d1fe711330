package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3"

	"tlcmux/host/config"
	"tlcmux/host/serial"
	"tlcmux/host/sim"
	"tlcmux/host/tlcmux"
	"tlcmux/host/trace"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	device     = flag.String("device", "", "serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "baud rate (overrides config)")
	useSim     = flag.Bool("sim", false, "talk to an in-memory simulated device")
	tracePath  = flag.String("trace", "", "record every exchange to this CBOR file")
	steps      = flag.Int("steps", 0, "blend steps per image column (overrides config)")
	rate       = flag.String("rate", "", "scroll frame rate, e.g. 30Hz (overrides config)")
	pause      = flag.Duration("pause", time.Second, "pause between demo steps")
	verbose    = flag.Bool("verbose", false, "log every protocol exchange")
)

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [flags] <command> [args]\n\n", os.Args[0])
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  info            print the device shape")
	fmt.Fprintln(out, "  demo            exercise every protocol command")
	fmt.Fprintln(out, "  scroll [image]  scroll an image across the matrix until interrupted")
	fmt.Fprintln(out, "  shell           interactive command prompt")
	fmt.Fprintln(out, "  trace <file>    print a recorded trace")
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args[0], args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("command", args[0]).Msg("failed")
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the config file if one was given and applies flag
// overrides on top of it
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	}

	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud > 0 {
		cfg.Serial.Baud = *baud
	}
	if *useSim {
		cfg.Driver = config.DriverSim
	}
	if *tracePath != "" {
		cfg.Trace = *tracePath
	}
	if *steps > 0 {
		cfg.Scroll.BlendSteps = *steps
	}
	if *rate != "" {
		cfg.Scroll.Rate = *rate
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, cmd string, args []string) error {
	if cmd == "trace" {
		if len(args) != 1 {
			return fmt.Errorf("usage: trace <file>")
		}
		return dumpTrace(os.Stdout, args[0])
	}

	switch cmd {
	case "info", "demo", "scroll", "shell":
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	client, err := connect(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	switch cmd {
	case "info":
		fmt.Println(client.Shape())
		return nil
	case "demo":
		return runDemo(ctx, client, *pause)
	case "scroll":
		path := cfg.Scroll.Image
		if len(args) > 0 {
			path = args[0]
		}
		return runScroll(ctx, client, cfg, path)
	default:
		return runShell(ctx, client)
	}
}

// connect opens the configured channel and performs the info exchange
func connect(cfg *config.Config) (*tlcmux.Client, error) {
	var (
		c   conn.Conn
		err error
	)
	switch cfg.Driver {
	case config.DriverSim:
		c, err = sim.New(cfg.SimConfig())
	default:
		log.Info().Str("device", cfg.Serial.Device).Int("baud", cfg.Serial.Baud).Msg("opening serial port")
		c, err = serial.OpenConn(cfg.SerialConfig())
	}
	if err != nil {
		return nil, err
	}

	if cfg.Trace != "" {
		rec, err := trace.Create(c, cfg.Trace)
		if err != nil {
			closeConn(c)
			return nil, err
		}
		log.Info().Str("path", cfg.Trace).Str("session", rec.Session()).Msg("tracing exchanges")
		c = rec
	}

	client, err := tlcmux.New(c, tlcmux.WithLogger(log.Logger.With().Str("conn", c.String()).Logger()))
	if err != nil {
		closeConn(c)
		return nil, err
	}
	return client, nil
}

func closeConn(c conn.Conn) {
	if cl, ok := c.(io.Closer); ok {
		_ = cl.Close()
	}
}
