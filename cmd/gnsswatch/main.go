package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gnsswatch/internal/config"
	"gnsswatch/internal/fix"
	"gnsswatch/internal/gnss"
	"gnsswatch/internal/publish"
	"gnsswatch/internal/rawlog"
	"gnsswatch/internal/render"
	"gnsswatch/internal/source"
	"gnsswatch/internal/udp"
	"gnsswatch/internal/web"
)

func main() {
	var (
		configPath string
		device     string
		baud       int
		tcpAddr    string
		filePath   string
		jsonOut    bool
		rawEcho    bool
		logPath    string
		once       bool
		formatStr  string
		partial    bool
		helpFormat bool
		httpAddr   string
		mqttBroker string
		mqttTopic  string
		udpDest    string
	)

	flag.StringVar(&configPath, "config", "", "path to YAML config (flags override)")
	flag.StringVar(&device, "p", "", "serial device path (default auto-detect)")
	flag.IntVar(&baud, "b", 0, "serial baud rate (default 115200)")
	flag.StringVar(&tcpAddr, "tcp", "", "read NMEA from a TCP receiver at host:port")
	flag.StringVar(&filePath, "file", "", "read NMEA from a file instead of serial ('-' for stdin)")
	flag.BoolVar(&jsonOut, "j", false, "emit compact JSON status lines")
	flag.BoolVar(&rawEcho, "r", false, "echo valid NMEA sentences to stdout")
	flag.StringVar(&logPath, "l", "", "path to append raw NMEA")
	flag.BoolVar(&once, "o", false, "exit after a single consolidated fix summary")
	flag.StringVar(&formatStr, "f", "", "custom format string, e.g. '%(utc_time)s lat: %(lat).6f'")
	flag.BoolVar(&partial, "P", false, "allow partial output without lat/lon/utc_time")
	flag.BoolVar(&helpFormat, "help-format", false, "show available format keys and exit")
	flag.StringVar(&httpAddr, "http", "", "serve /status JSON on this address, e.g. ':8080'")
	flag.StringVar(&mqttBroker, "mqtt", "", "publish fixes to this MQTT broker, e.g. 'tcp://localhost:1883'")
	flag.StringVar(&mqttTopic, "mqtt-topic", "", "MQTT topic (default gnsswatch/fix)")
	flag.StringVar(&udpDest, "udp", "", "broadcast the latest fix JSON to this UDP address")
	flag.Parse()

	if helpFormat {
		fmt.Print(render.HelpFormat())
		return
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
		cfg = loaded
	}

	// Flags set on the command line win over the config file.
	var jsonSet, formatSet bool
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "p":
			cfg.Source.Device = device
		case "b":
			cfg.Source.Baud = baud
		case "tcp":
			cfg.Source.TCP = tcpAddr
		case "file":
			cfg.Source.File = filePath
		case "j":
			jsonSet = true
		case "r":
			cfg.Output.RawEcho = rawEcho
		case "l":
			cfg.Output.LogPath = logPath
		case "o":
			cfg.Output.Once = once
		case "f":
			formatSet = true
		case "P":
			cfg.Output.Partial = partial
		case "http":
			cfg.HTTP.Addr = httpAddr
		case "mqtt":
			cfg.MQTT.Broker = mqttBroker
		case "mqtt-topic":
			cfg.MQTT.Topic = mqttTopic
		case "udp":
			cfg.UDP.Dest = udpDest
		}
	})
	applyModeFlags(&cfg.Output, jsonSet, formatSet, formatStr)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := gnss.New(gnss.Config{
		Interval: cfg.Output.Interval,
		Partial:  cfg.Output.Partial,
		Once:     cfg.Output.Once,
	})
	svc.AddSink(stdoutSink(cfg.Output))

	if cfg.Output.RawEcho {
		svc.AddRawSink(func(line string) {
			fmt.Println(line)
		})
	}
	if cfg.Output.LogPath != "" {
		w, err := rawlog.Open(cfg.Output.LogPath)
		if err != nil {
			log.Fatalf("raw log: %v", err)
		}
		defer w.Close()
		svc.AddRawSink(func(line string) {
			if err := w.WriteLine(line); err != nil {
				log.Printf("raw log write: %v", err)
			}
		})
	}
	if cfg.MQTT.Broker != "" {
		pub, err := publish.Connect(publish.Config{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		})
		if err != nil {
			log.Fatalf("mqtt: %v", err)
		}
		defer pub.Close()
		svc.AddSink(func(r fix.Record) {
			if err := pub.Publish(r); err != nil {
				log.Printf("mqtt publish: %v", err)
			}
		})
	}
	if cfg.UDP.Dest != "" {
		b, err := udp.NewBroadcaster(cfg.UDP.Dest)
		if err != nil {
			log.Fatalf("udp: %v", err)
		}
		defer b.Close()
		go func() {
			err := b.Run(ctx, cfg.UDP.Interval, func() []byte {
				snap := svc.Snapshot()
				if snap.PopulatedFields() == 0 {
					return nil
				}
				s, err := render.JSON(snap)
				if err != nil {
					return nil
				}
				return []byte(s)
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("udp broadcaster stopped: %v", err)
			}
		}()
	}
	if cfg.HTTP.Addr != "" {
		go func() {
			if err := web.Serve(ctx, cfg.HTTP.Addr, svc); err != nil {
				log.Printf("status server stopped: %v", err)
			}
		}()
	}

	src, err := openSource(ctx, cfg.Source)
	if err != nil {
		log.Fatalf("%v", err)
	}
	// Unblock a pending ReadLine when we are told to stop.
	go func() {
		<-ctx.Done()
		_ = src.Close()
	}()
	defer src.Close()

	if err := svc.Run(ctx, src); err != nil && ctx.Err() == nil {
		log.Fatalf("read loop failed: %v", err)
	}
}

// applyModeFlags resolves the output mode from the -j and -f flags. -f wins
// when both were given, regardless of the order flag.Visit walks them in.
func applyModeFlags(out *config.OutputConfig, jsonSet, formatSet bool, formatStr string) {
	switch {
	case formatSet:
		out.Mode = "format"
		out.Format = formatStr
	case jsonSet:
		out.Mode = "json"
	}
}

func openSource(ctx context.Context, cfg config.SourceConfig) (source.Lines, error) {
	if cfg.File != "" {
		return source.OpenFile(cfg.File)
	}
	if cfg.TCP != "" {
		return source.OpenTCP(ctx, cfg.TCP)
	}
	return source.OpenSerial(cfg.Device, cfg.Baud)
}

// stdoutSink renders emitted snapshots according to the output mode.
func stdoutSink(cfg config.OutputConfig) func(fix.Record) {
	return func(r fix.Record) {
		switch cfg.Mode {
		case "json":
			s, err := render.JSON(r)
			if err != nil {
				fmt.Fprintf(os.Stderr, "json error: %v\n", err)
				return
			}
			fmt.Println(s)
		case "format":
			s, err := render.Format(r, cfg.Format)
			if err != nil {
				fmt.Fprintf(os.Stderr, "format error: %v\n", err)
				return
			}
			fmt.Println(s)
		default:
			fmt.Println(render.Human(r))
		}
	}
}
