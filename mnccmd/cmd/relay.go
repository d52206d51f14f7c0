package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	elog "github.com/eluv-io/log-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/eluv-io/mnc"
	"github.com/eluv-io/mnc/packet"
	"github.com/eluv-io/mnc/transport"
)

var log = elog.Get("/eluvio/mnc/cmd")

// DEFAULT_PORT is the UDP port used when -p is not given.
const DEFAULT_PORT = 29495

// InitRelay wires the relay flags and handler onto the root command.
func InitRelay(cmdRoot *cobra.Command) error {
	cmdRoot.Args = cobra.MaximumNArgs(1)
	cmdRoot.RunE = doRelay

	f := cmdRoot.Flags()
	f.StringP("type", "t", "text", "packet type: text, binary, vita49, sdds or mpegts")
	f.StringP("input", "i", "", "read packets from this file ('-' for stdin) and send them to the group")
	f.StringP("output", "o", "", "write received packets to this file ('-' for stdout)")
	f.IntP("port", "p", DEFAULT_PORT, "UDP port to bind or send to")
	f.IntP("buffer-size", "b", mnc.DEFAULT_QUEUE_SIZE, "packets the in-memory buffer holds")
	f.String("overflow", "block", "full-buffer policy: block, drop-oldest or drop-newest")
	f.Float64P("rate", "r", 0, "limit sending to this many packets per second")
	f.Float64("bps", 0, "limit sending to this many bytes per second")
	f.IntP("ttl", "L", 255, "time to live of sent multicast packets")
	f.Uint64P("count", "c", 0, "stop after this many packets, 0 = unlimited")
	f.BoolP("statistics", "s", false, "display periodic statistics")
	f.Duration("interval", mnc.DEFAULT_STATS_PERIOD, "statistics display interval")
	f.BoolP("verbose", "v", false, "hex dump packet contents, implies -c 1 unless -c is given")
	f.BoolP("quiet", "q", false, "suppress statistics and informational output")
	f.BoolP("debug", "d", false, "enable debug logging")
	f.BoolP("framed", "F", false, "length-prefix packets written to or read from files")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9753")
	f.String("log-file", "", "append logs to this rotating file instead of the console")
	return nil
}

// relayOpts is the parsed flag set, resolved but not yet opened.
type relayOpts struct {
	typ    packet.Type
	input  string
	output string
	iface  string
	group  net.IP
	port   int
	ttl    int
	framed bool

	queueSize int
	policy    mnc.Policy
	rate      float64
	bps       float64
	count     uint64

	verbose bool
	quiet   bool
	debug   bool
	stats   bool
	period  time.Duration

	metricsAddr string
	logFile     string
}

// sendMode reports whether packets flow from a local file to the group.
func (o *relayOpts) sendMode() bool {
	return o.input != ""
}

// offline reports whether both endpoints are files and no group is involved.
func (o *relayOpts) offline() bool {
	return o.input != "" && o.output != ""
}

func parseRelayOpts(cmd *cobra.Command, args []string) (*relayOpts, error) {
	o := &relayOpts{}

	typeStr, err := cmd.Flags().GetString("type")
	if err != nil {
		return nil, fmt.Errorf("Invalid type flag")
	}
	o.typ, err = packet.ParseType(typeStr)
	if err != nil {
		return nil, err
	}

	o.input, err = cmd.Flags().GetString("input")
	if err != nil {
		return nil, fmt.Errorf("Invalid input flag")
	}
	o.output, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, fmt.Errorf("Invalid output flag")
	}
	o.port, err = cmd.Flags().GetInt("port")
	if err != nil || o.port <= 0 || o.port > 65535 {
		return nil, fmt.Errorf("Invalid port flag")
	}
	o.ttl, err = cmd.Flags().GetInt("ttl")
	if err != nil || o.ttl < 0 || o.ttl > 255 {
		return nil, fmt.Errorf("Invalid ttl flag")
	}
	o.framed, err = cmd.Flags().GetBool("framed")
	if err != nil {
		return nil, fmt.Errorf("Invalid framed flag")
	}

	o.queueSize, err = cmd.Flags().GetInt("buffer-size")
	if err != nil {
		return nil, fmt.Errorf("Invalid buffer-size flag")
	}
	policyStr, err := cmd.Flags().GetString("overflow")
	if err != nil {
		return nil, fmt.Errorf("Invalid overflow flag")
	}
	o.policy, err = mnc.ParsePolicy(policyStr)
	if err != nil {
		return nil, err
	}
	o.rate, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, fmt.Errorf("Invalid rate flag")
	}
	o.bps, err = cmd.Flags().GetFloat64("bps")
	if err != nil {
		return nil, fmt.Errorf("Invalid bps flag")
	}
	o.count, err = cmd.Flags().GetUint64("count")
	if err != nil {
		return nil, fmt.Errorf("Invalid count flag")
	}

	o.verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("Invalid verbose flag")
	}
	o.quiet, err = cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("Invalid quiet flag")
	}
	o.debug, err = cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, fmt.Errorf("Invalid debug flag")
	}
	o.stats, err = cmd.Flags().GetBool("statistics")
	if err != nil {
		return nil, fmt.Errorf("Invalid statistics flag")
	}
	o.period, err = cmd.Flags().GetDuration("interval")
	if err != nil || o.period <= 0 {
		return nil, fmt.Errorf("Invalid interval flag")
	}

	o.metricsAddr, err = cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return nil, fmt.Errorf("Invalid metrics-addr flag")
	}
	o.logFile, err = cmd.Flags().GetString("log-file")
	if err != nil {
		return nil, fmt.Errorf("Invalid log-file flag")
	}

	// A hex dump of endless traffic is rarely what anyone wants.
	if o.verbose && !cmd.Flags().Changed("count") {
		o.count = 1
	}

	if len(args) == 1 {
		o.iface, o.group, err = transport.ParseGroup(args[0])
		if err != nil {
			return nil, err
		}
	}
	if o.offline() {
		if o.group != nil {
			return nil, fmt.Errorf("Input and output are both files, the group address has no role")
		}
	} else if o.group == nil {
		return nil, fmt.Errorf("Group address required, e.g. 'mnc 239.1.1.1'")
	}
	if o.input == "-" && o.output == "-" {
		return nil, fmt.Errorf("Input and output cannot both be standard streams")
	}
	return o, nil
}

// initLogging applies the log level and destination chosen on the command
// line. Debug wins over quiet.
func initLogging(o *relayOpts) {
	level := "info"
	switch {
	case o.debug:
		level = "debug"
	case o.quiet:
		level = "warn"
	}
	c := &elog.Config{
		Level:   level,
		Handler: "text",
	}
	if o.logFile != "" {
		c.File = &elog.LumberjackConfig{
			Filename:  o.logFile,
			LocalTime: true,
		}
	}
	elog.SetDefault(c)
}

// openEndpoints resolves the source and sink for the selected direction.
func openEndpoints(o *relayOpts) (transport.Source, transport.Sink, error) {
	if o.offline() {
		src, err := transport.OpenFile(o.input, o.typ)
		if err != nil {
			return nil, nil, err
		}
		sink, err := transport.CreateFile(o.output, o.typ, o.framed)
		if err != nil {
			_ = src.Close()
			return nil, nil, err
		}
		return src, sink, nil
	}
	if o.sendMode() {
		src, err := transport.OpenFile(o.input, o.typ)
		if err != nil {
			return nil, nil, err
		}
		sink, err := transport.DialGroup(o.iface, o.group, o.port, o.ttl)
		if err != nil {
			_ = src.Close()
			return nil, nil, err
		}
		return src, sink, nil
	}
	src, err := transport.OpenGroup(o.iface, o.group, o.port)
	if err != nil {
		return nil, nil, err
	}
	if o.output == "" {
		return src, transport.Discard{}, nil
	}
	sink, err := transport.CreateFile(o.output, o.typ, o.framed)
	if err != nil {
		_ = src.Close()
		return nil, nil, err
	}
	return src, sink, nil
}

// pipelineConfig maps the parsed options onto a pipeline configuration.
// Quiet suppresses the statistics task and the packet dump even when -s
// or -v were also given, matching the log level it selects.
func pipelineConfig(o *relayOpts, src transport.Source, sink transport.Sink) mnc.Config {
	cfg := mnc.Config{
		Source:     src,
		Sink:       sink,
		Type:       o.typ,
		QueueSize:  o.queueSize,
		Policy:     o.policy,
		PacketRate: o.rate,
		ByteRate:   o.bps,
		Count:      o.count,
	}
	if !o.quiet {
		cfg.Verbose = o.verbose
		if o.stats || o.verbose {
			cfg.StatsPeriod = o.period
		}
	}
	return cfg
}

// serveMetrics exposes the pipeline counters on addr until the returned
// stop function is called.
func serveMetrics(addr string, p *mnc.Pipeline) func() {
	reg := prometheus.NewRegistry()
	mnc.NewMetrics(reg, p.Counters(), p.Queue())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Warn("metrics server failed", "err", err)
		}
	}()
	return func() {
		_ = srv.Close()
	}
}

func doRelay(cmd *cobra.Command, args []string) error {
	o, err := parseRelayOpts(cmd, args)
	if err != nil {
		return err
	}
	initLogging(o)

	src, sink, err := openEndpoints(o)
	if err != nil {
		return err
	}

	p, err := mnc.NewPipeline(pipelineConfig(o, src, sink))
	if err != nil {
		_ = src.Close()
		_ = sink.Close()
		return err
	}

	if o.metricsAddr != "" {
		stop := serveMetrics(o.metricsAddr, p)
		defer stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return p.Run(ctx)
}
