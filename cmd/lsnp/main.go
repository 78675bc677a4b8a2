package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lsnp/lsnp/internal/clientstate"
	"github.com/lsnp/lsnp/internal/filestate"
	"github.com/lsnp/lsnp/internal/game"
	"github.com/lsnp/lsnp/internal/lsnplog"
	"github.com/lsnp/lsnp/internal/messages"
	"github.com/lsnp/lsnp/internal/metrics"
	"github.com/lsnp/lsnp/internal/transport"
	"github.com/lsnp/lsnp/internal/types"

	"github.com/peterh/liner"
)

var (
	fPort         = flag.Int("port", transport.DefaultPort, "UDP port to bind and to send to")
	fSubnet       = flag.Int("subnet", transport.DefaultSubnetPrefix, "subnet prefix length used to derive the broadcast address")
	fIPAddress    = flag.String("ipaddress", "", "local bind IP; auto-detected if empty")
	fUsername     = flag.String("username", "", "display username; required")
	fVerbose      = flag.Bool("verbose", false, "enable debug logging")
	fMetricsAddr  = flag.String("metrics", "", "if set, serve Prometheus metrics on this address (e.g. :9999)")
	fBase         = flag.String("base", "received_files", "directory completed file transfers are written to")
	fPingInterval = flag.Duration("pinginterval", transport.DefaultPresenceInterval, "interval between outgoing PING broadcasts")

	shutdown   = make(chan os.Signal, 1)
	shutdownMu sync.Mutex

	// logRing backs the REPL's "log" command with the last 200 lines
	// logged through internal/lsnplog, regardless of the stderr sink's
	// current verbosity.
	logRing = lsnplog.NewRing(200)
)

const banner = "LSNP peer"

func usage() {
	fmt.Println(banner)
	fmt.Println("usage: lsnp --username <name> [options]")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *fVerbose {
		lsnplog.SetLevel("stderr", lsnplog.DEBUG)
	}
	lsnplog.AddLogger("ring", logRing, lsnplog.DEBUG, false)

	if *fUsername == "" {
		fmt.Fprintln(os.Stderr, "lsnp: --username is required")
		os.Exit(1)
	}

	ip := *fIPAddress
	if ip == "" {
		var err error
		ip, err = detectLocalIP()
		if err != nil {
			lsnplog.Fatal("lsnp: could not auto-detect local IP, pass --ipaddress: %v", err)
		}
	}

	self, err := types.ParseUserID(*fUsername + "@" + ip)
	if err != nil {
		lsnplog.Fatal("lsnp: %v", err)
	}

	state := clientstate.New()
	state.SetUserID(self)
	files := filestate.New(*fBase)
	games := game.New()

	tr, err := transport.New(transport.Config{
		IPAddress:        ip,
		Port:             *fPort,
		SubnetPrefix:     *fSubnet,
		PresenceInterval: *fPingInterval,
	}, self)
	if err != nil {
		lsnplog.Fatal("lsnp: %v", err)
	}

	ctx := &messages.Context{
		Self:  self,
		State: state,
		Files: files,
		Games: games,
		Send:  tr,
	}
	tr.Attach(ctx)

	if *fMetricsAddr != "" {
		startMetricsServer(*fMetricsAddr, state, games)
	}

	tr.Run()

	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	input := liner.NewLiner()
	defer input.Close()

	go func() {
		runRepl(input, ctx)
		Shutdown("quitting")
	}()

	sig := <-shutdown
	if sig != nil {
		lsnplog.Warn("caught Ctrl-C, shutting down")
	}

	tr.Close()
}

// Shutdown logs the call site, closes the shutdown channel exactly
// once, and blocks forever so the caller's goroutine doesn't race
// main's teardown.
func Shutdown(format string, args ...interface{}) {
	shutdownMu.Lock()

	msg := fmt.Sprintf(format, args...)
	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			file, line := fn.FileLine(pc)
			file = filepath.Base(file)
			lsnplog.Warn("shutdown initiated by %v:%v: %v", file, line, msg)
		}
	}

	close(shutdown)

	<-make(chan int)
}

func startMetricsServer(addr string, state *clientstate.State, games *game.Manager) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.New(metrics.Suppliers{
		PeersKnown:       func() int { return len(state.GetPeers()) },
		MessagesSent:     func() int { return len(state.GetRecentMessagesSent()) },
		MessagesReceived: func() int { return len(state.GetRecentMessagesReceived()) },
		ActiveGames:      games.ActiveCount,
	}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			lsnplog.Warn("lsnp: metrics server: %v", err)
		}
	}()
}

// setVerbose is the REPL's "verbose" command backing: it flips the
// stderr sink between INFO and DEBUG without requiring a restart.
func setVerbose(on bool) {
	level := lsnplog.INFO
	if on {
		level = lsnplog.DEBUG
	}
	lsnplog.SetLevel("stderr", level)
}

func detectLocalIP() (string, error) {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	addr := conn.LocalAddr().(*net.UDPAddr)
	return addr.IP.String(), nil
}

