// Package profilers implement helper functions to set up profiling of long training runs.
//
// Register the flags with RegisterFlags, then call Setup and a deferred OnQuit.
package profilers

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

// Config of the profilers.
type Config struct {
	// HTTPPort for the pprof server. If < 0, it is disabled.
	HTTPPort int

	// CPUProfile file to write to. If empty, CPU profiling is disabled.
	CPUProfile string

	// KeepAlive after the program finished while the pprof server is running, until ctx is cancelled.
	KeepAlive bool
}

var (
	config = Config{HTTPPort: -1}

	// globalCtx is set on the call to Setup.
	globalCtx context.Context
	cpuFile   *os.File
)

// RegisterFlags adds the profiler flags to fs: --prof, --cpu_profile and --prof_keep_alive.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVar(&config.HTTPPort, "prof", config.HTTPPort, "If set, runs the pprof HTTP server at the given port.")
	fs.StringVar(&config.CPUProfile, "cpu_profile", config.CPUProfile, "Write CPU profile to `file`.")
	fs.BoolVar(&config.KeepAlive, "prof_keep_alive", config.KeepAlive,
		"If the pprof server is running, keep the program alive at the end until interrupted.")
}

// Setup starts the HTTP (flag --prof) and CPU profilers (flag --cpu_profile), if they were configured.
// You should follow with a deferred call to OnQuit.
func Setup(ctx context.Context) error {
	return SetupWithConfig(ctx, config)
}

// SetupWithConfig is like Setup, but uses the given configuration instead of the flags.
func SetupWithConfig(ctx context.Context, c Config) error {
	globalCtx = ctx
	config = c
	if config.HTTPPort >= 0 {
		setupHTTPProfiler()
	}
	if config.CPUProfile != "" {
		return createCPUProfile()
	}
	return nil
}

// OnQuit should be called before the exit of the main() function, typically this is setup as a deferred call
// just after Setup.
func OnQuit() {
	if cpuFile != nil {
		pprof.StopCPUProfile()
		if err := cpuFile.Close(); err != nil {
			klog.Errorf("Failed to close CPU profile %q: %+v", config.CPUProfile, err)
		}
		cpuFile = nil
		klog.Infof("CPU profile saved to %q", config.CPUProfile)
	}
	if config.HTTPPort >= 0 && config.KeepAlive {
		httpProfilerOnQuit()
	}
}

// createCPUProfile creates the file config.CPUProfile and starts the CPU profiling there.
func createCPUProfile() error {
	f, err := os.Create(config.CPUProfile)
	if err != nil {
		return errors.Wrapf(err, "could not create CPU profile %q", config.CPUProfile)
	}
	if err = pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "could not start CPU profile %q", config.CPUProfile)
	}
	cpuFile = f
	return nil
}

// setupHTTPProfiler starts the pprof server in the background.
func setupHTTPProfiler() {
	addr := fmt.Sprintf("localhost:%d", config.HTTPPort)
	klog.Infof("Starting profiler on http://%s/debug/pprof", addr)
	klog.Infof("- You can access it with: $ go tool pprof http://%s/debug/pprof/heap", addr)
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			klog.Errorf("Profiler server on %s failed: %+v", addr, err)
		}
	}()
}

// httpProfilerOnQuit keeps the program alive until the context given to Setup is cancelled.
func httpProfilerOnQuit() {
	if globalCtx.Err() != nil {
		// Already interrupted.
		return
	}

	// Garbage collect, to see if there is anything leaking.
	for range 10 {
		runtime.GC()
	}
	klog.Infof("Program finished: kept alive with profiler opened on port %d, interrupt (Ctrl+C) to exit", config.HTTPPort)
	<-globalCtx.Done()
}
