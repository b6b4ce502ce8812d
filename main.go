package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/PonyPC/omaha/ui"
)

func main() {
	var bundle string
	var logLevel string
	var wait time.Duration
	var noSplash bool

	flag.StringVar(&bundle, "bundle", "", "bundle display name shown on the splash")
	flag.StringVar(&logLevel, "loglevel", "", "log level: error, info or debug")
	flag.DurationVar(&wait, "wait", 3*time.Second, "how long initialization takes before the splash is dismissed")
	flag.BoolVar(&noSplash, "nosplash", false, "skip the splash window")
	flag.Parse()

	cfg := LoadConfig()
	if bundle == "" {
		bundle = cfg.BundleName
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}

	logFile, err := InitLogger(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	cleanup := ensureSingleInstance()
	defer cleanup()

	Log.Info("installer bootstrap starting", "bundle", bundle)

	splash := ui.New(bundle)
	if !noSplash && cfg.IsSplashEnabled() {
		splash.Show()
	}

	// Stand-in for the real installer initialization. The splash goes
	// away once this finishes or the user interrupts, whichever comes
	// first; a splash failure never blocks this path.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-time.After(wait):
		Log.Info("initialization finished", "elapsed", wait)
	case <-interrupt:
		Log.Info("interrupted, dismissing splash")
	}
	signal.Stop(interrupt)

	splash.Dismiss()
	splash.Release()

	beeep.AppName = "Omaha Installer"
	if err := beeep.Notify("Omaha Installer", fmt.Sprintf("%s setup is ready.", bundleOrDefault(bundle)), ""); err != nil {
		Log.Debug("completion notification failed", "error", err)
	}
}

func bundleOrDefault(bundle string) string {
	if bundle == "" {
		return "Application"
	}
	return bundle
}
