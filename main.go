package main

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"

	"github.com/gopxl/beep"

	"github.com/whyrusleeping/drumkit/internal/config"
	"github.com/whyrusleeping/drumkit/internal/logger"
	"github.com/whyrusleeping/drumkit/sampler"
)

// SDL wants its calls on the main thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	os.Exit(run())
}

func run() int {
	cfgPath := flag.String("config", "drumkit.yaml", "path to the kit configuration")
	console := flag.Bool("console", false, "also read transport commands from the terminal")
	logPath := flag.String("log", "", "also write the log to this file (overrides log_file)")
	noColor := flag.Bool("no-color", false, "disable coloured log output")
	writeConfig := flag.String("write-config", "", "write the effective configuration to this file and exit")
	flag.Parse()

	log := logger.NewLogger("info")

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Warnf("using default configuration: %v", err)
	}
	if *logPath != "" {
		cfg.LogFile = *logPath
	}

	if *writeConfig != "" {
		if err := config.SaveConfig(cfg, *writeConfig); err != nil {
			log.Errorf("%v", err)
			return 1
		}
		log.Infof("configuration written to %s", *writeConfig)
		return 0
	}

	if cfg.LogFile != "" {
		flog, err := openLogger(cfg.LogLevel, cfg.LogFile, *console)
		if err != nil {
			log.Errorf("%v", err)
			return 1
		}
		log = flog
		defer log.Close()
	}
	log.SetLevel(cfg.LogLevel)
	if *noColor {
		log.EnableColors(false)
	}

	entries := loadKit(cfg, filepath.Dir(*cfgPath), log)
	if len(entries) == 0 {
		log.Error("no samples could be loaded")
		return 1
	}

	out, err := newOutput(cfg)
	if err != nil {
		log.Errorf("audio output: %v", err)
		return 1
	}
	defer out.Close()

	opts := sampler.DefaultOptions()
	opts.SampleRate = beep.SampleRate(cfg.Audio.SampleRate)
	opts.Volume = cfg.Audio.Volume
	opts.Rate = cfg.Audio.Rate
	opts.Pulse = cfg.PulseDuration()
	opts.Settle = cfg.SettleMargin()
	opts.Analyser = sampler.AnalyserConfig{
		FFTSize:   cfg.Visualizer.FFTSize,
		MinDB:     cfg.Visualizer.MinDB,
		MaxDB:     cfg.Visualizer.MaxDB,
		Smoothing: cfg.Visualizer.Smoothing,
	}
	opts.Log = log

	kit := sampler.NewKit(entries, out, opts)
	log.Infof("kit ready: %d pads on %s", kit.Bank.Len(), cfg.Audio.Backend)

	done := make(chan struct{})
	if *console {
		go func() {
			defer close(done)
			runConsole(kit, promptReader(kit), os.Stdout)
		}()
	}

	if err := runWindow(kit, cfg, log, done); err != nil {
		log.Errorf("window: %v", err)
		if !*console {
			return 1
		}
		// keep serving the console without a window
		<-done
	}
	return 0
}

// openLogger tees the log into path. With the console attached the log goes
// to the file only so it does not tear up the prompt.
func openLogger(level, path string, console bool) (*logger.Logger, error) {
	if console {
		return logger.NewFileLogger(level, path)
	}
	return logger.NewMultiLogger(level, path)
}

// loadKit decodes every configured sample. Files that fail to load are
// skipped with a warning; their keys stay unbound.
func loadKit(cfg *config.Config, base string, log *logger.Logger) []sampler.Entry {
	sr := beep.SampleRate(cfg.Audio.SampleRate)

	var entries []sampler.Entry
	for _, b := range cfg.Kit.Bindings {
		path := b.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}

		s, err := sampler.LoadSample(path, sr)
		if err != nil {
			log.Warnf("key %q: %v", b.Key, err)
			continue
		}
		log.Debugf("loaded %s for %q (%s)", s.Name(), b.Key, s.Duration())
		entries = append(entries, sampler.Entry{Key: b.Key, Resource: s})
	}
	return entries
}
