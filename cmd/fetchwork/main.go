package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	fetchwork "github.com/fetchwork/fetchwork"
	"github.com/fetchwork/fetchwork/pkg/bodywriter"
	"github.com/fetchwork/fetchwork/pkg/target"
	"github.com/fetchwork/fetchwork/validators"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	outputFlag         string
	modeFlag           string
	userAgentFlag      string
	proxyFlag          string
	timeoutFlag        time.Duration
	insecureFlag       bool
	dbFilenameFlag     string
	noCacheFlag        bool
	logFilenameFlag    string
	verbosityTraceFlag bool

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&outputFlag, "o", "", "Write body to this file instead of stdout")
	flag.StringVar(&modeFlag, "mode", "auto", "Write mode: auto, text or binary")
	flag.StringVar(&userAgentFlag, "ua", "", "User-Agent header (overrides config)")
	flag.StringVar(&proxyFlag, "proxy", "", "Proxy URL (overrides HTTP_PROXY)")
	flag.DurationVar(&timeoutFlag, "timeout", 0, "Per-hop timeout (overrides config)")
	flag.BoolVar(&insecureFlag, "insecure", false, "Disable TLS certificate verification (NOT recommended)")
	flag.StringVar(&dbFilenameFlag, "db", "validators.db", "Validator DB file name (use 'memory' for in-memory db, 'none' to disable)")
	flag.BoolVar(&noCacheFlag, "no-cache", false, "Do not send conditional headers")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stderr)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// log to stderr so the body can go to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stderr})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] URL\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	rawurl := flag.Arg(0)

	fetchConfig := fetchwork.Config{
		Logger: &log.Logger,
	}

	if configFilenameFlag != "" {
		config, err := getConfig(configFilenameFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not read config file")
		}
		if err := applyConfig(&fetchConfig, config); err != nil {
			log.Fatal().Err(err).Msg("Bad config file")
		}
	}

	if userAgentFlag != "" {
		fetchConfig.UserAgent = userAgentFlag
	}
	if timeoutFlag != 0 {
		fetchConfig.Timeout = timeoutFlag
	}
	if insecureFlag {
		log.Warn().Msg("TLS certificate verification disabled")
		fetchConfig.Insecure = true
	}
	if proxyFlag != "" {
		proxy, err := target.ParseProxy(proxyFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not parse proxy")
		}
		fetchConfig.Proxy = &proxy
	}

	store := openStore(dbFilenameFlag)
	fetchConfig.Validators = store
	fetchConfig.DisableValidators = noCacheFlag

	fetcher := fetchwork.New(fetchConfig)

	mode, err := bodywriter.ParseMode(modeFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid write mode")
	}

	outcome, err := fetcher.Fetch(rawurl)
	if err != nil {
		var statusErr *fetchwork.StatusError
		if errors.As(err, &statusErr) {
			log.Fatal().Int("status", statusErr.StatusCode).Msg("Retrieval failed")
		}
		log.Fatal().Err(err).Msg("Retrieval failed")
	}

	if outcome.StatusCode == 304 {
		log.Info().Str("target", outcome.Target).Msg("Not modified")
		return
	}

	// remember validators so the next run can make a conditional
	// request; the fetcher never writes to the store itself
	if store != nil && !noCacheFlag {
		if v := outcome.Validators(); !v.IsZero() {
			if err := store.Upsert(outcome.Target, v); err != nil {
				log.Error().Err(err).Msg("Could not store validators")
			}
		}
	}

	if outputFlag != "" {
		used, err := bodywriter.Write(outputFlag, outcome.StatusCode, outcome.ContentType(), outcome.Body, mode)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not write output file")
		}
		log.Info().Str("file", outputFlag).Str("mode", used.String()).Int("bytes", len(outcome.Body)).Msg("Wrote body")
		return
	}

	if _, err := os.Stdout.Write(outcome.Body); err != nil {
		log.Fatal().Err(err).Msg("Could not write body")
	}
}

func openStore(dbFilename string) validators.Store {
	switch dbFilename {
	case "none":
		return nil
	case "memory":
		return validators.NewMemStore()
	}
	store, err := validators.NewSQLiteStore(dbFilename)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open validator db")
	}
	return store
}
