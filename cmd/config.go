package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/babydessy/mutest-rs/internal/domain"
	"github.com/babydessy/mutest-rs/internal/domain/operators"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "mutest"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName  = "output"
	logFileFlagName = "log-file"
	verboseFlagName = "verbose"

	callGraphDepthFlagName  = "call-graph-depth"
	mutationDepthFlagName   = "mutation-depth"
	unsafeTargetingFlagName = "unsafe-targeting"
	operatorsFlagName       = "operators"
	batchingFlagName        = "batching"
	orderingFlagName        = "ordering"
	epsilonFlagName         = "epsilon"
	maxMutationsFlagName    = "max-mutations"
	seedFlagName            = "seed"
	runParallelFlagName     = "parallel"

	callGraphDepthKey       = "analysis.call_graph_depth"
	mutationDepthKey        = "analysis.mutation_depth"
	unsafeTargetingKey      = "analysis.unsafe_targeting"
	operatorsKey            = "analysis.operators"
	batchingAlgorithmKey    = "batching.algorithm"
	batchingOrderingKey     = "batching.ordering"
	batchingEpsilonKey      = "batching.epsilon"
	batchingMaxMutationsKey = "batching.max_mutations"
	batchingSeedKey         = "batching.seed"
	randomAttemptsKey       = "batching.random_attempts"
	annealingIterationsKey  = "batching.annealing_iterations"
	annealingTemperatureKey = "batching.annealing_temperature"
	runParallelConfigKey    = "run.parallel"

	defaultReportsDir      = ".mutest-reports"
	defaultCallGraphDepth  = 3
	defaultMutationDepth   = 3
	defaultUnsafeTargeting = "none"
	defaultRunParallel     = 0

	envPrefix = "MUTEST"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".mutest.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	batching := domain.DefaultBatchOptions()

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportsDir)
	viper.SetDefault(callGraphDepthKey, defaultCallGraphDepth)
	viper.SetDefault(mutationDepthKey, defaultMutationDepth)
	viper.SetDefault(unsafeTargetingKey, defaultUnsafeTargeting)
	viper.SetDefault(operatorsKey, operators.Names())
	viper.SetDefault(batchingAlgorithmKey, string(batching.Algorithm))
	viper.SetDefault(batchingOrderingKey, string(batching.Ordering))
	viper.SetDefault(batchingEpsilonKey, batching.Epsilon)
	viper.SetDefault(batchingMaxMutationsKey, batching.MaxMutations)
	viper.SetDefault(batchingSeedKey, batching.Seed)
	viper.SetDefault(randomAttemptsKey, batching.RandomAttempts)
	viper.SetDefault(annealingIterationsKey, batching.AnnealingIterations)
	viper.SetDefault(annealingTemperatureKey, batching.AnnealingTemperature)
	viper.SetDefault(runParallelConfigKey, defaultRunParallel)

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return
		}

		slog.Warn("ignoring unreadable config file", "file", configFileName, "error", err)
	}
}

// batchOptionsFromConfig reads the batching keys.
func batchOptionsFromConfig() (domain.BatchOptions, error) {
	algorithm, err := domain.ParseBatchingAlgorithm(viper.GetString(batchingAlgorithmKey))
	if err != nil {
		return domain.BatchOptions{}, err
	}

	ordering, err := domain.ParseBatchOrdering(viper.GetString(batchingOrderingKey))
	if err != nil {
		return domain.BatchOptions{}, err
	}

	return domain.BatchOptions{
		Algorithm:            algorithm,
		Ordering:             ordering,
		Epsilon:              viper.GetFloat64(batchingEpsilonKey),
		MaxMutations:         viper.GetInt(batchingMaxMutationsKey),
		Seed:                 viper.GetInt64(batchingSeedKey),
		RandomAttempts:       viper.GetInt(randomAttemptsKey),
		AnnealingIterations:  viper.GetInt(annealingIterationsKey),
		AnnealingTemperature: viper.GetFloat64(annealingTemperatureKey),
	}, nil
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
