package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/alekLukanen/errs"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"input-data":           "input_data",
	"output-data":          "output_data",
	"song-data-glob":       "song_data_glob",
	"log-data-glob":        "log_data_glob",
	"timezone":             "timezone",
	"region":               "aws.region",
	"endpoint":             "aws.endpoint",
	"path-style":           "aws.use_path_style",
	"concurrency":          "read.concurrency",
	"mode":                 "write.mode",
	"max-records-per-file": "write.max_records_per_file",
	"bucket-count":         "write.bucket_count",
	"compression":          "write.compression",
	"redis-address":        "lock.redis_address",
	"lock-duration":        "lock.duration",
	"log-level":            "log.level",
	"log-format":           "log.format",
}

// RegisterFlags adds the flags Load reads to the flag set.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "config file (default: ./dl.yaml)")
	flags.String("input-data", "", "input location, s3a://bucket/prefix/ or a directory")
	flags.String("output-data", "", "output location, s3a://bucket/prefix/ or a directory")
	flags.String("song-data-glob", "", "song data files below the input location")
	flags.String("log-data-glob", "", "log data files below the input location")
	flags.String("timezone", "", "time zone of the time table")
	flags.String("region", "", "AWS region")
	flags.String("endpoint", "", "S3 endpoint override")
	flags.Bool("path-style", false, "use path style S3 addressing")
	flags.Int("concurrency", 0, "input files downloaded in parallel")
	flags.String("mode", "", "save mode: overwrite, append, errorifexists or ignore")
	flags.Int("max-records-per-file", 0, "rows per output file, 0 for no limit")
	flags.Int("bucket-count", 0, "files per unpartitioned table")
	flags.String("compression", "", "parquet compression codec")
	flags.String("redis-address", "", "redis address of the run lock, empty to disable")
	flags.Duration("lock-duration", 0, "run lock expiry")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "json or text")
}

// findConfigFile returns the explicit path or dl.yaml/dl.yml in the
// working directory when present.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{DefaultConfigFile, "dl.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey turns SPARKIFY_WRITE__MODE into write.mode.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Load reads the configuration. Precedence from highest to lowest: flags,
// environment variables, config file, defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("defaults")), ErrLoadFailed, err)
	}

	configFileUsed := findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("file %s", configFileUsed)), ErrLoadFailed, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("env")), ErrLoadFailed, err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("flags")), ErrLoadFailed, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("decode")), ErrLoadFailed, err)
	}
	cfg.ConfigFile = configFileUsed

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
