// Package config loads the settings of an ETL run from defaults, an
// optional dl.yaml file, SPARKIFY_ environment variables and command line
// flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alekLukanen/errs"

	arrowops "github.com/alekLukanen/SparkifyLake/arrowOps"
	"github.com/alekLukanen/SparkifyLake/operations"
	"github.com/alekLukanen/SparkifyLake/storage"
)

const (
	DefaultInputData    = "s3a://udacity-dend/"
	DefaultOutputData   = "s3a://sparkify-data-udend/"
	DefaultSongDataGlob = "song_data/*/*/*/*.json"
	DefaultLogDataGlob  = "log_data/*/*/*.json"
	DefaultRegion       = "us-west-2"
	DefaultConfigFile   = "dl.yaml"
	EnvPrefix           = "SPARKIFY_"
)

type AWSConfig struct {
	AccessKeyId     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
	SessionToken    string `koanf:"session_token"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	UsePathStyle    bool   `koanf:"use_path_style"`
}

type ReadConfig struct {
	Concurrency int `koanf:"concurrency"`
}

type WriteConfig struct {
	Mode              string `koanf:"mode"`
	MaxRecordsPerFile int    `koanf:"max_records_per_file"`
	BucketCount       int    `koanf:"bucket_count"`
	Compression       string `koanf:"compression"`
}

type LockConfig struct {
	RedisAddress  string        `koanf:"redis_address"`
	RedisPassword string        `koanf:"redis_password"`
	KeyPrefix     string        `koanf:"key_prefix"`
	Duration      time.Duration `koanf:"duration"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type Config struct {
	InputData    string      `koanf:"input_data"`
	OutputData   string      `koanf:"output_data"`
	SongDataGlob string      `koanf:"song_data_glob"`
	LogDataGlob  string      `koanf:"log_data_glob"`
	Timezone     string      `koanf:"timezone"`
	AWS          AWSConfig   `koanf:"aws"`
	Read         ReadConfig  `koanf:"read"`
	Write        WriteConfig `koanf:"write"`
	Lock         LockConfig  `koanf:"lock"`
	Log          LogConfig   `koanf:"log"`

	// ConfigFile is the file the values were read from, if any.
	ConfigFile string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"input_data":                 DefaultInputData,
		"output_data":                DefaultOutputData,
		"song_data_glob":             DefaultSongDataGlob,
		"log_data_glob":              DefaultLogDataGlob,
		"timezone":                   "UTC",
		"aws.region":                 DefaultRegion,
		"aws.use_path_style":         false,
		"read.concurrency":           8,
		"write.mode":                 "overwrite",
		"write.max_records_per_file": 0,
		"write.bucket_count":         1,
		"write.compression":          "snappy",
		"lock.key_prefix":            "sparkify",
		"lock.duration":              "30m",
		"log.level":                  "info",
		"log.format":                 "json",
	}
}

func (obj *Config) Validate() error {
	if strings.TrimSpace(obj.InputData) == "" {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("input_data is required")), ErrInvalidConfig)
	}
	if strings.TrimSpace(obj.OutputData) == "" {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("output_data is required")), ErrInvalidConfig)
	}
	if _, err := storage.ParseLocation(obj.InputData); err != nil {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("input_data")), ErrInvalidConfig, err)
	}
	if _, err := storage.ParseLocation(obj.OutputData); err != nil {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("output_data")), ErrInvalidConfig, err)
	}
	if obj.SongDataGlob == "" || obj.LogDataGlob == "" {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("song_data_glob and log_data_glob are required")), ErrInvalidConfig)
	}
	if _, err := obj.Location(); err != nil {
		return err
	}
	if obj.Read.Concurrency < 1 {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("read.concurrency must be at least 1")), ErrInvalidConfig)
	}
	if _, err := operations.ParseSaveMode(obj.Write.Mode); err != nil {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("write.mode")), ErrInvalidConfig, err)
	}
	if _, err := arrowops.CompressionCodec(obj.Write.Compression); err != nil {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("write.compression")), ErrInvalidConfig, err)
	}
	if obj.Write.MaxRecordsPerFile < 0 {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("write.max_records_per_file must not be negative")), ErrInvalidConfig)
	}
	if obj.Write.BucketCount < 1 {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("write.bucket_count must be at least 1")), ErrInvalidConfig)
	}
	if obj.LockEnabled() && obj.Lock.Duration <= 0 {
		return errs.Wrap(errs.NewStackError(fmt.Errorf("lock.duration must be positive")), ErrInvalidConfig)
	}
	switch strings.ToLower(obj.Log.Format) {
	case "json", "text":
	default:
		return errs.Wrap(errs.NewStackError(fmt.Errorf("log.format %s", obj.Log.Format)), ErrInvalidConfig)
	}
	return nil
}

// Location is the time zone the time table is derived in.
func (obj *Config) Location() (*time.Location, error) {
	if obj.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(obj.Timezone)
	if err != nil {
		return nil, errs.Wrap(errs.NewStackError(fmt.Errorf("timezone %s", obj.Timezone)), ErrInvalidConfig, err)
	}
	return loc, nil
}

func (obj *Config) LockEnabled() bool {
	return obj.Lock.RedisAddress != ""
}

// ExportCredentials puts the AWS key pair into the process environment
// where the default credential chain picks it up.
func (obj *Config) ExportCredentials() error {
	if obj.AWS.AccessKeyId != "" {
		if err := os.Setenv("AWS_ACCESS_KEY_ID", obj.AWS.AccessKeyId); err != nil {
			return errs.Wrap(err)
		}
	}
	if obj.AWS.SecretAccessKey != "" {
		if err := os.Setenv("AWS_SECRET_ACCESS_KEY", obj.AWS.SecretAccessKey); err != nil {
			return errs.Wrap(err)
		}
	}
	if obj.AWS.SessionToken != "" {
		if err := os.Setenv("AWS_SESSION_TOKEN", obj.AWS.SessionToken); err != nil {
			return errs.Wrap(err)
		}
	}
	return nil
}

// ObjectStorageOptions uses static credentials when a key pair is set and
// the default AWS credential chain otherwise.
func (obj *Config) ObjectStorageOptions() storage.ObjectStorageOptions {
	options := storage.ObjectStorageOptions{
		Endpoint:     obj.AWS.Endpoint,
		Region:       obj.AWS.Region,
		UsePathStyle: obj.AWS.UsePathStyle,
		AuthType:     storage.ObjectStorageAuthTypeDefault,
	}
	if obj.AWS.AccessKeyId != "" && obj.AWS.SecretAccessKey != "" {
		options = *storage.NewObjectStorageOptionsFromStaticCredentials(
			obj.AWS.Endpoint,
			obj.AWS.Region,
			obj.AWS.AccessKeyId,
			obj.AWS.SecretAccessKey,
			obj.AWS.UsePathStyle,
		)
		options.SessionToken = obj.AWS.SessionToken
	}
	return options
}

func (obj *Config) KeyStorageOptions() storage.KeyStorageOptions {
	return storage.KeyStorageOptions{
		Address:   obj.Lock.RedisAddress,
		Password:  obj.Lock.RedisPassword,
		KeyPrefix: obj.Lock.KeyPrefix,
	}
}
