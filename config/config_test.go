package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arrowops "github.com/alekLukanen/SparkifyLake/arrowOps"
	"github.com/alekLukanen/SparkifyLake/operations"
	"github.com/alekLukanen/SparkifyLake/storage"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultInputData, cfg.InputData)
	assert.Equal(t, DefaultOutputData, cfg.OutputData)
	assert.Equal(t, DefaultSongDataGlob, cfg.SongDataGlob)
	assert.Equal(t, DefaultLogDataGlob, cfg.LogDataGlob)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, DefaultRegion, cfg.AWS.Region)
	assert.Equal(t, 8, cfg.Read.Concurrency)
	assert.Equal(t, "overwrite", cfg.Write.Mode)
	assert.Equal(t, 1, cfg.Write.BucketCount)
	assert.Equal(t, "snappy", cfg.Write.Compression)
	assert.Equal(t, 30*time.Minute, cfg.Lock.Duration)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.LockEnabled())
	assert.Equal(t, "", cfg.ConfigFile)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfigFile(t, `
input_data: /data/in
output_data: /data/out
timezone: America/Chicago
aws:
  access_key_id: AKIDFILE
  secret_access_key: secretfile
write:
  mode: append
  bucket_count: 4
read:
  concurrency: 2
`)

	t.Setenv("SPARKIFY_WRITE__BUCKET_COUNT", "6")
	t.Setenv("SPARKIFY_READ__CONCURRENCY", "3")
	flags := testFlags(t, "--concurrency", "5", "--log-format", "text")

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "/data/in", cfg.InputData)
	assert.Equal(t, "/data/out", cfg.OutputData)
	assert.Equal(t, "append", cfg.Write.Mode)
	assert.Equal(t, 6, cfg.Write.BucketCount, "env overrides file")
	assert.Equal(t, 5, cfg.Read.Concurrency, "flag overrides env")
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "snappy", cfg.Write.Compression, "unset keys keep defaults")

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())

	options := cfg.ObjectStorageOptions()
	assert.Equal(t, storage.ObjectStorageAuthTypeStatic, options.AuthType)
	assert.Equal(t, "AKIDFILE", options.AuthKey)
	assert.Equal(t, "secretfile", options.AuthSecret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoadFailed))
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			InputData:    "s3a://udacity-dend/",
			OutputData:   "/tmp/out",
			SongDataGlob: DefaultSongDataGlob,
			LogDataGlob:  DefaultLogDataGlob,
			Timezone:     "UTC",
			Read:         ReadConfig{Concurrency: 1},
			Write:        WriteConfig{Mode: "overwrite", BucketCount: 1, Compression: "snappy"},
			Log:          LogConfig{Level: "info", Format: "json"},
		}
	}

	testCases := []struct {
		caseName string
		modify   func(cfg *Config)
		valid    bool
		causeErr error
	}{
		{caseName: "valid", modify: func(cfg *Config) {}, valid: true},
		{caseName: "empty input", modify: func(cfg *Config) { cfg.InputData = "" }},
		{caseName: "empty output", modify: func(cfg *Config) { cfg.OutputData = " " }},
		{caseName: "unsupported scheme", modify: func(cfg *Config) { cfg.InputData = "gs://bucket/" }, causeErr: storage.ErrUnsupportedScheme},
		{caseName: "missing glob", modify: func(cfg *Config) { cfg.LogDataGlob = "" }},
		{caseName: "unknown timezone", modify: func(cfg *Config) { cfg.Timezone = "Mars/Olympus" }},
		{caseName: "zero concurrency", modify: func(cfg *Config) { cfg.Read.Concurrency = 0 }},
		{caseName: "unknown mode", modify: func(cfg *Config) { cfg.Write.Mode = "merge" }, causeErr: operations.ErrInvalidSaveMode},
		{caseName: "error mode alias", modify: func(cfg *Config) { cfg.Write.Mode = "error" }, valid: true},
		{caseName: "unknown compression", modify: func(cfg *Config) { cfg.Write.Compression = "lzo" }, causeErr: arrowops.ErrUnsupportedDataType},
		{caseName: "negative file size", modify: func(cfg *Config) { cfg.Write.MaxRecordsPerFile = -1 }},
		{caseName: "zero buckets", modify: func(cfg *Config) { cfg.Write.BucketCount = 0 }},
		{caseName: "lock without duration", modify: func(cfg *Config) { cfg.Lock.RedisAddress = "localhost:6379" }},
		{caseName: "lock with duration", modify: func(cfg *Config) {
			cfg.Lock.RedisAddress = "localhost:6379"
			cfg.Lock.Duration = time.Minute
		}, valid: true},
		{caseName: "unknown log format", modify: func(cfg *Config) { cfg.Log.Format = "xml" }},
	}

	for _, testCase := range testCases {
		t.Run(testCase.caseName, func(t *testing.T) {
			cfg := valid()
			testCase.modify(&cfg)
			err := cfg.Validate()
			if testCase.valid {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				if testCase.causeErr != nil {
					assert.ErrorIs(t, err, testCase.causeErr)
				}
			}
		})
	}
}

func TestExportCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	cfg := Config{AWS: AWSConfig{AccessKeyId: "AKID", SecretAccessKey: "secret"}}
	require.NoError(t, cfg.ExportCredentials())
	assert.Equal(t, "AKID", os.Getenv("AWS_ACCESS_KEY_ID"))
	assert.Equal(t, "secret", os.Getenv("AWS_SECRET_ACCESS_KEY"))
}

func TestObjectStorageOptionsDefaultChain(t *testing.T) {
	cfg := Config{AWS: AWSConfig{Region: "us-east-1", Endpoint: "http://localhost:9000", UsePathStyle: true}}
	options := cfg.ObjectStorageOptions()
	assert.Equal(t, storage.ObjectStorageAuthTypeDefault, options.AuthType)
	assert.Equal(t, "us-east-1", options.Region)
	assert.Equal(t, "http://localhost:9000", options.Endpoint)
	assert.True(t, options.UsePathStyle)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "write.mode", envKey("SPARKIFY_WRITE__MODE"))
	assert.Equal(t, "input_data", envKey("SPARKIFY_INPUT_DATA"))
	assert.Equal(t, "aws.access_key_id", envKey("SPARKIFY_AWS__ACCESS_KEY_ID"))
}
