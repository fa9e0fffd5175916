package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: sink.table is read from
// ETL_SINK_TABLE.
const EnvPrefix = "ETL"

// ErrInvalid classifies configuration that cannot be loaded or fails
// validation.
var ErrInvalid = errors.New("invalid configuration")

// Load is Read followed by Validate.
func Load(path, envFile string) (Pipeline, error) {
	p, err := Read(path, envFile)
	if err != nil {
		return p, err
	}
	if err := Validate(p); err != nil {
		return p, err
	}
	return p, nil
}

// Read reads the pipeline from path (YAML or JSON by extension; empty means
// environment only) and applies defaults and ETL_* overrides. envFile, when
// set, is loaded into the process environment first without overriding
// variables that are already set. The result is not validated.
func Read(path, envFile string) (Pipeline, error) {
	var p Pipeline
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return p, fmt.Errorf("%w: env file %s: %v", ErrInvalid, envFile, err)
		}
	}

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvs(v, reflect.TypeOf(Pipeline{}))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return p, fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
		}
	}
	if err := v.Unmarshal(&p); err != nil {
		return p, fmt.Errorf("%w: decode: %v", ErrInvalid, err)
	}
	return p, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("job", "salary_per_hour")
	v.SetDefault("sources.employees.delimiter", ",")
	v.SetDefault("sources.employees.encoding", "utf-8")
	v.SetDefault("sources.timesheets.delimiter", ",")
	v.SetDefault("sources.timesheets.encoding", "utf-8")
	v.SetDefault("sources.http.timeout", "30s")
	v.SetDefault("sources.http.max_retries", 0)
	v.SetDefault("transform.negative_hours", "keep")
	v.SetDefault("transform.zero_hours", "null")
	v.SetDefault("transform.preview_rows", 5)
	v.SetDefault("sink.kind", "bigquery")
	v.SetDefault("sink.write_mode", "append")
	v.SetDefault("sink.table", DefaultTable)
	v.SetDefault("runtime.parallel_extract", false)
	v.SetDefault("runtime.timeout", "0s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("metrics.backend", "none")
}

// bindEnvs binds every leaf key of t so AutomaticEnv-style overrides work
// for keys missing from the file.
func bindEnvs(v *viper.Viper, t reflect.Type, path ...string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), path...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, f.Type, key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
