package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// configFileCandidates is searched in order; the first file that exists
// wins. Paths are resolved relative to the current working directory except
// the second, which is resolved against the user's home directory.
var configFileCandidates = []string{
	"config.yaml",
	filepath.Join(".config", "sovereign-agent", "config.yaml"),
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)(:-(.*?))?\}|\$([A-Z_][A-Z0-9_]*)`)

// Overrides carries the subset of configuration exposed as CLI flags.
// Nil fields are left untouched; non-nil fields win over every other layer.
type Overrides struct {
	Model    *string
	BaseURL  *string
	Host     *string
	Port     *int
	LogLevel *string
}

// Load resolves a Config through the full §4.18 layering: compiled-in
// defaults, an optional YAML file, SOVEREIGN_-prefixed environment
// variables, then flagOverrides. A .env file in the working directory (if
// present) is loaded before environment variables are read, so
// shell-less local runs still pick up secrets like OLLAMA_HOST.
func Load(configPath string, flagOverrides Overrides) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	path := configPath
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := applyYAMLFile(&cfg, path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	applyFlagOverrides(&cfg, flagOverrides)

	return &cfg, nil
}

// loadDotEnv loads .env.local then .env from the working directory,
// matching the reference CLI's precedence (a more specific file loaded
// first keeps godotenv's "never overwrite an already-set var" behavior in
// the caller's favor). A missing file is not an error.
func loadDotEnv() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// findConfigFile returns the first existing candidate path, searching
// ./config.yaml before ~/.config/sovereign-agent/config.yaml. An empty
// string means no file was found, which is not an error: defaults and
// environment variables alone are a valid configuration.
func findConfigFile() string {
	if _, err := os.Stat(configFileCandidates[0]); err == nil {
		return configFileCandidates[0]
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, configFileCandidates[1])
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyYAMLFile reads path, expands ${VAR}/${VAR:-default}/$VAR references
// against the process environment, and decodes the result onto cfg. Decoding
// onto an already-defaulted struct means a key absent from the file leaves
// the compiled-in default untouched, while a key present (including an
// explicit false or empty string) overwrites it.
func applyYAMLFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}

	expanded := expandEnvVarsInData(generic)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(expanded); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// expandEnvVarsInData walks a decoded YAML document, substituting
// environment-variable references in every string leaf. Maps and slices are
// walked recursively; other scalar types pass through unchanged.
func expandEnvVarsInData(data interface{}) interface{} {
	switch v := data.(type) {
	case string:
		return expandEnvString(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = expandEnvVarsInData(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = expandEnvVarsInData(val)
		}
		return out
	default:
		return v
	}
}

func expandEnvString(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, defaultVal := parts[1], parts[3]
		if name == "" {
			name = parts[4]
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return defaultVal
	})
}

// applyEnvOverrides walks cfg's fields and, for every leaf whose yaml-tag
// path maps to a set SOVEREIGN_<PATH> environment variable, overwrites the
// field with the parsed value. Path segments are joined with underscores and
// upper-cased, e.g. llm.max_retries -> SOVEREIGN_LLM_MAX_RETRIES.
func applyEnvOverrides(cfg *Config) {
	walkSettable(reflect.ValueOf(cfg).Elem(), "SOVEREIGN")
}

func walkSettable(v reflect.Value, prefix string) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		tag := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if tag == "" || tag == "-" {
			tag = strings.ToLower(field.Name)
		}
		envName := prefix + "_" + strings.ToUpper(tag)
		fv := v.Field(i)

		if fv.Kind() == reflect.Struct {
			walkSettable(fv, envName)
			continue
		}

		val, ok := os.LookupEnv(envName)
		if !ok {
			continue
		}
		setFromString(fv, val)
	}
}

func setFromString(fv reflect.Value, val string) {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(val)
	case reflect.Bool:
		if b, err := strconv.ParseBool(val); err == nil {
			fv.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fv.Type() == reflect.TypeOf(time.Duration(0)) {
			if d, err := time.ParseDuration(val); err == nil {
				fv.SetInt(int64(d))
			}
			return
		}
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			fv.SetInt(n)
		}
	case reflect.Float32, reflect.Float64:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			fv.SetFloat(f)
		}
	}
}

// applyFlagOverrides applies the highest-priority layer: explicit CLI
// flags. Only non-nil fields of o are applied.
func applyFlagOverrides(cfg *Config, o Overrides) {
	if o.Model != nil {
		cfg.LLM.Model = *o.Model
	}
	if o.BaseURL != nil {
		cfg.LLM.BaseURL = *o.BaseURL
	}
	if o.Host != nil {
		cfg.Server.Host = *o.Host
	}
	if o.Port != nil {
		cfg.Server.Port = *o.Port
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
}
