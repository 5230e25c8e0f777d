package main

import (
	"net/url"
	"reflect"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "****"

var secretKeys = map[string]bool{
	"password":          true,
	"encryption_key":    true,
	"token_hash":        true,
	"secret_access_key": true,
	"session_token":     true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the merged configuration (file, env and defaults) with secrets redacted",
	RunE:  runConfigDump,
}

func init() {
	configCmd.AddCommand(configDumpCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigDump(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(settings(reflect.ValueOf(*cfg), ""))
}

// settings walks a config struct keyed by its mapstructure tags.
func settings(v reflect.Value, key string) any {
	if v.Type() == reflect.TypeOf(time.Duration(0)) {
		return time.Duration(v.Int()).String()
	}
	switch v.Kind() {
	case reflect.Struct:
		out := make(map[string]any, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			name := field.Tag.Get("mapstructure")
			if name == "" || name == "-" {
				continue
			}
			out[name] = settings(v.Field(i), name)
		}
		return out
	case reflect.Slice:
		out := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			out = append(out, settings(v.Index(i), key))
		}
		return out
	case reflect.String:
		s := v.String()
		if s == "" {
			return s
		}
		if secretKeys[key] {
			return redacted
		}
		if key == "url" {
			if u, err := url.Parse(s); err == nil {
				return u.Redacted()
			}
		}
		return s
	default:
		return v.Interface()
	}
}
