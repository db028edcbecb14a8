package paymentpool

import (
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"
)

// tomlSettings mirrors cmd/geth's own tomlSettings: field names are
// used verbatim as TOML keys, and an unrecognized key in the file is
// an error rather than being silently ignored.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(field[0])) && rt.Kind() == reflect.Struct {
			link = fmt.Sprintf(", see %s", rt.String())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// LoadConfigFile reads a TOML-encoded Config from path, starting from
// DefaultConfig so a file only needs to override the fields it cares
// about.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	if err := tomlSettings.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("paymentpool: config file %s: %w", path, err)
	}
	return cfg, nil
}

// DumpConfigFile writes c as TOML to path, for operators to capture
// the effective configuration a process started with.
func (c Config) DumpConfigFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tomlSettings.NewEncoder(f).Encode(c)
}
