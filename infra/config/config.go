package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/rs/zerolog/log"
)

// Path is where the default configs are kept, relative to the repository root.
var Path = "infra/config"

// Load overlays the json file at the given path onto v.
// Fields missing from the file keep their value.
func Load(path string, v interface{}) error {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not load config from %s: %w", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("could not unmarshal the config from %s: %w", path, err)
	}
	log.Info().Str("file", path).Msg("loaded config")
	return nil
}

// MustLoad loads the config for the given key
func MustLoad(key string, v interface{}) {
	err := Load(fmt.Sprintf("%s/%s.json", Path, key), v)
	if err != nil {
		panic(err.Error())
	}
}
