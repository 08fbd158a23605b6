package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// applyRosterFile reads the optional roster file (YAML, JSON or TOML by
// extension) and overrides the discipler list, session types and leader
// count it names. Environment values win over the file.
//
//	disciplers:
//	  - Pedro e Ana
//	  - Lucas e Sara
//	leaders: 25
//	session_types: [Célula, Culto de Jovens]
func (c *Config) applyRosterFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read roster file '%s': %w", path, err)
	}

	if len(c.Disciplers) == 0 {
		for _, d := range v.GetStringSlice("disciplers") {
			if d = strings.TrimSpace(d); d != "" {
				c.Disciplers = append(c.Disciplers, d)
			}
		}
	}
	if v.IsSet("leaders") && !envSet("LEADER_COUNT") {
		c.LeaderCount = v.GetInt("leaders")
	}
	if v.IsSet("session_types") {
		c.SessionTypes = v.GetStringSlice("session_types")
	}
	return nil
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
