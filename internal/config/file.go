package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// File is the optional TOML overlay named by MEDREC_CONFIG:
//
//	[query]
//	default_page_size = 50
//	max_page_size = 500
//
//	[collections.patients]
//	excluded_fields = ["passwordHash", "IDcard"]
type File struct {
	Query struct {
		DefaultPageSize int `toml:"default_page_size"`
		MaxPageSize     int `toml:"max_page_size"`
	} `toml:"query"`
	Collections map[string]struct {
		ExcludedFields []string `toml:"excluded_fields"`
	} `toml:"collections"`
}

func LoadFile(path string) (File, error) {
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return File{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return f, nil
}

// apply overlays f on env. Excluded fields are only ever added: a file can
// hide more fields but never expose a default-hidden one.
func (f File) apply(env *Env) {
	if f.Query.DefaultPageSize > 0 {
		env.DefaultPageSize = f.Query.DefaultPageSize
	}
	if f.Query.MaxPageSize > 0 {
		env.MaxPageSize = f.Query.MaxPageSize
	}
	for name, c := range f.Collections {
		seen := map[string]bool{}
		for _, field := range env.ExcludedFields[name] {
			seen[field] = true
		}
		for _, field := range c.ExcludedFields {
			if !seen[field] {
				env.ExcludedFields[name] = append(env.ExcludedFields[name], field)
				seen[field] = true
			}
		}
	}
}
