// Package fixtures loads seed data files for forumctl.
package fixtures

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/noah-isme/gema-forum-api/internal/dto"
)

// File is the on-disk layout of a fixtures document:
//
//	channels:
//	  - slug: general
//	    name: General
//	users:
//	  - name: john
//	    email: john@example.com
type File struct {
	Channels []dto.SeedChannel `yaml:"channels"`
	Users    []dto.SeedUser    `yaml:"users"`
}

// Load reads and parses a fixtures file.
func Load(path string) (File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a fixtures document. Unknown keys are rejected.
func Parse(raw []byte) (File, error) {
	var file File
	if err := yaml.UnmarshalStrict(raw, &file); err != nil {
		return File{}, fmt.Errorf("parse fixtures: %w", err)
	}
	return file, nil
}
