package siteconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// baseFile mirrors the YAML base file. Absent keys leave the base untouched.
type baseFile struct {
	Site *struct {
		Title          *string           `yaml:"title"`
		Charset        *string           `yaml:"charset"`
		Viewport       *string           `yaml:"viewport"`
		Links          []Link            `yaml:"links"`
		Meta           map[string]string `yaml:"meta"`
		PageTransition *PageTransition   `yaml:"page_transition"`
	} `yaml:"site"`
	Modules []string `yaml:"modules"`
	Image   *struct {
		Quality     *int           `yaml:"quality"`
		Formats     []Format       `yaml:"formats"`
		Breakpoints map[string]int `yaml:"breakpoints"`
	} `yaml:"image"`
	CMS *struct {
		Endpoint *string `yaml:"endpoint"`
		Preview  *bool   `yaml:"preview"`
		Toolbar  *bool   `yaml:"toolbar"`
	} `yaml:"cms"`
	StyleSheets []string `yaml:"stylesheets"`
	Build       *struct {
		CompatibilityDate *string         `yaml:"compatibility_date"`
		Devtools          *bool           `yaml:"devtools"`
		Experimental      map[string]bool `yaml:"experimental"`
	} `yaml:"build"`
}

// LoadBaseFile overlays the YAML file at path onto base.
func LoadBaseFile(path string, base Base) (Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Base{}, fmt.Errorf("read file: %w", err)
	}
	return ParseBase(data, base)
}

// ParseBase overlays YAML data onto base. Unknown keys are rejected, which
// also keeps credentials out of base files. Lists replace the base wholesale.
func ParseBase(data []byte, base Base) (Base, error) {
	var f baseFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Base{}, fmt.Errorf("parse YAML: %w", err)
	}

	out := cloneBase(base)

	if s := f.Site; s != nil {
		if s.Title != nil {
			out.Site.Title = *s.Title
		}
		if s.Charset != nil {
			out.Site.Charset = *s.Charset
		}
		if s.Viewport != nil {
			out.Site.Viewport = *s.Viewport
		}
		if s.Links != nil {
			out.Site.Links = s.Links
		}
		if s.Meta != nil {
			out.Site.Meta = s.Meta
		}
		if s.PageTransition != nil {
			out.Site.PageTransition = s.PageTransition
		}
	}

	if f.Modules != nil {
		out.Modules = f.Modules
	}

	if img := f.Image; img != nil {
		if img.Quality != nil {
			out.Image.Quality = img.Quality
		}
		if img.Formats != nil {
			out.Image.Formats = img.Formats
		}
		if img.Breakpoints != nil {
			out.Image.Breakpoints = img.Breakpoints
		}
	}

	if c := f.CMS; c != nil {
		if c.Endpoint != nil {
			out.CMS.Endpoint = *c.Endpoint
		}
		if c.Preview != nil {
			out.CMS.Preview = *c.Preview
		}
		if c.Toolbar != nil {
			out.CMS.Toolbar = *c.Toolbar
		}
	}

	if f.StyleSheets != nil {
		out.StyleSheets = f.StyleSheets
	}

	if b := f.Build; b != nil {
		if b.CompatibilityDate != nil {
			out.Build.CompatibilityDate = *b.CompatibilityDate
		}
		if b.Devtools != nil {
			out.Build.Devtools = b.Devtools
		}
		if b.Experimental != nil {
			out.Build.Experimental = b.Experimental
		}
	}

	return out, nil
}

// sliceMachineProject is the subset of slicemachine.config.json we read.
type sliceMachineProject struct {
	RepositoryName string `json:"repositoryName"`
}

// LoadSliceMachineFile reads a Slice Machine project file (JSON with
// comments) and uses its repositoryName as the base CMS endpoint.
func LoadSliceMachineFile(path string, base Base) (Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Base{}, fmt.Errorf("read file: %w", err)
	}
	return ParseSliceMachine(data, base)
}

// ParseSliceMachine applies the repositoryName of a Slice Machine project to
// base verbatim. A blank name leaves the base endpoint unchanged.
func ParseSliceMachine(data []byte, base Base) (Base, error) {
	var project sliceMachineProject
	if err := json.Unmarshal(jsonc.ToJSON(data), &project); err != nil {
		return Base{}, fmt.Errorf("parse slice machine config: %w", err)
	}

	out := cloneBase(base)
	if strings.TrimSpace(project.RepositoryName) != "" {
		out.CMS.Endpoint = project.RepositoryName
	}
	return out, nil
}

func cloneBase(b Base) Base {
	out := b
	out.Site.Links = slices.Clone(b.Site.Links)
	out.Site.Meta = maps.Clone(b.Site.Meta)
	if b.Site.PageTransition != nil {
		pt := *b.Site.PageTransition
		out.Site.PageTransition = &pt
	}
	out.Modules = slices.Clone(b.Modules)
	if b.Image.Quality != nil {
		q := *b.Image.Quality
		out.Image.Quality = &q
	}
	out.Image.Formats = slices.Clone(b.Image.Formats)
	out.Image.Breakpoints = maps.Clone(b.Image.Breakpoints)
	out.StyleSheets = slices.Clone(b.StyleSheets)
	if b.Build.Devtools != nil {
		d := *b.Build.Devtools
		out.Build.Devtools = &d
	}
	out.Build.Experimental = maps.Clone(b.Build.Experimental)
	return out
}
