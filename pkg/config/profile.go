// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser decodes a profile file into Options
type Parser interface {
	// 📝 Parse parses the profile from bytes
	Parse(ctx context.Context, filename string, data []byte) (*Options, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

func init() {
	Register(&YAMLParser{})
	Register(&JSONParser{})
	Register(&HCLParser{})
}

// 🎯 LoadProfile reads saved options from a .yaml, .yml, .json or .hcl file.
// Relative paths inside the profile are resolved against the profile's own
// directory. The result still has to go through Validate.
func LoadProfile(ctx context.Context, fs afero.Fs, path string) (*Options, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading profile")

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Errorf("reading profile: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("unsupported profile extension %q", filepath.Ext(path))
	}

	opts, err := p.Parse(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, errors.Errorf("parsing profile: %w", err)
	}

	base := filepath.Dir(path)
	for _, field := range []*string{&opts.Source, &opts.Destination, &opts.IgnoreFile, &opts.LogFile} {
		*field = resolveRelative(base, *field)
	}

	return opts, nil
}

func resolveRelative(base, path string) string {
	if path == "" || strings.HasPrefix(path, "~") {
		if expanded, err := homedir.Expand(path); err == nil {
			return expanded
		}
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func (p *YAMLParser) CanParse(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

func (p *YAMLParser) Parse(ctx context.Context, filename string, data []byte) (*Options, error) {
	var opts Options
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&opts); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &opts, nil
}

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func (p *JSONParser) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

func (p *JSONParser) Parse(ctx context.Context, filename string, data []byte) (*Options, error) {
	var opts Options
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&opts); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &opts, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, filename string, data []byte) (*Options, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"home": cty.StringVal(homeDir()),
		},
	}

	var opts Options
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &opts)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &opts, nil
}

func homeDir() string {
	dir, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return dir
}
