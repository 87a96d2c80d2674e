package config

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceDXF/pkg/convert"
)

// LoadProfile reads a YAML profile and applies it on top of base
func LoadProfile(path string, base Profile) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, &convert.Error{
			Op:   "config.load_profile",
			Kind: convert.KindConfiguration,
			Err:  err,
		}
	}

	var dto YAMLProfile
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, &convert.Error{
			Op:   "config.load_profile",
			Kind: convert.KindConfiguration,
			Err:  wrapPath(path, err),
		}
	}

	return MapProfile(path, dto, base)
}
