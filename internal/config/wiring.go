package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/park285/reedboard/internal/hardware"
	"github.com/park285/reedboard/internal/square"
)

// wiringFile is the YAML wiring profile. Omitted fields keep the stock
// board's values.
//
//	addresses: [0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27]
//	input_inverted: true
//	output_reversed: true
//	swaps: [[35, 36]]
type wiringFile struct {
	Addresses      []uint16 `yaml:"addresses"`
	InputInverted  *bool    `yaml:"input_inverted"`
	OutputReversed *bool    `yaml:"output_reversed"`
	Swaps          [][2]int `yaml:"swaps"`
}

// LoadWiring reads the profile at path (the stock wiring when path is empty)
// and appends extra swap pairs.
func LoadWiring(path string, extra [][2]int) (hardware.Wiring, error) {
	w := hardware.DefaultWiring()
	var swaps [][2]int
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return w, fmt.Errorf("read wiring profile: %w", err)
		}
		var f wiringFile
		if err := yaml.Unmarshal(b, &f); err != nil {
			return w, fmt.Errorf("parse wiring profile %s: %w", path, err)
		}
		if len(f.Addresses) > 0 {
			if len(f.Addresses) != len(w.Addresses) {
				return w, fmt.Errorf("%w: %d addresses, want %d", hardware.ErrBadWiring, len(f.Addresses), len(w.Addresses))
			}
			copy(w.Addresses[:], f.Addresses)
		}
		if f.InputInverted != nil {
			w.InputInverted = *f.InputInverted
		}
		if f.OutputReversed != nil {
			w.OutputReversed = *f.OutputReversed
		}
		swaps = f.Swaps
	}
	for _, p := range append(swaps, extra...) {
		w.Swaps = append(w.Swaps, [2]square.Index{square.Index(p[0]), square.Index(p[1])})
	}
	if err := w.Validate(); err != nil {
		return w, err
	}
	return w, nil
}
