//go:build !linux

package hardware

import (
	"errors"
	"fmt"
)

var errNoI2C = errors.New("i2c-dev is only available on linux")

// I2CBus is unavailable off Linux.
type I2CBus struct{}

func OpenI2C(path string) (*I2CBus, error) {
	return nil, fmt.Errorf("%s: %w", path, errNoI2C)
}

func (b *I2CBus) Tx(uint16, []byte, []byte) error { return errNoI2C }

func (b *I2CBus) Close() error { return nil }
