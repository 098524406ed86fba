//go:build linux

package hardware

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave is the i2c-dev ioctl selecting the target address.
const i2cSlave = 0x0703

// I2CBus is a Linux i2c-dev character device such as /dev/i2c-1.
type I2CBus struct {
	mu   sync.Mutex
	fd   int
	path string
	addr int
}

// OpenI2C opens the i2c-dev device at path.
func OpenI2C(path string) (*I2CBus, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &I2CBus{fd: fd, path: path, addr: -1}, nil
}

func (b *I2CBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return fmt.Errorf("%s: closed", b.path)
	}
	if b.addr != int(addr) {
		if err := unix.IoctlSetInt(b.fd, i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("%s: select %#x: %w", b.path, addr, err)
		}
		b.addr = int(addr)
	}
	if len(w) > 0 {
		if _, err := unix.Write(b.fd, w); err != nil {
			return fmt.Errorf("%s: write %#x: %w", b.path, addr, err)
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(b.fd, r)
		if err != nil {
			return fmt.Errorf("%s: read %#x: %w", b.path, addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("%s: short read from %#x: %d of %d", b.path, addr, n, len(r))
		}
	}
	return nil
}

func (b *I2CBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fd < 0 {
		return nil
	}
	err := unix.Close(b.fd)
	b.fd = -1
	return err
}
