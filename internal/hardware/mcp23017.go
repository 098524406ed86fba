package hardware

import "fmt"

// MCP23017 registers in the default IOCON.BANK=0 layout.
const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regGPPUA  = 0x0C
	regGPIOA  = 0x12
	regOLATB  = 0x15
)

// Bus performs one I2C transaction: write w to addr, then read len(r) bytes
// into r when r is non-empty.
type Bus interface {
	Tx(addr uint16, w, r []byte) error
}

// Expander is one MCP23017 with bank A as pulled-up inputs and bank B as
// outputs.
type Expander struct {
	bus  Bus
	addr uint16
}

func NewExpander(bus Bus, addr uint16) *Expander {
	return &Expander{bus: bus, addr: addr}
}

// Addr is the expander's I2C address.
func (e *Expander) Addr() uint16 { return e.addr }

// Init configures the directions and pull-ups and switches every output off.
func (e *Expander) Init() error {
	for _, reg := range [][2]byte{
		{regIODIRA, 0xFF},
		{regGPPUA, 0xFF},
		{regIODIRB, 0x00},
		{regOLATB, 0x00},
	} {
		if err := e.bus.Tx(e.addr, reg[:], nil); err != nil {
			return fmt.Errorf("mcp23017 init reg %#x: %w", reg[0], err)
		}
	}
	return nil
}

// ReadInputs returns the raw bank A levels.
func (e *Expander) ReadInputs() (byte, error) {
	var buf [1]byte
	if err := e.bus.Tx(e.addr, []byte{regGPIOA}, buf[:]); err != nil {
		return 0, fmt.Errorf("mcp23017 read: %w", err)
	}
	return buf[0], nil
}

// WriteOutputs latches v onto bank B.
func (e *Expander) WriteOutputs(v byte) error {
	if err := e.bus.Tx(e.addr, []byte{regOLATB, v}, nil); err != nil {
		return fmt.Errorf("mcp23017 write: %w", err)
	}
	return nil
}
