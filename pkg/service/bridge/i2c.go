// Copyright 2025 Ewout Prangsma
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
//
// Author Ewout Prangsma
//

package bridge

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// I2CBus gives serialized access to the devices on an I2C bus.
type I2CBus interface {
	// Execute an operation on the device at given address.
	Execute(ctx context.Context, address uint16, op func(ctx context.Context, dev I2CDevice) error) error
	// Close the bus
	Close() error
}

// I2CDevice communicates with a device on the I2C Bus that has a specific address.
type I2CDevice interface {
	// Read a byte from given register
	ReadByteReg(reg uint8) (uint8, error)
	// Write a byte to given register
	WriteByteReg(reg uint8, val uint8) error
}

type i2cBus struct {
	mutex sync.Mutex
	bus   i2c.BusCloser
}

// OpenI2CBus opens the I2C bus with given name.
// An empty name selects the first bus found.
func OpenI2CBus(name string) (I2CBus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "host.Init failed")
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open I2C bus '%s'", name)
	}
	return NewI2CBus(bus), nil
}

// NewI2CBus wraps the given periph bus.
func NewI2CBus(bus i2c.BusCloser) I2CBus {
	return &i2cBus{bus: bus}
}

// Execute an operation on the device at given address.
// A failed operation is tried once more.
func (b *i2cBus) Execute(ctx context.Context, address uint16, op func(context.Context, I2CDevice) error) error {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	label := strconv.Itoa(int(address))
	i2cExecuteCounters.WithLabelValues(label).Inc()
	dev := &i2cDevice{dev: i2c.Dev{Bus: b.bus, Addr: address}}
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err = op(ctx, dev); err == nil {
			return nil
		}
	}
	i2cExecuteErrorCounters.WithLabelValues(label).Inc()
	return fmt.Errorf("execute operation on i2c device 0x%02x failed: %w", address, err)
}

// Close the bus
func (b *i2cBus) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if err := b.bus.Close(); err != nil {
		return errors.Wrap(err, "Close failed")
	}
	return nil
}

type i2cDevice struct {
	dev i2c.Dev
}

// Read a byte from given register
func (d *i2cDevice) ReadByteReg(reg uint8) (uint8, error) {
	var buf [1]byte
	if err := d.dev.Tx([]byte{reg}, buf[:]); err != nil {
		return 0, errors.Wrapf(err, "ReadByteReg(0x%02x) failed", reg)
	}
	return buf[0], nil
}

// Write a byte to given register
func (d *i2cDevice) WriteByteReg(reg uint8, val uint8) error {
	if _, err := d.dev.Write([]byte{reg, val}); err != nil {
		return errors.Wrapf(err, "WriteByteReg(0x%02x) failed", reg)
	}
	return nil
}
