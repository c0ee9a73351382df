// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package spibus

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name string
		port spi.Port
		opts *Opts
		want error
	}{
		{name: "defaults", port: newFakePort(nil)},
		{
			name: "pins",
			port: newFakePort(nil),
			opts: &Opts{CLK: pinNum("CLK", 11), MOSI: pinNum("MOSI", 10), MISO: pinNum("MISO", 9)},
		},
		{name: "nil port", want: ErrInvalidArgument},
		{name: "unrouted port pins", port: &pinsPort{fakePort: newFakePort(nil)}},
		{
			name: "routed port pins",
			port: &pinsPort{fakePort: newFakePort(nil), clk: pinNum("CLK", 11), mosi: pinNum("MOSI", 10)},
		},
		{
			name: "routed port pin reserved",
			port: &pinsPort{fakePort: newFakePort(nil), clk: pinNum("CLK", 11)},
			opts: &Opts{Reserved: []int{11}},
			want: ErrInvalidArgument,
		},
		{
			name: "invalid pin",
			port: newFakePort(nil),
			opts: &Opts{CLK: gpio.INVALID},
			want: ErrInvalidArgument,
		},
		{
			name: "invalid pin over port pins",
			port: &pinsPort{fakePort: newFakePort(nil)},
			opts: &Opts{MISO: gpio.INVALID},
			want: ErrInvalidArgument,
		},
		{
			name: "shared pin",
			port: newFakePort(nil),
			opts: &Opts{CLK: pinNum("CLK", 11), MOSI: pinNum("MOSI", 11)},
			want: ErrInvalidArgument,
		},
		{
			name: "reserved pin",
			port: newFakePort(nil),
			opts: &Opts{CLK: pinNum("CLK", 6), Reserved: []int{6, 7, 8, 9, 10, 11}},
			want: ErrInvalidArgument,
		},
		{
			name: "word size",
			port: newFakePort(nil),
			opts: &Opts{Bits: 33},
			want: ErrInvalidArgument,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b, err := New(tc.port, tc.opts)
			if !errors.Is(err, tc.want) {
				t.Fatalf("New() = %v, want %v", err, tc.want)
			}
			if err == nil && b == nil {
				t.Fatal("New() returned a nil Bus")
			}
		})
	}
}

func TestNewDevice_Invalid(t *testing.T) {
	tr := &trace{}
	b, err := New(newFakePort(tr), &Opts{CLK: pinNum("CLK", 11), Reserved: []int{1}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.NewDevice(&DeviceOpts{CS: newCSPin(tr, "CS0", 8), Speed: physic.MegaHertz}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.NewDevice(&DeviceOpts{Speed: physic.MegaHertz}); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		name string
		opts *DeviceOpts
	}{
		{name: "nil"},
		{name: "mode", opts: &DeviceOpts{Mode: 4, Speed: physic.MegaHertz}},
		{name: "flags", opts: &DeviceOpts{Mode: spi.Mode0 | spi.HalfDuplex, Speed: physic.MegaHertz}},
		{name: "speed", opts: &DeviceOpts{CS: newCSPin(tr, "CS1", 7)}},
		{name: "gpio.INVALID", opts: &DeviceOpts{CS: gpio.INVALID, Speed: physic.MegaHertz}},
		{name: "bus pin", opts: &DeviceOpts{CS: newCSPin(tr, "CS1", 11), Speed: physic.MegaHertz}},
		{name: "same cs", opts: &DeviceOpts{CS: newCSPin(tr, "CS1", 8), Speed: physic.MegaHertz}},
		{name: "reserved", opts: &DeviceOpts{CS: newCSPin(tr, "CS1", 1), Speed: physic.MegaHertz}},
		{name: "second hardware cs", opts: &DeviceOpts{Speed: physic.MegaHertz}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := b.NewDevice(tc.opts); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("NewDevice() = %v, want %v", err, ErrInvalidArgument)
			}
		})
	}
}

func TestNewDevice_Connections(t *testing.T) {
	tr := &trace{}
	p := newFakePort(tr)
	b, err := New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	cs0 := newCSPin(tr, "CS0", 5)
	for _, o := range []*DeviceOpts{
		{CS: cs0, Mode: spi.Mode3, Speed: 10 * physic.MegaHertz},
		{CS: newCSPin(tr, "CS1", 6), Mode: spi.Mode3, Speed: 10 * physic.MegaHertz},
		{CS: newCSPin(tr, "CS2", 7), Mode: spi.Mode0, Speed: physic.MegaHertz},
		{Mode: spi.Mode0, Speed: physic.MegaHertz},
	} {
		if _, err := b.NewDevice(o); err != nil {
			t.Fatal(err)
		}
	}
	want := []connectArgs{
		{f: 10 * physic.MegaHertz, mode: spi.Mode3 | spi.NoCS, bits: 8},
		{f: physic.MegaHertz, mode: spi.Mode0 | spi.NoCS, bits: 8},
		{f: physic.MegaHertz, mode: spi.Mode0, bits: 8},
	}
	if diff := cmp.Diff(p.connects, want, cmp.AllowUnexported(connectArgs{})); diff != "" {
		t.Errorf("Connect() calls (-got +want):\n%s", diff)
	}
	if cs0.L != gpio.High {
		t.Errorf("chip select left %s after NewDevice", cs0.L)
	}
}

func TestTransfers(t *testing.T) {
	for _, tc := range []struct {
		name   string
		reply  []byte
		do     func(d *Device) (any, error)
		want   any
		wantIO []conntest.IO
	}{
		{
			name:  "TransferByte",
			reply: []byte{0xA5},
			do: func(d *Device) (any, error) {
				return d.TransferByte(0x3C)
			},
			want:   byte(0xA5),
			wantIO: []conntest.IO{{W: []byte{0x3C}, R: []byte{0xA5}}},
		},
		{
			name: "WriteByte",
			do: func(d *Device) (any, error) {
				return nil, d.WriteByte(0x3C)
			},
			wantIO: []conntest.IO{{W: []byte{0x3C}}},
		},
		{
			name:  "read only",
			reply: []byte{1, 2, 3},
			do: func(d *Device) (any, error) {
				r := make([]byte, 3)
				err := d.Tx(nil, r)
				return r, err
			},
			want:   []byte{1, 2, 3},
			wantIO: []conntest.IO{{W: []byte{0, 0, 0}, R: []byte{1, 2, 3}}},
		},
		{
			name:  "TransferReg16",
			reply: []byte{0xAB, 0xCD},
			do: func(d *Device) (any, error) {
				return d.TransferReg16(0x1234)
			},
			want:   uint16(0xABCD),
			wantIO: []conntest.IO{{W: []byte{0x12, 0x34}, R: []byte{0xAB, 0xCD}}},
		},
		{
			name: "WriteReg16",
			do: func(d *Device) (any, error) {
				return nil, d.WriteReg16(0x2A01)
			},
			wantIO: []conntest.IO{{W: []byte{0x2A, 0x01}}},
		},
		{
			name:  "TransferReg32",
			reply: []byte{0xDE, 0xAD, 0xBE, 0xEF},
			do: func(d *Device) (any, error) {
				return d.TransferReg32(0x12345678)
			},
			want:   uint32(0xDEADBEEF),
			wantIO: []conntest.IO{{W: []byte{0x12, 0x34, 0x56, 0x78}, R: []byte{0xDE, 0xAD, 0xBE, 0xEF}}},
		},
		{
			name: "WriteReg32",
			do: func(d *Device) (any, error) {
				return nil, d.WriteReg32(0x12345678)
			},
			wantIO: []conntest.IO{{W: []byte{0x12, 0x34, 0x56, 0x78}}},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tr := &trace{}
			p := newFakePort(tr)
			p.reply = tc.reply
			d := newDevice(t, p, newCSPin(tr, "CS", 5))
			tr.reset()

			got, err := tc.do(d)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(got, tc.want); diff != "" {
				t.Errorf("result (-got +want):\n%s", diff)
			}
			if diff := cmp.Diff(p.ios, tc.wantIO, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("wire (-got +want):\n%s", diff)
			}
			if diff := cmp.Diff(tr.get(), []string{"CS Low", "Tx", "CS High"}); diff != "" {
				t.Errorf("sequence (-got +want):\n%s", diff)
			}
		})
	}
}

func TestTx_LengthMismatch(t *testing.T) {
	p := newFakePort(nil)
	d := newDevice(t, p, nil)
	if err := d.Tx([]byte{1, 2}, make([]byte, 3)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Tx() = %v, want %v", err, ErrInvalidArgument)
	}
	if len(p.ios) != 0 {
		t.Fatalf("Tx() reached the wire: %v", p.ios)
	}
}

func TestTx_TransportError(t *testing.T) {
	tr := &trace{}
	p := newFakePort(tr)
	errWire := errors.New("wire fault")
	p.err = errWire
	cs := newCSPin(tr, "CS", 5)
	d := newDevice(t, p, cs)
	if err := d.WriteReg16(0x1100); !errors.Is(err, errWire) {
		t.Fatalf("WriteReg16() = %v, want %v", err, errWire)
	}
	if cs.L != gpio.High {
		t.Error("chip select still asserted after a failed transfer")
	}
	// The bus must have been released.
	if err := d.WriteByte(0); !errors.Is(err, errWire) {
		t.Fatalf("WriteByte() = %v, want %v", err, errWire)
	}
}

func TestRecord(t *testing.T) {
	// Record reports gpio.INVALID for its pins: they are not routed.
	r := &spitest.Record{}
	b, err := New(r, nil)
	if err != nil {
		t.Fatal(err)
	}
	if b.clk != nil || b.mosi != nil || b.miso != nil {
		t.Fatalf("unrouted pins kept: %v %v %v", b.clk, b.mosi, b.miso)
	}
	d, err := b.NewDevice(&DeviceOpts{Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.WriteReg16(0x3600); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteReg32(0xCAFEF00D); err != nil {
		t.Fatal(err)
	}
	want := []conntest.IO{{W: []byte{0x36, 0x00}}, {W: []byte{0xCA, 0xFE, 0xF0, 0x0D}}}
	if diff := cmp.Diff(r.Ops, want, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Ops (-got +want):\n%s", diff)
	}
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestClose(t *testing.T) {
	tr := &trace{}
	p := newFakePort(tr)
	b, err := New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	cs := newCSPin(tr, "CS0", 5)
	d0, err := b.NewDevice(&DeviceOpts{CS: cs, Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	d1, err := b.NewDevice(&DeviceOpts{CS: newCSPin(tr, "CS1", 6), Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Close(); !errors.Is(err, ErrDevicesAttached) {
		t.Fatalf("Bus.Close() = %v, want %v", err, ErrDevicesAttached)
	}
	if err := d0.Close(); err != nil {
		t.Fatal(err)
	}
	if err := d0.Close(); err != nil {
		t.Fatalf("second Device.Close() = %v", err)
	}
	if p.closed {
		t.Fatal("closing a device closed the bus")
	}
	if cs.L != gpio.High {
		t.Errorf("chip select left %s after Close", cs.L)
	}
	if err := d0.WriteByte(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("WriteByte() on closed device = %v, want %v", err, ErrClosed)
	}
	if err := d1.WriteByte(1); err != nil {
		t.Fatalf("sibling device broken by Close: %v", err)
	}
	if err := b.Close(); !errors.Is(err, ErrDevicesAttached) {
		t.Fatalf("Bus.Close() = %v, want %v", err, ErrDevicesAttached)
	}
	if err := d1.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if !p.closed {
		t.Fatal("port not closed")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Bus.Close() = %v", err)
	}
	if _, err := b.NewDevice(&DeviceOpts{Speed: physic.MegaHertz}); !errors.Is(err, ErrClosed) {
		t.Fatalf("NewDevice() on closed bus = %v, want %v", err, ErrClosed)
	}

	var nb *Bus
	var nd *Device
	if err := nb.Close(); err != nil {
		t.Fatal(err)
	}
	if err := nd.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCloseWaitsForTransfer(t *testing.T) {
	p := newFakePort(nil)
	p.hold = 30 * time.Millisecond
	b, err := New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	a, err := b.NewDevice(&DeviceOpts{CS: pinNum("A", 5), Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	other, err := b.NewDevice(&DeviceOpts{CS: pinNum("B", 6), Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() {
		done <- a.WriteByte(1)
	}()
	// Let the transfer start.
	for atomic.LoadInt32(&p.inTx) == 0 {
		time.Sleep(time.Millisecond)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := other.WriteByte(2); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&p.overlap) != 0 {
		t.Fatal("Close gave the bus away during a transfer")
	}
}

func TestCloseWhileAcquired(t *testing.T) {
	b, err := New(newFakePort(nil), &Opts{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	a, err := b.NewDevice(&DeviceOpts{CS: pinNum("A", 5), Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	other, err := b.NewDevice(&DeviceOpts{CS: pinNum("B", 6), Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	s, err := a.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); !errors.Is(err, ErrBusy) {
		t.Fatalf("Close() while acquired = %v, want %v", err, ErrBusy)
	}
	if err := other.Close(); !errors.Is(err, ErrBusy) {
		t.Fatalf("sibling Close() while acquired = %v, want %v", err, ErrBusy)
	}
	// The Session survived both attempts.
	if err := s.WriteReg16(0x2C00); err != nil {
		t.Fatal(err)
	}
	if err := other.WriteByte(0); !errors.Is(err, ErrBusy) {
		t.Fatalf("WriteByte() while acquired = %v, want %v", err, ErrBusy)
	}
	if err := s.Release(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Acquire(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Acquire() on closed device = %v, want %v", err, ErrClosed)
	}
}

func TestAcquire(t *testing.T) {
	tr := &trace{}
	p := newFakePort(tr)
	b, err := New(p, &Opts{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	a, err := b.NewDevice(&DeviceOpts{CS: newCSPin(tr, "A", 5), Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	other, err := b.NewDevice(&DeviceOpts{CS: newCSPin(tr, "B", 6), Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	tr.reset()

	s, err := a.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.WriteReg16(0x2C00); err != nil {
		t.Fatal(err)
	}
	if err := s.Tx([]byte{0x1F, 0x00}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Tx(nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Tx([]byte{1}, make([]byte, 2)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("Tx() = %v, want %v", err, ErrInvalidArgument)
	}
	if err := other.WriteByte(0); !errors.Is(err, ErrBusy) {
		t.Fatalf("WriteByte() while bus held = %v, want %v", err, ErrBusy)
	}
	// The holder's own plain transfers are not part of the Session.
	if err := a.WriteByte(0); !errors.Is(err, ErrBusy) {
		t.Fatalf("Device.WriteByte() while its Session is held = %v, want %v", err, ErrBusy)
	}
	if _, err := a.Acquire(); !errors.Is(err, ErrBusy) {
		t.Fatalf("nested Acquire() = %v, want %v", err, ErrBusy)
	}
	if err := s.Release(); err != nil {
		t.Fatal(err)
	}
	if err := other.WriteByte(0); err != nil {
		t.Fatalf("WriteByte() after Release = %v", err)
	}
	if err := s.Release(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("second Release() = %v, want %v", err, ErrInvalidArgument)
	}
	if err := s.WriteReg16(0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("WriteReg16() after Release = %v, want %v", err, ErrInvalidArgument)
	}
	want := []string{"A Low", "Tx", "A High", "A Low", "Tx", "A High", "B Low", "Tx", "B High"}
	if diff := cmp.Diff(tr.get(), want); diff != "" {
		t.Errorf("sequence (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(p.ios[:2], []conntest.IO{{W: []byte{0x2C, 0x00}}, {W: []byte{0x1F, 0x00}}}, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("wire (-got +want):\n%s", diff)
	}
}

func TestAcquireBlocksSameDevice(t *testing.T) {
	tr := &trace{}
	p := newFakePort(tr)
	d := newDevice(t, p, newCSPin(tr, "CS", 5))
	s, err := d.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	tr.reset()
	done := make(chan error, 1)
	go func() {
		done <- d.WriteByte(0x55)
	}()
	select {
	case err := <-done:
		t.Fatalf("transfer from another goroutine ran inside the Session: %v", err)
	case <-time.After(20 * time.Millisecond):
	}
	if err := s.WriteReg16(0x2C00); err != nil {
		t.Fatal(err)
	}
	tr.add("release")
	if err := s.Release(); err != nil {
		t.Fatal(err)
	}
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	want := []string{"CS Low", "Tx", "CS High", "release", "CS Low", "Tx", "CS High"}
	if diff := cmp.Diff(tr.get(), want); diff != "" {
		t.Errorf("sequence (-got +want):\n%s", diff)
	}
}

func TestSerializesDevices(t *testing.T) {
	tr := &trace{}
	p := newFakePort(tr)
	p.hold = time.Millisecond
	b, err := New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	var devs []*Device
	for i := 0; i < 3; i++ {
		d, err := b.NewDevice(&DeviceOpts{CS: newCSPin(tr, fmt.Sprintf("CS%d", i), 5+i), Speed: physic.MegaHertz})
		if err != nil {
			t.Fatal(err)
		}
		devs = append(devs, d)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(d *Device) {
			defer wg.Done()
			if err := d.WriteReg16(0x1234); err != nil {
				errs <- err
			}
		}(devs[i%len(devs)])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	if atomic.LoadInt32(&p.overlap) != 0 {
		t.Fatal("two transactions were on the bus at the same time")
	}
}

func TestIndependentBuses(t *testing.T) {
	d0 := newDevice(t, newFakePort(nil), nil)
	p1 := newFakePort(nil)
	b1, err := New(p1, &Opts{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	d1, err := b1.NewDevice(&DeviceOpts{Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	s, err := d0.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Release()
	if err := d1.WriteByte(0x55); err != nil {
		t.Fatalf("bus 1 blocked by bus 0: %v", err)
	}
}

//

type trace struct {
	mu  sync.Mutex
	ops []string
}

func (t *trace) add(s string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = append(t.ops, s)
}

func (t *trace) get() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.ops...)
}

func (t *trace) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ops = nil
}

type connectArgs struct {
	f    physic.Frequency
	mode spi.Mode
	bits int
}

// fakePort accepts any number of Connect calls and records every transfer.
type fakePort struct {
	t        *trace
	mu       sync.Mutex
	connects []connectArgs
	ios      []conntest.IO
	reply    []byte
	err      error
	hold     time.Duration
	closed   bool
	inTx     int32
	overlap  int32
}

func newFakePort(t *trace) *fakePort {
	return &fakePort{t: t}
}

func (p *fakePort) String() string {
	return "fake"
}

func (p *fakePort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connects = append(p.connects, connectArgs{f: f, mode: mode, bits: bits})
	return &fakeConn{p: p}, nil
}

func (p *fakePort) LimitSpeed(f physic.Frequency) error {
	return nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

type fakeConn struct {
	p *fakePort
}

func (c *fakeConn) String() string {
	return "fakeConn"
}

func (c *fakeConn) Duplex() conn.Duplex {
	return conn.Full
}

func (c *fakeConn) Tx(w, r []byte) error {
	p := c.p
	if atomic.AddInt32(&p.inTx, 1) > 1 {
		atomic.StoreInt32(&p.overlap, 1)
	}
	defer atomic.AddInt32(&p.inTx, -1)
	if p.hold > 0 {
		time.Sleep(p.hold)
	}
	p.t.add("Tx")
	p.mu.Lock()
	defer p.mu.Unlock()
	copy(r, p.reply)
	io := conntest.IO{W: append([]byte(nil), w...)}
	if r != nil {
		io.R = append([]byte(nil), r...)
	}
	p.ios = append(p.ios, io)
	return p.err
}

func (c *fakeConn) TxPackets(pkts []spi.Packet) error {
	for _, pkt := range pkts {
		if err := c.Tx(pkt.W, pkt.R); err != nil {
			return err
		}
	}
	return nil
}

// csPin logs its level changes into a trace.
type csPin struct {
	gpiotest.Pin
	t *trace
}

func newCSPin(t *trace, name string, num int) *csPin {
	return &csPin{Pin: gpiotest.Pin{N: name, Num: num}, t: t}
}

func (p *csPin) Out(l gpio.Level) error {
	p.t.add(p.N + " " + l.String())
	return p.Pin.Out(l)
}

// pinsPort reports its routed pins like a host driver does, with
// gpio.INVALID for the ones it does not know.
type pinsPort struct {
	*fakePort
	clk, mosi gpio.PinOut
	miso      gpio.PinIn
}

func (p *pinsPort) CLK() gpio.PinOut {
	if p.clk == nil {
		return gpio.INVALID
	}
	return p.clk
}

func (p *pinsPort) MOSI() gpio.PinOut {
	if p.mosi == nil {
		return gpio.INVALID
	}
	return p.mosi
}

func (p *pinsPort) MISO() gpio.PinIn {
	if p.miso == nil {
		return gpio.INVALID
	}
	return p.miso
}

func (p *pinsPort) CS() gpio.PinOut {
	return gpio.INVALID
}

func pinNum(name string, num int) *gpiotest.Pin {
	return &gpiotest.Pin{N: name, Num: num}
}

func newDevice(t *testing.T, p spi.Port, cs gpio.PinOut) *Device {
	b, err := New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	d, err := b.NewDevice(&DeviceOpts{CS: cs, Mode: spi.Mode0, Speed: physic.MegaHertz})
	if err != nil {
		t.Fatal(err)
	}
	return d
}
