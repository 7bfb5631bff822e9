//go:build linux

package linux

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	uinputDevicePath = "/dev/uinput"
	uinputBusTypeUSB = 0x03
	uinputVendorID   = 0x1234
	uinputProductID  = 0x5678
	uinputDeviceName = "movemouse-pointer"

	// input-event-codes.h
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02
	relX  = 0x00
	relY  = 0x01

	// A pointer needs at least one button before compositors treat it as a mouse.
	btnLeft = 0x110

	// uinput.h ioctls
	uiSetEvbit   = 0x40045564 // _IOW('U', 100, int)
	uiSetKeybit  = 0x40045565 // _IOW('U', 101, int)
	uiSetRelbit  = 0x40045566 // _IOW('U', 102, int)
	uiDevCreate  = 0x5501     // _IO('U', 1)
	uiDevDestroy = 0x5502     // _IO('U', 2)
)

type uinputUserDev struct {
	name [80]byte
	id   struct {
		bustype uint16
		vendor  uint16
		product uint16
		version uint16
	}
	ffEffectsMax uint32
	absmax       [64]int32
	absmin       [64]int32
	absfuzz      [64]int32
	absflat      [64]int32
}

type inputEvent struct {
	time  unix.Timeval
	etype uint16
	code  uint16
	value int32
}

// VirtualPointer is a relative pointer device registered through uinput.
// The kernel injects its events like those of a physical mouse, so it works
// under X11 and Wayland alike.
type VirtualPointer struct {
	mu sync.Mutex
	fd int
}

// OpenVirtualPointer registers a pointer with one button and X/Y axes.
func OpenVirtualPointer() (*VirtualPointer, error) {
	fd, err := unix.Open(uinputDevicePath, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uinputDevicePath, err)
	}
	if err := register(fd); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("register pointer: %w", err)
	}
	return &VirtualPointer{fd: fd}, nil
}

func register(fd int) error {
	bits := [][2]int{
		{uiSetEvbit, evKey},
		{uiSetKeybit, btnLeft},
		{uiSetEvbit, evRel},
		{uiSetRelbit, relX},
		{uiSetRelbit, relY},
	}
	for _, b := range bits {
		if err := unix.IoctlSetInt(fd, uint(b[0]), b[1]); err != nil {
			return err
		}
	}

	var dev uinputUserDev
	copy(dev.name[:], uinputDeviceName)
	dev.id.bustype = uinputBusTypeUSB
	dev.id.vendor = uinputVendorID
	dev.id.product = uinputProductID
	if _, err := unix.Write(fd, unsafe.Slice((*byte)(unsafe.Pointer(&dev)), unsafe.Sizeof(dev))); err != nil {
		return err
	}
	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		_ = unix.IoctlSetInt(fd, uiDevDestroy, 0)
		return err
	}
	return nil
}

// Move emits one relative motion report followed by a sync.
func (p *VirtualPointer) Move(dx, dy int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fd <= 0 {
		return errors.New("uinput pointer is closed")
	}
	report := [3]inputEvent{
		{etype: evRel, code: relX, value: int32(dx)},
		{etype: evRel, code: relY, value: int32(dy)},
		{etype: evSyn},
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&report[0])), unsafe.Sizeof(report))
	_, err := unix.Write(p.fd, buf)
	return err
}

func (p *VirtualPointer) Name() string { return "uinput" }

// Close destroys the device. It is safe to call more than once.
func (p *VirtualPointer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fd <= 0 {
		return nil
	}
	_ = unix.IoctlSetInt(p.fd, uiDevDestroy, 0)
	err := unix.Close(p.fd)
	p.fd = 0
	return err
}
