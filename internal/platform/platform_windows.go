//go:build windows

package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	inputMouse      = 0
	mouseEventfMove = 0x0001

	desktopSwitchDesktop = 0x0100

	esSystemRequired  = 0x00000001
	esDisplayRequired = 0x00000002
)

var (
	user32                      = windows.NewLazySystemDLL("user32.dll")
	kernel32                    = windows.NewLazySystemDLL("kernel32.dll")
	procGetLastInputInfo        = user32.NewProc("GetLastInputInfo")
	procSendInput               = user32.NewProc("SendInput")
	procOpenInputDesktop        = user32.NewProc("OpenInputDesktop")
	procCloseDesktop            = user32.NewProc("CloseDesktop")
	procGetTickCount            = kernel32.NewProc("GetTickCount")
	procGetSystemPowerStatus    = kernel32.NewProc("GetSystemPowerStatus")
	procSetThreadExecutionState = kernel32.NewProc("SetThreadExecutionState")
)

type lastInputInfo struct {
	cbSize uint32
	dwTime uint32
}

type systemPowerStatus struct {
	acLineStatus        byte
	batteryFlag         byte
	batteryLifePercent  byte
	systemStatusFlag    byte
	batteryLifeTime     uint32
	batteryFullLifeTime uint32
}

type mouseInput struct {
	dx          int32
	dy          int32
	mouseData   uint32
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	mi        mouseInput
}

// New returns the Windows collaborators, backed by user32 and kernel32.
func New(logger *slog.Logger) (*System, error) {
	w := winAPI{}
	return &System{
		Idle:       w,
		Power:      w,
		Session:    w,
		Volume:     Unsupported{},
		Mover:      w,
		Activity:   w,
		Capability: Capability{CanSimulate: true, Method: "SendInput"},
	}, nil
}

type winAPI struct{}

func (winAPI) IdleTime() (time.Duration, error) {
	info := lastInputInfo{cbSize: uint32(unsafe.Sizeof(lastInputInfo{}))}
	r1, _, err := procGetLastInputInfo.Call(uintptr(unsafe.Pointer(&info)))
	if r1 == 0 {
		return 0, fmt.Errorf("GetLastInputInfo: %w", err)
	}
	now, _, _ := procGetTickCount.Call()
	// Both counters wrap every ~49.7 days; uint32 arithmetic handles it.
	elapsed := uint32(now) - info.dwTime
	return time.Duration(elapsed) * time.Millisecond, nil
}

func (winAPI) OnBattery() (bool, error) {
	var status systemPowerStatus
	r1, _, err := procGetSystemPowerStatus.Call(uintptr(unsafe.Pointer(&status)))
	if r1 == 0 {
		return false, fmt.Errorf("GetSystemPowerStatus: %w", err)
	}
	switch status.acLineStatus {
	case 0:
		return true, nil
	case 1:
		return false, nil
	}
	return false, errors.New("power line status unknown")
}

func (winAPI) Locked() (bool, error) {
	h, _, _ := procOpenInputDesktop.Call(0, 0, desktopSwitchDesktop)
	if h == 0 {
		// The input desktop is the secure Winlogon desktop while locked.
		return true, nil
	}
	procCloseDesktop.Call(h)
	return false, nil
}

func (winAPI) Move(dx, dy int) error {
	in := input{
		inputType: inputMouse,
		mi:        mouseInput{dx: int32(dx), dy: int32(dy), dwFlags: mouseEventfMove},
	}
	r1, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if r1 != 1 {
		return fmt.Errorf("SendInput: %w", err)
	}
	return nil
}

func (winAPI) Name() string { return "SendInput" }

// SimulateActivity resets the system and display idle timers once.
func (winAPI) SimulateActivity(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r1, _, err := procSetThreadExecutionState.Call(uintptr(esSystemRequired | esDisplayRequired))
	if r1 == 0 {
		return fmt.Errorf("SetThreadExecutionState: %w", err)
	}
	return nil
}
