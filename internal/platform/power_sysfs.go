package platform

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// SysfsPower reads /sys/class/power_supply. A machine with no mains
// supply listed (most desktops) is reported as not on battery.
type SysfsPower struct {
	Root string
}

// OnBattery implements PowerSource.
func (p SysfsPower) OnBattery() (bool, error) {
	root := p.Root
	if root == "" {
		root = "/sys/class/power_supply"
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return false, err
	}

	var mains, online, batteries int
	for _, e := range entries {
		dir := filepath.Join(root, e.Name())
		kind, err := readTrimmed(filepath.Join(dir, "type"))
		if err != nil {
			continue
		}
		switch kind {
		case "Mains", "USB", "USB_C", "USB_PD":
			mains++
			if v, err := readTrimmed(filepath.Join(dir, "online")); err == nil && v == "1" {
				online++
			}
		case "Battery":
			batteries++
		}
	}

	if mains == 0 {
		if batteries == 0 {
			return false, nil
		}
		return false, errors.New("battery present but no mains supply reported")
	}
	return online == 0, nil
}

func readTrimmed(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
