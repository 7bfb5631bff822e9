package keepalive

import "log/slog"

// volumeAdjuster applies the running volume and restores the previous
// level. Both run on the keeper's worker, so saved needs no lock.
type volumeAdjuster struct {
	ctl   VolumeControl
	w     *worker
	log   *slog.Logger
	saved int
	have  bool
}

func (v *volumeAdjuster) Adjust(level int) {
	if v.ctl == nil {
		return
	}
	v.w.Do("volume adjust", func() {
		if !v.have {
			current, err := v.ctl.Volume()
			if err != nil {
				v.log.Warn("reading volume failed", "err", err)
				return
			}
			v.saved, v.have = current, true
		}
		if err := v.ctl.SetVolume(level); err != nil {
			v.log.Warn("setting running volume failed", "level", level, "err", err)
			return
		}
		v.log.Debug("running volume applied", "level", level, "previous", v.saved)
	})
}

func (v *volumeAdjuster) Restore() {
	if v.ctl == nil {
		return
	}
	v.w.Do("volume restore", func() {
		if !v.have {
			return
		}
		v.have = false
		if err := v.ctl.SetVolume(v.saved); err != nil {
			v.log.Warn("restoring volume failed", "level", v.saved, "err", err)
		}
	})
}
