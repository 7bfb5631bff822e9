package keepalive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/movemouse/internal/logging"
)

func TestCleanupManagerOrderAndErrors(t *testing.T) {
	cm := NewCleanupManager(time.Second, logging.Discard())
	var order []string
	cm.RegisterFunc("first", func() error { order = append(order, "first"); return nil })
	cm.RegisterFunc("second", func() error { order = append(order, "second"); return errors.New("disk gone") })
	cm.RegisterFunc("third", func() error { order = append(order, "third"); panic("boom") })

	errs := cm.Execute()
	require.Len(t, errs, 2)
	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.ErrorContains(t, errs[0], "third")
	assert.ErrorContains(t, errs[1], "disk gone")

	again := cm.Execute()
	assert.Equal(t, errs, again, "runs once")
	assert.Len(t, order, 3)
}

func TestCleanupManagerTimeout(t *testing.T) {
	cm := NewCleanupManager(20*time.Millisecond, nil)
	release := make(chan struct{})
	defer close(release)
	cm.RegisterFunc("stuck", func() error { <-release; return nil })

	start := time.Now()
	errs := cm.Execute()
	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrCleanupTimeout)
}

func TestCleanupManagerEmptyAndLate(t *testing.T) {
	cm := NewCleanupManager(0, nil)
	assert.Empty(t, cm.Execute())

	called := false
	cm.RegisterFunc("late", func() error { called = true; return nil })
	assert.Empty(t, cm.Execute())
	assert.False(t, called, "steps registered after shutdown never run")
}
