package task

import (
	"time"

	"github.com/rif-marketplace/placements/src/utils/config"
)

// Restarts the wrapped task whenever the isOK check fails.
type Watchdog struct {
	*Task

	taskFunc func() *Task
	isOK     func() bool
	period   time.Duration

	watched *Task
}

func NewWatchdog(config *config.Config) (self *Watchdog) {
	self = new(Watchdog)

	self.period = time.Minute

	self.Task = NewTask(config, "watchdog").
		WithOnBeforeStart(self.startWatched).
		WithOnStop(self.stopWatched)

	self.Task = self.Task.
		WithPeriodicSubtaskFunc(self.period, self.check)

	return
}

func (self *Watchdog) WithTask(f func() *Task) *Watchdog {
	self.taskFunc = f
	return self
}

func (self *Watchdog) WithIsOK(f func() bool) *Watchdog {
	self.isOK = f
	return self
}

func (self *Watchdog) WithCheckPeriod(period time.Duration) *Watchdog {
	self.period = period
	return self
}

func (self *Watchdog) startWatched() (err error) {
	self.watched = self.taskFunc()
	return self.watched.Start()
}

func (self *Watchdog) stopWatched() {
	if self.watched != nil {
		self.watched.Stop()
	}
}

func (self *Watchdog) check() (err error) {
	if self.IsStopping.Load() {
		return
	}

	if self.isOK == nil || self.isOK() {
		return
	}

	self.Log.Warn("Check failed, restarting watched task")

	self.watched.StopWait()
	return self.startWatched()
}
