package monitor_market

import (
	"math"
	"net/http"
	"time"

	"github.com/rif-marketplace/placements/src/utils/monitoring/report"
	"github.com/rif-marketplace/placements/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int

	collector *Collector

	// Sale throughput
	SaleCounts *deque.Deque[uint64]
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:       &report.RunReport{},
		Market:    &report.MarketReport{},
		Gateway:   &report.GatewayReport{},
		Publisher: &report.PublisherReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorSales).
		WithPeriodicSubtaskFunc(time.Second, self.monitorUptime)
	return
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize

	self.SaleCounts = deque.New[uint64](self.historySize)

	return self
}

func (self *Monitor) Clear() {
	self.SaleCounts.Clear()
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

func (self *Monitor) monitorUptime() (err error) {
	up := time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()
	self.Report.Run.State.UpForSeconds.Store(uint64(up))
	return
}

// Measure sale throughput
func (self *Monitor) monitorSales() (err error) {
	loaded := self.Report.Market.State.TokensSold.Load()

	self.SaleCounts.PushBack(loaded)
	if self.SaleCounts.Len() > self.historySize {
		self.SaleCounts.PopFront()
	}
	if self.SaleCounts.Len() < 2 {
		return
	}

	value := float64(self.SaleCounts.Back()-self.SaleCounts.Front()) / float64(self.SaleCounts.Len())
	self.Report.Market.State.AverageSalesPerMinute.Store(round(value))
	return
}

// Health check used by the watchdog
func (self *Monitor) IsOK() bool {
	return true
}

func (self *Monitor) OnGet(c *gin.Context) {
	c.JSON(http.StatusOK, &self.Report)
}
