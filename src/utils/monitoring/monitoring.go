package monitoring

import (
	"github.com/rif-marketplace/placements/src/utils/monitoring/report"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Monitor interface {
	GetReport() *report.Report
	GetPrometheusCollector() prometheus.Collector
	IsOK() bool
	OnGet(c *gin.Context)
	Clear()
}
