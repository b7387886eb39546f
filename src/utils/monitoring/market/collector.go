package monitor_market

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	StartTimestamp        *prometheus.Desc
	UpForSeconds          *prometheus.Desc
	PlacementsCreated     *prometheus.Desc
	PlacementsRemoved     *prometheus.Desc
	TokensSold            *prometheus.Desc
	GasPurchases          *prometheus.Desc
	TokenPurchases        *prometheus.Desc
	EventsPublished       *prometheus.Desc
	PlacementsActive      *prometheus.Desc
	PlacementsStale       *prometheus.Desc
	AverageSalesPerMinute *prometheus.Desc

	NotOwnerErrors                *prometheus.Desc
	NotApprovedOrOwnerErrors      *prometheus.Desc
	NotApprovedToTransferErrors   *prometheus.Desc
	OnlyFromPaymentTokenErrors    *prometheus.Desc
	TokenNotPlacedErrors          *prometheus.Desc
	PaymentTokenNotAllowedErrors  *prometheus.Desc
	ZeroCostErrors                *prometheus.Desc
	PausedErrors                  *prometheus.Desc
	WrongPurchaseMethodErrors     *prometheus.Desc
	TransferAmountIncorrectErrors *prometheus.Desc
	AssetTransferErrors           *prometheus.Desc
	DbErrors                      *prometheus.Desc
}

func NewCollector() *Collector {
	labels := prometheus.Labels{
		"app": "placements",
	}

	return &Collector{
		StartTimestamp:        prometheus.NewDesc("start_timestamp", "", nil, labels),
		UpForSeconds:          prometheus.NewDesc("up_for_seconds", "", nil, labels),
		PlacementsCreated:     prometheus.NewDesc("placements_created", "", nil, labels),
		PlacementsRemoved:     prometheus.NewDesc("placements_removed", "", nil, labels),
		TokensSold:            prometheus.NewDesc("tokens_sold", "", nil, labels),
		GasPurchases:          prometheus.NewDesc("gas_purchases", "", nil, labels),
		TokenPurchases:        prometheus.NewDesc("token_purchases", "", nil, labels),
		EventsPublished:       prometheus.NewDesc("events_published", "", nil, labels),
		PlacementsActive:      prometheus.NewDesc("placements_active", "", nil, labels),
		PlacementsStale:       prometheus.NewDesc("placements_stale", "", nil, labels),
		AverageSalesPerMinute: prometheus.NewDesc("average_sales_per_minute", "", nil, labels),

		// Errors
		NotOwnerErrors:                prometheus.NewDesc("error_not_owner", "", nil, labels),
		NotApprovedOrOwnerErrors:      prometheus.NewDesc("error_not_approved_or_owner", "", nil, labels),
		NotApprovedToTransferErrors:   prometheus.NewDesc("error_not_approved_to_transfer", "", nil, labels),
		OnlyFromPaymentTokenErrors:    prometheus.NewDesc("error_only_from_payment_token", "", nil, labels),
		TokenNotPlacedErrors:          prometheus.NewDesc("error_token_not_placed", "", nil, labels),
		PaymentTokenNotAllowedErrors:  prometheus.NewDesc("error_payment_token_not_allowed", "", nil, labels),
		ZeroCostErrors:                prometheus.NewDesc("error_zero_cost", "", nil, labels),
		PausedErrors:                  prometheus.NewDesc("error_paused", "", nil, labels),
		WrongPurchaseMethodErrors:     prometheus.NewDesc("error_wrong_purchase_method", "", nil, labels),
		TransferAmountIncorrectErrors: prometheus.NewDesc("error_transfer_amount_incorrect", "", nil, labels),
		AssetTransferErrors:           prometheus.NewDesc("error_asset_transfer", "", nil, labels),
		DbErrors:                      prometheus.NewDesc("error_db", "", nil, labels),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.StartTimestamp
	ch <- self.UpForSeconds
	ch <- self.PlacementsCreated
	ch <- self.PlacementsRemoved
	ch <- self.TokensSold
	ch <- self.GasPurchases
	ch <- self.TokenPurchases
	ch <- self.EventsPublished
	ch <- self.PlacementsActive
	ch <- self.PlacementsStale
	ch <- self.AverageSalesPerMinute

	// Errors
	ch <- self.NotOwnerErrors
	ch <- self.NotApprovedOrOwnerErrors
	ch <- self.NotApprovedToTransferErrors
	ch <- self.OnlyFromPaymentTokenErrors
	ch <- self.TokenNotPlacedErrors
	ch <- self.PaymentTokenNotAllowedErrors
	ch <- self.ZeroCostErrors
	ch <- self.PausedErrors
	ch <- self.WrongPurchaseMethodErrors
	ch <- self.TransferAmountIncorrectErrors
	ch <- self.AssetTransferErrors
	ch <- self.DbErrors
}

// Collect implements required collect function for all prometheus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	state := &self.monitor.Report.Market.State
	errors := &self.monitor.Report.Market.Errors

	ch <- prometheus.MustNewConstMetric(self.StartTimestamp, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.StartTimestamp.Load()))
	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(self.monitor.Report.Run.State.UpForSeconds.Load()))
	ch <- prometheus.MustNewConstMetric(self.PlacementsCreated, prometheus.CounterValue, float64(state.PlacementsCreated.Load()))
	ch <- prometheus.MustNewConstMetric(self.PlacementsRemoved, prometheus.CounterValue, float64(state.PlacementsRemoved.Load()))
	ch <- prometheus.MustNewConstMetric(self.TokensSold, prometheus.CounterValue, float64(state.TokensSold.Load()))
	ch <- prometheus.MustNewConstMetric(self.GasPurchases, prometheus.CounterValue, float64(state.GasPurchases.Load()))
	ch <- prometheus.MustNewConstMetric(self.TokenPurchases, prometheus.CounterValue, float64(state.TokenPurchases.Load()))
	ch <- prometheus.MustNewConstMetric(self.EventsPublished, prometheus.CounterValue, float64(state.EventsPublished.Load()))
	ch <- prometheus.MustNewConstMetric(self.PlacementsActive, prometheus.GaugeValue, float64(state.PlacementsActive.Load()))
	ch <- prometheus.MustNewConstMetric(self.PlacementsStale, prometheus.GaugeValue, float64(state.PlacementsStale.Load()))
	ch <- prometheus.MustNewConstMetric(self.AverageSalesPerMinute, prometheus.GaugeValue, state.AverageSalesPerMinute.Load())

	// Errors
	ch <- prometheus.MustNewConstMetric(self.NotOwnerErrors, prometheus.CounterValue, float64(errors.NotOwner.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotApprovedOrOwnerErrors, prometheus.CounterValue, float64(errors.NotApprovedOrOwner.Load()))
	ch <- prometheus.MustNewConstMetric(self.NotApprovedToTransferErrors, prometheus.CounterValue, float64(errors.NotApprovedToTransfer.Load()))
	ch <- prometheus.MustNewConstMetric(self.OnlyFromPaymentTokenErrors, prometheus.CounterValue, float64(errors.OnlyFromPaymentToken.Load()))
	ch <- prometheus.MustNewConstMetric(self.TokenNotPlacedErrors, prometheus.CounterValue, float64(errors.TokenNotPlaced.Load()))
	ch <- prometheus.MustNewConstMetric(self.PaymentTokenNotAllowedErrors, prometheus.CounterValue, float64(errors.PaymentTokenNotAllowed.Load()))
	ch <- prometheus.MustNewConstMetric(self.ZeroCostErrors, prometheus.CounterValue, float64(errors.ZeroCost.Load()))
	ch <- prometheus.MustNewConstMetric(self.PausedErrors, prometheus.CounterValue, float64(errors.Paused.Load()))
	ch <- prometheus.MustNewConstMetric(self.WrongPurchaseMethodErrors, prometheus.CounterValue, float64(errors.WrongPurchaseMethod.Load()))
	ch <- prometheus.MustNewConstMetric(self.TransferAmountIncorrectErrors, prometheus.CounterValue, float64(errors.TransferAmountIncorrect.Load()))
	ch <- prometheus.MustNewConstMetric(self.AssetTransferErrors, prometheus.CounterValue, float64(errors.AssetTransfer.Load()))
	ch <- prometheus.MustNewConstMetric(self.DbErrors, prometheus.CounterValue, float64(errors.DbError.Load()))
}
