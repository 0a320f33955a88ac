package services

// Container groups the services the HTTP layer and the workers use.
type Container struct {
	Deps      Deps
	Wheel     *WheelService
	Purchases *PurchaseService
	Share     *ShareTaskService
	Report    *ReportService
	Payouts   *PayoutService
}

func NewContainer(d Deps) *Container {
	d = d.withDefaults()
	return &Container{
		Deps:      d,
		Wheel:     NewWheelService(d),
		Purchases: NewPurchaseService(d),
		Share:     NewShareTaskService(d),
		Report:    NewReportService(d),
		Payouts:   NewPayoutService(d),
	}
}
