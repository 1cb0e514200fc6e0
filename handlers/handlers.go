package handlers

import (
	"table-order-api/jobs"
	"table-order-api/lifecycle"
	"table-order-api/payments"
)

// Service singletons wired once at startup, mirroring the global DB handle
// in config.
var (
	Orders   *lifecycle.Service
	Payments *payments.Service
	Sweeper  *jobs.Sweeper
)

// Init wires the handler package's services.
func Init(orders *lifecycle.Service, pay *payments.Service, sweeper *jobs.Sweeper) {
	Orders = orders
	Payments = pay
	Sweeper = sweeper
}
