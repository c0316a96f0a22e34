package metrics

import "time"

// ContractCall records a contract call outcome.
func ContractCall(operation, status string) {
	if !enabled {
		return
	}
	contractCallsTotal.WithLabelValues(operation, status).Inc()
}

// ObserveReceiptWait records how long a transaction took to be mined.
func ObserveReceiptWait(operation string, d time.Duration) {
	if !enabled {
		return
	}
	receiptWait.WithLabelValues(operation).Observe(d.Seconds())
}

// Deployment records a deployment outcome.
func Deployment(status string) {
	if !enabled {
		return
	}
	deploymentsTotal.WithLabelValues(status).Inc()
}

// ValidationError records a rejected operator input.
func ValidationError(field, kind string) {
	if !enabled {
		return
	}
	validationErrorsTotal.WithLabelValues(field, kind).Inc()
}
