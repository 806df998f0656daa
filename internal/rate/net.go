package rate

import "github.com/sjyi/dgxtop/internal/model"

// NewNetEngine builds the rate engine for the network domain. RoCE
// ports arrive in the same NetCounters shape as regular interfaces, so
// one engine covers both.
func NewNetEngine() *Engine[model.NetCounters, model.NetRate] {
	return NewEngine(
		func(c model.NetCounters) string { return c.Interface },
		firstNet,
		deriveNet,
	)
}

func firstNet(c model.NetCounters) model.NetRate {
	return model.NetRate{Interface: c.Interface, RxErrors: c.RxErrors, TxErrors: c.TxErrors}
}

func deriveNet(cur, prev model.NetCounters, elapsedSec float64) model.NetRate {
	return model.NetRate{
		Interface:       cur.Interface,
		RxBytesPerSec:   delta(cur.RxBytes, prev.RxBytes) / elapsedSec,
		TxBytesPerSec:   delta(cur.TxBytes, prev.TxBytes) / elapsedSec,
		RxPacketsPerSec: delta(cur.RxPackets, prev.RxPackets) / elapsedSec,
		TxPacketsPerSec: delta(cur.TxPackets, prev.TxPackets) / elapsedSec,
		RxErrors:        cur.RxErrors,
		TxErrors:        cur.TxErrors,
	}
}
