package backtest

import (
	"time"

	"github.com/rustyeddy/quant/perf"
	"github.com/rustyeddy/quant/pkg/id"
)

// Position is the current holding for one symbol. Mutated only by
// applying fills.
type Position struct {
	Qty      float64
	AvgCost  float64
	OpenTime time.Time
}

// Portfolio is the simulated account state of one run: cash plus
// positions by symbol. One instance per run, mutated sequentially as
// bars are processed, never concurrently.
type Portfolio struct {
	Cash      float64
	Positions map[string]Position
	Realized  float64
}

func NewPortfolio(cash float64) *Portfolio {
	return &Portfolio{
		Cash:      cash,
		Positions: make(map[string]Position),
	}
}

// Equity returns cash plus the mark-to-market value of all positions at
// the given prices.
func (p *Portfolio) Equity(prices map[string]float64) float64 {
	eq := p.Cash
	for sym, pos := range p.Positions {
		eq += pos.Qty * prices[sym]
	}
	return eq
}

// Buy applies a buy fill: qty shares at price, charged fee. Covering a
// short position realizes P&L and returns the closed trade records.
func (p *Portfolio) Buy(symbol string, qty, price, fee float64, at time.Time) []perf.Trade {
	p.Cash -= qty*price + fee
	pos := p.Positions[symbol]

	var closed []perf.Trade

	if pos.Qty < 0 {
		cover := qty
		if -pos.Qty < cover {
			cover = -pos.Qty
		}
		pl := (pos.AvgCost-price)*cover - fee
		p.Realized += pl
		closed = append(closed, perf.Trade{
			ID:         id.New(),
			Symbol:     symbol,
			Units:      -cover,
			EntryPrice: pos.AvgCost,
			ExitPrice:  price,
			OpenTime:   pos.OpenTime,
			CloseTime:  at,
			RealizedPL: pl,
		})
		pos.Qty += cover
		qty -= cover
		fee = 0 // charged once, against the covering leg
	}

	if qty > 0 {
		if pos.Qty == 0 {
			pos.OpenTime = at
			pos.AvgCost = price
			pos.Qty = qty
		} else {
			total := pos.Qty + qty
			pos.AvgCost = (pos.AvgCost*pos.Qty + price*qty) / total
			pos.Qty = total
		}
	}

	p.set(symbol, pos)
	return closed
}

// Sell applies a sell fill. Closing long shares realizes P&L; with
// shorting enabled, selling beyond the held quantity opens a short at
// the fill price. Returns the closed trade records.
func (p *Portfolio) Sell(symbol string, qty, price, fee float64, at time.Time) []perf.Trade {
	p.Cash += qty*price - fee
	pos := p.Positions[symbol]

	var closed []perf.Trade

	if pos.Qty > 0 {
		closing := qty
		if pos.Qty < closing {
			closing = pos.Qty
		}
		pl := (price-pos.AvgCost)*closing - fee
		p.Realized += pl
		closed = append(closed, perf.Trade{
			ID:         id.New(),
			Symbol:     symbol,
			Units:      closing,
			EntryPrice: pos.AvgCost,
			ExitPrice:  price,
			OpenTime:   pos.OpenTime,
			CloseTime:  at,
			RealizedPL: pl,
		})
		pos.Qty -= closing
		qty -= closing
		fee = 0
	}

	if qty > 0 {
		if pos.Qty == 0 {
			pos.OpenTime = at
			pos.AvgCost = price
			pos.Qty = -qty
		} else {
			// Extending an existing short.
			total := pos.Qty - qty
			pos.AvgCost = (pos.AvgCost*(-pos.Qty) + price*qty) / (-total)
			pos.Qty = total
		}
	}

	p.set(symbol, pos)
	return closed
}

func (p *Portfolio) set(symbol string, pos Position) {
	if pos.Qty == 0 {
		delete(p.Positions, symbol)
		return
	}
	p.Positions[symbol] = pos
}
