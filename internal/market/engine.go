package market

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"QuantumTrader/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateSymbol is returned by Register for an already-registered symbol.
	ErrDuplicateSymbol = errors.New("duplicate symbol")
	// ErrNotFound is returned by Quote and SetPrice for an unknown symbol.
	ErrNotFound = errors.New("symbol not found")
)

const (
	maxHistory = 200
	// Each tick moves every price by a uniform ±2%, with a 3% chance of an
	// extra ±4% spike on top.
	maxDeltaPercent  = 2.0
	spikeProbability = 0.03
	maxSpikeFraction = 0.04
)

// priceFloor is the minimum quotable price, 0.01.
var priceFloor = decimal.New(1, -2)

type instrument struct {
	mu      sync.Mutex
	symbol  string
	name    string
	price   decimal.Decimal
	history []model.PricePoint
}

// Engine owns the instrument set and advances every price on a fixed cadence.
// Readers only ever receive value snapshots; mutation happens exclusively in
// the tick, under a per-instrument lock.
type Engine struct {
	mu          sync.RWMutex // guards instruments map and registration order
	instruments map[string]*instrument
	order       []string

	runMu   sync.Mutex // guards cron lifecycle
	cron    *cron.Cron
	running bool

	tickMu sync.Mutex // serializes ticks; also guards rng
	rng    *rand.Rand
}

// NewEngine creates an engine with an empty instrument set.
func NewEngine() *Engine {
	return &Engine{
		instruments: make(map[string]*instrument),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Register adds an instrument at the given starting price. The price is
// rounded to 2 decimals and floored at 0.01, and seeds the first history
// point.
func (e *Engine) Register(symbol, name string, price decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.instruments[symbol]; ok {
		return fmt.Errorf("register %s: %w", symbol, ErrDuplicateSymbol)
	}
	p := clamp(price.Round(2))
	e.instruments[symbol] = &instrument{
		symbol:  symbol,
		name:    name,
		price:   p,
		history: []model.PricePoint{{Time: time.Now(), Price: p}},
	}
	e.order = append(e.order, symbol)
	return nil
}

// Start begins periodic price advancement. The first tick fires immediately,
// then every interval. onTick, if non-nil, is notified after each completed
// tick; observer failures are swallowed so they can never stop the
// simulation. A second Start while running is a no-op.
func (e *Engine) Start(interval time.Duration, onTick func()) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if e.running {
		return nil
	}

	c := cron.New(cron.WithSeconds())
	spec := fmt.Sprintf("@every %s", interval)
	if _, err := c.AddFunc(spec, func() {
		e.tick()
		notify(onTick)
	}); err != nil {
		return fmt.Errorf("schedule tick %q: %w", spec, err)
	}

	e.tick()
	notify(onTick)

	c.Start()
	e.cron = c
	e.running = true
	log.Printf("[INFO] market engine started, tick interval %s", interval)
	return nil
}

// Stop halts the tick schedule. It blocks until any in-flight tick has
// completed; no tick fires after Stop returns. Safe to call when never
// started.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	if !e.running {
		return
	}
	<-e.cron.Stop().Done()
	e.cron = nil
	e.running = false
	log.Println("[INFO] market engine stopped")
}

// Quote returns a value snapshot of one instrument.
func (e *Engine) Quote(symbol string) (model.Instrument, error) {
	e.mu.RLock()
	inst, ok := e.instruments[symbol]
	e.mu.RUnlock()
	if !ok {
		return model.Instrument{}, fmt.Errorf("quote %s: %w", symbol, ErrNotFound)
	}
	return inst.snapshot(), nil
}

// List returns snapshots of all instruments in registration order.
func (e *Engine) List() []model.Instrument {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]model.Instrument, 0, len(e.order))
	for _, sym := range e.order {
		out = append(out, e.instruments[sym].snapshot())
	}
	return out
}

// SetPrice overrides one instrument's price directly, bypassing the random
// walk. The override is rounded, floored and recorded in history exactly
// like a tick.
func (e *Engine) SetPrice(symbol string, price decimal.Decimal) error {
	e.mu.RLock()
	inst, ok := e.instruments[symbol]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("set price %s: %w", symbol, ErrNotFound)
	}
	inst.setPrice(price)
	return nil
}

// tick advances every instrument once. Ticks are serialized so a slow pass
// never overlaps the next one.
func (e *Engine) tick() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	e.mu.RLock()
	insts := make([]*instrument, 0, len(e.order))
	for _, sym := range e.order {
		insts = append(insts, e.instruments[sym])
	}
	e.mu.RUnlock()

	for _, inst := range insts {
		pct := e.rng.Float64()*2*maxDeltaPercent - maxDeltaPercent
		factor := decimal.NewFromFloat(1 + pct/100)
		if e.rng.Float64() < spikeProbability {
			spike := e.rng.Float64()*2*maxSpikeFraction - maxSpikeFraction
			factor = factor.Mul(decimal.NewFromFloat(1 + spike))
		}
		inst.mu.Lock()
		next := inst.price.Mul(factor)
		inst.applyPrice(next)
		inst.mu.Unlock()
	}
}

func (inst *instrument) snapshot() model.Instrument {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	hist := make([]model.PricePoint, len(inst.history))
	copy(hist, inst.history)
	return model.Instrument{
		Symbol:  inst.symbol,
		Name:    inst.name,
		Price:   inst.price,
		History: hist,
	}
}

func (inst *instrument) setPrice(p decimal.Decimal) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.applyPrice(p)
}

// applyPrice rounds, floors and records the new price. Caller holds inst.mu,
// so price and history always move together.
func (inst *instrument) applyPrice(p decimal.Decimal) {
	p = clamp(p.Round(2))
	inst.price = p
	inst.history = append(inst.history, model.PricePoint{Time: time.Now(), Price: p})
	if len(inst.history) > maxHistory {
		inst.history = inst.history[len(inst.history)-maxHistory:]
	}
}

func clamp(p decimal.Decimal) decimal.Decimal {
	if p.LessThan(priceFloor) {
		return priceFloor
	}
	return p
}

func notify(onTick func()) {
	if onTick == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] tick observer panicked: %v", r)
		}
	}()
	onTick()
}
