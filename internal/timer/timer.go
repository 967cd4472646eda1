// Package timer keeps the supervisor timer interrupt alive and counts its
// ticks.
package timer

// Defaults for a 10 MHz timebase: 100 interrupts a second, a status line
// every second, power off after five.
const (
	DefaultInterval     = 100000
	DefaultStatusPeriod = 100
	DefaultShutdownAt   = 500
)

// Platform is what the timer needs from the hart and firmware.
type Platform interface {
	// Time reads the free-running time CSR.
	Time() uint64
	// SetTimer asks the firmware for an interrupt at the absolute time.
	SetTimer(deadline uint64)
	// EnableTimerInterrupt sets sie.STIE.
	EnableTimerInterrupt()
	// EnableInterrupts sets sstatus.SIE.
	EnableInterrupts()
	// Shutdown powers off. It must not return.
	Shutdown()
}

type Console interface {
	Printf(format string, args ...any)
}

type Config struct {
	Interval     uint64
	StatusPeriod uint64
	ShutdownAt   uint64
}

func DefaultConfig() Config {
	return Config{
		Interval:     DefaultInterval,
		StatusPeriod: DefaultStatusPeriod,
		ShutdownAt:   DefaultShutdownAt,
	}
}

// Timer owns the tick counter. Tick runs only inside trap handling, which
// is not reentrant on a single hart, so there is no locking.
type Timer struct {
	p   Platform
	con Console
	cfg Config

	ticks    uint64
	deadline uint64
}

// New fills zero fields of cfg from DefaultConfig.
func New(p Platform, con Console, cfg Config) *Timer {
	def := DefaultConfig()
	if cfg.Interval == 0 {
		cfg.Interval = def.Interval
	}
	if cfg.StatusPeriod == 0 {
		cfg.StatusPeriod = def.StatusPeriod
	}
	if cfg.ShutdownAt == 0 {
		cfg.ShutdownAt = def.ShutdownAt
	}
	return &Timer{p: p, con: con, cfg: cfg}
}

// Init enables the timer interrupt and books the first one. The trap vector
// must already be installed.
func (t *Timer) Init() {
	t.p.EnableTimerInterrupt()
	t.p.EnableInterrupts()
	t.rearm()
}

// Tick handles one timer interrupt.
func (t *Timer) Tick() {
	// Rearm before anything else: an interrupt that is not booked now is
	// never delivered.
	t.rearm()

	t.ticks++
	if t.ticks%t.cfg.StatusPeriod == 0 {
		t.con.Printf("%d tick\n", t.ticks)
	}
	if t.ticks >= t.cfg.ShutdownAt {
		t.con.Printf("Time's up! Shutting down...\n")
		t.p.Shutdown()
		panic("timer: shutdown returned")
	}
}

func (t *Timer) rearm() {
	t.deadline = t.p.Time() + t.cfg.Interval
	t.p.SetTimer(t.deadline)
}

func (t *Timer) Ticks() uint64    { return t.ticks }
func (t *Timer) Deadline() uint64 { return t.deadline }
func (t *Timer) Interval() uint64 { return t.cfg.Interval }
