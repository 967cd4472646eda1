// Package sbi calls into the machine-mode firmware (OpenSBI) through the
// legacy Supervisor Binary Interface.
package sbi

// Legacy extension IDs, passed in a7.
const (
	SET_TIMER              = 0
	CONSOLE_PUTCHAR        = 1
	CONSOLE_GETCHAR        = 2
	CLEAR_IPI              = 3
	SEND_IPI               = 4
	REMOTE_FENCE_I         = 5
	REMOTE_SFENCE_VMA      = 6
	REMOTE_SFENCE_VMA_ASID = 7
	SHUTDOWN               = 8
)

// Ecaller executes the ecall instruction with which in a7 and the arguments
// in a0..a2, returning a0.
type Ecaller interface {
	Ecall(which, arg0, arg1, arg2 uint64) uint64
}

type EcallFunc func(which, arg0, arg1, arg2 uint64) uint64

func (f EcallFunc) Ecall(which, arg0, arg1, arg2 uint64) uint64 {
	return f(which, arg0, arg1, arg2)
}

type Client struct {
	ecall Ecaller
}

func New(e Ecaller) *Client {
	return &Client{ecall: e}
}

// SetTimer programs the next timer interrupt for the absolute time
// stime_value and clears the pending timer bit.
func (c *Client) SetTimer(stimeValue uint64) {
	c.ecall.Ecall(SET_TIMER, stimeValue, 0, 0)
}

func (c *Client) ConsolePutchar(ch byte) {
	c.ecall.Ecall(CONSOLE_PUTCHAR, uint64(ch), 0, 0)
}

// Putchar lets the client back a console.Console.
func (c *Client) Putchar(ch byte) { c.ConsolePutchar(ch) }

// ConsoleGetchar returns the next input byte, or -1 when none is waiting.
func (c *Client) ConsoleGetchar() int {
	return int(int64(c.ecall.Ecall(CONSOLE_GETCHAR, 0, 0, 0)))
}

// Shutdown powers the machine off. It does not return.
func (c *Client) Shutdown() {
	c.ecall.Ecall(SHUTDOWN, 0, 0, 0)
	panic("sbi: shutdown returned")
}
