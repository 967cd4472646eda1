// Package console prints kernel diagnostics one byte at a time through the
// platform's putchar.
package console

import "fmt"

// Putcharer is the byte sink behind the console, usually SBI
// console_putchar or a UART register.
type Putcharer interface {
	Putchar(c byte)
}

// PutcharFunc adapts a plain function to Putcharer.
type PutcharFunc func(c byte)

func (f PutcharFunc) Putchar(c byte) { f(c) }

// Console is the kernel's formatted output. It is not safe for concurrent
// use; the kernel runs on a single hart.
type Console struct {
	out Putcharer
}

func New(out Putcharer) *Console {
	return &Console{out: out}
}

// Write sends p byte by byte. Multi-byte UTF-8 sequences go out as their
// individual bytes, which is what the firmware expects.
func (c *Console) Write(p []byte) (int, error) {
	for _, b := range p {
		c.out.Putchar(b)
	}
	return len(p), nil
}

func (c *Console) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		c.out.Putchar(s[i])
	}
	return len(s), nil
}

func (c *Console) Printf(format string, args ...any) {
	fmt.Fprintf(c, format, args...)
}

func (c *Console) Println(args ...any) {
	fmt.Fprintln(c, args...)
}

// Panicf prints a fatal message in bold red so it stands out on a serial
// terminal.
func (c *Console) Panicf(format string, args ...any) {
	c.WriteString("\x1b[1;31mpanic: '")
	fmt.Fprintf(c, format, args...)
	c.WriteString("'\x1b[0m\n")
}

