package console

import (
	"strings"
	"testing"
)

func capture() (*Console, *strings.Builder) {
	var sb strings.Builder
	return New(PutcharFunc(func(c byte) { sb.WriteByte(c) })), &sb
}

func TestPrintf(t *testing.T) {
	con, out := capture()
	con.Printf("%d tick\n", 100)
	con.Printf("Breakpoint at 0x%x\n", uint64(0x80200000))
	want := "100 tick\nBreakpoint at 0x80200000\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestUTF8GoesOutBytewise(t *testing.T) {
	var got []byte
	con := New(PutcharFunc(func(c byte) { got = append(got, c) }))
	con.Printf("%c", '你')
	if len(got) != 3 || string(got) != "你" {
		t.Errorf("got % x, want the 3-byte UTF-8 encoding", got)
	}
}

func TestPanicf(t *testing.T) {
	con, out := capture()
	con.Panicf("Unresolved interrupt: %s", "Exception(IllegalInstruction)")
	s := out.String()
	if !strings.HasPrefix(s, "\x1b[1;31mpanic: 'Unresolved interrupt") || !strings.HasSuffix(s, "\x1b[0m\n") {
		t.Errorf("unexpected panic line %q", s)
	}
}
