package mac68k

import (
	"testing"

	"github.com/mtennes/macemu/cpu"
	"github.com/mtennes/macemu/cpu/mock"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	c := mock.New()
	want := &Snapshot{
		D: [8]uint32{1, 2, 3, 4, 5, 6, 7, 8},
		A: [7]uint32{10, 20, 30, 40, 50, 60, 70},
	}
	if err := Unmarshal(c, want); err != nil {
		t.Fatal(err)
	}
	got, err := Marshal(c)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestUnmarshalDoesNotTouchSP(t *testing.T) {
	c := mock.New()
	if err := c.RegWrite(cpu.GPR(1), 0xdeadbeef); err != nil {
		t.Fatal(err)
	}
	if err := Unmarshal(c, &Snapshot{}); err != nil {
		t.Fatal(err)
	}
	sp, err := SP(c)
	if err != nil {
		t.Fatal(err)
	}
	if sp != 0xdeadbeef {
		t.Fatalf("SP clobbered: got %#x", sp)
	}
}
