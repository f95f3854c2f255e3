package opcode

import "testing"

func TestEncodeDecodeExecNativeRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		selector int
		viaLR    bool
	}{
		{0, false},
		{1, true},
		{31, false},
		{31, true},
	} {
		word := EncodeExecNative(tc.selector, tc.viaLR)
		if word>>primaryPos != Primary {
			t.Fatalf("primary field not 6: %#x", word)
		}
		op := Decode(word)
		if op.Kind != KindExecNative {
			t.Fatalf("kind = %v, want KindExecNative", op.Kind)
		}
		if op.Selector != tc.selector || op.ViaLR != tc.viaLR {
			t.Fatalf("got (selector=%d viaLR=%v), want (selector=%d viaLR=%v)",
				op.Selector, op.ViaLR, tc.selector, tc.viaLR)
		}
	}
}

func TestEncodeDecodeEmulOpRoundTrip(t *testing.T) {
	for idx := 0; idx < 29; idx++ {
		word := EncodeEmulOp(idx)
		op := Decode(word)
		if op.Kind != KindEmulOp {
			t.Fatalf("kind = %v, want KindEmulOp", op.Kind)
		}
		if op.Index != idx {
			t.Fatalf("index = %d, want %d", op.Index, idx)
		}
	}
}

func TestEncodeDecodeSimpleOps(t *testing.T) {
	if op := Decode(EncodeEmulReturn()); op.Kind != KindEmulReturn {
		t.Fatalf("EMUL_RETURN decoded as %v", op.Kind)
	}
	if op := Decode(EncodeExecReturn()); op.Kind != KindExecReturn {
		t.Fatalf("EXEC_RETURN decoded as %v", op.Kind)
	}
}

func TestIsSynthetic(t *testing.T) {
	if !IsSynthetic(EncodeExecReturn()) {
		t.Fatal("expected synthetic opcode to be recognized")
	}
	if IsSynthetic(0x7c0002a6) { // mfspr, a real PPC instruction
		t.Fatal("real PPC instruction misclassified as synthetic")
	}
}
