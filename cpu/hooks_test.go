package cpu

import "testing"

func TestHookAddRejectsUnsupportedType(t *testing.T) {
	h := NewHooks(nil, nil)
	if _, err := h.HookAdd(HOOK_CODE, func() {}, 0, ^uint64(0)); err == nil {
		t.Fatal("expected an error for a hook type this glue layer doesn't model")
	}
}

func TestHookAddWrongCallbackTypePanics(t *testing.T) {
	h := NewHooks(nil, nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic from the type assertion on a mismatched callback signature")
		}
	}()
	h.HookAdd(HOOK_MEM_ERR, func() {}, 0, ^uint64(0))
}

func TestOnFaultDispatchesToEveryMatchingHook(t *testing.T) {
	h := NewHooks(nil, nil)
	var calls int
	cb := func(c Cpu, access int, addr uint64, size int, val int64) bool {
		calls++
		return false
	}
	if _, err := h.HookAdd(HOOK_MEM_ERR, cb, 0, 0xff); err != nil {
		t.Fatal(err)
	}
	if _, err := h.HookAdd(HOOK_MEM_ERR, cb, 0, ^uint64(0)); err != nil {
		t.Fatal(err)
	}

	if h.OnFault(MEM_READ_UNMAPPED, 0x10, 4, 0) {
		t.Fatal("expected false when no hook claims the fault")
	}
	if calls != 2 {
		t.Fatalf("expected both overlapping hooks to run, got %d calls", calls)
	}
}

func TestOnFaultShortCircuitsOnFirstRecoverableVerdict(t *testing.T) {
	h := NewHooks(nil, nil)
	var secondCalled bool
	if _, err := h.HookAdd(HOOK_MEM_ERR, func(c Cpu, access int, addr uint64, size int, val int64) bool {
		return true
	}, 0, ^uint64(0)); err != nil {
		t.Fatal(err)
	}
	if _, err := h.HookAdd(HOOK_MEM_ERR, func(c Cpu, access int, addr uint64, size int, val int64) bool {
		secondCalled = true
		return true
	}, 0, ^uint64(0)); err != nil {
		t.Fatal(err)
	}

	if !h.OnFault(MEM_WRITE_UNMAPPED, 0x10, 4, 0) {
		t.Fatal("expected true once any hook claims the fault")
	}
	if secondCalled {
		t.Fatal("expected dispatch to stop at the first recoverable verdict")
	}
}

func TestHookDelRemovesOnlyThatHook(t *testing.T) {
	h := NewHooks(nil, nil)
	var aCalled, bCalled bool
	ha, err := h.HookAdd(HOOK_MEM_ERR, func(c Cpu, access int, addr uint64, size int, val int64) bool {
		aCalled = true
		return false
	}, 0, ^uint64(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.HookAdd(HOOK_MEM_ERR, func(c Cpu, access int, addr uint64, size int, val int64) bool {
		bCalled = true
		return false
	}, 0, ^uint64(0)); err != nil {
		t.Fatal(err)
	}

	if err := h.HookDel(ha); err != nil {
		t.Fatal(err)
	}
	h.OnFault(MEM_READ_UNMAPPED, 0, 4, 0)
	if aCalled {
		t.Fatal("expected the deleted hook not to run")
	}
	if !bCalled {
		t.Fatal("expected the remaining hook to still run")
	}
}

func TestNewHooksWiresMemFaultDispatch(t *testing.T) {
	m := newMappedMem(t)
	var claimed bool
	h := NewHooks(nil, m)
	if _, err := h.HookAdd(HOOK_MEM_ERR, func(c Cpu, access int, addr uint64, size int, val int64) bool {
		claimed = true
		return true
	}, 0, ^uint64(0)); err != nil {
		t.Fatal(err)
	}

	if _, err := m.MemRead(0x50000, 4); err == nil {
		t.Fatal("expected an error from an unmapped read")
	}
	if !claimed {
		t.Fatal("expected Mem.MemRead to route its fault through the wired Hooks")
	}
}
