package intcode

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, text string) Program {
	t.Helper()
	prog, err := Parse(text)
	if err != nil {
		t.Fatalf("failed to parse program %q: %v", text, err)
	}
	return prog
}

func TestMachine_AddMultiply(t *testing.T) {
	m := New(mustParse(t, "1,9,10,3,2,3,11,0,99,30,40,50"))

	state, err := m.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if state != StateFinished {
		t.Fatalf("Expected state %s, got %s", StateFinished, state)
	}

	v, err := m.Peek(0)
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if v != 3500 {
		t.Errorf("Expected memory[0]=3500, got %d", v)
	}
}

func TestMachine_FinalMemory(t *testing.T) {
	tests := []struct {
		name    string
		program string
		inputs  []int64
		want    []int64
	}{
		{"add", "1,0,0,0,99", nil, []int64{2, 0, 0, 0, 99}},
		{"multiply", "2,3,0,3,99", nil, []int64{2, 3, 0, 6, 99}},
		{"multiply far", "2,4,4,5,99,0", nil, []int64{2, 4, 4, 5, 99, 9801}},
		{"self modifying", "1,1,1,4,99,5,6,0,99", nil, []int64{30, 1, 1, 4, 2, 5, 6, 0, 99}},
		{"immediate multiply", "1002,4,3,4,33", nil, []int64{1002, 4, 3, 4, 99}},
		{"negative immediate", "1101,100,-1,4,0", nil, []int64{1101, 100, -1, 4, 99}},
		{"beyond 32 bits", "1102,3000000000,3000000000,0,99", nil, []int64{9000000000000000000, 3000000000, 3000000000, 0, 99}},
		// A mode digit on a write parameter is ignored: it is always an address.
		{"add with destination mode", "11101,2,3,5,99,0", nil, []int64{11101, 2, 3, 5, 99, 5}},
		{"multiply with destination mode", "11102,3,4,5,99,0", nil, []int64{11102, 3, 4, 5, 99, 12}},
		{"input with destination mode", "103,3,99,0", []int64{42}, []int64{103, 3, 99, 42}},
		{"less than with destination mode", "11107,1,2,5,99,7", nil, []int64{11107, 1, 2, 5, 99, 1}},
		{"equals with destination mode", "11108,4,4,5,99,0", nil, []int64{11108, 4, 4, 5, 99, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(mustParse(t, tt.program))
			for _, v := range tt.inputs {
				m.SupplyInput(v)
			}
			state, err := m.Run()
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if state != StateFinished {
				t.Fatalf("Expected state %s, got %s", StateFinished, state)
			}
			if got := m.Memory(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected memory %v, got %v", tt.want, got)
			}
		})
	}
}

func TestMachine_HaltLeavesStateUntouched(t *testing.T) {
	prog := mustParse(t, "99,5,6")
	m := New(prog)

	for i := 0; i < 3; i++ {
		state, err := m.Run()
		if err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
		if state != StateFinished {
			t.Errorf("Run %d: expected state %s, got %s", i, StateFinished, state)
		}
		if m.IP() != 0 {
			t.Errorf("Run %d: expected ip 0, got %d", i, m.IP())
		}
		if !reflect.DeepEqual(m.Memory(), []int64(prog)) {
			t.Errorf("Run %d: memory changed to %v", i, m.Memory())
		}
	}
	if m.Steps() != 0 {
		t.Errorf("Expected 0 steps, got %d", m.Steps())
	}
}

func TestMachine_EchoSuspendResume(t *testing.T) {
	m := New(mustParse(t, "3,0,4,0,99"))

	state, err := m.Run()
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if state != StateSuspended {
		t.Fatalf("Expected state %s, got %s", StateSuspended, state)
	}
	if m.IP() != 0 {
		t.Errorf("Expected ip 0 while suspended, got %d", m.IP())
	}
	if _, ok := m.TakeOutput(); ok {
		t.Error("Expected no output before input is supplied")
	}

	m.SupplyInput(7)
	state, err = m.Run()
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if state != StateFinished {
		t.Fatalf("Expected state %s, got %s", StateFinished, state)
	}

	out, ok := m.TakeOutput()
	if !ok || out != 7 {
		t.Errorf("Expected output 7, got %d (ok=%v)", out, ok)
	}
	if _, ok := m.TakeOutput(); ok {
		t.Error("Expected output queue to be empty")
	}
}

func TestMachine_SuspensionIsIdempotent(t *testing.T) {
	m := New(mustParse(t, "1101,2,3,20,3,0,4,0,99,0,0,0,0,0,0,0,0,0,0,0,0"))

	state, err := m.Run()
	if err != nil || state != StateSuspended {
		t.Fatalf("Expected suspension, got state=%s err=%v", state, err)
	}
	ip := m.IP()
	memory := m.Memory()
	steps := m.Steps()

	for i := 0; i < 5; i++ {
		state, err := m.Run()
		if err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
		if state != StateSuspended {
			t.Errorf("Run %d: expected %s, got %s", i, StateSuspended, state)
		}
		if m.IP() != ip {
			t.Errorf("Run %d: expected ip %d, got %d", i, ip, m.IP())
		}
		if !reflect.DeepEqual(m.Memory(), memory) {
			t.Errorf("Run %d: memory changed", i)
		}
		if m.Steps() != steps {
			t.Errorf("Run %d: steps changed from %d to %d", i, steps, m.Steps())
		}
	}
}

func TestMachine_InputFIFO(t *testing.T) {
	// Reads three values and echoes them back in order.
	m := New(mustParse(t, "3,13,3,14,3,15,4,13,4,14,4,15,99,0,0,0"))
	for _, v := range []int64{5, -6, 7} {
		m.SupplyInput(v)
	}

	if _, err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := m.DrainOutput(); !reflect.DeepEqual(got, []int64{5, -6, 7}) {
		t.Errorf("Expected outputs [5 -6 7], got %v", got)
	}
	if m.PendingInput() != 0 || m.PendingOutput() != 0 {
		t.Errorf("Expected empty queues, got input=%d output=%d", m.PendingInput(), m.PendingOutput())
	}
}

func TestMachine_ComparisonsAndJumps(t *testing.T) {
	const large = "3,21,1008,21,8,20,1005,20,22,107,8,21,20,1006,20,31," +
		"1106,0,36,98,0,0,1002,21,125,20,4,20,1105,1,46,104," +
		"999,1105,1,46,1101,1000,1,20,4,20,1105,1,46,98,99"

	tests := []struct {
		name    string
		program string
		input   int64
		want    int64
	}{
		{"equal position hit", "3,9,8,9,10,9,4,9,99,-1,8", 8, 1},
		{"equal position miss", "3,9,8,9,10,9,4,9,99,-1,8", 7, 0},
		{"less position hit", "3,9,7,9,10,9,4,9,99,-1,8", 5, 1},
		{"less position miss", "3,9,7,9,10,9,4,9,99,-1,8", 8, 0},
		{"equal immediate hit", "3,3,1108,-1,8,3,4,3,99", 8, 1},
		{"equal immediate miss", "3,3,1108,-1,8,3,4,3,99", 9, 0},
		{"less immediate hit", "3,3,1107,-1,8,3,4,3,99", -3, 1},
		{"less immediate miss", "3,3,1107,-1,8,3,4,3,99", 8, 0},
		{"jump position zero", "3,12,6,12,15,1,13,14,13,4,13,99,-1,0,1,9", 0, 0},
		{"jump position nonzero", "3,12,6,12,15,1,13,14,13,4,13,99,-1,0,1,9", 4, 1},
		{"jump immediate zero", "3,3,1105,-1,9,1101,0,0,12,4,12,99,1", 0, 0},
		{"jump immediate nonzero", "3,3,1105,-1,9,1101,0,0,12,4,12,99,1", -2, 1},
		{"below eight", large, 7, 999},
		{"equal eight", large, 8, 1000},
		{"above eight", large, 9, 1001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(mustParse(t, tt.program))
			m.SupplyInput(tt.input)

			state, err := m.Run()
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if state != StateFinished {
				t.Fatalf("Expected state %s, got %s", StateFinished, state)
			}
			out, ok := m.TakeOutput()
			if !ok {
				t.Fatal("Expected an output value")
			}
			if out != tt.want {
				t.Errorf("Expected output %d, got %d", tt.want, out)
			}
		})
	}
}

func TestMachine_Faults(t *testing.T) {
	tests := []struct {
		name     string
		program  string
		input    []int64
		kind     FaultKind
		sentinel error
		ip       int
	}{
		{"unknown opcode", "1,0,0,0,77", nil, DecodeFault, ErrDecode, 4},
		{"negative word", "-1", nil, DecodeFault, ErrDecode, 0},
		{"zero opcode", "100,0,0,0", nil, DecodeFault, ErrDecode, 0},
		{"destination out of range", "1,0,0,50,99", nil, MemoryFault, ErrMemory, 0},
		{"negative destination", "1,0,0,-1,99", nil, MemoryFault, ErrMemory, 0},
		{"operand out of range", "4,100,99", nil, MemoryFault, ErrMemory, 0},
		{"truncated instruction", "1,0,0", nil, MemoryFault, ErrMemory, 0},
		{"runs off the end", "1101,1,1,0", nil, MemoryFault, ErrMemory, 4},
		{"jump out of range", "1105,1,100", nil, MemoryFault, ErrMemory, 0},
		{"input destination out of range", "3,10,99", []int64{1}, MemoryFault, ErrMemory, 0},
		{"multiply overflow", "1102,9223372036854775807,2,0,99", nil, OverflowFault, ErrOverflow, 0},
		{"add overflow", "1101,9223372036854775807,1,0,99", nil, OverflowFault, ErrOverflow, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(mustParse(t, tt.program))
			for _, v := range tt.input {
				m.SupplyInput(v)
			}

			_, err := m.Run()
			if err == nil {
				t.Fatal("Expected a fault, got nil")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Expected errors.Is(err, %v), got %v", tt.sentinel, err)
			}
			fault, ok := AsFault(err)
			if !ok {
				t.Fatalf("Expected *Fault, got %T", err)
			}
			if fault.Kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, fault.Kind)
			}
			if fault.IP != tt.ip || m.IP() != tt.ip {
				t.Errorf("Expected fault at ip %d, got fault.IP=%d machine ip=%d", tt.ip, fault.IP, m.IP())
			}
			if m.State() == StateSuspended || m.State() == StateFinished {
				t.Errorf("Fault must not surface as state %s", m.State())
			}

			// Faults are deterministic: running again reports the same fault.
			if _, err := m.Run(); !errors.Is(err, tt.sentinel) {
				t.Errorf("Expected the fault to repeat, got %v", err)
			}
		})
	}
}

func TestMachine_PeekPoke(t *testing.T) {
	m := New(mustParse(t, "1,0,0,0,99"))

	if err := m.Poke(1, 4); err != nil {
		t.Fatalf("Poke failed: %v", err)
	}
	if err := m.Poke(2, 4); err != nil {
		t.Fatalf("Poke failed: %v", err)
	}
	if _, err := m.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if v, _ := m.Peek(0); v != 198 {
		t.Errorf("Expected memory[0]=198, got %d", v)
	}

	for _, addr := range []int{-1, 5, 1000} {
		if _, err := m.Peek(addr); !errors.Is(err, ErrMemory) {
			t.Errorf("Peek(%d): expected ErrMemory, got %v", addr, err)
		}
		if err := m.Poke(addr, 1); !errors.Is(err, ErrMemory) {
			t.Errorf("Poke(%d): expected ErrMemory, got %v", addr, err)
		}
	}
}

func TestMachine_CloneIsIndependent(t *testing.T) {
	prog := mustParse(t, "3,0,4,0,99")
	base := New(prog)
	base.SupplyInput(1)

	clone := base.Clone()
	clone.SupplyInput(2)
	if _, err := clone.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if base.State() != StateWorking || base.IP() != 0 {
		t.Errorf("Original changed: state=%s ip=%d", base.State(), base.IP())
	}
	if base.PendingInput() != 1 {
		t.Errorf("Expected original to keep 1 pending input, got %d", base.PendingInput())
	}
	if v, _ := base.Peek(0); v != 3 {
		t.Errorf("Original memory changed: memory[0]=%d", v)
	}
	if out := clone.DrainOutput(); !reflect.DeepEqual(out, []int64{1}) {
		t.Errorf("Expected clone output [1], got %v", out)
	}
	if clone.PendingInput() != 1 {
		t.Errorf("Expected clone to keep its second input, got %d pending", clone.PendingInput())
	}

	// The constructor copies its argument too.
	prog[0] = 99
	if v, _ := base.Peek(0); v != 3 {
		t.Errorf("Machine memory aliases the program slice")
	}
}

func TestMachine_RunContextCancelled(t *testing.T) {
	m := New(mustParse(t, "1105,1,0"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.RunContext(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if IsFault(err) {
		t.Error("Cancellation must not be reported as a fault")
	}
}

func TestMachine_RunContextCompletes(t *testing.T) {
	m := New(mustParse(t, "3,0,4,0,99"))
	m.SupplyInput(42)

	state, err := m.RunContext(context.Background())
	if err != nil {
		t.Fatalf("RunContext failed: %v", err)
	}
	if state != StateFinished {
		t.Errorf("Expected %s, got %s", StateFinished, state)
	}
	if out, _ := m.TakeOutput(); out != 42 {
		t.Errorf("Expected output 42, got %d", out)
	}
	if m.Steps() != 2 {
		t.Errorf("Expected 2 steps, got %d", m.Steps())
	}
}

func TestDecode(t *testing.T) {
	op, modes := Decode(1002)
	if op != OpMultiply {
		t.Errorf("Expected opcode %s, got %s", OpMultiply, op)
	}
	if modes.Param(1) != ModePosition || modes.Param(2) != ModeImmediate || modes.Param(3) != ModePosition {
		t.Errorf("Unexpected modes for 1002: %d %d %d", modes.Param(1), modes.Param(2), modes.Param(3))
	}

	// Any non-zero digit selects immediate mode.
	_, modes = Decode(20501)
	if modes.Param(1) != ModeImmediate || modes.Param(2) != ModePosition || modes.Param(3) != ModeImmediate {
		t.Errorf("Unexpected modes for 20501")
	}

	if OpHalt.Width() != 1 || OpAdd.Width() != 4 || OpJumpIfTrue.Width() != 3 || Opcode(42).Width() != 0 {
		t.Error("Unexpected instruction widths")
	}
	if Opcode(42).String() != "op(42)" || OpEquals.String() != "eq" {
		t.Errorf("Unexpected mnemonics: %s %s", Opcode(42), OpEquals)
	}
}
