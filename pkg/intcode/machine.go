package intcode

import (
	"context"
	"fmt"
)

// State is the execution status of a machine.
type State string

const (
	// StateWorking is the initial state and the state while instructions execute.
	StateWorking State = "working"

	// StateSuspended means an input instruction found the input queue empty.
	// The instruction pointer still addresses that instruction.
	StateSuspended State = "suspended"

	// StateFinished means the halt opcode was reached. It is terminal.
	StateFinished State = "finished"
)

// IsTerminal reports whether no further execution is possible.
func (s State) IsTerminal() bool {
	return s == StateFinished
}

// cancelCheckInterval is how many instructions RunContext executes between
// context checks.
const cancelCheckInterval = 4096

// Machine is a single Intcode virtual machine. The zero value is an empty
// machine whose first Run faults; use New.
type Machine struct {
	memory []int64
	ip     int
	state  State
	input  []int64
	output []int64
	steps  uint64
}

// New creates a machine whose memory is an independent copy of program.
func New(program []int64) *Machine {
	memory := make([]int64, len(program))
	copy(memory, program)
	return &Machine{
		memory: memory,
		state:  StateWorking,
	}
}

// Clone returns a deep copy of the machine: memory, instruction pointer,
// state and both queues. Running the clone never affects the original.
func (m *Machine) Clone() *Machine {
	return &Machine{
		memory: append([]int64(nil), m.memory...),
		ip:     m.ip,
		state:  m.state,
		input:  append([]int64(nil), m.input...),
		output: append([]int64(nil), m.output...),
		steps:  m.steps,
	}
}

// SupplyInput appends v to the tail of the input queue.
func (m *Machine) SupplyInput(v int64) {
	m.input = append(m.input, v)
}

// TakeOutput removes and returns the oldest queued output. The boolean is
// false when the output queue is empty.
func (m *Machine) TakeOutput() (int64, bool) {
	if len(m.output) == 0 {
		return 0, false
	}
	v := m.output[0]
	m.output = m.output[1:]
	return v, true
}

// DrainOutput removes and returns every queued output in FIFO order.
func (m *Machine) DrainOutput() []int64 {
	out := m.output
	m.output = nil
	return out
}

// PendingInput returns the number of queued, unconsumed input values.
func (m *Machine) PendingInput() int {
	return len(m.input)
}

// PendingOutput returns the number of queued output values.
func (m *Machine) PendingOutput() int {
	return len(m.output)
}

// Peek returns the value stored at addr.
func (m *Machine) Peek(addr int) (int64, error) {
	if addr < 0 || addr >= len(m.memory) {
		return 0, m.memoryFault("peek", int64(addr))
	}
	return m.memory[addr], nil
}

// Poke stores v at addr.
func (m *Machine) Poke(addr int, v int64) error {
	if addr < 0 || addr >= len(m.memory) {
		return m.memoryFault("poke", int64(addr))
	}
	m.memory[addr] = v
	return nil
}

// Memory returns a copy of the machine's memory.
func (m *Machine) Memory() []int64 {
	return append([]int64(nil), m.memory...)
}

// Size returns the number of memory cells.
func (m *Machine) Size() int {
	return len(m.memory)
}

// State returns the state reached by the last Run.
func (m *Machine) State() State {
	return m.state
}

// IP returns the instruction pointer.
func (m *Machine) IP() int {
	return m.ip
}

// Steps returns the number of instructions executed so far, not counting
// halts and suspended input attempts.
func (m *Machine) Steps() uint64 {
	return m.steps
}

// Run executes instructions until the machine halts or suspends. A fault
// aborts the call and is returned as a *Fault; the instruction pointer is left
// on the faulting instruction. Running a finished machine returns
// StateFinished immediately.
func (m *Machine) Run() (State, error) {
	m.state = StateWorking
	for m.state == StateWorking {
		if err := m.step(); err != nil {
			return m.state, err
		}
	}
	return m.state, nil
}

// RunContext behaves like Run but returns ctx.Err() if the context is done.
// Cancellation happens between instructions, so a cancelled machine can be
// resumed with another Run.
func (m *Machine) RunContext(ctx context.Context) (State, error) {
	m.state = StateWorking
	for n := 0; m.state == StateWorking; n++ {
		if n%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return m.state, fmt.Errorf("intcode: run interrupted at ip=%d: %w", m.ip, err)
			}
		}
		if err := m.step(); err != nil {
			return m.state, err
		}
	}
	return m.state, nil
}

// step fetches, decodes and executes the instruction at the pointer.
func (m *Machine) step() error {
	if m.ip < 0 || m.ip >= len(m.memory) {
		return m.memoryFault("fetch", int64(m.ip))
	}
	word := m.memory[m.ip]
	op, modes := Decode(word)
	inst, ok := lookup(op)
	if !ok {
		return &Fault{Kind: DecodeFault, Op: "decode", IP: m.ip, Word: word}
	}

	next, err := inst.exec(m, modes)
	if err != nil {
		if f, ok := err.(*Fault); ok {
			f.Word = word
		}
		return err
	}
	if next == StateWorking {
		m.steps++
	}
	m.state = next
	return nil
}

// param returns the raw value of the n-th parameter of the current instruction.
func (m *Machine) param(n int, op string) (int64, error) {
	addr := m.ip + n
	if addr >= len(m.memory) {
		return 0, m.memoryFault(op, int64(addr))
	}
	return m.memory[addr], nil
}

// operand resolves the n-th parameter according to its mode.
func (m *Machine) operand(n int, modes Modes, op string) (int64, error) {
	p, err := m.param(n, op)
	if err != nil {
		return 0, err
	}
	if modes.Param(n) == ModeImmediate {
		return p, nil
	}
	if p < 0 || p >= int64(len(m.memory)) {
		return 0, m.memoryFault(op, p)
	}
	return m.memory[p], nil
}

// destination resolves the n-th parameter as a write address. The mode digit
// is ignored: destinations are always literal addresses.
func (m *Machine) destination(n int, op string) (int, error) {
	p, err := m.param(n, op)
	if err != nil {
		return 0, err
	}
	if p < 0 || p >= int64(len(m.memory)) {
		return 0, m.memoryFault(op, p)
	}
	return int(p), nil
}

func (m *Machine) arith(modes Modes, op string, fn func(a, b int64) (int64, bool)) (State, error) {
	a, b, dst, err := m.binary(modes, op)
	if err != nil {
		return StateWorking, err
	}
	v, ok := fn(a, b)
	if !ok {
		return StateWorking, &Fault{Kind: OverflowFault, Op: op, IP: m.ip}
	}
	m.memory[dst] = v
	m.ip += 4
	return StateWorking, nil
}

func (m *Machine) compare(modes Modes, op string, fn func(a, b int64) bool) (State, error) {
	a, b, dst, err := m.binary(modes, op)
	if err != nil {
		return StateWorking, err
	}
	if fn(a, b) {
		m.memory[dst] = 1
	} else {
		m.memory[dst] = 0
	}
	m.ip += 4
	return StateWorking, nil
}

// binary resolves the two operands and the destination of a three-parameter
// instruction.
func (m *Machine) binary(modes Modes, op string) (a, b int64, dst int, err error) {
	if a, err = m.operand(1, modes, op); err != nil {
		return 0, 0, 0, err
	}
	if b, err = m.operand(2, modes, op); err != nil {
		return 0, 0, 0, err
	}
	if dst, err = m.destination(3, op); err != nil {
		return 0, 0, 0, err
	}
	return a, b, dst, nil
}

func (m *Machine) jump(modes Modes, op string, taken func(int64) bool) (State, error) {
	cond, err := m.operand(1, modes, op)
	if err != nil {
		return StateWorking, err
	}
	target, err := m.operand(2, modes, op)
	if err != nil {
		return StateWorking, err
	}
	if !taken(cond) {
		m.ip += 3
		return StateWorking, nil
	}
	if target < 0 || target >= int64(len(m.memory)) {
		return StateWorking, m.memoryFault(op, target)
	}
	m.ip = int(target)
	return StateWorking, nil
}

func (m *Machine) memoryFault(op string, addr int64) *Fault {
	return &Fault{Kind: MemoryFault, Op: op, IP: m.ip, Address: addr}
}
