package intcode

import "fmt"

// Opcode is the low two decimal digits of an instruction word.
type Opcode int64

const (
	OpAdd         Opcode = 1  // a, b, dst: dst <- a + b
	OpMultiply    Opcode = 2  // a, b, dst: dst <- a * b
	OpInput       Opcode = 3  // dst: dst <- input, suspend if the queue is empty
	OpOutput      Opcode = 4  // a: push a to the output queue
	OpJumpIfTrue  Opcode = 5  // a, target: jump if a != 0
	OpJumpIfFalse Opcode = 6  // a, target: jump if a == 0
	OpLessThan    Opcode = 7  // a, b, dst: dst <- a < b
	OpEquals      Opcode = 8  // a, b, dst: dst <- a == b
	OpHalt        Opcode = 99 // halt
)

// String returns the mnemonic of a supported opcode.
func (op Opcode) String() string {
	if inst, ok := lookup(op); ok {
		return inst.name
	}
	return fmt.Sprintf("op(%d)", int64(op))
}

// Mode is the addressing mode of a single parameter.
type Mode int

const (
	// ModePosition treats the parameter as a memory address.
	ModePosition Mode = 0

	// ModeImmediate treats the parameter as the operand itself.
	ModeImmediate Mode = 1
)

// Modes holds the parameter-mode digits of an instruction word (the word
// divided by 100), least significant digit first.
type Modes int64

// Param returns the mode of the n-th parameter, counting from 1.
// Any non-zero digit selects immediate mode.
func (ms Modes) Param(n int) Mode {
	v := int64(ms)
	for i := 1; i < n; i++ {
		v /= 10
	}
	if v%10 == 0 {
		return ModePosition
	}
	return ModeImmediate
}

// Decode splits an instruction word into its opcode and parameter modes.
func Decode(word int64) (Opcode, Modes) {
	return Opcode(word % 100), Modes(word / 100)
}

// handler executes one decoded instruction. It either advances or sets the
// instruction pointer itself and returns the state the machine continues in.
type handler func(m *Machine, modes Modes) (State, error)

type instruction struct {
	name   string
	params int
	exec   handler
}

// instructions is the flat dispatch table, indexed by opcode.
var instructions = [100]*instruction{
	OpAdd:         {name: "add", params: 3, exec: execAdd},
	OpMultiply:    {name: "mul", params: 3, exec: execMultiply},
	OpInput:       {name: "in", params: 1, exec: execInput},
	OpOutput:      {name: "out", params: 1, exec: execOutput},
	OpJumpIfTrue:  {name: "jnz", params: 2, exec: execJumpIfTrue},
	OpJumpIfFalse: {name: "jz", params: 2, exec: execJumpIfFalse},
	OpLessThan:    {name: "lt", params: 3, exec: execLessThan},
	OpEquals:      {name: "eq", params: 3, exec: execEquals},
	OpHalt:        {name: "halt", params: 0, exec: execHalt},
}

func lookup(op Opcode) (*instruction, bool) {
	if op < 0 || op >= Opcode(len(instructions)) {
		return nil, false
	}
	inst := instructions[op]
	return inst, inst != nil
}

// Width returns the number of memory cells the instruction occupies,
// including the opcode word. It returns 0 for unsupported opcodes.
func (op Opcode) Width() int {
	if inst, ok := lookup(op); ok {
		return inst.params + 1
	}
	return 0
}

func execAdd(m *Machine, modes Modes) (State, error) {
	return m.arith(modes, "add", addInt64)
}

func execMultiply(m *Machine, modes Modes) (State, error) {
	return m.arith(modes, "mul", mulInt64)
}

func execInput(m *Machine, _ Modes) (State, error) {
	dst, err := m.destination(1, "in")
	if err != nil {
		return StateWorking, err
	}
	if len(m.input) == 0 {
		// The pointer stays on this instruction so the next Run retries it.
		return StateSuspended, nil
	}
	v := m.input[0]
	m.input = m.input[1:]
	m.memory[dst] = v
	m.ip += 2
	return StateWorking, nil
}

func execOutput(m *Machine, modes Modes) (State, error) {
	v, err := m.operand(1, modes, "out")
	if err != nil {
		return StateWorking, err
	}
	m.output = append(m.output, v)
	m.ip += 2
	return StateWorking, nil
}

func execJumpIfTrue(m *Machine, modes Modes) (State, error) {
	return m.jump(modes, "jnz", func(v int64) bool { return v != 0 })
}

func execJumpIfFalse(m *Machine, modes Modes) (State, error) {
	return m.jump(modes, "jz", func(v int64) bool { return v == 0 })
}

func execLessThan(m *Machine, modes Modes) (State, error) {
	return m.compare(modes, "lt", func(a, b int64) bool { return a < b })
}

func execEquals(m *Machine, modes Modes) (State, error) {
	return m.compare(modes, "eq", func(a, b int64) bool { return a == b })
}

func execHalt(_ *Machine, _ Modes) (State, error) {
	return StateFinished, nil
}
