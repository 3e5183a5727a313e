// Package intcode implements the Intcode virtual machine.
//
// A Machine owns a copy of a program's memory, an instruction pointer and two
// FIFO integer queues. Run executes instructions until the program halts
// (StateFinished), an input instruction finds the input queue empty
// (StateSuspended) or a fault aborts the call. Suspension is not an error: the
// instruction pointer is left on the blocked input instruction, so supplying
// input and calling Run again resumes exactly where the machine stopped.
//
// # Instruction format
//
// The opcode is the instruction word modulo 100. The remaining digits, read
// least significant first, select the addressing mode of each parameter:
// 0 is position mode (the parameter is an address), any other digit is
// immediate mode (the parameter is the operand). Destination parameters are
// always literal addresses.
//
//	opcode  operands       effect
//	1       a, b, dst      dst <- a + b
//	2       a, b, dst      dst <- a * b
//	3       dst            dst <- next input (suspends when none)
//	4       a              output a
//	5       a, target      jump to target if a != 0
//	6       a, target      jump to target if a == 0
//	7       a, b, dst      dst <- 1 if a < b else 0
//	8       a, b, dst      dst <- 1 if a == b else 0
//	99                     halt
//
// # Usage
//
//	prog, err := intcode.Parse("3,0,4,0,99")
//	if err != nil {
//	    return err
//	}
//	m := intcode.New(prog)
//	state, err := m.Run() // StateSuspended: no input yet
//	m.SupplyInput(7)
//	state, err = m.Run() // StateFinished
//	out, _ := m.TakeOutput() // 7
//
// Machines are not safe for concurrent use. Clone produces an independent deep
// copy, which is how callers fan a loaded program out to parallel trials.
package intcode
