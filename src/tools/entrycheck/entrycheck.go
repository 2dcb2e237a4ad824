// Package entrycheck inspects the first instructions of a RISC-V image and
// decides whether they are a valid trampoline: code that points sp at a
// linker-provided address without using any stack, then jumps away for good.
package entrycheck

import (
	"encoding/binary"
	"fmt"
)

// MaxInstructions bounds how far the check looks for the final jump.
const MaxInstructions = 16

type Report struct {
	Instructions int
	// Size is the number of bytes up to and including the jump.
	Size int
	// JumpOffset is the jump target relative to the jump instruction.
	JumpOffset int64
	// JumpAt is the offset of the jump from the start of the code.
	JumpAt int
}

// Target is the jump destination for code that starts at base.
func (r Report) Target(base uint64) uint64 {
	return base + uint64(int64(r.JumpAt)+r.JumpOffset)
}

type violation struct {
	what string
}

func (v *violation) Error() string {
	return v.what
}

var StackAccess error = &violation{"memory access through sp"}
var StackNotSet error = &violation{"sp not set from an absolute or pc-relative address"}
var IndirectJump error = &violation{"indirect jump"}
var Branch error = &violation{"conditional branch"}
var Call error = &violation{"call that could return into the entry"}
var NoJump error = &violation{"no unconditional jump"}
var Truncated error = &violation{"code ends inside an instruction"}

// CheckError locates a violation in the code.
type CheckError struct {
	Offset int
	Inst   uint32
	Err    error
}

func (c *CheckError) Error() string {
	return fmt.Sprintf("offset %#x (inst %#x): %v", c.Offset, c.Inst, c.Err)
}

func (c *CheckError) Unwrap() error {
	return c.Err
}

// checker tracks which registers hold a value computed only from the pc and
// immediates. x0 always does.
type checker struct {
	known [32]bool
}

func (c *checker) setFrom(rd uint32, ok bool) {
	if rd != regZero {
		c.known[rd] = ok
	}
}

// CheckCode decodes code from its first byte until the first unconditional
// jump. Both 32 bit and compressed encodings are understood.
func CheckCode(code []byte) (Report, error) {
	var c checker
	c.known[regZero] = true
	var r Report
	off := 0
	for r.Instructions < MaxInstructions {
		if off+2 > len(code) {
			break
		}
		low := binary.LittleEndian.Uint16(code[off:])
		var done bool
		var jump int32
		var err error
		size := 2
		var inst uint32
		if low&3 == 3 {
			if off+4 > len(code) {
				return r, &CheckError{off, uint32(low), Truncated}
			}
			size = 4
			inst = binary.LittleEndian.Uint32(code[off:])
			done, jump, err = c.step32(inst)
		} else {
			inst = uint32(low)
			done, jump, err = c.step16(low)
		}
		if err != nil {
			return r, &CheckError{off, inst, err}
		}
		r.Instructions++
		if done {
			if !c.known[regSP] {
				return r, &CheckError{off, inst, StackNotSet}
			}
			r.JumpAt = off
			r.JumpOffset = int64(jump)
			r.Size = off + size
			return r, nil
		}
		off += size
	}
	return r, &CheckError{off, 0, NoJump}
}

func (c *checker) step32(inst uint32) (bool, int32, error) {
	op := inst & 0x7f
	rd := (inst >> 7) & 31
	rs1 := (inst >> 15) & 31
	switch op {
	case opLUI, opAUIPC:
		c.setFrom(rd, true)
	case opImm, opImm32:
		c.setFrom(rd, c.known[rs1])
	case opLoad, opLoadFP:
		if rs1 == regSP {
			return false, 0, StackAccess
		}
		c.setFrom(rd, false)
	case opStore, opStoreF:
		if rs1 == regSP {
			return false, 0, StackAccess
		}
	case opAMO:
		if rs1 == regSP {
			return false, 0, StackAccess
		}
		c.setFrom(rd, false)
	case opJAL:
		if rd != regZero {
			return false, 0, Call
		}
		return true, immJ(inst), nil
	case opJALR:
		return false, 0, IndirectJump
	case opBranch:
		return false, 0, Branch
	case opSystem:
		c.setFrom(rd, false)
	default:
		c.setFrom(rd, false)
	}
	return false, 0, nil
}

func (c *checker) step16(inst uint16) (bool, int32, error) {
	funct3 := inst >> 13
	rd := uint32(inst>>7) & 31
	rs2 := uint32(inst>>2) & 31
	// x8-x15 encoded in three bits
	rdPrime := uint32(inst>>2)&7 + 8
	rs1Prime := uint32(inst>>7)&7 + 8
	switch inst & 3 {
	case 0:
		switch funct3 {
		case 0: // c.addi4spn
			c.setFrom(rdPrime, c.known[regSP])
		case 1, 2, 3: // c.fld, c.lw, c.ld
			c.setFrom(rdPrime, false)
		}
	case 1:
		switch funct3 {
		case 0, 1: // c.addi, c.addiw
		case 2: // c.li
			c.setFrom(rd, true)
		case 3: // c.addi16sp or c.lui
			if rd != regSP {
				c.setFrom(rd, true)
			}
		case 4: // arithmetic on x8-x15
			c.setFrom(rs1Prime, false)
		case 5: // c.j
			return true, immCJ(inst), nil
		case 6, 7:
			return false, 0, Branch
		}
	case 2:
		switch funct3 {
		case 0: // c.slli
		case 1, 2, 3: // c.fldsp, c.lwsp, c.ldsp
			return false, 0, StackAccess
		case 4:
			bit12 := inst>>12&1 == 1
			switch {
			case !bit12 && rs2 == 0: // c.jr
				return false, 0, IndirectJump
			case !bit12: // c.mv
				c.setFrom(rd, c.known[rs2])
			case rs2 == 0 && rd == 0: // c.ebreak
			case rs2 == 0: // c.jalr
				return false, 0, IndirectJump
			default: // c.add
				c.setFrom(rd, c.known[rd] && c.known[rs2])
			}
		case 5, 6, 7: // c.fsdsp, c.swsp, c.sdsp
			return false, 0, StackAccess
		}
	}
	return false, 0, nil
}
