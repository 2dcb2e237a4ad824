package entrycheck

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func immJ(inst uint32) int32 {
	// [20|10:1|11|19:12] << 1
	imm := ((inst>>31)&1)<<20 |
		((inst>>21)&0x3FF)<<1 |
		((inst>>20)&1)<<11 |
		((inst>>12)&0xFF)<<12
	return signExtend(imm, 21)
}

// immCJ is the offset of c.j and c.jal.
func immCJ(inst uint16) int32 {
	// [11|4|9:8|10|6|7|3:1|5]
	i := uint32(inst)
	imm := ((i>>12)&1)<<11 |
		((i>>11)&1)<<4 |
		((i>>9)&3)<<8 |
		((i>>8)&1)<<10 |
		((i>>7)&1)<<6 |
		((i>>6)&1)<<7 |
		((i>>3)&7)<<1 |
		((i>>2)&1)<<5
	return signExtend(imm, 12)
}

const (
	opLoad   = 0x03
	opLoadFP = 0x07
	opImm    = 0x13
	opAUIPC  = 0x17
	opImm32  = 0x1b
	opStore  = 0x23
	opStoreF = 0x27
	opAMO    = 0x2f
	opLUI    = 0x37
	opBranch = 0x63
	opJALR   = 0x67
	opJAL    = 0x6f
	opSystem = 0x73
)

const (
	regZero = 0
	regSP   = 2
)
