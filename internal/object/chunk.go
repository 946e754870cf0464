package object

import "github.com/lumenlang/lumen/internal/bytecode"

// Chunk is a bytecode buffer paired with its constant pool and a parallel
// line table used to attribute runtime errors to source positions.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
	FileName  string
}

func NewChunk(fileName string) *Chunk {
	return &Chunk{FileName: fileName}
}

func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

func (c *Chunk) WriteOp(op bytecode.Op, line int) {
	c.Write(byte(op), line)
}

// WriteUint16 appends a big-endian 16-bit operand (used for constant
// indices and jump offsets).
func (c *Chunk) WriteUint16(n int, line int) {
	c.Write(byte(n>>8), line)
	c.Write(byte(n), line)
}

func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Len returns the number of bytes currently written to the chunk.
func (c *Chunk) Len() int { return len(c.Code) }

// InsertSpace shifts every byte (and its line entry) at or after offset
// forward by size bytes, so that an instruction of that size can be
// written at offset afterwards. The compiler does not call it.
func (c *Chunk) InsertSpace(offset, size int) {
	c.Code = append(c.Code, make([]byte, size)...)
	c.Lines = append(c.Lines, make([]int, size)...)
	copy(c.Code[offset+size:], c.Code[offset:len(c.Code)-size])
	copy(c.Lines[offset+size:], c.Lines[offset:len(c.Lines)-size])
}

func ReadUint16(code []byte, offset int) int {
	return int(code[offset])<<8 | int(code[offset+1])
}

func ReadInt16(code []byte, offset int) int {
	return int(int16(ReadUint16(code, offset)))
}
