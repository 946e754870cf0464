package object

import (
	"bufio"
	"io"
	"strings"
)

type PortMedium uint8

const (
	PortFile PortMedium = iota
	PortString
)

type PortDirection uint8

const (
	PortInput PortDirection = iota
	PortOutput
)

// Port is a file or in-memory string I/O handle. CanClose is false for the
// VM's three standard ports so that garbage collecting the wrapper object
// never closes the underlying OS stream.
type Port struct {
	Header
	Medium    PortMedium
	Direction PortDirection
	CanClose  bool
	Closed    bool

	file   io.Closer
	reader *bufio.Reader
	writer io.Writer
	buf    *strings.Builder
}

func NewFilePort(direction PortDirection, f io.Closer, r io.Reader, w io.Writer) *Port {
	p := &Port{Header: NewHeader(KindPort), Medium: PortFile, Direction: direction, CanClose: true, file: f, writer: w}
	if r != nil {
		p.reader = bufio.NewReader(r)
	}
	return p
}

func NewStandardPort(direction PortDirection, r io.Reader, w io.Writer) *Port {
	p := NewFilePort(direction, nil, r, w)
	p.CanClose = false
	return p
}

func NewStringInputPort(content string) *Port {
	return &Port{Header: NewHeader(KindPort), Medium: PortString, Direction: PortInput, CanClose: true, reader: bufio.NewReader(strings.NewReader(content))}
}

func NewStringOutputPort() *Port {
	return &Port{Header: NewHeader(KindPort), Medium: PortString, Direction: PortOutput, CanClose: true, buf: &strings.Builder{}}
}

func (p *Port) WriteString(s string) {
	if p.buf != nil {
		p.buf.WriteString(s)
		return
	}
	if p.writer != nil {
		io.WriteString(p.writer, s)
	}
}

func (p *Port) String() string {
	if p.buf != nil {
		return p.buf.String()
	}
	return ""
}

func (p *Port) ReadByte() (byte, error) {
	if p.reader == nil {
		return 0, io.EOF
	}
	return p.reader.ReadByte()
}

func (p *Port) Close() error {
	if p.Closed || !p.CanClose {
		return nil
	}
	p.Closed = true
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}
