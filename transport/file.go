package transport

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/eluv-io/errors-go"
	"github.com/eluv-io/mnc/packet"
)

// fileBufSize is the buffered reader/writer size for file endpoints.
const fileBufSize = 1024 * 1024

// FileSource reads packets from a file or stdin. Text packets are
// newline-terminated lines, delivered with their terminator. Any other type
// is read as length-prefixed records: a little-endian uint32 payload length
// followed by the payload.
type FileSource struct {
	r    *bufio.Reader
	f    *os.File
	text bool
	name string
}

var _ Source = (*FileSource)(nil)

// OpenFile opens name for reading, with "-" selecting stdin.
func OpenFile(name string, typ packet.Type) (*FileSource, error) {
	src := &FileSource{text: typ == packet.TypeText, name: name}
	if name == "-" {
		src.r = bufio.NewReaderSize(os.Stdin, fileBufSize)
		log.Info("reading from stdin")
		return src, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.E("open file", errors.K.IO, err, "file", name)
	}
	src.f = f
	src.r = bufio.NewReaderSize(f, fileBufSize)
	log.Info("reading from file", "file", name)
	return src, nil
}

// Receive fills p with the next packet. It returns io.EOF once the input is
// exhausted; a length prefix cut off by the end of the file counts as a
// clean end.
func (s *FileSource) Receive(p []byte) (int, error) {
	if s.text {
		return s.receiveLine(p)
	}
	return s.receiveRecord(p)
}

func (s *FileSource) receiveLine(p []byte) (int, error) {
	line, err := s.r.ReadBytes('\n')
	if len(line) == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	// A final line without a terminator is still a packet.
	if len(line) > len(p) {
		return 0, errors.E("read line", errors.K.Invalid, "reason", "line exceeds packet buffer",
			"file", s.name, "size", len(line), "max", len(p))
	}
	return copy(p, line), nil
}

func (s *FileSource) receiveRecord(p []byte) (int, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(s.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}
	size := binary.LittleEndian.Uint32(hdr[:])
	if size > packet.MAX_PACKET_LEN || int(size) > len(p) {
		return 0, errors.E("read record", errors.K.Invalid, "reason", "record exceeds packet buffer",
			"file", s.name, "size", size, "max", len(p))
	}
	if _, err := io.ReadFull(s.r, p[:size]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return 0, errors.E("read record", errors.K.IO, err, "file", s.name, "size", size)
	}
	return int(size), nil
}

func (s *FileSource) Close() error {
	if s.f != nil {
		return s.f.Close()
	}
	return nil
}

// FileSink writes packets to a file or stdout. Text packets are written as
// lines, gaining a newline when the payload lacks one. Other types are
// written raw, or as length-prefixed records when framed is set so the file
// can later be replayed as a source.
type FileSink struct {
	w      *bufio.Writer
	f      *os.File
	text   bool
	framed bool
}

var _ Sink = (*FileSink)(nil)

// CreateFile opens name for writing, truncating any existing file, with "-"
// selecting stdout.
func CreateFile(name string, typ packet.Type, framed bool) (*FileSink, error) {
	sink := &FileSink{text: typ == packet.TypeText, framed: framed}
	if name == "-" {
		sink.w = bufio.NewWriterSize(os.Stdout, fileBufSize)
		log.Info("writing to stdout")
		return sink, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.E("create file", errors.K.IO, err, "file", name)
	}
	sink.f = f
	sink.w = bufio.NewWriterSize(f, fileBufSize)
	log.Info("writing to file", "file", name)
	return sink, nil
}

func (k *FileSink) Send(p []byte) error {
	if k.text {
		if _, err := k.w.Write(p); err != nil {
			return err
		}
		if len(p) == 0 || p[len(p)-1] != '\n' {
			return k.w.WriteByte('\n')
		}
		return nil
	}
	if k.framed {
		var hdr [4]byte
		binary.LittleEndian.PutUint32(hdr[:], uint32(len(p)))
		if _, err := k.w.Write(hdr[:]); err != nil {
			return err
		}
	}
	_, err := k.w.Write(p)
	return err
}

// Close flushes buffered data. Stdout itself stays open.
func (k *FileSink) Close() error {
	err := k.w.Flush()
	if k.f != nil {
		if cerr := k.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
