package bolt

import (
	"encoding/binary"
	"io"

	"github.com/go-logr/logr"
)

// BoltConn is an abstraction of a Bolt-aware io.ReadWriteCloser. Allows for
// sending and receiving Messages, abstracting away the nuances of the
// transport.
type BoltConn interface {
	R() <-chan *Message
	WriteMessage(*Message) error
	io.Closer
}

// DirectConn operates a direct (TCP/IP) Bolt connection.
type DirectConn struct {
	conn io.ReadWriteCloser
	buf  []byte
	r    <-chan *Message
	log  logr.Logger
}

// NewDirectConn wraps c, spawning a background reader that decodes Bolt
// messages off it and makes them available via R().
func NewDirectConn(c io.ReadWriteCloser) DirectConn {
	return NewDirectConnWithLogger(c, logr.Discard())
}

// NewDirectConnWithLogger is NewDirectConn with an explicit logger for the
// background reader goroutine's diagnostics.
func NewDirectConnWithLogger(c io.ReadWriteCloser, log logr.Logger) DirectConn {
	msgchan := make(chan *Message)
	dc := DirectConn{
		conn: c,
		buf:  make([]byte, 1024*128),
		r:    msgchan,
		log:  log,
	}

	for i := range dc.buf {
		dc.buf[i] = 0xff
	}

	go func() {
		for {
			message, err := dc.ReadMessage()
			if err != nil {
				if err == io.EOF {
					log.V(1).Info("direct bolt connection hung up")
					close(msgchan)
					return
				}
				log.Error(err, "direct bolt connection error")
				close(msgchan)
				return
			}
			msgchan <- message
		}
	}()

	return dc
}

func (c DirectConn) R() <-chan *Message {
	return c.r
}

// ReadMessage reads a single Bolt message off the wire, returning a
// pointer to it, or an error.
func (c DirectConn) ReadMessage() (*Message, error) {
	var n int
	var err error

	underReads := 0
	pos := 0
	for {
		n, err = c.conn.Read(c.buf[pos : pos+2])
		if err != nil {
			return nil, err
		}
		if n < 2 {
			underReads++
			if underReads > 5 {
				return nil, errTooManyUnderReads
			}
			continue
		}
		msglen := int(binary.BigEndian.Uint16(c.buf[pos : pos+n]))
		pos += n

		if msglen < 1 {
			// 0x00 0x00 means we're done
			break
		}

		endOfData := pos + msglen
		for pos < endOfData {
			n, err = c.conn.Read(c.buf[pos:endOfData])
			if err != nil {
				return nil, err
			}
			pos += n
		}
	}

	t := IdentifyType(c.buf[:pos])

	data := make([]byte, pos)
	copy(data, c.buf[:pos])

	for i := 0; i < pos; i++ {
		c.buf[i] = 0xff
	}

	return &Message{T: t, Data: data}, nil
}

// WriteMessage writes a fully-encoded message (see Encoder in encode.go)
// to the wire.
func (c DirectConn) WriteMessage(m *Message) error {
	n, err := c.conn.Write(m.Data)
	if err != nil {
		return err
	}
	if n != len(m.Data) {
		return errIncompleteWrite
	}
	return nil
}

func (c DirectConn) Close() error {
	return c.conn.Close()
}
