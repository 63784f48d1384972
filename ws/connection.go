package ws

import (
	"bufio"
	"bytes"
	"compress/flate"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/httphead"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsflate"
	"github.com/gobwas/ws/wsutil"

	"nostrly.lol/chk"
	"nostrly.lol/context"
	"nostrly.lol/errorf"
	"nostrly.lol/log"
)

// Connection is an outbound client -> relay connection.
type Connection struct {
	conn              net.Conn
	writeMx           sync.Mutex
	enableCompression bool
	controlHandler    wsutil.FrameHandlerFunc
	flateReader       *wsflate.Reader
	reader            *wsutil.Reader
	flateWriter       *wsflate.Writer
	writer            *wsutil.Writer
	msgStateR         *wsflate.MessageState
	msgStateW         *wsflate.MessageState
}

// lockedWriter lets the control frame handler on the read side share the
// socket with the writer goroutine.
type lockedWriter struct {
	mx *sync.Mutex
	w  io.Writer
}

func (l lockedWriter) Write(p []byte) (n int, err error) {
	l.mx.Lock()
	defer l.mx.Unlock()
	return l.w.Write(p)
}

// NewConnection dials a relay and negotiates permessage-deflate when the
// relay offers it.
func NewConnection(c context.T, url string, requestHeader http.Header,
	tlsConfig *tls.Config) (cn *Connection, err error) {

	dialer := ws.Dialer{
		Header: ws.HandshakeHeaderHTTP(requestHeader),
		Extensions: []httphead.Option{
			wsflate.DefaultParameters.Option(),
		},
		TLSConfig: tlsConfig,
	}
	var conn net.Conn
	var br *bufio.Reader
	var hs ws.Handshake
	if conn, br, hs, err = dialer.Dial(c, url); err != nil {
		return nil, errorf.D("failed to dial: %w", err)
	}
	cn = &Connection{conn: conn}
	state := ws.StateClientSide
	for _, extension := range hs.Extensions {
		if string(extension.Name) == wsflate.ExtensionName {
			cn.enableCompression = true
			state |= ws.StateExtended
			break
		}
	}
	// frames the relay sent straight after the handshake are in br
	var src io.Reader = conn
	if br != nil {
		src = io.MultiReader(io.LimitReader(br, int64(br.Buffered())), conn)
	}
	// reader
	var msgStateR wsflate.MessageState
	if cn.enableCompression {
		msgStateR.SetCompressed(true)
		cn.flateReader = wsflate.NewReader(nil, func(r io.Reader) wsflate.Decompressor {
			return flate.NewReader(r)
		})
	}
	cn.controlHandler = wsutil.ControlFrameHandler(
		lockedWriter{&cn.writeMx, conn}, ws.StateClientSide)
	cn.reader = &wsutil.Reader{
		Source:         src,
		State:          state,
		OnIntermediate: cn.controlHandler,
		CheckUTF8:      false,
		Extensions: []wsutil.RecvExtension{
			&msgStateR,
		},
	}
	cn.msgStateR = &msgStateR
	// writer
	var msgStateW wsflate.MessageState
	if cn.enableCompression {
		msgStateW.SetCompressed(true)
		cn.flateWriter = wsflate.NewWriter(nil, func(w io.Writer) wsflate.Compressor {
			fw, err := flate.NewWriter(w, 4)
			if err != nil {
				log.E.F("failed to create flate writer: %v", err)
			}
			return fw
		})
	}
	cn.writer = wsutil.NewWriter(conn, state, ws.OpText)
	cn.writer.SetExtensions(&msgStateW)
	cn.msgStateW = &msgStateW
	return
}

// WriteMessage sends one text message.
func (cn *Connection) WriteMessage(c context.T, data []byte) (err error) {
	if err = c.Err(); err != nil {
		return
	}
	cn.writeMx.Lock()
	defer cn.writeMx.Unlock()
	if cn.msgStateW.IsCompressed() && cn.enableCompression {
		cn.flateWriter.Reset(cn.writer)
		if _, err = io.Copy(cn.flateWriter, bytes.NewReader(data)); chk.T(err) {
			return errorf.D("failed to write message: %w", err)
		}
		if err = cn.flateWriter.Close(); chk.T(err) {
			return errorf.D("failed to close flate writer: %w", err)
		}
	} else {
		if _, err = io.Copy(cn.writer, bytes.NewReader(data)); chk.T(err) {
			return errorf.D("failed to write message: %w", err)
		}
	}
	if err = cn.writer.Flush(); chk.T(err) {
		return errorf.D("failed to flush writer: %w", err)
	}
	return
}

// Ping sends a ping control frame.
func (cn *Connection) Ping() (err error) {
	cn.writeMx.Lock()
	defer cn.writeMx.Unlock()
	return wsutil.WriteClientMessage(cn.conn, ws.OpPing, nil)
}

// ReadMessage picks up the next incoming message on a Connection, handling
// control frames on the way.
func (cn *Connection) ReadMessage(c context.T, buf io.Writer) (err error) {
	for {
		if err = c.Err(); err != nil {
			return
		}
		var h ws.Header
		if h, err = cn.reader.NextFrame(); err != nil {
			chk.T(cn.conn.Close())
			return errorf.T("failed to advance frame: %w", err)
		}
		if h.OpCode.IsControl() {
			if err = cn.controlHandler(h, cn.reader); chk.T(err) {
				return errorf.T("failed to handle control frame: %w", err)
			}
		} else if h.OpCode == ws.OpBinary || h.OpCode == ws.OpText {
			break
		}
		if err = cn.reader.Discard(); chk.T(err) {
			return errorf.T("failed to discard: %w", err)
		}
	}
	if cn.msgStateR.IsCompressed() && cn.enableCompression {
		cn.flateReader.Reset(cn.reader)
		if _, err = io.Copy(buf, cn.flateReader); chk.T(err) {
			return errorf.T("failed to read message: %w", err)
		}
	} else {
		if _, err = io.Copy(buf, cn.reader); chk.T(err) {
			return errorf.T("failed to read message: %w", err)
		}
	}
	return
}

// Close the Connection.
func (cn *Connection) Close() error { return cn.conn.Close() }
