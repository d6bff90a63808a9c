// Package proxy is the front end: it speaks just enough Bolt to validate
// the handshake, pick a cluster member via internal/backend, and then
// splice raw bytes between client and server. Every client is routed to a
// writer picked per connection; the transaction mode sniffed off the wire
// is logged but does not change which server the client is spliced to.
// Grounded on ikwattro-bolt-proxy/proxy.go's handleClient/splice shape,
// adapted to ask the routing layer for a writer per connection instead of
// pinning every client to the same one, and to return errors instead of
// log.Fatal-ing the whole process on a single bad connection.
package proxy

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/go-logr/logr"

	"github.com/CyberGRX/neobolt/internal/backend"
	"github.com/CyberGRX/neobolt/internal/routing"
)

// idleTimeout bounds how long a spliced session may sit without traffic in
// either direction before the handler gives up and closes both legs.
const idleTimeout = 5 * time.Minute

// Handler accepts client connections and proxies them to the cluster member
// internal/backend's routing layer selects.
type Handler struct {
	Backend *backend.Backend
	Log     logr.Logger
}

// HandleClient drives one client connection end to end: handshake against a
// writer chosen by the routing layer, HELLO relayed to that server and its
// reply relayed back, transaction-mode sniff (logged only), then splice
// until either side closes or goes quiet.
func (h *Handler) HandleClient(client net.Conn) error {
	defer client.Close()
	log := h.Log.WithValues("client", client.RemoteAddr().String())

	buf := make([]byte, 64*1024)

	n, err := io.ReadFull(client, buf[:20])
	if err != nil {
		return err
	}
	magic, proposal := buf[:4], buf[4:20]
	if !ValidateMagic(magic) {
		return errBadMagic
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	addr, err := h.Backend.PickAddress(ctx, routing.WriteMode)
	cancel()
	if err != nil {
		return err
	}

	server, err := net.DialTimeout("tcp", addr.String(), 10*time.Second)
	if err != nil {
		return err
	}
	defer server.Close()

	if _, err := server.Write(buf[:4]); err != nil {
		return err
	}
	if _, err := server.Write(proposal); err != nil {
		return err
	}

	var serverReply [4]byte
	if _, err := io.ReadFull(server, serverReply[:]); err != nil {
		return err
	}
	agreed, err := ValidateHandshake(serverReply[:])
	if err != nil {
		return err
	}
	if _, err := client.Write(agreed); err != nil {
		return err
	}
	log.V(1).Info("handshake complete", "server", addr.String())

	// Relay HELLO untouched and pass the server's reply back: the proxy
	// does no credential check of its own, the server's auth decision is
	// the only one.
	n, err = client.Read(buf)
	if err != nil {
		return err
	}
	if _, err := server.Write(buf[:n]); err != nil {
		return err
	}

	n, err = server.Read(buf)
	if err != nil {
		return err
	}
	if _, err := client.Write(buf[:n]); err != nil {
		return err
	}

	// Wait for the client's first real message so we can sniff the
	// transaction mode before committing to splicing raw bytes.
	n, err = client.Read(buf)
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	mode := DetectMode(buf[:n])
	log.V(1).Info("transaction mode detected", "mode", mode.String())

	if _, err := server.Write(buf[:n]); err != nil {
		return err
	}

	clientDone := make(chan error, 1)
	serverDone := make(chan error, 1)
	activity := make(chan struct{}, 1)
	go splice(server, client, clientDone, activity)
	go splice(client, server, serverDone, activity)

	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()
	for {
		select {
		case err := <-clientDone:
			return err
		case err := <-serverDone:
			return err
		case <-activity:
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(idleTimeout)
		case <-idle.C:
			log.V(1).Info("idle timeout reached, closing connection")
			return nil
		}
	}
}

// splice copies bytes from r to w until r hits EOF or a read/write fails,
// reporting the terminal error (nil on clean EOF) on done and signalling
// activity after every chunk it forwards.
func splice(w io.Writer, r io.Reader, done chan<- error, activity chan<- struct{}) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				done <- werr
				return
			}
			select {
			case activity <- struct{}{}:
			default:
			}
		}
		if err != nil {
			if err == io.EOF {
				done <- nil
				return
			}
			done <- err
			return
		}
	}
}
