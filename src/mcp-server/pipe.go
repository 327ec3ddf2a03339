// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/helper/gc"
	jsonrpcInternal "github.com/H0llyW00dzZ/tls-server-trust/src/internal/helper/jsonrpc"
	"github.com/mark3labs/mcp-go/mcp"
)

// pipeReader feeds the stdio server's input side. Frames arrive from the
// agent bridge (sendCh) or from locally answered sampling requests
// (internalRespCh); each is normalized, newline-terminated, and served out
// through Read across as many calls as the caller's buffer requires.
type pipeReader struct {
	t         *InMemoryTransport
	activeBuf gc.Buffer
	offset    int
}

// release returns the drained buffer to the pool.
func (r *pipeReader) release() {
	r.activeBuf.Reset()
	gc.Default.Put(r.activeBuf)
	r.activeBuf = nil
	r.offset = 0
}

func (r *pipeReader) Read(p []byte) (n int, err error) {
	// Serve the rest of the current frame first
	if r.activeBuf != nil {
		data := r.activeBuf.Bytes()[r.offset:]
		n = copy(p, data)
		r.offset += n

		if r.offset >= r.activeBuf.Len() {
			r.release()
		}
		return n, nil
	}

	var msg []byte
	var ok bool
	fromBridge := false

	select {
	case msg, ok = <-r.t.sendCh:
		fromBridge = true
	case msg, ok = <-r.t.internalRespCh:
	case <-r.t.ctx.Done():
		return 0, io.EOF
	}

	if !ok {
		return 0, io.EOF
	}

	// Bridge encoders may emit capitalized keys; the stdio server expects
	// canonical lowercase JSON-RPC. Local responses are already canonical.
	if fromBridge {
		if fixed, err := jsonrpcInternal.Marshal(msg); err == nil {
			msg = fixed
		}
	}

	r.activeBuf = gc.Default.Get()
	r.activeBuf.Write(msg)

	// The stdio server frames on newlines
	if r.activeBuf.Len() == 0 || r.activeBuf.Bytes()[r.activeBuf.Len()-1] != '\n' {
		r.activeBuf.WriteByte('\n')
	}

	data := r.activeBuf.Bytes()
	n = copy(p, data)
	r.offset = n

	if r.offset >= r.activeBuf.Len() {
		r.release()
	}

	return n, nil
}

// pipeWriter receives the stdio server's output side. Complete lines go to
// the agent bridge (recvCh), except sampling requests, which are detoured
// to the local sampling handler instead of crossing the bridge.
type pipeWriter struct {
	t         *InMemoryTransport
	activeBuf gc.Buffer
}

func (w *pipeWriter) Write(p []byte) (n int, err error) {
	if w.activeBuf == nil {
		w.activeBuf = gc.Default.Get()
	}
	w.activeBuf.Write(p)

	data := w.activeBuf.Bytes()
	consumed := 0

	for {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}

		lineLen := idx + 1
		line := data[:lineLen]

		// processLine hands the slice to another goroutine, so it must not
		// alias the pooled buffer
		msg := make([]byte, len(line))
		copy(msg, line)

		w.processLine(msg)

		data = data[lineLen:]
		consumed += lineLen
	}

	if len(data) == 0 {
		w.activeBuf.Reset()
		gc.Default.Put(w.activeBuf)
		w.activeBuf = nil
	} else {
		// Shift the partial line to the front. Set() appends onto dst[:0],
		// which handles the overlap.
		w.activeBuf.Set(data)
	}

	return len(p), nil
}

// processLine routes one complete output line. Sampling requests run through
// the local handler; everything else crosses to the bridge unchanged.
func (w *pipeWriter) processLine(line []byte) {
	// Responses and notifications never carry "method" with an id, so the
	// substring check skips a JSON parse on the hot path
	if !bytes.Contains(line, []byte(`"method"`)) {
		w.t.sendToRecv(line)
		return
	}

	var req map[string]any
	if err := json.Unmarshal(line, &req); err != nil {
		w.t.sendToRecv(line)
		return
	}

	if method, ok := req["method"].(string); ok && method == string(mcp.MethodSamplingCreateMessage) {
		if _, hasID := req["id"]; hasID {
			w.t.shutdownWg.Add(1)
			go func() {
				defer w.t.shutdownWg.Done()
				w.t.handleSampling(req)
			}()
			return
		}
	}

	w.t.sendToRecv(line)
}
