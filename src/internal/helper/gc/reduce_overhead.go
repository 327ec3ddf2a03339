// Copyright (c) 2024 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package gc

import (
	"io"

	"github.com/valyala/bytebufferpool"
)

// Buffer defines the interface for a reusable byte buffer.
// It abstracts the [bytebufferpool.ByteBuffer] type to avoid direct dependencies.
type Buffer interface {
	Len() int
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
	WriteByte(c byte) error
	Bytes() []byte
	String() string
	Set(p []byte)
	SetString(s string)
	Reset()
	ReadFrom(r io.Reader) (int64, error)
	WriteTo(w io.Writer) (int64, error)
}

// Pool defines the interface for buffer pooling.
// It abstracts the [bytebufferpool.Pool] type to avoid direct dependencies.
//
// Pool implementations must be safe for concurrent use by multiple goroutines.
type Pool interface {
	Get() Buffer
	Put(b Buffer)
}

// pool wraps [bytebufferpool.Pool] to implement Pool interface.
type pool struct{ p *bytebufferpool.Pool }

// Get returns a buffer from the pool.
func (p *pool) Get() Buffer { return p.p.Get() }

// Put returns a buffer to the pool.
func (p *pool) Put(b Buffer) {
	if buf, ok := b.(*bytebufferpool.ByteBuffer); ok {
		p.p.Put(buf)
	}
}

// Default is the default buffer pool used for efficient memory reuse in I/O operations.
//
// Example usage for reading an OCSP or CRL response body without io.ReadAll allocations:
//
//	// Get a buffer from the pool
//	buf := gc.Default.Get()
//
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse
//	}()
//
//	if _, err := buf.ReadFrom(resp.Body); err != nil {
//		return nil, fmt.Errorf("error reading revocation response body: %w", err)
//	}
//
//	// Parse the DER payload accumulated in the buffer
//	crl, err := x509.ParseRevocationList(buf.Bytes())
//	if err != nil {
//		return nil, fmt.Errorf("error parsing CRL: %w", err)
//	}
//
// Example usage for rendering a certificate chain table before writing it out:
//
//	buf := gc.Default.Get()
//
//	// Use defer to guarantee buffer cleanup (reset and return to the pool)
//	// even if an error occurs during rendering.
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks.
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse.
//	}()
//
//	// Render the markdown table into the byte buffer.
//	if err := table.Render(); err != nil {
//		return "", fmt.Errorf("error rendering chain table: %w", err)
//	}
//
//	// Hand the rendered table to the logger as a string.
//	report := string(buf.Bytes())
//	log.Println(report)
//
// Example usage for efficient certificate file reading:
//
//	// Get a buffer from the pool
//	buf := gc.Default.Get()
//
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse
//	}()
//
//	// Open the bundle file for reading
//	file, err := os.Open("pins/leaf.cer")
//	if err != nil {
//		return nil, fmt.Errorf("error opening certificate file: %w", err)
//	}
//	defer file.Close()
//
//	// Read the file contents into the buffer
//	if _, err := buf.ReadFrom(file); err != nil {
//		return nil, fmt.Errorf("error reading certificate file: %w", err)
//	}
//
//	// Parse the DER bytes accumulated in the buffer
//	cert, err := x509.ParseCertificate(buf.Bytes())
//
// Example usage for proxying JSON-RPC frames between stdio streams:
//
//	// Get a buffer from the pool
//	buf := gc.Default.Get()
//
//	defer func() {
//		buf.Reset()         // Reset the buffer to prevent data leaks
//		gc.Default.Put(buf) // Return the buffer to the pool for reuse
//	}()
//
//	// Accumulate one line from the reader
//	if _, err := buf.WriteString(line); err != nil {
//		return fmt.Errorf("error buffering frame: %w", err)
//	}
//
//	// Normalize and forward the frame
//	fixed, err := jsonrpc.Marshal(buf.Bytes())
//	if err != nil {
//		return fmt.Errorf("error normalizing frame: %w", err)
//	}
//	if _, err := w.Write(fixed); err != nil {
//		return fmt.Errorf("error forwarding frame: %w", err)
//	}
//
// Note: These examples demonstrate various I/O operations, such as revocation fetches, rendering chain tables, reading bundle files, and proxying JSON-RPC frames.
// Efficient memory usage is achieved by leveraging a buffer pool, which is especially beneficial in high-concurrency environments.
// For example, using 8 cores while keeping memory usage under 100MiB maintains high CPU efficiency with low memory consumption it's better.
var Default Pool = &pool{p: &bytebufferpool.Pool{}}
