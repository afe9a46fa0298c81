package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// maxLineSize bounds a single newline-delimited message.
const maxLineSize = 4 * 1024 * 1024

// StdioTransport serves newline-delimited JSON-RPC between a reader and a
// writer. Nothing but protocol frames is ever written to out.
type StdioTransport struct {
	handler *Handler
	scanner *bufio.Scanner
	writer  *json.Encoder
	bufOut  *bufio.Writer
	logger  zerolog.Logger
}

// NewStdioTransport creates a new stdio transport
func NewStdioTransport(handler *Handler, in io.Reader, out io.Writer, logger zerolog.Logger) *StdioTransport {
	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	bufOut := bufio.NewWriter(out)
	return &StdioTransport{
		handler: handler,
		scanner: scanner,
		writer:  json.NewEncoder(bufOut),
		bufOut:  bufOut,
		logger:  logger.With().Str("component", "stdio_transport").Logger(),
	}
}

// Run reads messages until EOF or until ctx is done. Requests are handled
// in order, one at a time.
func (t *StdioTransport) Run(ctx context.Context) error {
	t.logger.Info().Msg("Serving MCP over stdio")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !t.scanner.Scan() {
			if err := t.scanner.Err(); err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			t.logger.Info().Msg("Stdin closed")
			return nil
		}

		line := t.scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		resp := t.handler.HandleMessage(ctx, line)
		if resp == nil {
			continue
		}
		if err := t.writer.Encode(resp); err != nil {
			return fmt.Errorf("encoding response: %w", err)
		}
		if err := t.bufOut.Flush(); err != nil {
			return fmt.Errorf("writing stdout: %w", err)
		}
	}
}
