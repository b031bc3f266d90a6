package mcp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/mattt/mcp-server/jsonrpc"
)

// Transport handles the communication between stdin/stdout and the MCP server.
// Lines are processed one at a time: each response is written and flushed
// before the next line is read.
type Transport struct {
	reader *bufio.Reader
	writer *bufio.Writer
	logger *slog.Logger
}

// NewStdioTransport creates a new stdio transport
func NewStdioTransport(in io.Reader, out io.Writer, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transport{
		reader: bufio.NewReader(in),
		writer: bufio.NewWriter(out),
		logger: logger,
	}
}

// Run reads requests until end of input, which ends the loop cleanly.
// It returns an error only when input cannot be read, a response cannot
// be written, or ctx is done.
func (t *Transport) Run(ctx context.Context, handler jsonrpc.Handler) error {
	logger := t.logger.With("session", ulid.Make().String())
	logger.Debug("transport started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := t.reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if err := t.process(logger, handler, line); err != nil {
				return err
			}
		}

		if readErr == io.EOF {
			logger.Debug("end of input")
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("error reading input: %w", readErr)
		}
	}
}

func (t *Transport) process(logger *slog.Logger, handler jsonrpc.Handler, line []byte) error {
	request, err := jsonrpc.Decode(line)
	if err != nil {
		var decodeErr *jsonrpc.DecodeError
		if !errors.As(err, &decodeErr) {
			decodeErr = &jsonrpc.DecodeError{Err: jsonrpc.NewError(jsonrpc.ErrParse, err.Error())}
		}
		logger.Debug("rejected request", "error", err)
		return t.write(decodeErr.Response())
	}

	logger.Debug("handling request", "method", request.Method, "id", request.ID.GoString())
	response := handler.Handle(request)

	if request.IsNotification() {
		logger.Debug("notification handled", "method", request.Method)
		return nil
	}
	return t.write(response)
}

func (t *Transport) write(response jsonrpc.Response) error {
	if _, err := t.writer.Write(jsonrpc.Encode(response)); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	return nil
}
