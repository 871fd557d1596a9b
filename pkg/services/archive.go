package services

import (
	"archive/zip"
	"fmt"
	"io"
)

// ArchiveWriter composes a ZIP archive lazily over an in-process pipe. Entry
// bytes flow straight through to whoever consumes Reader(), typically a
// streaming object-store upload, so the full archive never resides in
// memory. Writes block until the consumer drains them, which is what chains
// the remote read, the archive encoding, and the remote upload into one
// pipeline.
type ArchiveWriter struct {
	zw *zip.Writer
	pr *io.PipeReader
	pw *io.PipeWriter
}

// NewArchiveWriter creates an archive writer. The caller must hand Reader()
// to a consumer before adding entries, or writes will block forever.
func NewArchiveWriter() *ArchiveWriter {
	pr, pw := io.Pipe()
	return &ArchiveWriter{
		zw: zip.NewWriter(pw),
		pr: pr,
		pw: pw,
	}
}

// Reader returns the archive byte stream. It yields bytes incrementally as
// entries are added and reaches EOF after Close.
func (w *ArchiveWriter) Reader() io.Reader {
	return w.pr
}

// AddStream adds an entry whose content is copied chunk by chunk from r.
func (w *ArchiveWriter) AddStream(name string, r io.Reader) error {
	entry, err := w.zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %q: %w", name, err)
	}
	if _, err := io.Copy(entry, r); err != nil {
		return fmt.Errorf("failed to write archive entry %q: %w", name, err)
	}
	return nil
}

// AddBytes adds an entry with the given literal content.
func (w *ArchiveWriter) AddBytes(name string, content []byte) error {
	entry, err := w.zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create archive entry %q: %w", name, err)
	}
	if _, err := entry.Write(content); err != nil {
		return fmt.Errorf("failed to write archive entry %q: %w", name, err)
	}
	return nil
}

// Close finalizes the ZIP central directory and signals EOF to the consumer.
func (w *ArchiveWriter) Close() error {
	if err := w.zw.Close(); err != nil {
		_ = w.pw.CloseWithError(err)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return w.pw.Close()
}

// Abort tears down the stream with an error. The consumer's next read fails
// with err, which propagates the failure into the in-flight upload.
func (w *ArchiveWriter) Abort(err error) {
	_ = w.pw.CloseWithError(err)
}

// Fail tears down the stream from the consumer side. A consumer that stops
// reading mid-archive must call this, or in-flight entry writes would block
// on the pipe forever; instead they unblock and return err.
func (w *ArchiveWriter) Fail(err error) {
	_ = w.pr.CloseWithError(err)
}
