package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain consumes the archive stream concurrently, as the uploader does.
func drain(aw *ArchiveWriter) (<-chan []byte, <-chan error) {
	dataCh := make(chan []byte, 1)
	errCh := make(chan error, 1)
	go func() {
		data, err := io.ReadAll(aw.Reader())
		dataCh <- data
		errCh <- err
	}()
	return dataCh, errCh
}

func TestArchiveWriter_RoundTrip(t *testing.T) {
	aw := NewArchiveWriter()
	dataCh, errCh := drain(aw)

	require.NoError(t, aw.AddStream("images/train/a.jpg", strings.NewReader("jpeg-bytes")))
	require.NoError(t, aw.AddBytes("labels/train/a.txt", []byte("0 0.5 0.5 0.1 0.1")))
	require.NoError(t, aw.Close())

	data := <-dataCh
	require.NoError(t, <-errCh)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)

	contents := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		contents[f.Name] = string(body)
	}

	assert.Equal(t, "jpeg-bytes", contents["images/train/a.jpg"])
	assert.Equal(t, "0 0.5 0.5 0.1 0.1", contents["labels/train/a.txt"])
}

func TestArchiveWriter_AbortPropagatesToConsumer(t *testing.T) {
	aw := NewArchiveWriter()
	_, errCh := drain(aw)

	require.NoError(t, aw.AddBytes("data.yaml", []byte("nc: 0")))

	cause := errors.New("image read failed")
	aw.Abort(cause)

	err := <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestArchiveWriter_FailUnblocksProducer(t *testing.T) {
	aw := NewArchiveWriter()
	cause := errors.New("connection reset by peer")

	// No consumer: entry writes block once the pipe's buffers fill. Fail must
	// release them with the consumer's error.
	done := make(chan error, 1)
	go func() {
		for i := 0; ; i++ {
			name := "images/train/img_" + strings.Repeat("x", i%10) + ".jpg"
			if err := aw.AddBytes(name, bytes.Repeat([]byte{byte(i)}, 4096)); err != nil {
				done <- err
				return
			}
		}
	}()

	aw.Fail(cause)
	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestArchiveWriter_EmptyArchive(t *testing.T) {
	aw := NewArchiveWriter()
	dataCh, errCh := drain(aw)

	require.NoError(t, aw.Close())

	data := <-dataCh
	require.NoError(t, <-errCh)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Empty(t, zr.File)
}
