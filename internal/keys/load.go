package keys

import (
	"bufio"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// readChunkSize はファイル読み込みの単位
const readChunkSize = 128 << 10

// Load はキーファイルを読み込み、キー数が expected と一致することを検証する
func Load(path string, expected uint64, width int) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open key file %s", path)
	}
	defer f.Close()

	r, err := newReader(CodecFor(path), f)
	if err != nil {
		return nil, errors.Wrapf(err, "key file %s", path)
	}
	defer r.Close()

	data, err := readAll(r, expected*uint64(width))
	if err != nil {
		return nil, errors.Wrapf(err, "read key file %s", path)
	}

	b, err := NewBuffer(data, width)
	if err != nil {
		return nil, errors.Wrapf(err, "key file %s", path)
	}
	if err := b.Expect(expected); err != nil {
		return nil, errors.Wrapf(err, "key file %s", path)
	}
	return b, nil
}

// readAll は r を読み切る。sizeHint 分を先に確保する
func readAll(r io.Reader, sizeHint uint64) ([]byte, error) {
	data := make([]byte, 0, sizeHint)
	chunk := make([]byte, readChunkSize)
	for {
		n, err := io.ReadFull(r, chunk)
		data = append(data, chunk[:n]...)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return data, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Write はバッファをファイルへ書き出す。圧縮形式は拡張子で決まる
func Write(path string, b *Buffer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create key file %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close key file %s", path)
		}
	}()

	bw := bufio.NewWriterSize(f, readChunkSize)
	w, err := newWriter(CodecFor(path), bw)
	if err != nil {
		return errors.Wrapf(err, "key file %s", path)
	}
	if _, err := w.Write(b.Bytes()); err != nil {
		return errors.Wrapf(err, "write key file %s", path)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "finish key file %s", path)
	}
	return errors.Wrapf(bw.Flush(), "flush key file %s", path)
}
