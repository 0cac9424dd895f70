// =============================================================================
// YPBank Converter - Binary Codec
// =============================================================================
//
// This module reads and writes the dense binary format. The stream is a plain
// concatenation of frames: no magic number, no version byte, no record count.
// Decoding runs until the stream ends on a frame boundary.
//
// FRAME LAYOUT (all integers little-endian):
//
//   offset  size  field
//   0       8     TX_ID          uint64
//   8       1     TX_TYPE        tag: 0=DEPOSIT 1=WITHDRAWAL 2=TRANSFER
//   9       8     FROM_USER_ID   uint64
//   17      8     TO_USER_ID     uint64
//   25      8     AMOUNT         uint64
//   33      8     TIMESTAMP      uint64
//   41      1     STATUS         tag: 0=SUCCESS 1=FAILURE 2=PENDING
//   42      4     DESCRIPTION    byte length N, uint32
//   46      N     DESCRIPTION    UTF-8 bytes
//
// =============================================================================

package bincodec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// Name is the registered format name.
const Name = "bin"

// FixedFrameSize is the size of a frame without its description bytes.
const FixedFrameSize = 8 + 1 + 8 + 8 + 8 + 8 + 1 + 4

var byteOrder = binary.LittleEndian

func init() {
	formats.Register(Codec{}, "binary")
}

// Codec implements formats.Codec for the binary format.
type Codec struct{}

func (Codec) Name() string         { return Name }
func (Codec) Extensions() []string { return []string{".bin"} }

func (Codec) Decode(r io.Reader) ([]types.Transaction, error) { return Decode(r) }

func (Codec) Encode(w io.Writer, txs []types.Transaction) error { return Encode(w, txs) }

// =============================================================================
// DECODING
// =============================================================================

// frameReader tracks the absolute byte offset so that every error can point
// at the exact field that failed.
type frameReader struct {
	r   *bufio.Reader
	off int64
	buf [8]byte
}

// Decode reads frames until end of stream.
//
// RETURNS:
//   - The transactions in stream order (never nil on success).
//   - A *types.DecodeError of kind Truncated when the stream ends inside a
//     frame, or UnknownTag when a tag byte is out of range. The locator is
//     the byte offset of the offending field.
func Decode(r io.Reader) ([]types.Transaction, error) {
	fr := &frameReader{r: bufio.NewReader(r)}

	txs := []types.Transaction{}
	for {
		if _, err := fr.r.Peek(1); err != nil {
			if err == io.EOF {
				break
			}
			return nil, types.NewDecodeError(Name, types.AtOffset(fr.off), err)
		}

		tx, err := fr.readFrame()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (fr *frameReader) readFrame() (types.Transaction, error) {
	var (
		tx  types.Transaction
		err error
	)

	if tx.ID, err = fr.readUint64(types.FieldID); err != nil {
		return tx, err
	}
	if tx.Type, err = fr.txType(); err != nil {
		return tx, err
	}
	if tx.FromUser, err = fr.readUint64(types.FieldFromUser); err != nil {
		return tx, err
	}
	if tx.ToUser, err = fr.readUint64(types.FieldToUser); err != nil {
		return tx, err
	}
	if tx.Amount, err = fr.readUint64(types.FieldAmount); err != nil {
		return tx, err
	}
	if tx.Timestamp, err = fr.readUint64(types.FieldTimestamp); err != nil {
		return tx, err
	}
	if tx.Status, err = fr.txStatus(); err != nil {
		return tx, err
	}
	if tx.Description, err = fr.description(); err != nil {
		return tx, err
	}
	return tx, nil
}

// read fills p completely or reports which field was cut short.
func (fr *frameReader) read(p []byte, field string) error {
	start := fr.off
	n, err := io.ReadFull(fr.r, p)
	fr.off += int64(n)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return truncated(start, field, len(p), n)
	}
	return types.NewDecodeError(Name, types.AtOffset(start), err)
}

func (fr *frameReader) readUint64(field string) (uint64, error) {
	if err := fr.read(fr.buf[:8], field); err != nil {
		return 0, err
	}
	return byteOrder.Uint64(fr.buf[:8]), nil
}

func (fr *frameReader) tag(field string) (byte, int64, error) {
	if err := fr.read(fr.buf[:1], field); err != nil {
		return 0, 0, err
	}
	return fr.buf[0], fr.off - 1, nil
}

func (fr *frameReader) txType() (types.TxType, error) {
	tag, at, err := fr.tag(types.FieldType)
	if err != nil {
		return 0, err
	}
	t, err := types.TxTypeFromTag(tag)
	if err != nil {
		return 0, tagError(at, types.FieldType, tag, err)
	}
	return t, nil
}

func (fr *frameReader) txStatus() (types.TxStatus, error) {
	tag, at, err := fr.tag(types.FieldStatus)
	if err != nil {
		return 0, err
	}
	s, err := types.TxStatusFromTag(tag)
	if err != nil {
		return 0, tagError(at, types.FieldStatus, tag, err)
	}
	return s, nil
}

// description reads the length prefix and the text bytes. The bytes are
// copied incrementally, so a corrupt length never causes a huge allocation.
func (fr *frameReader) description() (string, error) {
	if err := fr.read(fr.buf[:4], types.FieldDescription); err != nil {
		return "", err
	}
	size := int64(byteOrder.Uint32(fr.buf[:4]))

	start := fr.off
	var text bytes.Buffer
	n, err := io.CopyN(&text, fr.r, size)
	fr.off += n
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", truncated(start, types.FieldDescription, int(size), int(n))
		}
		return "", types.NewDecodeError(Name, types.AtOffset(start), err)
	}

	if !utf8.Valid(text.Bytes()) {
		return "", types.NewDecodeError(Name, types.AtOffset(start), &types.FieldError{
			Field: types.FieldDescription,
			Err:   fmt.Errorf("%w: description is not valid UTF-8", types.ErrMalformed),
		})
	}
	return text.String(), nil
}

func truncated(at int64, field string, want, got int) error {
	return types.NewDecodeError(Name, types.AtOffset(at), &types.FieldError{
		Field: field,
		Err:   fmt.Errorf("%w: need %d bytes, %d available", types.ErrTruncated, want, got),
	})
}

func tagError(at int64, field string, tag byte, err error) error {
	return types.NewDecodeError(Name, types.AtOffset(at), &types.FieldError{
		Field: field,
		Value: strconv.Itoa(int(tag)),
		Err:   err,
	})
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode writes one frame per transaction.
func Encode(w io.Writer, txs []types.Transaction) error {
	bw := bufio.NewWriter(w)

	frame := make([]byte, 0, 256)
	for i, tx := range txs {
		var err error
		frame, err = AppendFrame(frame[:0], tx)
		if err != nil {
			return types.NewEncodeError(Name, i, err)
		}
		if _, err := bw.Write(frame); err != nil {
			return types.NewEncodeError(Name, i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	return nil
}

// AppendFrame appends the frame of tx to dst.
func AppendFrame(dst []byte, tx types.Transaction) ([]byte, error) {
	if err := tx.Validate(); err != nil {
		return dst, err
	}
	if uint64(len(tx.Description)) > math.MaxUint32 {
		return dst, fmt.Errorf("description is %d bytes, the format allows at most %d", len(tx.Description), uint32(math.MaxUint32))
	}

	dst = byteOrder.AppendUint64(dst, tx.ID)
	dst = append(dst, tx.Type.Tag())
	dst = byteOrder.AppendUint64(dst, tx.FromUser)
	dst = byteOrder.AppendUint64(dst, tx.ToUser)
	dst = byteOrder.AppendUint64(dst, tx.Amount)
	dst = byteOrder.AppendUint64(dst, tx.Timestamp)
	dst = append(dst, tx.Status.Tag())
	dst = byteOrder.AppendUint32(dst, uint32(len(tx.Description)))
	dst = append(dst, tx.Description...)
	return dst, nil
}
