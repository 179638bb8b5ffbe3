package harness

/*
	Copyright 2023 Canonical Ltd.  This software is licensed under the
	GNU Affero General Public License version 3 (see the file LICENSE).
*/

// Package harness implements the framed stdin/stdout transport described
// in spec.md §6. The wire format for outgoing frames is fully specified
// there: a 4-byte {size: u16 BE, type: u16 BE} header, where type carries
// the destination ifc_num and size counts the header itself. The incoming
// side of the protocol (how control lines and MAC assignments are
// distinguished from frames on the same stream) is left as an external
// contract by spec.md §1 ("harness glue (external)"); this package picks
// the symmetric convention of reserving type=0 for a control line and
// type=0xffff for a MAC assignment, so a single framed stream carries all
// three event kinds spec.md §6 describes.
import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/canonical/netdevlab/internal/ethernet"
)

const (
	headerLen = 4

	typeControl uint16 = 0
	typeMAC     uint16 = 0xffff
)

// FrameHandler processes a complete L2 frame received on ifcNum.
type FrameHandler func(ifcNum uint16, frame []byte)

// ControlHandler processes one newline-terminated operator command line.
type ControlHandler func(line string)

// MACHandler processes a MAC address assignment for ifcNum.
type MACHandler func(ifcNum uint16, mac ethernet.MAC)

// Harness is the framed transport binding a process's stdin/stdout to the
// event-loop callbacks described in spec.md §6.
type Harness struct {
	r *bufio.Reader
	w io.Writer
}

// New wraps r/w as the harness's incoming/outgoing streams.
func New(r io.Reader, w io.Writer) *Harness {
	return &Harness{r: bufio.NewReader(r), w: w}
}

// Loop blocks reading framed messages from the incoming stream, dispatching
// exactly one of onFrame/onControl/onMAC per message, until EOF or a read
// error. It never invokes two callbacks concurrently, matching spec.md §5's
// serial event-loop contract.
func (h *Harness) Loop(onFrame FrameHandler, onControl ControlHandler, onMAC MACHandler) error {
	var hdr [headerLen]byte
	for {
		if _, err := io.ReadFull(h.r, hdr[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("harness: reading header: %w", err)
		}
		size := binary.BigEndian.Uint16(hdr[0:2])
		typ := binary.BigEndian.Uint16(hdr[2:4])
		if size < headerLen {
			return fmt.Errorf("harness: malformed header: size %d below header length", size)
		}
		payload := make([]byte, size-headerLen)
		if _, err := io.ReadFull(h.r, payload); err != nil {
			return fmt.Errorf("harness: reading payload: %w", err)
		}

		switch typ {
		case typeControl:
			onControl(string(payload))
		case typeMAC:
			if len(payload) < 8 {
				return fmt.Errorf("harness: malformed MAC assignment message")
			}
			ifcNum := binary.BigEndian.Uint16(payload[0:2])
			var mac ethernet.MAC
			copy(mac[:], payload[2:8])
			onMAC(ifcNum, mac)
		default:
			onFrame(typ, payload)
		}
	}
}

// Emit writes a complete frame out on ifcNum, per spec.md §6's outer
// transport framing.
func (h *Harness) Emit(ifcNum uint16, frame []byte) error {
	size := headerLen + len(frame)
	if size > int(^uint16(0)) {
		panic(fmt.Sprintf("harness: emit size %d exceeds u16 range", size))
	}
	buf := make([]byte, size)
	binary.BigEndian.PutUint16(buf[0:2], uint16(size))
	binary.BigEndian.PutUint16(buf[2:4], ifcNum)
	copy(buf[headerLen:], frame)
	_, err := h.w.Write(buf)
	return err
}
