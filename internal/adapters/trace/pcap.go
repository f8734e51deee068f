// Package trace writes every simulated frame to a pcap file so a run can
// be inspected in Wireshark.
package trace

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/lcalzada-xor/fstsim/internal/core/domain"
	"github.com/lcalzada-xor/fstsim/internal/core/ports"
)

// Simulation time zero on the capture clock. Pcap timestamps are absolute,
// simulated ones are offsets.
var captureEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// PcapTrace renders frames as 802.11 packets behind a minimal Radiotap
// header and appends them to a capture file.
type PcapTrace struct {
	f *os.File
	w *pcapgo.Writer
}

// New creates (or truncates) the capture file at path and writes the pcap
// file header.
func New(path string) (*PcapTrace, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating pcap file %s: %w", path, err)
	}
	w := pcapgo.NewWriter(f)
	// LinkType 127 is DLT_IEEE802_11_RADIO (Radiotap).
	if err := w.WriteFileHeader(65536, layers.LinkTypeIEEE80211Radio); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing pcap header: %w", err)
	}
	return &PcapTrace{f: f, w: w}, nil
}

// RecordFrame serializes f as Radiotap + Dot11 + payload and appends it with
// the simulated timestamp.
func (t *PcapTrace) RecordFrame(ts time.Duration, standard domain.PhyStandard, f domain.Frame) error {
	src, err := net.ParseMAC(string(f.Src))
	if err != nil {
		return fmt.Errorf("bad source address %q: %w", f.Src, err)
	}
	dst, err := net.ParseMAC(string(f.Dst))
	if err != nil {
		return fmt.Errorf("bad destination address %q: %w", f.Dst, err)
	}

	radiotap := &layers.RadioTap{
		Present: layers.RadioTapPresentRate,
		Rate:    layers.RadioTapRate(rateFor(standard)),
	}
	dot11 := &layers.Dot11{
		Type:     layers.Dot11TypeData,
		Address1: dst,
		Address2: src,
		Address3: dst,
	}
	if f.Management {
		dot11.Type = layers.Dot11TypeMgmtAction
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	if err := gopacket.SerializeLayers(buf, opts, radiotap, dot11, gopacket.Payload(f.Payload)); err != nil {
		return fmt.Errorf("serializing frame: %w", err)
	}

	data := buf.Bytes()
	ci := gopacket.CaptureInfo{
		Timestamp:     captureEpoch.Add(ts),
		CaptureLength: len(data),
		Length:        len(data),
	}
	return t.w.WritePacket(ci, data)
}

// Close flushes and closes the capture file.
func (t *PcapTrace) Close() error {
	return t.f.Close()
}

// rateFor picks a nominal Radiotap rate (500 kbps units) per standard, so
// the band a frame crossed is readable from the capture.
func rateFor(standard domain.PhyStandard) uint8 {
	switch standard {
	case domain.Standard80211ad:
		return 54
	case domain.Standard80211n5GHz:
		return 24
	default:
		return 12
	}
}

var _ ports.TraceSink = (*PcapTrace)(nil)
