package voice

import (
	"bytes"
	"fmt"
	"io"
)

// Ogg page constants
const (
	oggCapturePattern = "OggS"
	oggHeaderSize     = 27
)

var (
	opusHeadMagic = []byte("OpusHead")
	opusTagsMagic = []byte("OpusTags")
)

// FormatOggOpus is the only format the pipeline produces. The synthesis
// provider's output format is pinned by configuration, so a failed probe
// is treated as a probe limitation and the bytes are played as Ogg/Opus
// anyway.
const FormatOggOpus = "ogg/opus"

// ProbeOggOpus reports whether data looks like an Ogg stream carrying an
// Opus head packet on its first page.
func ProbeOggOpus(data []byte) bool {
	if len(data) < oggHeaderSize {
		return false
	}
	if string(data[0:4]) != oggCapturePattern {
		return false
	}
	segCount := int(data[26])
	if len(data) < oggHeaderSize+segCount {
		return false
	}
	// First packet of a sane Ogg Opus stream is OpusHead
	firstPacket := data[oggHeaderSize+segCount:]
	return bytes.HasPrefix(firstPacket, opusHeadMagic)
}

// PacketScanner walks Ogg pages and yields opus packets ready for the
// voice transport. Header packets (OpusHead, OpusTags) are skipped. The
// scanner is single-use and not restartable.
type PacketScanner struct {
	r       io.Reader
	header  [oggHeaderSize]byte
	pending []byte // packet continued from the previous page
	queue   [][]byte
}

// NewPacketScanner wraps a raw Ogg byte stream.
func NewPacketScanner(r io.Reader) *PacketScanner {
	return &PacketScanner{r: r}
}

// Next returns the next opus packet, or io.EOF when the stream is
// drained.
func (s *PacketScanner) Next() ([]byte, error) {
	for {
		if len(s.queue) > 0 {
			pkt := s.queue[0]
			s.queue = s.queue[1:]
			if isHeaderPacket(pkt) {
				continue
			}
			return pkt, nil
		}
		if err := s.readPage(); err != nil {
			return nil, err
		}
	}
}

// readPage consumes one Ogg page and appends its completed packets to the
// queue. Packets whose final lacing value is 255 continue on the next
// page.
func (s *PacketScanner) readPage() error {
	if _, err := io.ReadFull(s.r, s.header[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return io.EOF
		}
		return err
	}

	if string(s.header[0:4]) != oggCapturePattern {
		return fmt.Errorf("invalid ogg page header")
	}

	segCount := int(s.header[26])
	if segCount == 0 {
		return nil
	}

	segTable := make([]byte, segCount)
	if _, err := io.ReadFull(s.r, segTable); err != nil {
		return err
	}

	for _, lacing := range segTable {
		segLen := int(lacing)
		if segLen > 0 {
			seg := make([]byte, segLen)
			if _, err := io.ReadFull(s.r, seg); err != nil {
				return err
			}
			s.pending = append(s.pending, seg...)
		}
		if segLen < 255 {
			if len(s.pending) > 0 {
				pkt := make([]byte, len(s.pending))
				copy(pkt, s.pending)
				s.queue = append(s.queue, pkt)
				s.pending = s.pending[:0]
			}
		}
	}

	return nil
}

func isHeaderPacket(pkt []byte) bool {
	return bytes.HasPrefix(pkt, opusHeadMagic) || bytes.HasPrefix(pkt, opusTagsMagic)
}

// Resource is a single-use playable stream plus its format tag.
type Resource struct {
	Format  string
	scanner *PacketScanner
}

// NewResource probes raw synthesized bytes and wraps them for playback.
// Probe failure falls back to Ogg/Opus; the provider's default output
// format is fixed by configuration, so malformed-looking audio most
// likely means a probe limitation rather than bad audio.
func NewResource(data []byte) (*Resource, bool) {
	probed := ProbeOggOpus(data)
	return &Resource{
		Format:  FormatOggOpus,
		scanner: NewPacketScanner(bytes.NewReader(data)),
	}, probed
}

// Next yields the next opus packet of the resource.
func (r *Resource) Next() ([]byte, error) {
	return r.scanner.Next()
}
