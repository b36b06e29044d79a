package goaes67

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pion/rtp"

	"github.com/bluenviron/goaes67/pkg/description"
	"github.com/bluenviron/goaes67/pkg/jitterbuffer"
	"github.com/bluenviron/goaes67/pkg/mixer"
	"github.com/bluenviron/goaes67/pkg/multicast"
	"github.com/bluenviron/goaes67/pkg/pcm"
	"github.com/bluenviron/goaes67/pkg/splitter"
)

// StreamStats are statistics of a Stream.
type StreamStats struct {
	// number of RTP packets received.
	PacketsReceived uint64
	// number of bytes received.
	BytesReceived uint64
	// number of datagrams discarded because they do not contain a
	// valid RTP header.
	PacketsMalformed uint64
	// number of chunks dropped by the jitter buffer.
	JitterBufferOverflows uint64
	// fields of the most recent RTP header.
	LastSSRC           uint32
	LastSequenceNumber uint16
	LastTimestamp      uint32
}

// Stream is a playing stream: a receiver bound to an announced
// session, feeding decoded audio into the mixed output through a
// jitter buffer.
type Stream struct {
	r *Receiver

	// identifier of this pipeline instance (read only).
	// It stays stable across re-announcements of the session.
	ID uuid.UUID

	// session the stream was bound to (read only).
	Session description.Session

	bufferDuration time.Duration

	pc      multicast.Conn
	jb      *jitterbuffer.JitterBuffer
	dec     *pcm.Decoder
	split   *splitter.Splitter
	outputs []mixer.Source

	closing int32
	done    chan struct{}

	packetsReceived  uint64
	bytesReceived    uint64
	packetsMalformed uint64
	lastSSRC         uint32
	lastSeq          uint32
	lastTimestamp    uint32
}

func (s *Stream) initialize() error {
	err := s.initializePipeline()
	if err != nil {
		return err
	}

	// a bind or join failure is fatal to this stream only.
	pc, err := multicast.NewConn(
		s.r.MulticastInterface,
		s.Session.Address+":"+strconv.Itoa(s.Session.Port),
		s.r.ListenPacket,
	)
	if err != nil {
		return err
	}

	err = pc.SetReadBuffer(s.r.UDPReadBufferSize)
	if err != nil {
		pc.Close() //nolint:errcheck
		return err
	}

	s.pc = pc
	return nil
}

// initializePipeline builds the decode chain of the session:
// jitter buffer -> width conversion -> optional channel split.
func (s *Stream) initializePipeline() error {
	sess := &s.Session

	// codec-driven builder selection: only 24-bit PCM is decodable.
	if sess.Codec != description.CodecL24 {
		return ErrUnsupportedCodec{Codec: sess.Codec}
	}

	if sess.Address == "" || sess.Port == 0 ||
		sess.SampleRate <= 0 || sess.ChannelCount <= 0 {
		return ErrSessionIncomplete{Name: sess.Name}
	}

	s.ID = uuid.New()

	jb, err := jitterbuffer.NewWithDuration(s.bufferDuration, sess.ByteRate())
	if err != nil {
		return err
	}
	s.jb = jb

	dec, err := pcm.NewDecoder(sess.Codec.BitDepth(), jb)
	if err != nil {
		return err
	}
	s.dec = dec

	if sess.ChannelCount > 1 {
		bufferSamples := int(s.bufferDuration * time.Duration(sess.SampleRate) / time.Second)

		split, err := splitter.New(dec, sess.ChannelCount, bufferSamples)
		if err != nil {
			return err
		}
		s.split = split

		for _, out := range split.Outputs() {
			s.outputs = append(s.outputs, out)
		}
	} else {
		s.outputs = []mixer.Source{dec}
	}

	return nil
}

func (s *Stream) start() {
	s.done = make(chan struct{})
	go s.run()
}

func (s *Stream) close() {
	atomic.StoreInt32(&s.closing, 1)
	s.pc.Close() //nolint:errcheck
	<-s.done
}

func (s *Stream) run() {
	defer close(s.done)

	buf := make([]byte, udpMaxPayloadSize+1)

	for {
		n, _, err := s.pc.ReadFrom(buf)
		if err != nil {
			if atomic.LoadInt32(&s.closing) == 0 {
				s.r.streamError(s, err)
			}
			return
		}

		s.processDatagram(buf[:n])
	}
}

// processDatagram validates the RTP header of a datagram and pushes
// its payload, byte-order corrected, into the jitter buffer.
// Datagrams without a valid header are discarded: non-RTP traffic on
// the group is not an error.
func (s *Stream) processDatagram(buf []byte) {
	var h rtp.Header
	n, err := h.Unmarshal(buf)
	if err != nil {
		atomic.AddUint64(&s.packetsMalformed, 1)
		return
	}

	atomic.AddUint64(&s.packetsReceived, 1)
	atomic.AddUint64(&s.bytesReceived, uint64(len(buf)))

	// sequence number and timestamp are not used for reordering or
	// loss detection; they are surfaced through Stats only.
	atomic.StoreUint32(&s.lastSSRC, h.SSRC)
	atomic.StoreUint32(&s.lastSeq, uint32(h.SequenceNumber))
	atomic.StoreUint32(&s.lastTimestamp, h.Timestamp)

	s.jb.Write(pcm.SwapEndian24(buf[n:]))
}

// Stats returns a snapshot of the stream statistics.
func (s *Stream) Stats() StreamStats {
	return StreamStats{
		PacketsReceived:       atomic.LoadUint64(&s.packetsReceived),
		BytesReceived:         atomic.LoadUint64(&s.bytesReceived),
		PacketsMalformed:      atomic.LoadUint64(&s.packetsMalformed),
		JitterBufferOverflows: s.jb.Overflows(),
		LastSSRC:              atomic.LoadUint32(&s.lastSSRC),
		LastSequenceNumber:    uint16(atomic.LoadUint32(&s.lastSeq)),
		LastTimestamp:         atomic.LoadUint32(&s.lastTimestamp),
	}
}
