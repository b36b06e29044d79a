// Package description contains objects to describe announced streams.
package description

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	psdp "github.com/pion/sdp/v3"
)

// time after which a session that has not been re-announced
// stops being considered active.
const keepAlivePeriod = 60 * time.Second

func atoiDefault(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Session is the description of an announced stream.
// It is filled from the SDP payload of a SAP announcement.
type Session struct {
	// session name. Announcements with the same name
	// refer to the same session.
	Name string

	// address of the announcement origin.
	Origin string

	// multicast group the stream is sent to.
	Address string

	// UDP port the stream is sent to.
	Port int

	// RTP payload type.
	PayloadType uint8

	// audio codec.
	Codec Codec

	// sample rate in Hz.
	SampleRate int

	// channel count.
	ChannelCount int

	// duration of the audio contained in a single packet.
	PacketTime time.Duration

	// reference clock (verbatim content of the ts-refclk attribute).
	ClockRef string

	// whether the session is receive-only.
	ReceiveOnly bool

	// time the session was last announced.
	LastSeen time.Time
}

// Active returns whether the session has been announced recently
// enough to be considered available.
func (s *Session) Active(now time.Time) bool {
	return s.LastSeen.Add(keepAlivePeriod).After(now)
}

// ByteRate returns the stream rate in bytes per second,
// or zero when the description is incomplete or not PCM.
func (s *Session) ByteRate() int {
	return s.SampleRate * s.ChannelCount * s.Codec.BitDepth() / 8
}

// Unmarshal fills the session from announcement text.
// Parsing is best-effort and never fails: announcements are advisory
// and repeated, therefore unrecognized or malformed lines are skipped
// and missing fields keep their zero value.
func (s *Session) Unmarshal(buf []byte) {
	for _, line := range strings.Split(string(buf), "\n") {
		line = strings.TrimRight(line, "\r")
		if len(line) < 2 || line[1] != '=' {
			continue
		}
		val := line[2:]

		switch line[0] {
		case 's':
			s.Name = strings.TrimSpace(val)

		case 'o':
			s.unmarshalOrigin(val)

		case 'c':
			s.unmarshalConnection(val)

		case 'm':
			s.unmarshalMedia(val)

		case 'a':
			s.unmarshalAttribute(val)
		}
	}
}

// standard origin layout is
// <username> <sess-id> <sess-version> <nettype> <addrtype> <unicast-address>;
// like most SAP senders, some omit or merge fields, so the address is
// taken as the last token.
func (s *Session) unmarshalOrigin(val string) {
	fields := strings.Fields(val)
	if len(fields) < 5 {
		return
	}
	s.Origin = fields[len(fields)-1]
}

func (s *Session) unmarshalConnection(val string) {
	fields := strings.Fields(val)
	if len(fields) != 3 || fields[0] != "IN" || fields[1] != "IP4" {
		return
	}

	// strip the TTL suffix, if present.
	addr, _, _ := strings.Cut(fields[2], "/")
	s.Address = addr
}

func (s *Session) unmarshalMedia(val string) {
	fields := strings.Fields(val)
	if len(fields) < 4 || fields[0] != "audio" {
		return
	}

	s.Port = atoiDefault(fields[1], 0)

	// first listed payload type wins.
	pt, err := strconv.ParseUint(fields[3], 10, 7)
	if err != nil {
		return
	}
	s.PayloadType = uint8(pt)
}

func (s *Session) unmarshalAttribute(val string) {
	switch {
	case val == "recvonly":
		s.ReceiveOnly = true

	case strings.HasPrefix(val, "rtpmap:"):
		s.unmarshalRTPMap(val[len("rtpmap:"):])

	case strings.HasPrefix(val, "ptime:"):
		ms, err := strconv.ParseFloat(val[len("ptime:"):], 64)
		if err == nil {
			s.PacketTime = time.Duration(ms * float64(time.Millisecond))
		}

	case strings.HasPrefix(val, "ts-refclk:"):
		s.ClockRef = val[len("ts-refclk:"):]
	}
}

func (s *Session) unmarshalRTPMap(val string) {
	ptStr, enc, ok := strings.Cut(val, " ")
	if !ok {
		return
	}

	// only the entry of the payload type declared
	// by the media line is applied.
	pt, err := strconv.ParseUint(ptStr, 10, 7)
	if err != nil || uint8(pt) != s.PayloadType {
		return
	}

	parts := strings.Split(enc, "/")
	s.Codec = codecFromName(parts[0])

	if len(parts) >= 2 {
		s.SampleRate = atoiDefault(parts[1], 0)
	}
	if len(parts) >= 3 {
		s.ChannelCount = atoiDefault(parts[2], 0)
	}
}

// Marshal encodes the session as SDP.
func (s Session) Marshal() ([]byte, error) {
	if s.Codec == CodecUnknown {
		return nil, fmt.Errorf("codec cannot be marshaled")
	}

	rtpmap := s.Codec.String() + "/" + strconv.Itoa(s.SampleRate)
	if s.ChannelCount > 0 {
		rtpmap += "/" + strconv.Itoa(s.ChannelCount)
	}

	attributes := []psdp.Attribute{
		{
			Key:   "rtpmap",
			Value: strconv.Itoa(int(s.PayloadType)) + " " + rtpmap,
		},
	}

	if s.PacketTime != 0 {
		attributes = append(attributes, psdp.Attribute{
			Key:   "ptime",
			Value: strconv.FormatFloat(float64(s.PacketTime)/float64(time.Millisecond), 'g', -1, 64),
		})
	}

	if s.ClockRef != "" {
		attributes = append(attributes, psdp.Attribute{
			Key:   "ts-refclk",
			Value: s.ClockRef,
		})
	}

	if s.ReceiveOnly {
		attributes = append(attributes, psdp.Attribute{
			Key: "recvonly",
		})
	}

	sout := &psdp.SessionDescription{
		Origin: psdp.Origin{
			Username:       "-",
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: s.Origin,
		},
		SessionName: psdp.SessionName(s.Name),
		ConnectionInformation: &psdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &psdp.Address{Address: s.Address},
		},
		TimeDescriptions: []psdp.TimeDescription{{}},
		MediaDescriptions: []*psdp.MediaDescription{{
			MediaName: psdp.MediaName{
				Media:   "audio",
				Port:    psdp.RangedPort{Value: s.Port},
				Protos:  []string{"RTP", "AVP"},
				Formats: []string{strconv.Itoa(int(s.PayloadType))},
			},
			Attributes: attributes,
		}},
	}

	return sout.Marshal()
}
