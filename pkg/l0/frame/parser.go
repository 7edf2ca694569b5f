package frame

// Parser splits a device byte stream into text bytes and frames.
type Parser struct {
	state   parseState
	frame   *Frame
	recvLen int
	dropped int
}

// ParseResult is the result of one parsing step.
// At most one of Text and Frame is set.
type ParseResult struct {
	Text    byte
	IsText  bool
	Frame   *Frame
	Dropped bool
}

type parseState int

const (
	stateText parseState = iota // outside of a frame
	stateSeq                    // Sync received, waiting for seq
	stateCode                   // waiting for code
	stateLen                    // waiting for long length
	stateData                   // waiting for payload
)

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.state, p.frame, p.recvLen = stateText, nil, 0
}

// InFrame reports whether a frame is partially received.
func (p *Parser) InFrame() bool {
	return p.state != stateText
}

// Dropped returns the number of malformed frame headers skipped so far.
func (p *Parser) Dropped() int {
	return p.dropped
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateText:
		if b == Sync {
			p.state = stateSeq
			return
		}
		pr.Text, pr.IsText = b, true
	case stateSeq:
		seq := Seq(b)
		if !seq.IsValid() {
			return p.drop()
		}
		p.frame = &Frame{Seq: seq}
		p.state = stateCode
	case stateCode:
		if b&codeEvent == 0 {
			return p.drop()
		}
		p.frame.Level = Level(b & codeLevelMask)
		p.frame.Truncated = b&codeTruncated != 0
		switch dataLen := int(b&codeLenMask) >> 4; dataLen {
		case 0:
			return p.frameReady()
		case shortLenMax:
			p.state = stateLen
		default:
			p.frame.Payload, p.recvLen = make([]byte, dataLen), 0
			p.state = stateData
		}
	case stateLen:
		if int(b) > MaxPayload {
			return p.drop()
		}
		if b == 0 {
			return p.frameReady()
		}
		p.frame.Payload, p.recvLen = make([]byte, b), 0
		p.state = stateData
	case stateData:
		p.frame.Payload[p.recvLen] = b
		p.recvLen++
		if p.recvLen >= len(p.frame.Payload) {
			return p.frameReady()
		}
	}
	return
}

func (p *Parser) drop() (pr ParseResult) {
	p.Reset()
	p.dropped++
	pr.Dropped = true
	return
}

func (p *Parser) frameReady() (pr ParseResult) {
	pr.Frame, p.frame = p.frame, nil
	p.state, p.recvLen = stateText, 0
	return
}
