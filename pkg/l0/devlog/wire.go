//go:build !tinygo

package devlog

import "github.com/golang/protobuf/proto"

func sizeVarint(v uint64) int {
	return proto.SizeVarint(v)
}

func appendVarint(b []byte, v uint64) []byte {
	buf := proto.NewBuffer(b)
	buf.EncodeVarint(v)
	return buf.Bytes()
}

func appendString(b []byte, s string) []byte {
	buf := proto.NewBuffer(b)
	buf.EncodeStringBytes(s)
	return buf.Bytes()
}

func decodeVarint(b []byte) (uint64, int) {
	return proto.DecodeVarint(b)
}
