package payload

import (
	"errors"

	"github.com/n3-core/node/pkg/io"
)

// CapabilityType distinguishes a Version message's advertised
// capabilities (spec §4.K "Handshake").
type CapabilityType byte

// Capability types.
const (
	CapTCPServer CapabilityType = iota
	CapWSServer
	CapFullNode
	CapDisableCompression
	CapArchivalNode
)

// Capability is one advertised service; Data is CapTCPServer/CapWSServer's
// port or CapFullNode's start height, unused (0) for the flag-only types.
type Capability struct {
	Type CapabilityType
	Data uint32
}

// EncodeBinary implements io.Serializable.
func (c *Capability) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(c.Type))
	switch c.Type {
	case CapTCPServer, CapWSServer:
		w.WriteU16LE(uint16(c.Data))
	case CapFullNode:
		w.WriteU32LE(c.Data)
	}
}

// DecodeBinary implements io.Serializable.
func (c *Capability) DecodeBinary(r *io.BinReader) {
	c.Type = CapabilityType(r.ReadB())
	switch c.Type {
	case CapTCPServer, CapWSServer:
		c.Data = uint32(r.ReadU16LE())
	case CapFullNode:
		c.Data = r.ReadU32LE()
	}
}

// Version is the handshake message each side sends immediately on
// connect (spec §4.K "Handshake").
type Version struct {
	Network      uint32
	Version      uint32
	Timestamp    uint32
	Nonce        uint32
	UserAgent    string
	Capabilities []Capability
}

// ErrDuplicateCapability is returned by DecodeBinary when two
// capabilities of the same type are present (spec §4.K "Duplicate
// capability types are an error").
var ErrDuplicateCapability = errors.New("payload: duplicate capability type in Version")

// EncodeBinary implements io.Serializable.
func (v *Version) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(v.Network)
	w.WriteU32LE(v.Version)
	w.WriteU32LE(v.Timestamp)
	w.WriteU32LE(v.Nonce)
	w.WriteString(v.UserAgent)
	io.WriteArray(w, v.Capabilities, func(w *io.BinWriter, c Capability) { c.EncodeBinary(w) })
}

// DecodeBinary implements io.Serializable.
func (v *Version) DecodeBinary(r *io.BinReader) {
	v.Network = r.ReadU32LE()
	v.Version = r.ReadU32LE()
	v.Timestamp = r.ReadU32LE()
	v.Nonce = r.ReadU32LE()
	v.UserAgent = r.ReadString(1024)
	v.Capabilities = io.ReadArray(r, func(r *io.BinReader) Capability {
		var c Capability
		c.DecodeBinary(r)
		return c
	}, 32)
	if r.Err != nil {
		return
	}
	seen := map[CapabilityType]bool{}
	for _, c := range v.Capabilities {
		if seen[c.Type] {
			r.Err = ErrDuplicateCapability
			return
		}
		seen[c.Type] = true
	}
}

// StartHeight reports the CapFullNode capability's advertised height,
// or 0 if the peer doesn't advertise full-node service.
func (v *Version) StartHeight() uint32 {
	for _, c := range v.Capabilities {
		if c.Type == CapFullNode {
			return c.Data
		}
	}
	return 0
}

// HasCapability reports whether t is among v's advertised capabilities.
func (v *Version) HasCapability(t CapabilityType) bool {
	for _, c := range v.Capabilities {
		if c.Type == t {
			return true
		}
	}
	return false
}
