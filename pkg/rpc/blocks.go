package rpc

import (
	"fmt"

	"github.com/n3-core/node/pkg/rpc/request"
	"github.com/n3-core/node/pkg/rpc/response/result"
)

func (s *Server) getBlockCount() (interface{}, *Error) {
	return s.chain.BlockHeight() + 1, nil
}

func (s *Server) getBlockHash(params request.Params) (interface{}, *Error) {
	p, err := params.Value(0)
	if err != nil {
		return nil, ErrInvalidParams(err)
	}
	idx, err := p.GetInt()
	if err != nil || idx < 0 {
		return nil, ErrInvalidBlockIndex(fmt.Errorf("%v", p))
	}
	if uint32(idx) > s.chain.BlockHeight() {
		return nil, ErrUnknownBlock(fmt.Errorf("index %d exceeds current height", idx))
	}
	return s.chain.GetHeaderHash(uint32(idx)), nil
}

func (s *Server) getBlock(params request.Params) (interface{}, *Error) {
	p, err := params.Value(0)
	if err != nil {
		return nil, ErrInvalidParams(err)
	}
	b, rpcErr := s.getBlockByParam(p)
	if rpcErr != nil {
		return nil, rpcErr
	}
	verbose := params.ValueWithDefault(1, request.Param{}).AsBool(false)
	if !verbose {
		w := binWriter()
		b.EncodeBinary(w.BinWriter)
		return hexBytes(w.Bytes()), nil
	}
	out := result.NewBlock(b, s.addressVersion())
	out.Confirmations = s.chain.BlockHeight() - b.Index + 1
	if next := s.chain.GetHeaderHash(b.Index + 1); !next.Equals(emptyHash) {
		nh := next
		out.NextBlockHash = &nh
	}
	return out, nil
}

func (s *Server) getBlockHeader(params request.Params) (interface{}, *Error) {
	p, err := params.Value(0)
	if err != nil {
		return nil, ErrInvalidParams(err)
	}
	b, rpcErr := s.getBlockByParam(p)
	if rpcErr != nil {
		return nil, rpcErr
	}
	verbose := params.ValueWithDefault(1, request.Param{}).AsBool(false)
	if !verbose {
		w := binWriter()
		b.Header.EncodeBinary(w.BinWriter)
		return hexBytes(w.Bytes()), nil
	}
	out := result.NewHeader(&b.Header, s.addressVersion())
	out.Confirmations = s.chain.BlockHeight() - b.Index + 1
	if next := s.chain.GetHeaderHash(b.Index + 1); !next.Equals(emptyHash) {
		nh := next
		out.NextBlockHash = &nh
	}
	return out, nil
}
