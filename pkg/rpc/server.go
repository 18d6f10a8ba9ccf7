// Package rpc implements the JSON-RPC 2.0 method contracts a full node
// exposes over its query surface (spec §4.L). It dispatches against a
// core.Blockchain, its mempool and a network.Server, converting between
// the wire-level request/response packages and the ledger's internal
// types; the HTTP/WS transport that carries these envelopes is not part
// of this package.
package rpc

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/n3-core/node/pkg/config"
	"github.com/n3-core/node/pkg/core"
	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/mempool"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/network"
	"github.com/n3-core/node/pkg/network/payload"
	"github.com/n3-core/node/pkg/rpc/request"
	"github.com/n3-core/node/pkg/rpc/response/result"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
)

// Server dispatches JSON-RPC method calls against a running node. It
// holds no transport of its own; an HTTP or WS listener decodes a
// Request envelope and calls HandleRequest.
type Server struct {
	chain *core.Blockchain
	net   *network.Server
	cfg   config.Config
	log   *zap.Logger
}

// New constructs a Server over an already-running chain and network.
// net may be nil for a node that never enables P2P (e.g. an
// invoke-only read replica); network/peer methods then report zero
// values rather than failing.
func New(chain *core.Blockchain, net *network.Server, cfg config.Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{chain: chain, net: net, cfg: cfg, log: log}
}

// addressVersion is the network byte every address-rendering result
// field uses.
func (s *Server) addressVersion() byte { return s.cfg.ProtocolConfiguration.AddressVersion }

// HandleRequest dispatches one already-decoded method call, returning
// either a JSON-marshalable result or a JSON-RPC Error. Transport-level
// concerns (batching, the id field, parse errors) are the caller's.
func (s *Server) HandleRequest(method string, params request.Params) (interface{}, *Error) {
	switch method {
	case "getblock":
		return s.getBlock(params)
	case "getblockcount":
		return s.getBlockCount()
	case "getblockhash":
		return s.getBlockHash(params)
	case "getblockheader":
		return s.getBlockHeader(params)
	case "getrawtransaction":
		return s.getRawTransaction(params)
	case "gettransactionheight":
		return s.getTransactionHeight(params)
	case "sendrawtransaction":
		return s.sendRawTransaction(params)
	case "calculatenetworkfee":
		return s.calculateNetworkFee(params)
	case "getapplicationlog":
		return s.getApplicationLog(params)
	case "getcontractstate":
		return s.getContractState(params)
	case "getstorage":
		return s.getStorage(params)
	case "findstorage":
		return s.findStorage(params)
	case "getstateroot":
		return s.getStateRoot(params)
	case "getproof":
		return s.getProof(params)
	case "verifyproof":
		return s.verifyProof(params)
	case "getnep17balances":
		return s.getNEP17Balances(params)
	case "getnep17transfers":
		return s.getNEP17Transfers(params)
	case "getcommittee":
		return s.getCommittee()
	case "getnextblockvalidators":
		return s.getNextBlockValidators()
	case "getunclaimedgas":
		return s.getUnclaimedGas(params)
	case "getpeers":
		return s.getPeers()
	case "getconnectioncount":
		return s.getConnectionCount()
	case "getversion":
		return s.getVersion()
	case "listplugins":
		return s.listPlugins()
	case "invokefunction":
		return s.invokeFunction(params)
	case "invokescript":
		return s.invokeScript(params)
	case "validateaddress":
		return s.validateAddress(params)
	case "listmethods":
		return s.listMethods(), nil
	default:
		return nil, ErrMethodNotFound(method)
	}
}

func decode(s io.Serializable, b []byte) error {
	r := io.NewBinReaderFromBuf(b)
	s.DecodeBinary(r)
	return r.Err
}

var methodNames = []string{
	"getblock", "getblockcount", "getblockhash", "getblockheader",
	"getrawtransaction", "gettransactionheight", "sendrawtransaction",
	"calculatenetworkfee", "getapplicationlog", "getcontractstate",
	"getstorage", "findstorage", "getstateroot", "getproof", "verifyproof",
	"getnep17balances", "getnep17transfers", "getcommittee",
	"getnextblockvalidators", "getunclaimedgas", "getpeers",
	"getconnectioncount", "getversion", "listplugins", "invokefunction",
	"invokescript", "validateaddress", "listmethods",
}

func (s *Server) listMethods() []string { return methodNames }

// getBlockByParam resolves a getblock/getblockheader first parameter,
// which may be either a "0x"-prefixed hash or a numeric index.
func (s *Server) getBlockByParam(p request.Param) (*block.Block, *Error) {
	if hash, err := p.GetUint256(); err == nil {
		b, err := s.chain.GetBlock(hash)
		if err != nil {
			return nil, ErrUnknownBlock(err)
		}
		return b, nil
	}
	idx, err := p.GetInt()
	if err != nil || idx < 0 {
		return nil, ErrInvalidBlockIndex(fmt.Errorf("%v", p))
	}
	if uint32(idx) > s.chain.BlockHeight() {
		return nil, ErrUnknownBlock(fmt.Errorf("index %d exceeds current height", idx))
	}
	hash := s.chain.GetHeaderHash(uint32(idx))
	b, err := s.chain.GetBlock(hash)
	if err != nil {
		return nil, ErrUnknownBlock(err)
	}
	return b, nil
}
