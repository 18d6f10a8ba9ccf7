package rpc

import (
	"encoding/hex"

	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

var emptyHash util.Uint256

func hexBytes(b []byte) string { return "0x" + hex.EncodeToString(b) }

func binWriter() *io.BufBinWriter { return io.NewBufBinWriter() }
