package stackitem

import (
	"math/big"

	"github.com/n3-core/node/pkg/encoding/bigint"
)

func bigIntToBytes(v *big.Int) []byte { return bigint.ToBytes(v) }

func bytesToBigInt(b []byte) *big.Int { return bigint.FromBytes(b) }
