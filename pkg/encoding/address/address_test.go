package address_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/encoding/address"
	"github.com/n3-core/node/pkg/util"
)

func TestAddressRoundTrip(t *testing.T) {
	var u util.Uint160
	for i := range u {
		u[i] = byte(i)
	}
	const version = 0x35

	s := address.Uint160ToString(u, version)
	decoded, err := address.StringToUint160(s, version)
	require.NoError(t, err)
	assert.Equal(t, u, decoded)
}

func TestAddressWrongVersionRejected(t *testing.T) {
	var u util.Uint160
	s := address.Uint160ToString(u, 0x35)
	_, err := address.StringToUint160(s, 0x17)
	assert.Error(t, err)
}
