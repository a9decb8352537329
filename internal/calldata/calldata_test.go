package calldata

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	feeSweep = common.HexToAddress("0x00000000000000000000000000000000000000fe")
	artToken = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func packAccount(t *testing.T, method string, args ...any) []byte {
	t.Helper()
	data, err := SmartAccount.ABI.Pack(method, args...)
	require.NoError(t, err)
	return data
}

func TestDecodeExecute(t *testing.T) {
	inner, err := SponsoredContract.ABI.Pack("mint", "ipfs://cert")
	require.NoError(t, err)
	data := packAccount(t, "execute", artToken, big.NewInt(0), inner)

	dec, err := Decode(SmartAccount, data)
	require.NoError(t, err)
	require.Equal(t, "execute", dec.Name)
	require.Len(t, dec.Args, 3)
	require.Equal(t, artToken, dec.Args[0])
	require.Equal(t, inner, dec.Args[2])

	target, err := Decode(SponsoredContract, inner)
	require.NoError(t, err)
	require.Equal(t, "mint", target.Name)
	require.Equal(t, "ipfs://cert", target.Args[0])
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortCallData},
		{"short", []byte{0xb6, 0x1d, 0x27}, ErrShortCallData},
		{"unknown selector", []byte{0xde, 0xad, 0xbe, 0xef, 0x00}, ErrUnknownSelector},
		{"truncated args", append(append([]byte{}, SmartAccount.ABI.Methods["execute"].ID...), make([]byte, 10)...), ErrMalformedArgs},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(SmartAccount, tc.data)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			require.Equal(t, "smart-account", de.Schema)
		})
	}
}

func TestExtractExecute(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	data := packAccount(t, "execute", artToken, huge, []byte{0x01, 0x02})
	dec, err := Decode(SmartAccount, data)
	require.NoError(t, err)

	acct, err := Classify(dec)
	require.NoError(t, err)
	require.IsType(t, Execute{}, acct)

	calls := acct.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, artToken, calls[0].Target)
	require.Equal(t, huge, calls[0].Value.ToBig())
	require.Equal(t, []byte{0x01, 0x02}, calls[0].Data)
}

func TestExtractBatchKeepsOrder(t *testing.T) {
	burn, err := SponsoredContract.ABI.Pack("burn", big.NewInt(7))
	require.NoError(t, err)
	data := packAccount(t, "executeBatch", []batchCall{
		{Target: feeSweep, Value: big.NewInt(1000), Data: []byte{}},
		{Target: artToken, Value: big.NewInt(0), Data: burn},
	})
	dec, err := Decode(SmartAccount, data)
	require.NoError(t, err)

	calls, err := Extract(dec)
	require.NoError(t, err)
	require.Len(t, calls, 2)
	require.Equal(t, feeSweep, calls[0].Target)
	require.Equal(t, uint64(1000), calls[0].Value.Uint64())
	require.Equal(t, artToken, calls[1].Target)
	require.Equal(t, burn, calls[1].Data)
}

func TestExtractEmptyBatch(t *testing.T) {
	data := packAccount(t, "executeBatch", []batchCall{})
	dec, err := Decode(SmartAccount, data)
	require.NoError(t, err)

	calls, err := Extract(dec)
	require.NoError(t, err)
	require.Empty(t, calls)
}

func TestExtractRejectsOtherFunctions(t *testing.T) {
	data := packAccount(t, "addOwnerAddress", feeSweep)
	dec, err := Decode(SmartAccount, data)
	require.NoError(t, err)

	_, err = Extract(dec)
	require.ErrorIs(t, err, ErrUnsupportedFunction)
	var ee *ExtractError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "addOwnerAddress", ee.Function)
}

func TestExtractRejectsBadShapes(t *testing.T) {
	cases := []Decoded{
		{Name: "execute", Args: []any{artToken}},
		{Name: "execute", Args: []any{"0x11", big.NewInt(0), []byte{}}},
		{Name: "execute", Args: []any{artToken, big.NewInt(-1), []byte{}}},
		{Name: "executeBatch", Args: []any{"not a batch"}},
		{Name: "executeBatch", Args: []any{nil}},
	}
	for _, dec := range cases {
		_, err := Extract(dec)
		require.ErrorIs(t, err, ErrArgumentShape, "args %v", dec.Args)
	}
}
