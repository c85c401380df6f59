package types_test

import (
	"testing"

	gsrpctypes "github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/10-grandpa/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
	ibctesting "github.com/ComposableFi/light-clients/testing"
)

func hashGen() *rapid.Generator {
	return rapid.Custom(func(t *rapid.T) gsrpctypes.H256 {
		var hash gsrpctypes.H256
		copy(hash[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "hash").([]byte))
		return hash
	})
}

func authoritiesGen() *rapid.Generator {
	return rapid.Custom(func(t *rapid.T) types.AuthorityList {
		n := rapid.IntRange(1, 5).Draw(t, "authorities").(int)
		authorities := make(types.AuthorityList, n)
		for i := range authorities {
			copy(authorities[i].Key[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "key").([]byte))
			authorities[i].Weight = rapid.Uint64Range(1, 100).Draw(t, "weight").(uint64)
		}
		return authorities
	})
}

func TestClientStateEncodingRoundTrip(t *testing.T) {
	cdc := clienttypes.NewCodec()
	types.RegisterInterfaces(cdc)

	rapid.Check(t, func(rt *rapid.T) {
		clientState := &types.ClientState{
			Chain:              substrate.RelayChain(rapid.IntRange(0, 2).Draw(rt, "chain").(int)),
			ParaID:             rapid.Uint32().Draw(rt, "paraID").(uint32),
			LatestRelayHeight:  rapid.Uint32().Draw(rt, "relayHeight").(uint32),
			LatestRelayHash:    hashGen().Draw(rt, "relayHash").(gsrpctypes.H256),
			LatestParaHeight:   rapid.Uint32().Draw(rt, "paraHeight").(uint32),
			CurrentSetID:       rapid.Uint64().Draw(rt, "setID").(uint64),
			CurrentAuthorities: authoritiesGen().Draw(rt, "current").(types.AuthorityList),
		}
		if rapid.Bool().Draw(rt, "pending").(bool) {
			clientState.PendingChange = types.SomePendingChange(types.PendingChange{
				NextAuthorities:  authoritiesGen().Draw(rt, "next").(types.AuthorityList),
				ActivationHeight: rapid.Uint32().Draw(rt, "activation").(uint32),
				Forced:           rapid.Bool().Draw(rt, "forced").(bool),
			})
		}
		if rapid.Bool().Draw(rt, "frozen").(bool) {
			clientState.FrozenHeight = clienttypes.SomeHeight(clienttypes.NewHeight(
				rapid.Uint64().Draw(rt, "revision").(uint64), rapid.Uint64().Draw(rt, "height").(uint64),
			))
		}

		bz, err := cdc.MarshalClientState(clientState)
		require.NoError(rt, err)
		require.Equal(rt, byte(clienttypes.VariantGrandpa), bz[0])

		decoded, err := cdc.UnmarshalClientState(bz)
		require.NoError(rt, err)
		require.Equal(rt, clientState, decoded)

		// trailing bytes are rejected
		_, err = cdc.UnmarshalClientState(append(bz, 0x00))
		require.ErrorIs(rt, err, clienttypes.ErrInvalidClient)
	})
}

func TestClientMessageEncoding(t *testing.T) {
	cdc := clienttypes.NewCodec()
	types.RegisterInterfaces(cdc)

	chain := ibctesting.NewRelayChain(t, ibctesting.GrandpaKeyring(3))
	chain.ProduceBlocks(2)
	header := chain.Header(0, 2, 1, 2)

	bz, err := cdc.MarshalClientMessage(header)
	require.NoError(t, err)
	require.Equal(t, []byte{byte(clienttypes.VariantGrandpa), types.MessageHeader}, bz[:2])

	decoded, err := cdc.UnmarshalClientMessage(bz)
	require.NoError(t, err)
	reencoded, err := cdc.MarshalClientMessage(decoded)
	require.NoError(t, err)
	require.Equal(t, bz, reencoded)
	require.Equal(t, header.FinalityProof.Block, decoded.(*types.Header).FinalityProof.Block)

	fork := chain.Fork(1, []byte("fork"))
	misbehaviour := types.NewMisbehaviour(grandpaClientID, header.FinalityProof, types.FinalityProof{
		Block:          fork.Hash,
		Justification:  chain.EncodeJustification(chain.Justify(fork)),
		UnknownHeaders: chain.FinalityProof(0, 1, chain.Justify(chain.Block(1))).UnknownHeaders,
	})
	bz, err = cdc.MarshalClientMessage(misbehaviour)
	require.NoError(t, err)
	require.Equal(t, types.MessageMisbehaviour, bz[1])

	decoded, err = cdc.UnmarshalClientMessage(bz)
	require.NoError(t, err)
	require.IsType(t, &types.Misbehaviour{}, decoded)
	require.Equal(t, grandpaClientID, decoded.(*types.Misbehaviour).ClientID)

	_, err = cdc.UnmarshalClientMessage([]byte{byte(clienttypes.VariantGrandpa), 7})
	require.ErrorIs(t, err, clienttypes.ErrInvalidClientMessage)
}
