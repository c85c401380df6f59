package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ComposableFi/light-clients/internal/store"
	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/23-commitment/trie"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/10-grandpa/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
	ibctesting "github.com/ComposableFi/light-clients/testing"
)

func (suite *GrandpaTestSuite) TestUpdateState() {
	suite.chain.ProduceBlocks(3)
	header := suite.chain.Header(0, 3, 1, 2, 3)

	heights, err := suite.update(header)
	suite.Require().NoError(err)

	paraID := uint64(ibctesting.DefaultParaID)
	suite.Require().Equal([]exported.Height{
		clienttypes.NewHeight(paraID, 2),
		clienttypes.NewHeight(paraID, 3),
		clienttypes.NewHeight(paraID, 4),
	}, heights)

	suite.Require().Equal(uint32(3), suite.clientState.LatestRelayHeight)
	suite.Require().Equal(suite.chain.Block(3).Hash, suite.clientState.LatestRelayHash)
	suite.Require().Equal(uint32(4), suite.clientState.LatestParaHeight)
	suite.Require().Equal(clienttypes.NewHeight(paraID, 4), suite.clientState.GetLatestHeight())

	// the stored client state matches the updated one
	stored := clienttypes.MustUnmarshalClientState(suite.cdc, suite.clientStore.Get(host.ClientStateKey()))
	suite.Require().Equal(suite.clientState, stored)

	para := suite.chain.Block(3).Parachain
	consensusState, err := types.GetConsensusState(suite.clientStore, suite.cdc, clienttypes.NewHeight(paraID, 4))
	suite.Require().NoError(err)
	suite.Require().Equal(para.Header.StateRoot, consensusState.Root)
	suite.Require().Equal(uint64(para.Timestamp.UnixNano()), consensusState.Timestamp)

	processedTime, ok := clienttypes.GetProcessedTime(suite.clientStore, clienttypes.NewHeight(paraID, 4))
	suite.Require().True(ok)
	suite.Require().Equal(uint64(suite.now.UnixNano()), processedTime)
}

func (suite *GrandpaTestSuite) TestUpdateStateWithoutParachainHeaders() {
	suite.chain.ProduceBlocks(2)

	heights, err := suite.update(suite.chain.Header(0, 2))
	suite.Require().NoError(err)
	suite.Require().Empty(heights)

	suite.Require().Equal(uint32(2), suite.clientState.LatestRelayHeight)
	suite.Require().Equal(uint32(1), suite.clientState.LatestParaHeight)
}

func (suite *GrandpaTestSuite) TestSuccessiveUpdates() {
	suite.chain.ProduceBlocks(2)
	_, err := suite.update(suite.chain.Header(0, 2, 2))
	suite.Require().NoError(err)

	suite.chain.ProduceBlocks(2)
	_, err = suite.update(suite.chain.Header(2, 4, 3, 4))
	suite.Require().NoError(err)
	suite.Require().Equal(uint32(4), suite.clientState.LatestRelayHeight)
	suite.Require().Equal(uint32(5), suite.clientState.LatestParaHeight)

	// replaying an update is stale
	_, err = suite.update(suite.chain.Header(2, 4, 3, 4))
	suite.Require().ErrorIs(err, types.ErrStaleUpdate)
}

func (suite *GrandpaTestSuite) TestVerifyHeader() {
	var header *types.Header

	testCases := []struct {
		name     string
		malleate func()
		expErr   error
	}{
		{
			"success", func() {}, nil,
		},
		{
			"client is frozen", func() {
				suite.clientState.FrozenHeight = clienttypes.SomeHeight(clienttypes.NewHeight(0, 1))
			}, clienttypes.ErrClientFrozen,
		},
		{
			"finality proof is not newer than the latest relay block", func() {
				suite.clientState.LatestRelayHeight = 3
			}, types.ErrStaleUpdate,
		},
		{
			"empty justification", func() {
				header.FinalityProof.Justification = nil
			}, clienttypes.ErrInvalidHeader,
		},
		{
			"malformed justification", func() {
				header.FinalityProof.Justification = []byte{0x01}
			}, types.ErrInvalidJustification,
		},
		{
			"justification target is not the finalized block", func() {
				header.FinalityProof.Block = suite.chain.Block(2).Hash
			}, types.ErrInvalidFinalityProof,
		},
		{
			"unknown headers do not start at the latest relay block", func() {
				header.FinalityProof.UnknownHeaders = header.FinalityProof.UnknownHeaders[1:]
			}, types.ErrInvalidAncestry,
		},
		{
			"unknown headers are not linked", func() {
				headers := header.FinalityProof.UnknownHeaders
				headers[1], headers[2] = headers[2], headers[1]
			}, types.ErrInvalidAncestry,
		},
		{
			"unknown headers end past the finalized block", func() {
				justification := suite.chain.Justify(suite.chain.Block(2))
				header.FinalityProof = suite.chain.FinalityProof(0, 3, justification)
				header.FinalityProof.Block = suite.chain.Block(2).Hash
			}, types.ErrInvalidAncestry,
		},
		{
			"precommit weight below threshold", func() {
				target := suite.chain.Block(3)
				var votes []ibctesting.Vote
				for _, voter := range suite.chain.Voters[1:] {
					votes = append(votes, ibctesting.Vote{Key: voter, Block: target})
				}
				header.FinalityProof = suite.chain.FinalityProof(0, 3, suite.chain.JustifyVotes(target, votes))
			}, types.ErrInvalidCommit,
		},
		{
			"precommit by a voter outside the set", func() {
				justification := suite.chain.Justify(suite.chain.Block(3))
				outsider := ibctesting.NewGrandpaKey("Mallory")
				justification.Commit.Precommits[0] = suite.chain.SignPrecommit(outsider, suite.chain.Block(3))
				header.FinalityProof = suite.chain.FinalityProof(0, 3, justification)
			}, types.ErrInvalidCommit,
		},
		{
			"invalid precommit signature", func() {
				justification := suite.chain.Justify(suite.chain.Block(3))
				justification.Commit.Precommits[2].Signature[0] ^= 0xff
				header.FinalityProof = suite.chain.FinalityProof(0, 3, justification)
			}, types.ErrInvalidSignature,
		},
		{
			"precommits signed for another set id", func() {
				suite.chain.SetID = 7
				header = suite.chain.Header(0, 3, 1, 2, 3)
			}, types.ErrInvalidSignature,
		},
		{
			"parachain header of a relay block outside the proof", func() {
				suite.chain.ProduceBlock()
				header.ParachainHeaders[0] = suite.chain.ParachainHeaderProof(suite.chain.Block(4))
			}, types.ErrInvalidParachainHeader,
		},
		{
			"parachain header proven against another relay block", func() {
				header.ParachainHeaders[0].RelayHash = suite.chain.Block(2).Hash
			}, trie.ErrRootMismatch,
		},
		{
			"parachain header does not match the stored head", func() {
				header.ParachainHeaders[0].ParachainHeader = suite.chain.Block(2).Parachain.HeaderBz
			}, substrate.ErrParachainHeadMismatch,
		},
		{
			"timestamp extrinsic not in the extrinsics root", func() {
				header.ParachainHeaders[1].TimestampExtrinsic = substrate.EncodeTimestampExtrinsic(ibctesting.TimestampPallet, ibctesting.TimestampCall, 1)
			}, substrate.ErrTimestampNotFound,
		},
		{
			"empty parachain state proof", func() {
				header.ParachainHeaders[1].StateProof = nil
			}, types.ErrInvalidParachainHeader,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			suite.chain.ProduceBlocks(3)
			header = suite.chain.Header(0, 3, 1, 2, 3)

			tc.malleate()

			err := suite.clientState.VerifyClientMessage(suite.ctx(), suite.cdc, suite.clientStore, header)
			if tc.expErr == nil {
				suite.Require().NoError(err)
			} else {
				suite.Require().ErrorIs(err, tc.expErr)
			}
		})
	}
}

func (suite *GrandpaTestSuite) TestVerifyHeaderDoesNotModifyClientState() {
	suite.chain.ProduceBlocks(2)
	before := *suite.clientState

	err := suite.clientState.VerifyClientMessage(suite.ctx(), suite.cdc, suite.clientStore, suite.chain.Header(0, 2, 2))
	suite.Require().NoError(err)
	suite.Require().Equal(before, *suite.clientState)
}

func (suite *GrandpaTestSuite) TestPruneExpiredConsensusStates() {
	paraID := uint64(ibctesting.DefaultParaID)

	suite.chain.ProduceBlocks(2)
	_, err := suite.update(suite.chain.Header(0, 2, 1, 2))
	suite.Require().NoError(err)

	// every consensus state so far is outside the trusting period
	suite.now = ibctesting.GenesisTime.Add(suite.clientState.Chain.TrustingPeriod() + time.Hour)

	suite.chain.ProduceBlocks(2)
	_, err = suite.update(suite.chain.Header(2, 4, 3, 4))
	suite.Require().NoError(err)

	for _, height := range []uint64{1, 2} {
		_, err := types.GetConsensusState(suite.clientStore, suite.cdc, clienttypes.NewHeight(paraID, height))
		suite.Require().ErrorIs(err, clienttypes.ErrConsensusStateNotFound)
		_, ok := clienttypes.GetProcessedTime(suite.clientStore, clienttypes.NewHeight(paraID, height))
		suite.Require().False(ok)
	}

	// the latest consensus state before the update is kept
	for _, height := range []uint64{3, 4, 5} {
		_, err := types.GetConsensusState(suite.clientStore, suite.cdc, clienttypes.NewHeight(paraID, height))
		suite.Require().NoError(err)
	}
}

func (suite *GrandpaTestSuite) TestUpdateStateRejectsOtherMessages() {
	_, err := suite.clientState.UpdateState(suite.ctx(), suite.cdc, suite.clientStore, &types.Misbehaviour{})
	suite.Require().ErrorIs(err, clienttypes.ErrInvalidClientType)
}

func (suite *GrandpaTestSuite) TestSixAuthoritiesFinalizeRelayBlock() {
	suite.chain = ibctesting.NewRelayChain(suite.T(), ibctesting.GrandpaKeyring(6))
	suite.clientStore = store.NewMemStore()
	suite.clientState = suite.chain.ClientState()
	suite.Require().NoError(suite.clientState.Initialize(suite.ctx(), suite.cdc, suite.clientStore, suite.chain.ConsensusState()))

	suite.chain.ProduceBlock()
	header := suite.chain.Header(0, 1, 1)

	heights, err := suite.update(header)
	suite.Require().NoError(err)
	suite.Require().Equal([]exported.Height{clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 2)}, heights)
	suite.Require().Equal(uint32(1), suite.clientState.LatestRelayHeight)
	suite.Require().Equal(uint64(0), suite.clientState.CurrentSetID)

	// resubmitting the same update leaves the client untouched
	before := suite.clientStore.Get(host.ClientStateKey())
	_, err = suite.update(header)
	suite.Require().ErrorIs(err, types.ErrStaleUpdate)
	suite.Require().Equal(before, suite.clientStore.Get(host.ClientStateKey()))
}

func TestApplyHeaderIsDeterministic(t *testing.T) {
	chain := ibctesting.NewRelayChain(t, ibctesting.GrandpaKeyring(5))
	clientState := chain.ClientState()
	chain.ProduceBlocks(4)
	header := chain.Header(0, 4, 1, 3, 4)

	cdc := clienttypes.NewCodec()
	types.RegisterInterfaces(cdc)

	first, firstStates, err := clientState.ApplyHeader(substrate.DefaultHostFunctions{}, *header)
	require.NoError(t, err)
	second, secondStates, err := clientState.ApplyHeader(substrate.DefaultHostFunctions{}, *header)
	require.NoError(t, err)

	require.Equal(t, clienttypes.MustMarshalClientState(cdc, &first), clienttypes.MustMarshalClientState(cdc, &second))
	require.Equal(t, firstStates, secondStates)
}

func TestLatestHeightIsMonotonic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		chain := ibctesting.NewRelayChain(t, ibctesting.GrandpaKeyring(4))
		cdc := clienttypes.NewCodec()
		types.RegisterInterfaces(cdc)
		clientStore := store.NewMemStore()
		ctx := exported.NewContext(substrate.DefaultHostFunctions{}, ibctesting.GenesisTime.Add(time.Hour), clienttypes.NewHeight(0, 1))

		clientState := chain.ClientState()
		require.NoError(rt, clientState.Initialize(ctx, cdc, clientStore, chain.ConsensusState()))

		updates := rapid.IntRange(1, 4).Draw(rt, "updates").(int)
		for i := 0; i < updates; i++ {
			trusted := chain.Latest().Header.Number
			blocks := rapid.IntRange(1, 3).Draw(rt, "blocks").(int)
			chain.ProduceBlocks(blocks)

			number := chain.Latest().Header.Number
			var parachainsAt []uint32
			if rapid.Bool().Draw(rt, "withParachain").(bool) {
				parachainsAt = append(parachainsAt, trusted+1+uint32(rapid.IntRange(0, blocks-1).Draw(rt, "at").(int)))
			}
			header := chain.Header(trusted, number, parachainsAt...)

			before := *clientState
			require.NoError(rt, clientState.VerifyClientMessage(ctx, cdc, clientStore, header))
			_, err := clientState.UpdateState(ctx, cdc, clientStore, header)
			require.NoError(rt, err)

			require.Greater(rt, clientState.LatestRelayHeight, before.LatestRelayHeight)
			require.True(rt, clientState.GetLatestHeight().GTE(before.GetLatestHeight()))

			// an update older than the latest relay block never applies
			require.ErrorIs(rt, clientState.VerifyClientMessage(ctx, cdc, clientStore, header), types.ErrStaleUpdate)
		}
	})
}
