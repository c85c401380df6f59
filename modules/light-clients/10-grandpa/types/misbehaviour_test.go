package types_test

import (
	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/10-grandpa/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
	ibctesting "github.com/ComposableFi/light-clients/testing"
)

var grandpaClientID = clienttypes.FormatClientIdentifier(exported.Grandpa, 0)

// forkedFinalityProofs returns proofs finalizing block 2 of the main chain and a fork of it.
func (suite *GrandpaTestSuite) forkedFinalityProofs() (types.FinalityProof, types.FinalityProof) {
	suite.chain.ProduceBlocks(2)
	fork := suite.chain.Fork(1, []byte("fork"))

	first := suite.chain.FinalityProof(0, 2, suite.chain.Justify(suite.chain.Block(2)))
	second := types.FinalityProof{
		Block:          fork.Hash,
		Justification:  suite.chain.EncodeJustification(suite.chain.Justify(fork)),
		UnknownHeaders: []substrate.Header{suite.chain.Block(1).Header, fork.Header},
	}

	return first, second
}

func (suite *GrandpaTestSuite) TestMisbehaviourFreezesClient() {
	first, second := suite.forkedFinalityProofs()
	misbehaviour := types.NewMisbehaviour(grandpaClientID, first, second)

	err := suite.clientState.VerifyClientMessage(suite.ctx(), suite.cdc, suite.clientStore, misbehaviour)
	suite.Require().NoError(err)
	suite.Require().True(suite.clientState.CheckForMisbehaviour(suite.ctx(), suite.cdc, suite.clientStore, misbehaviour))

	latest := suite.clientState.GetLatestHeight()
	err = suite.clientState.UpdateStateOnMisbehaviour(suite.ctx(), suite.cdc, suite.clientStore, misbehaviour)
	suite.Require().NoError(err)
	suite.Require().Equal(clienttypes.SomeHeight(latest.(clienttypes.Height)), suite.clientState.FrozenHeight)
	suite.Require().Equal(exported.Frozen, suite.clientState.Status(suite.ctx(), suite.clientStore, suite.cdc))

	stored := clienttypes.MustUnmarshalClientState(suite.cdc, suite.clientStore.Get(host.ClientStateKey()))
	suite.Require().Equal(suite.clientState, stored)

	// a frozen client stays frozen and rejects valid updates
	_, err = suite.update(suite.chain.Header(0, 2, 2))
	suite.Require().ErrorIs(err, clienttypes.ErrClientFrozen)
	suite.Require().True(suite.clientState.IsFrozen())
	suite.Require().Equal(latest, suite.clientState.GetLatestHeight())
}

func (suite *GrandpaTestSuite) TestVerifyMisbehaviour() {
	var misbehaviour *types.Misbehaviour

	testCases := []struct {
		name     string
		malleate func()
		expErr   error
	}{
		{
			"success", func() {}, nil,
		},
		{
			"client id without sequence", func() {
				misbehaviour.ClientID = exported.Grandpa
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"empty first justification", func() {
				misbehaviour.FirstFinalityProof.Justification = nil
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"finality proofs of the same block", func() {
				misbehaviour.SecondFinalityProof = misbehaviour.FirstFinalityProof
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"finalized blocks at different heights", func() {
				misbehaviour.SecondFinalityProof = suite.chain.FinalityProof(0, 1, suite.chain.Justify(suite.chain.Block(1)))
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"justification does not target the block", func() {
				misbehaviour.SecondFinalityProof.Block = suite.chain.Block(1).Hash
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"second justification below threshold", func() {
				fork := suite.chain.Fork(1, []byte("fork"))
				votes := make([]ibctesting.Vote, 0, 3)
				for _, voter := range suite.chain.Voters[:3] {
					votes = append(votes, ibctesting.Vote{Key: voter, Block: fork})
				}
				misbehaviour.SecondFinalityProof.Justification = suite.chain.EncodeJustification(suite.chain.JustifyVotes(fork, votes))
			}, types.ErrInvalidCommit,
		},
		{
			"second justification signed by another authority set", func() {
				fork := suite.chain.Fork(1, []byte("fork"))
				suite.chain.SetVoters(ibctesting.GrandpaKeyring(6)[2:])
				misbehaviour.SecondFinalityProof.Justification = suite.chain.EncodeJustification(suite.chain.Justify(fork))
			}, types.ErrInvalidCommit,
		},
		{
			"malformed justification", func() {
				misbehaviour.FirstFinalityProof.Justification = []byte{0x01}
			}, types.ErrInvalidJustification,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			first, second := suite.forkedFinalityProofs()
			misbehaviour = types.NewMisbehaviour(grandpaClientID, first, second)

			tc.malleate()

			err := suite.clientState.VerifyClientMessage(suite.ctx(), suite.cdc, suite.clientStore, misbehaviour)
			if tc.expErr == nil {
				suite.Require().NoError(err)
			} else {
				suite.Require().ErrorIs(err, tc.expErr)
			}
		})
	}
}

func (suite *GrandpaTestSuite) TestCheckForMisbehaviour() {
	testCases := []struct {
		name     string
		malleate func() *types.Header
		expPass  bool
	}{
		{
			"valid header", func() *types.Header {
				suite.chain.ProduceBlocks(2)
				return suite.chain.Header(0, 2, 1, 2)
			}, false,
		},
		{
			"the same parachain header proven twice", func() *types.Header {
				suite.chain.ProduceBlocks(2)
				return suite.chain.Header(0, 2, 2, 2)
			}, false,
		},
		{
			"consensus state conflicts with a stored one", func() *types.Header {
				suite.chain.ProduceBlocks(2)
				height := clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 2)
				conflicting := &types.ConsensusState{Timestamp: 1, Root: suite.chain.Block(0).Hash}
				suite.clientStore.Set(host.ConsensusStateKey(height), clienttypes.MustMarshalConsensusState(suite.cdc, conflicting))
				return suite.chain.Header(0, 2, 1)
			}, true,
		},
		{
			"consensus state equal to a stored one", func() *types.Header {
				suite.chain.ProduceBlocks(2)
				header := suite.chain.Header(0, 2, 1)
				height := clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 2)
				para := suite.chain.Block(1).Parachain
				existing := types.NewConsensusState(para.Timestamp, para.Header.StateRoot)
				suite.clientStore.Set(host.ConsensusStateKey(height), clienttypes.MustMarshalConsensusState(suite.cdc, existing))
				return header
			}, false,
		},
		{
			"forced change rewinding finality", func() *types.Header {
				suite.chain.ProduceBlocks(3)
				_, err := suite.update(suite.chain.Header(0, 3))
				suite.Require().NoError(err)

				suite.chain.ProduceBlock(types.NewForcedChangeDigest(types.ForcedChange{
					MedianLastFinalized: 1,
					Change:              types.ScheduledChange{NextAuthorities: ibctesting.GrandpaAuthorities(suite.chain.Voters), Delay: 10},
				}))
				return suite.chain.Header(3, 4)
			}, true,
		},
		{
			"forced change at the latest finalized block", func() *types.Header {
				suite.chain.ProduceBlocks(3)
				_, err := suite.update(suite.chain.Header(0, 3))
				suite.Require().NoError(err)

				suite.chain.ProduceBlock(types.NewForcedChangeDigest(types.ForcedChange{
					MedianLastFinalized: 3,
					Change:              types.ScheduledChange{NextAuthorities: ibctesting.GrandpaAuthorities(suite.chain.Voters), Delay: 10},
				}))
				return suite.chain.Header(3, 4)
			}, false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			header := tc.malleate()

			found := suite.clientState.CheckForMisbehaviour(suite.ctx(), suite.cdc, suite.clientStore, header)
			suite.Require().Equal(tc.expPass, found)
		})
	}
}

func (suite *GrandpaTestSuite) TestUpdateStateSkipsExistingConsensusState() {
	suite.chain.ProduceBlocks(2)
	height := clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 2)
	existing := &types.ConsensusState{Timestamp: 1, Root: suite.chain.Block(0).Hash}
	suite.clientStore.Set(host.ConsensusStateKey(height), clienttypes.MustMarshalConsensusState(suite.cdc, existing))

	heights, err := suite.update(suite.chain.Header(0, 2, 1, 2))
	suite.Require().NoError(err)
	suite.Require().Len(heights, 2)

	stored, err := types.GetConsensusState(suite.clientStore, suite.cdc, height)
	suite.Require().NoError(err)
	suite.Require().Equal(existing, stored)
}
