package types_test

import (
	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/11-beefy/types"
	ibctesting "github.com/ComposableFi/light-clients/testing"
)

var beefyClientID = clienttypes.FormatClientIdentifier(exported.Beefy, 0)

// conflictingCommitment returns the latest commitment of the chain, committing to another
// mmr root.
func (suite *BeefyTestSuite) conflictingCommitment() types.Commitment {
	conflicting := suite.chain.Commitment()
	root := make([]byte, 32)
	for i := range root {
		root[i] = 0x01
	}
	conflicting.Payload = []types.PayloadItem{{ID: types.MmrRootID, Data: root}}
	return conflicting
}

// equivocation returns commitments to two different mmr roots at the latest block.
func (suite *BeefyTestSuite) equivocation() *types.Misbehaviour {
	suite.chain.ProduceBlocks(2)
	first := suite.chain.CommitmentProof(suite.chain.Commitment(), ibctesting.Signers(threshold))
	second := suite.chain.CommitmentProof(suite.conflictingCommitment(), []uint32{1, 2, 3, 4, 5})
	return types.NewMisbehaviour(beefyClientID, first, second)
}

func (suite *BeefyTestSuite) TestMisbehaviourFreezesClient() {
	misbehaviour := suite.equivocation()

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

	_, err = suite.update(suite.chain.Header(ibctesting.Signers(threshold), 3))
	suite.Require().ErrorIs(err, clienttypes.ErrClientFrozen)
	suite.Require().Equal(latest, suite.clientState.GetLatestHeight())

	err = suite.clientState.VerifyClientMessage(suite.ctx(), suite.cdc, suite.clientStore, misbehaviour)
	suite.Require().ErrorIs(err, clienttypes.ErrClientFrozen)
}

func (suite *BeefyTestSuite) TestVerifyMisbehaviour() {
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
			"commitments signed by the next authority set", func() {
				suite.chain.RotateAuthorities(ibctesting.BeefyKeyring(2*numAuthorities, numAuthorities))
				misbehaviour.First = suite.chain.CommitmentProof(suite.chain.Commitment(), ibctesting.Signers(threshold))
				misbehaviour.Second = suite.chain.CommitmentProof(suite.conflictingCommitment(), ibctesting.Signers(threshold))
			}, nil,
		},
		{
			"misbehaviour without client id", func() {
				misbehaviour.ClientID = ""
			}, nil,
		},
		{
			"client id without sequence", func() {
				misbehaviour.ClientID = exported.Beefy
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"unsigned second commitment", func() {
				misbehaviour.Second.SignedCommitment.Signatures = nil
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"the same commitment twice", func() {
				misbehaviour.Second = misbehaviour.First
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"commitments at different blocks", func() {
				conflicting := suite.conflictingCommitment()
				conflicting.BlockNumber--
				misbehaviour.Second = suite.chain.CommitmentProof(conflicting, ibctesting.Signers(threshold))
			}, types.ErrInvalidMisbehaviour,
		},
		{
			"second commitment below threshold", func() {
				misbehaviour.Second = suite.chain.CommitmentProof(suite.conflictingCommitment(), ibctesting.Signers(threshold-1))
			}, types.ErrInvalidSignatureThreshold,
		},
		{
			"second commitment of an unknown authority set", func() {
				conflicting := suite.conflictingCommitment()
				conflicting.ValidatorSetID = initialSetID + 2
				misbehaviour.Second = suite.chain.CommitmentProof(conflicting, ibctesting.Signers(threshold))
			}, types.ErrUnknownAuthoritySet,
		},
		{
			"tampered first authorities proof", func() {
				misbehaviour.First.AuthoritiesProof[0][0] ^= 0xff
			}, types.ErrInvalidAuthorityProof,
		},
		{
			"frozen client", func() {
				suite.clientState.FrozenHeight = clienttypes.SomeHeight(clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 1))
			}, clienttypes.ErrClientFrozen,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			misbehaviour = suite.equivocation()

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

func (suite *BeefyTestSuite) TestCheckForMisbehaviour() {
	testCases := []struct {
		name     string
		malleate func() exported.ClientMessage
		expPass  bool
	}{
		{
			"valid header", func() exported.ClientMessage {
				suite.chain.ProduceBlocks(2)
				return suite.chain.Header(ibctesting.Signers(threshold), 1, 2, 3)
			}, false,
		},
		{
			"the same parachain header proven twice", func() exported.ClientMessage {
				suite.chain.ProduceBlocks(2)
				return suite.chain.Header(ibctesting.Signers(threshold), 3, 3)
			}, false,
		},
		{
			"consensus state conflicts with a stored one", func() exported.ClientMessage {
				suite.chain.ProduceBlocks(2)
				height := clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 2)
				conflicting := &types.ConsensusState{Timestamp: 1, Root: suite.chain.Block(0).Hash}
				suite.clientStore.Set(host.ConsensusStateKey(height), clienttypes.MustMarshalConsensusState(suite.cdc, conflicting))
				return suite.chain.Header(ibctesting.Signers(threshold), 2)
			}, true,
		},
		{
			"consensus state equal to a stored one", func() exported.ClientMessage {
				suite.chain.ProduceBlocks(2)
				height := clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 2)
				para := suite.chain.Block(2).Parachain
				existing := types.NewConsensusState(para.Timestamp, para.Header.StateRoot)
				suite.clientStore.Set(host.ConsensusStateKey(height), clienttypes.MustMarshalConsensusState(suite.cdc, existing))
				return suite.chain.Header(ibctesting.Signers(threshold), 2)
			}, false,
		},
		{
			"header failing verification", func() exported.ClientMessage {
				suite.chain.ProduceBlocks(2)
				return suite.chain.Header(ibctesting.Signers(threshold-1), 2)
			}, false,
		},
		{
			"misbehaviour", func() exported.ClientMessage {
				return suite.equivocation()
			}, true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			msg := tc.malleate()

			suite.Require().Equal(tc.expPass, suite.clientState.CheckForMisbehaviour(suite.ctx(), suite.cdc, suite.clientStore, msg))
		})
	}
}
