package types_test

import (
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/light-clients/modules/core/23-commitment/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	beefytypes "github.com/ComposableFi/light-clients/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
	ibctesting "github.com/ComposableFi/light-clients/testing"
)

var (
	ibcPrefix      = commitmenttypes.NewMerklePrefix([]byte("ibc/"))
	commitmentPath = "commitments/ports/transfer/channels/channel-0/sequences/1"
	receiptPath    = "receipts/ports/transfer/channels/channel-0/sequences/1"
	commitment     = []byte("packet commitment")
)

func (suite *BeefyTestSuite) TestValidate() {
	var clientState *beefytypes.ClientState

	testCases := []struct {
		name     string
		malleate func()
		expErr   error
	}{
		{
			"valid client state", func() {}, nil,
		},
		{
			"unknown relay chain", func() {
				clientState.Chain = substrate.RelayChain(9)
			}, substrate.ErrInvalidChain,
		},
		{
			"zero parachain height", func() {
				clientState.LatestParaHeight = 0
			}, clienttypes.ErrInvalidHeight,
		},
		{
			"empty mmr root", func() {
				clientState.MmrRootHash = types.H256{}
			}, clienttypes.ErrInvalidClient,
		},
		{
			"empty current authority set", func() {
				clientState.CurrentAuthorities.Len = 0
			}, beefytypes.ErrInvalidAuthoritySet,
		},
		{
			"next authority set without root", func() {
				clientState.NextAuthorities.Root = types.H256{}
			}, beefytypes.ErrInvalidAuthoritySet,
		},
		{
			"next set id equal to the current set id", func() {
				clientState.NextAuthorities.ID = clientState.CurrentAuthorities.ID
			}, beefytypes.ErrInvalidAuthoritySet,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			clientState = suite.chain.ClientState()
			tc.malleate()

			err := clientState.Validate()
			if tc.expErr == nil {
				suite.Require().NoError(err)
			} else {
				suite.Require().ErrorIs(err, tc.expErr)
			}
		})
	}
}

func (suite *BeefyTestSuite) TestInitialize() {
	clientState := suite.chain.ClientState()

	err := clientState.Initialize(suite.ctx(), suite.cdc, suite.clientStore, nil)
	suite.Require().ErrorIs(err, clienttypes.ErrInvalidConsensus)

	clientState.FrozenHeight = clienttypes.SomeHeight(clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 1))
	err = clientState.Initialize(suite.ctx(), suite.cdc, suite.clientStore, suite.chain.ConsensusState())
	suite.Require().ErrorIs(err, clienttypes.ErrClientFrozen)

	latest := suite.clientState.GetLatestHeight()
	suite.Require().Equal(clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 1), latest)

	consensusState, err := beefytypes.GetConsensusState(suite.clientStore, suite.cdc, latest)
	suite.Require().NoError(err)
	suite.Require().Equal(suite.chain.ConsensusState(), consensusState)

	processedTime, ok := clienttypes.GetProcessedTime(suite.clientStore, latest)
	suite.Require().True(ok)
	suite.Require().Equal(uint64(suite.now.UnixNano()), processedTime)
}

func (suite *BeefyTestSuite) TestStatus() {
	testCases := []struct {
		name      string
		malleate  func()
		expStatus exported.Status
	}{
		{
			"client is active", func() {}, exported.Active,
		},
		{
			"client is frozen", func() {
				suite.clientState.FrozenHeight = clienttypes.SomeHeight(clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 1))
			}, exported.Frozen,
		},
		{
			"client is expired", func() {
				suite.now = ibctesting.GenesisTime.Add(substrate.Rococo.TrustingPeriod())
			}, exported.Expired,
		},
		{
			"client is active just before expiry", func() {
				suite.now = ibctesting.GenesisTime.Add(substrate.Rococo.TrustingPeriod() - time.Nanosecond)
			}, exported.Active,
		},
		{
			"latest consensus state is missing", func() {
				suite.clientStore.Delete(host.ConsensusStateKey(suite.clientState.GetLatestHeight()))
			}, exported.Unknown,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			tc.malleate()

			status := suite.clientState.Status(suite.ctx(), suite.clientStore, suite.cdc)
			suite.Require().Equal(tc.expStatus, status)
		})
	}
}

func (suite *BeefyTestSuite) TestGetTimestampAtHeight() {
	latest := suite.clientState.GetLatestHeight()
	timestamp, err := suite.clientState.GetTimestampAtHeight(suite.ctx(), suite.clientStore, suite.cdc, latest)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(ibctesting.GenesisTime.UnixNano()), timestamp)

	_, err = suite.clientState.GetTimestampAtHeight(suite.ctx(), suite.clientStore, suite.cdc, latest.Increment())
	suite.Require().ErrorIs(err, clienttypes.ErrConsensusStateNotFound)
}

func (suite *BeefyTestSuite) TestVerifyMembership() {
	var (
		proof  []byte
		path   exported.Path
		value  []byte
		height exported.Height
	)

	testCases := []struct {
		name     string
		malleate func()
		expErr   error
	}{
		{
			"successful membership verification", func() {}, nil,
		},
		{
			"value does not match", func() {
				value = []byte("another commitment")
			}, commitmenttypes.ErrInvalidMerkleProof,
		},
		{
			"path without prefix", func() {
				path = commitmenttypes.NewMerklePath(commitmentPath)
			}, commitmenttypes.ErrInvalidMerkleProof,
		},
		{
			"empty proof", func() {
				proof = nil
			}, commitmenttypes.ErrInvalidProof,
		},
		{
			"proof height is greater than the client height", func() {
				height = height.Increment()
			}, clienttypes.ErrInvalidHeight,
		},
		{
			"consensus state not found", func() {
				suite.clientStore.Delete(host.ConsensusStateKey(height))
			}, clienttypes.ErrConsensusStateNotFound,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()

			key := append(ibcPrefix.Bytes(), commitmentPath...)
			suite.chain.Parachain.SetState(key, commitment)
			suite.chain.ProduceBlock()

			heights, err := suite.update(suite.chain.Header(ibctesting.Signers(threshold), 2))
			suite.Require().NoError(err)
			height = heights[0]

			proof, err = commitmenttypes.TrieProof{Nodes: suite.chain.Block(2).Parachain.StateProof(key)}.Bytes()
			suite.Require().NoError(err)
			path, err = commitmenttypes.ApplyPrefix(ibcPrefix, commitmenttypes.NewMerklePath(commitmentPath))
			suite.Require().NoError(err)
			value = commitment

			tc.malleate()

			err = suite.clientState.VerifyMembership(suite.ctx(), suite.clientStore, suite.cdc, height, 0, 0, proof, path, value)
			if tc.expErr == nil {
				suite.Require().NoError(err)
			} else {
				suite.Require().ErrorIs(err, tc.expErr)
			}
		})
	}
}

func (suite *BeefyTestSuite) TestVerifyNonMembership() {
	key := append(ibcPrefix.Bytes(), commitmentPath...)
	absent := append(ibcPrefix.Bytes(), receiptPath...)
	suite.chain.Parachain.SetState(key, commitment)
	suite.chain.ProduceBlock()

	heights, err := suite.update(suite.chain.Header(ibctesting.Signers(threshold), 2))
	suite.Require().NoError(err)

	proof, err := commitmenttypes.TrieProof{Nodes: suite.chain.Block(2).Parachain.StateProof(absent)}.Bytes()
	suite.Require().NoError(err)
	path, err := commitmenttypes.ApplyPrefix(ibcPrefix, commitmenttypes.NewMerklePath(receiptPath))
	suite.Require().NoError(err)

	err = suite.clientState.VerifyNonMembership(suite.ctx(), suite.clientStore, suite.cdc, heights[0], 0, 0, proof, path)
	suite.Require().NoError(err)

	proof, err = commitmenttypes.TrieProof{Nodes: suite.chain.Block(2).Parachain.StateProof(key)}.Bytes()
	suite.Require().NoError(err)
	path, err = commitmenttypes.ApplyPrefix(ibcPrefix, commitmenttypes.NewMerklePath(commitmentPath))
	suite.Require().NoError(err)

	err = suite.clientState.VerifyNonMembership(suite.ctx(), suite.clientStore, suite.cdc, heights[0], 0, 0, proof, path)
	suite.Require().ErrorIs(err, commitmenttypes.ErrInvalidMerkleProof)
}

func (suite *BeefyTestSuite) TestLeafIndexForBlockNumber() {
	leafIndex, err := suite.clientState.GetLeafIndexForBlockNumber(suite.chain.Latest().Number)
	suite.Require().NoError(err)
	suite.Require().Equal(suite.chain.Latest().LeafIndex, leafIndex)
	block, err := suite.clientState.GetBlockNumberForLeaf(leafIndex)
	suite.Require().NoError(err)
	suite.Require().Equal(suite.chain.Latest().Number, block)
}
