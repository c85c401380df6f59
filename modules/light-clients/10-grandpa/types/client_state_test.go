package types_test

import (
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	"github.com/ComposableFi/light-clients/modules/core/23-commitment/trie"
	commitmenttypes "github.com/ComposableFi/light-clients/modules/core/23-commitment/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	grandpatypes "github.com/ComposableFi/light-clients/modules/light-clients/10-grandpa/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
	ibctesting "github.com/ComposableFi/light-clients/testing"
)

var (
	ibcPrefix      = commitmenttypes.NewMerklePrefix([]byte("ibc/"))
	commitmentPath = "commitments/ports/transfer/channels/channel-0/sequences/1"
	receiptPath    = "receipts/ports/transfer/channels/channel-0/sequences/1"
	commitment     = []byte("packet commitment")
)

func (suite *GrandpaTestSuite) TestValidate() {
	var clientState *grandpatypes.ClientState

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
			"empty relay hash", func() {
				clientState.LatestRelayHash = types.H256{}
			}, clienttypes.ErrInvalidClient,
		},
		{
			"empty authority set", func() {
				clientState.CurrentAuthorities = nil
			}, grandpatypes.ErrInvalidAuthorities,
		},
		{
			"duplicate authority", func() {
				clientState.CurrentAuthorities = append(clientState.CurrentAuthorities, clientState.CurrentAuthorities[0])
			}, grandpatypes.ErrInvalidAuthorities,
		},
		{
			"pending change to an empty set", func() {
				clientState.PendingChange = grandpatypes.SomePendingChange(grandpatypes.PendingChange{ActivationHeight: 5})
			}, grandpatypes.ErrInvalidAuthorities,
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

func (suite *GrandpaTestSuite) TestInitialize() {
	clientState := suite.chain.ClientState()
	clientStore := suite.clientStore

	err := clientState.Initialize(suite.ctx(), suite.cdc, clientStore, nil)
	suite.Require().ErrorIs(err, clienttypes.ErrInvalidConsensus)

	clientState.FrozenHeight = clienttypes.SomeHeight(clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 1))
	err = clientState.Initialize(suite.ctx(), suite.cdc, clientStore, suite.chain.ConsensusState())
	suite.Require().ErrorIs(err, clienttypes.ErrClientFrozen)

	// the suite client was initialized at its latest height
	latest := suite.clientState.GetLatestHeight()
	consensusState, err := grandpatypes.GetConsensusState(clientStore, suite.cdc, latest)
	suite.Require().NoError(err)
	suite.Require().Equal(suite.chain.ConsensusState(), consensusState)

	processedTime, ok := clienttypes.GetProcessedTime(clientStore, latest)
	suite.Require().True(ok)
	suite.Require().Equal(uint64(suite.now.UnixNano()), processedTime)
}

func (suite *GrandpaTestSuite) TestStatus() {
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

func (suite *GrandpaTestSuite) TestGetTimestampAtHeight() {
	latest := suite.clientState.GetLatestHeight()
	timestamp, err := suite.clientState.GetTimestampAtHeight(suite.ctx(), suite.clientStore, suite.cdc, latest)
	suite.Require().NoError(err)
	suite.Require().Equal(uint64(ibctesting.GenesisTime.UnixNano()), timestamp)

	_, err = suite.clientState.GetTimestampAtHeight(suite.ctx(), suite.clientStore, suite.cdc, latest.Increment())
	suite.Require().ErrorIs(err, clienttypes.ErrConsensusStateNotFound)
}

func (suite *GrandpaTestSuite) TestVerifyMembership() {
	var (
		proof            []byte
		path             exported.Path
		value            []byte
		height           exported.Height
		delayTimePeriod  uint64
		delayBlockPeriod uint64
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
			"empty value", func() {
				value = nil
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
			"malformed proof", func() {
				proof = []byte{0x04, 0x01}
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
		{
			"older parachain block with the same state", func() {
				height = clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 2)
			}, nil,
		},
		{
			"parachain block with another state", func() {
				height = clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 1)
			}, trie.ErrRootMismatch,
		},
		{
			"delay time period has not passed", func() {
				delayTimePeriod = uint64(time.Hour.Nanoseconds())
			}, clienttypes.ErrDelayPeriodNotPassed,
		},
		{
			"delay time period has passed", func() {
				delayTimePeriod = uint64(time.Hour.Nanoseconds())
				suite.now = suite.now.Add(time.Hour)
			}, nil,
		},
		{
			"delay block period has not passed", func() {
				delayBlockPeriod = 1
			}, clienttypes.ErrDelayPeriodNotPassed,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			delayTimePeriod, delayBlockPeriod = 0, 0

			key := append(ibcPrefix.Bytes(), commitmentPath...)
			suite.chain.SetParachainState(key, commitment)
			suite.chain.SetParachainState(append(ibcPrefix.Bytes(), "clients/10-grandpa-0/clientState"...), []byte{0x01})
			suite.chain.ProduceBlocks(2)

			heights, err := suite.update(suite.chain.Header(0, 2, 1, 2))
			suite.Require().NoError(err)
			height = heights[1]

			proof, err = commitmenttypes.TrieProof{Nodes: suite.chain.Block(2).Parachain.StateProof(key)}.Bytes()
			suite.Require().NoError(err)
			path, err = commitmenttypes.ApplyPrefix(ibcPrefix, commitmenttypes.NewMerklePath(commitmentPath))
			suite.Require().NoError(err)
			value = commitment

			tc.malleate()

			err = suite.clientState.VerifyMembership(suite.ctx(), suite.clientStore, suite.cdc, height, delayTimePeriod, delayBlockPeriod, proof, path, value)
			if tc.expErr == nil {
				suite.Require().NoError(err)
			} else {
				suite.Require().ErrorIs(err, tc.expErr)
			}
		})
	}
}

func (suite *GrandpaTestSuite) TestVerifyNonMembership() {
	var (
		proof  []byte
		path   exported.Path
		height exported.Height
	)

	testCases := []struct {
		name     string
		malleate func()
		expErr   error
	}{
		{
			"successful non membership verification", func() {}, nil,
		},
		{
			"value exists at path", func() {
				path, _ = commitmenttypes.ApplyPrefix(ibcPrefix, commitmenttypes.NewMerklePath(commitmentPath))
			}, commitmenttypes.ErrInvalidMerkleProof,
		},
		{
			"proof against another state root", func() {
				height = clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 1)
			}, trie.ErrRootMismatch,
		},
		{
			"proof height is greater than the client height", func() {
				height = height.Increment()
			}, clienttypes.ErrInvalidHeight,
		},
		{
			"empty proof", func() {
				proof = nil
			}, commitmenttypes.ErrInvalidProof,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()

			commitmentKey := append(ibcPrefix.Bytes(), commitmentPath...)
			receiptKey := append(ibcPrefix.Bytes(), receiptPath...)
			suite.chain.SetParachainState(commitmentKey, commitment)
			suite.chain.ProduceBlocks(2)

			heights, err := suite.update(suite.chain.Header(0, 2, 2))
			suite.Require().NoError(err)
			height = heights[0]

			proof, err = commitmenttypes.TrieProof{Nodes: suite.chain.Block(2).Parachain.StateProof(receiptKey, commitmentKey)}.Bytes()
			suite.Require().NoError(err)
			path, err = commitmenttypes.ApplyPrefix(ibcPrefix, commitmenttypes.NewMerklePath(receiptPath))
			suite.Require().NoError(err)

			tc.malleate()

			err = suite.clientState.VerifyNonMembership(suite.ctx(), suite.clientStore, suite.cdc, height, 0, 0, proof, path)
			if tc.expErr == nil {
				suite.Require().NoError(err)
			} else {
				suite.Require().ErrorIs(err, tc.expErr)
			}
		})
	}
}
