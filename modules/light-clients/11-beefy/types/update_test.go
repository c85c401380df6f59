package types_test

import (
	"math"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	clienttypes "github.com/ComposableFi/light-clients/modules/core/02-client/types"
	commitmenttypes "github.com/ComposableFi/light-clients/modules/core/23-commitment/types"
	host "github.com/ComposableFi/light-clients/modules/core/24-host"
	"github.com/ComposableFi/light-clients/modules/core/exported"
	"github.com/ComposableFi/light-clients/modules/light-clients/11-beefy/types"
	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
	ibctesting "github.com/ComposableFi/light-clients/testing"
)

func (suite *BeefyTestSuite) TestUpdateMmrRoot() {
	suite.chain.ProduceBlocks(2)

	heights, err := suite.update(suite.chain.Header(ibctesting.Signers(numAuthorities)))
	suite.Require().NoError(err)
	suite.Require().Empty(heights)

	suite.Require().Equal(uint32(3), suite.clientState.LatestBeefyHeight)
	suite.Require().Equal(suite.chain.MmrRoot(), suite.clientState.MmrRootHash)
	suite.Require().Equal(initialSetID, suite.clientState.CurrentAuthorities.ID)
	suite.Require().Equal(initialSetID+1, suite.clientState.NextAuthorities.ID)
	suite.Require().Equal(uint32(1), suite.clientState.LatestParaHeight)

	stored := clienttypes.MustUnmarshalClientState(suite.cdc, suite.clientStore.Get(host.ClientStateKey()))
	suite.Require().Equal(suite.clientState, stored)
}

func (suite *BeefyTestSuite) TestAuthoritySetRotation() {
	enacted := suite.chain.NextAuthoritySet()
	suite.chain.RotateAuthorities(ibctesting.BeefyKeyring(2*numAuthorities, 7))
	suite.chain.ProduceBlock()

	// the enacted set has 6 authorities, 5 of them sign
	_, err := suite.update(suite.chain.Header(ibctesting.Signers(threshold)))
	suite.Require().NoError(err)

	suite.Require().Equal(enacted, suite.clientState.CurrentAuthorities)
	suite.Require().Equal(suite.chain.NextAuthoritySet(), suite.clientState.NextAuthorities)
	suite.Require().Equal(initialSetID+2, suite.clientState.NextAuthorities.ID)
	suite.Require().Equal(uint32(7), suite.clientState.NextAuthorities.Len)

	suite.chain.ProduceBlock()
	proof := suite.chain.MmrUpdateProof(ibctesting.Signers(threshold))
	proof.SignedCommitment.Commitment.ValidatorSetID = initialSetID

	_, err = suite.clientState.VerifyMmrUpdateProof(suite.host, proof)
	suite.Require().ErrorIs(err, types.ErrUnknownAuthoritySet)
}

func (suite *BeefyTestSuite) TestUpdateBelowThreshold() {
	suite.chain.ProduceBlocks(2)

	clientState := *suite.clientState
	storedBz := suite.clientStore.Get(host.ClientStateKey())

	_, err := suite.update(suite.chain.Header(ibctesting.Signers(threshold - 1)))
	suite.Require().ErrorIs(err, types.ErrInvalidSignatureThreshold)

	suite.Require().Equal(clientState, *suite.clientState)
	suite.Require().Equal(storedBz, suite.clientStore.Get(host.ClientStateKey()))
}

func (suite *BeefyTestSuite) TestVerifyMmrUpdateProof() {
	var proof types.MmrUpdateProof

	testCases := []struct {
		name     string
		malleate func()
		expErr   error
	}{
		{
			"threshold of signatures", func() {}, nil,
		},
		{
			"every authority signs", func() {
				proof = suite.chain.MmrUpdateProof(ibctesting.Signers(numAuthorities))
			}, nil,
		},
		{
			"signatures out of authority order", func() {
				proof = suite.chain.MmrUpdateProof([]uint32{4, 2, 0, 3, 1})
			}, nil,
		},
		{
			"signed by the next authority set", func() {
				suite.chain.RotateAuthorities(ibctesting.BeefyKeyring(2*numAuthorities, numAuthorities))
				suite.chain.ProduceBlock()
				proof = suite.chain.MmrUpdateProof(ibctesting.Signers(threshold))
			}, nil,
		},
		{
			"commitment at the latest beefy height", func() {
				proof.SignedCommitment.Commitment.BlockNumber = suite.clientState.LatestBeefyHeight
			}, types.ErrStaleCommitment,
		},
		{
			"set id after the next set", func() {
				proof.SignedCommitment.Commitment.ValidatorSetID = initialSetID + 2
			}, types.ErrUnknownAuthoritySet,
		},
		{
			"set id before the current set", func() {
				proof.SignedCommitment.Commitment.ValidatorSetID = initialSetID - 1
			}, types.ErrUnknownAuthoritySet,
		},
		{
			"one signature short", func() {
				proof = suite.chain.MmrUpdateProof(ibctesting.Signers(threshold - 1))
			}, types.ErrInvalidSignatureThreshold,
		},
		{
			"repeated signature counts once", func() {
				proof = suite.chain.MmrUpdateProof([]uint32{0, 1, 2, 3, 3})
			}, types.ErrInvalidSignatureThreshold,
		},
		{
			"signer outside the authority set", func() {
				hash, err := proof.SignedCommitment.Commitment.Hash(suite.host)
				suite.Require().NoError(err)
				proof.SignedCommitment.Signatures[0].Signature = ibctesting.NewBeefyKey("Mallory").Sign(hash)
			}, types.ErrInvalidAuthorityProof,
		},
		{
			"signatures at swapped authority indexes", func() {
				proof.SignedCommitment.Signatures[0].AuthorityIndex = 1
				proof.SignedCommitment.Signatures[1].AuthorityIndex = 0
			}, types.ErrInvalidAuthorityProof,
		},
		{
			"authority index out of the set", func() {
				proof.SignedCommitment.Signatures[0].AuthorityIndex = numAuthorities
			}, types.ErrInvalidAuthorityProof,
		},
		{
			"invalid recovery id", func() {
				proof.SignedCommitment.Signatures[0].Signature[64] = 5
			}, types.ErrInvalidSignature,
		},
		{
			"tampered authorities proof", func() {
				proof.AuthoritiesProof[0][0] ^= 0xff
			}, types.ErrInvalidAuthorityProof,
		},
		{
			"tampered latest leaf", func() {
				proof.LatestMmrLeaf.ParentNumber++
			}, types.ErrInvalidMmrProof,
		},
		{
			"latest leaf announcing another next set", func() {
				proof.LatestMmrLeaf.BeefyNextAuthoritySet.ID++
			}, types.ErrInvalidMmrProof,
		},
		{
			"tampered mmr proof", func() {
				proof.MmrProof[0][0] ^= 0xff
			}, types.ErrInvalidMmrProof,
		},
		{
			"leaf index of the previous leaf", func() {
				proof.MmrLeafIndex--
			}, types.ErrInvalidMmrProof,
		},
		{
			"commitment without mmr root", func() {
				beefyCommitment := suite.chain.Commitment()
				beefyCommitment.Payload = []types.PayloadItem{{ID: [2]byte{'c', 's'}, Data: []byte{1}}}
				proof.SignedCommitment = suite.chain.Sign(beefyCommitment, ibctesting.Signers(threshold))
			}, types.ErrInvalidCommitment,
		},
		{
			"mmr root of 31 bytes", func() {
				beefyCommitment := suite.chain.Commitment()
				beefyCommitment.Payload[0].Data = beefyCommitment.Payload[0].Data[:31]
				proof.SignedCommitment = suite.chain.Sign(beefyCommitment, ibctesting.Signers(threshold))
			}, types.ErrInvalidCommitment,
		},
		{
			"signed commitment to another mmr root", func() {
				beefyCommitment := suite.chain.Commitment()
				beefyCommitment.Payload[0].Data = make([]byte, 32)
				beefyCommitment.Payload[0].Data[0] = 1
				proof.SignedCommitment = suite.chain.Sign(beefyCommitment, ibctesting.Signers(threshold))
			}, types.ErrInvalidMmrProof,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			suite.chain.ProduceBlocks(2)
			proof = suite.chain.MmrUpdateProof(ibctesting.Signers(threshold))

			tc.malleate()

			next, err := suite.clientState.VerifyMmrUpdateProof(suite.host, proof)
			if tc.expErr == nil {
				suite.Require().NoError(err)
				suite.Require().Equal(suite.chain.Latest().Number, next.LatestBeefyHeight)
				suite.Require().Equal(suite.chain.MmrRoot(), next.MmrRootHash)
				suite.Require().Equal(suite.chain.CurrentAuthoritySet(), next.CurrentAuthorities)
			} else {
				suite.Require().ErrorIs(err, tc.expErr)
			}
		})
	}
}

func (suite *BeefyTestSuite) TestParachainHeaderInclusion() {
	const paraID = uint32(2001)
	suite.setupChain(paraID)

	key := append(ibcPrefix.Bytes(), commitmentPath...)
	suite.chain.Parachain.SetState(key, commitment)
	suite.chain.ProduceBlocks(2)

	heights, err := suite.update(suite.chain.Header(ibctesting.Signers(threshold), 3))
	suite.Require().NoError(err)

	height := clienttypes.NewHeight(uint64(paraID), 3)
	suite.Require().Equal([]exported.Height{height}, heights)
	suite.Require().Equal(height, suite.clientState.GetLatestHeight())

	para := suite.chain.Block(3).Parachain
	consState, err := types.GetConsensusState(suite.clientStore, suite.cdc, height)
	suite.Require().NoError(err)
	suite.Require().Equal(para.Header.StateRoot, consState.Root)
	suite.Require().Equal(uint64(para.Timestamp.UnixNano()), consState.Timestamp)

	proof, err := commitmenttypes.TrieProof{Nodes: para.StateProof(key)}.Bytes()
	suite.Require().NoError(err)
	path, err := commitmenttypes.ApplyPrefix(ibcPrefix, commitmenttypes.NewMerklePath(commitmentPath))
	suite.Require().NoError(err)

	err = suite.clientState.VerifyMembership(suite.ctx(), suite.clientStore, suite.cdc, height, 0, 0, proof, path, commitment)
	suite.Require().NoError(err)
}

func (suite *BeefyTestSuite) TestUpdateParachainHeaders() {
	suite.chain.ProduceBlocks(2)

	heights, err := suite.update(suite.chain.Header(ibctesting.Signers(threshold), 1, 2, 3))
	suite.Require().NoError(err)

	paraID := uint64(ibctesting.DefaultParaID)
	suite.Require().Equal([]exported.Height{
		clienttypes.NewHeight(paraID, 1),
		clienttypes.NewHeight(paraID, 2),
		clienttypes.NewHeight(paraID, 3),
	}, heights)
	suite.Require().Equal(uint32(3), suite.clientState.LatestParaHeight)
	suite.Require().Equal(uint32(3), suite.clientState.LatestBeefyHeight)

	for _, number := range []uint32{2, 3} {
		para := suite.chain.Block(number).Parachain
		consState, err := types.GetConsensusState(suite.clientStore, suite.cdc, clienttypes.NewHeight(paraID, uint64(number)))
		suite.Require().NoError(err)
		suite.Require().Equal(types.NewConsensusState(para.Timestamp, para.Header.StateRoot), consState)
	}
}

func (suite *BeefyTestSuite) TestParachainHeadersUnderTrustedRoot() {
	suite.chain.ProduceBlocks(2)
	_, err := suite.update(suite.chain.Header(ibctesting.Signers(threshold)))
	suite.Require().NoError(err)

	header := &types.Header{}
	suite.chain.ParachainHeaders(header, 3, 2)

	heights, err := suite.update(header)
	suite.Require().NoError(err)
	suite.Require().Len(heights, 2)
	suite.Require().Equal(uint32(3), suite.clientState.LatestParaHeight)
	suite.Require().Equal(uint32(3), suite.clientState.LatestBeefyHeight)
}

func (suite *BeefyTestSuite) TestStaleParachainHeaders() {
	suite.chain.ProduceBlocks(2)
	_, err := suite.update(suite.chain.Header(ibctesting.Signers(threshold)))
	suite.Require().NoError(err)

	header := &types.Header{}
	suite.chain.ParachainHeaders(header, 2, 3)
	_, err = suite.update(header)
	suite.Require().NoError(err)
	expected := *suite.clientState

	// the same heights again, then only a height below the latest
	_, err = suite.update(header)
	suite.Require().ErrorIs(err, types.ErrStaleParachainHeaders)

	older := &types.Header{}
	suite.chain.ParachainHeaders(older, 2)
	err = suite.clientState.VerifyClientMessage(suite.ctx(), suite.cdc, suite.clientStore, older)
	suite.Require().ErrorIs(err, types.ErrStaleParachainHeaders)

	suite.Require().Equal(expected, *suite.clientState)
}

func (suite *BeefyTestSuite) TestVerifyParachainHeaders() {
	var header *types.Header

	testCases := []struct {
		name     string
		malleate func()
		expErr   error
	}{
		{
			"parachain headers of two blocks", func() {}, nil,
		},
		{
			"same parachain header twice", func() {
				header.ParachainHeaders = append(header.ParachainHeaders, header.ParachainHeaders[0])
			}, nil,
		},
		{
			"parachain headers without the mmr update", func() {
				header.MmrUpdateProof = types.OptionalMmrUpdateProof{}
			}, types.ErrInvalidMmrProof,
		},
		{
			"header of a sibling parachain", func() {
				header.ParachainHeaders[0].ParaID = ibctesting.SiblingParaIDs[0]
			}, types.ErrInvalidParachainHeader,
		},
		{
			"tampered heads proof", func() {
				header.ParachainHeaders[0].ParachainHeadsProof[0][0] ^= 0xff
			}, types.ErrInvalidMmrProof,
		},
		{
			"heads leaf index of a sibling parachain", func() {
				header.ParachainHeaders[0].HeadsLeafIndex = 0
			}, types.ErrInvalidMmrProof,
		},
		{
			"heads leaf index out of the heads", func() {
				header.ParachainHeaders[0].HeadsLeafIndex = header.ParachainHeaders[0].HeadsTotalCount
			}, types.ErrInvalidParachainHeadsProof,
		},
		{
			"tampered parachain header", func() {
				bz := append([]byte{}, header.ParachainHeaders[1].ParachainHeader...)
				bz[0] ^= 0xff
				header.ParachainHeaders[1].ParachainHeader = bz
			}, types.ErrInvalidMmrProof,
		},
		{
			"leaf announcing another next set", func() {
				header.ParachainHeaders[0].MmrLeafPartial.BeefyNextAuthoritySet.ID++
			}, types.ErrInvalidMmrProof,
		},
		{
			"conflicting leaves of one block", func() {
				conflicting := header.ParachainHeaders[0]
				conflicting.MmrLeafPartial.ParentHash[0] ^= 0xff
				header.ParachainHeaders = append(header.ParachainHeaders, conflicting)
			}, types.ErrInvalidMmrProof,
		},
		{
			"leaf parent number at the last block number", func() {
				header.ParachainHeaders[0].MmrLeafPartial.ParentNumber = math.MaxUint32
			}, types.ErrInvalidLeafIndex,
		},
		{
			"timestamp extrinsic not in the extrinsics root", func() {
				header.ParachainHeaders[1].TimestampExtrinsic = substrate.EncodeTimestampExtrinsic(ibctesting.TimestampPallet, ibctesting.TimestampCall, 1)
			}, substrate.ErrTimestampNotFound,
		},
		{
			"tampered batch mmr proof", func() {
				header.MmrProofs[0][0] ^= 0xff
			}, types.ErrInvalidMmrProof,
		},
		{
			"zero mmr size", func() {
				header.MmrSize = 0
			}, types.ErrInvalidMmrProof,
		},
		{
			"empty parachain header", func() {
				header.ParachainHeaders[0].ParachainHeader = nil
			}, types.ErrInvalidParachainHeader,
		},
		{
			"missing extrinsic proof", func() {
				header.ParachainHeaders[1].ExtrinsicProof = nil
			}, types.ErrInvalidParachainHeader,
		},
		{
			"frozen client", func() {
				suite.clientState.FrozenHeight = clienttypes.SomeHeight(clienttypes.NewHeight(uint64(ibctesting.DefaultParaID), 1))
			}, clienttypes.ErrClientFrozen,
		},
		{
			"empty header", func() {
				header = &types.Header{}
			}, clienttypes.ErrInvalidHeader,
		},
	}

	for _, tc := range testCases {
		tc := tc
		suite.Run(tc.name, func() {
			suite.SetupTest()
			suite.chain.ProduceBlocks(2)
			header = suite.chain.Header(ibctesting.Signers(threshold), 2, 3)

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

func (suite *BeefyTestSuite) TestBeefyHeightIsMonotonic() {
	rapid.Check(suite.T(), func(t *rapid.T) {
		suite.SetupTest()

		var previous *types.Header
		steps := rapid.IntRange(1, 4).Draw(t, "steps").(int)
		for i := 0; i < steps; i++ {
			suite.chain.ProduceBlocks(rapid.IntRange(1, 3).Draw(t, "blocks").(int))
			signers := rapid.IntRange(threshold, numAuthorities).Draw(t, "signers").(int)

			latest := suite.clientState.LatestBeefyHeight
			header := suite.chain.Header(ibctesting.Signers(signers))
			_, err := suite.update(header)
			require.NoError(t, err)
			require.Greater(t, suite.clientState.LatestBeefyHeight, latest)
			require.Equal(t, suite.chain.MmrRoot(), suite.clientState.MmrRootHash)

			if previous != nil {
				_, err = suite.update(previous)
				require.ErrorIs(t, err, types.ErrStaleCommitment)
			}
			previous = header
		}
	})
}
