package kioto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRepr struct {
	Value string
}

func TestCommitSameTypeSameIdentCollides(t *testing.T) {
	repo := NewRepo()

	_, a := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestRepr().Finish()
	_, b := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestRepr().Finish()

	assert.Equal(t, a, b, "identical type, ident, and content must produce identical commit ids")
}

func TestCommitDifferentContentDiverges(t *testing.T) {
	repo := NewRepo()

	_, a := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestRepr().Finish()
	_, b := repo.Commit(sampleRepr{Value: "two"}).Ident("path/a").DigestRepr().Finish()

	assert.NotEqual(t, a, b)
}

func TestCommitDifferentIdentDiverges(t *testing.T) {
	repo := NewRepo()

	_, a := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestRepr().Finish()
	_, b := repo.Commit(sampleRepr{Value: "one"}).Ident("path/b").DigestRepr().Finish()

	assert.NotEqual(t, a, b)
}

func TestCommitDifferentRepresentationTypeDiverges(t *testing.T) {
	repo := NewRepo()

	type otherRepr struct {
		Value string
	}

	_, a := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestRepr().Finish()
	_, b := repo.Commit(otherRepr{Value: "one"}).Ident("path/a").DigestRepr().Finish()

	assert.NotEqual(t, a, b)
}

func TestRandomDigestNeverCollidesAcrossCalls(t *testing.T) {
	repo := NewRepo()

	_, a := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestWith(RandomDigest).Finish()
	_, b := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestWith(RandomDigest).Finish()

	assert.NotEqual(t, a, b)
}

func TestCheckoutReturnsCommittedHandle(t *testing.T) {
	repo := NewRepo()
	_, commit := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestRepr().Finish()

	h, ok := repo.Checkout(commit)
	require.True(t, ok)
	assert.Equal(t, commit, h.Commit)
	assert.Equal(t, sampleRepr{Value: "one"}, h.Repr)
}

func TestCheckoutUnknownCommitReturnsFalse(t *testing.T) {
	repo := NewRepo()
	_, ok := repo.Checkout(CommitID(12345))
	assert.False(t, ok)
}

func TestSnapshotIsPointInTimeCopy(t *testing.T) {
	repo := NewRepo()
	_, commit := repo.Commit(sampleRepr{Value: "one"}).Ident("path/a").DigestRepr().Finish()

	snap := repo.Snapshot()
	assert.Contains(t, snap, commit)

	repo.Commit(sampleRepr{Value: "two"}).Ident("path/b").DigestRepr().Finish()
	assert.Len(t, snap, 1, "snapshot must not observe commits made after it was taken")
}
