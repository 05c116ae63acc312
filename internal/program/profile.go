package program

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/ledger"
)

var ErrNotUserProfile = errors.New("account is not a UserProfile")

// UserProfile mirrors the on-chain account. StoragePointer is the storage
// id of the object the profile refers to.
type UserProfile struct {
	Authority      ledger.PublicKey
	StoragePointer string
	Goal           string
	CreatedAt      time.Time
}

type reader struct {
	b   []byte
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.b) < n {
		r.err = fmt.Errorf("unexpected end of data: need %d, have %d", n, len(r.b))
		return nil
	}
	out := r.b[:n]
	r.b = r.b[n:]
	return out
}

func (r *reader) string() string {
	l := r.take(4)
	if l == nil {
		return ""
	}
	return string(r.take(int(binary.LittleEndian.Uint32(l))))
}

// DecodeUserProfile parses raw account data.
func DecodeUserProfile(data []byte) (*UserProfile, error) {
	want := AccountDiscriminator("UserProfile")
	if len(data) < 8 || [8]byte(data[:8]) != want {
		return nil, ErrNotUserProfile
	}

	r := &reader{b: data[8:]}
	var p UserProfile
	copy(p.Authority[:], r.take(32))
	p.StoragePointer = r.string()
	p.Goal = r.string()
	ts := r.take(8)
	if r.err != nil {
		return nil, fmt.Errorf("decode UserProfile: %w", r.err)
	}
	p.CreatedAt = time.Unix(int64(binary.LittleEndian.Uint64(ts)), 0).UTC()
	return &p, nil
}

// EncodeUserProfile is the inverse of DecodeUserProfile. The program writes
// these accounts; the encoder exists for fixtures and local tooling.
func EncodeUserProfile(p *UserProfile) []byte {
	disc := AccountDiscriminator("UserProfile")
	b := append([]byte{}, disc[:]...)
	b = append(b, p.Authority[:]...)
	b = appendString(b, p.StoragePointer)
	b = appendString(b, p.Goal)
	return binary.LittleEndian.AppendUint64(b, uint64(p.CreatedAt.Unix()))
}
