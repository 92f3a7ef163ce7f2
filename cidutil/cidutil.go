// Package cidutil derives content identifiers for rendered artifacts and
// evidence blocks.
//
// Every byte payload the node persists (PNG stills, MP4 loops, attestation
// documents) is addressed by a CIDv1 with the "raw" multicodec and a sha2-256
// multihash. A single CID profile keeps cross-node replication unambiguous:
// two nodes storing the same bytes always agree on the identifier.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// ArtifactCID returns the CIDv1 (raw + sha2-256) for an artifact payload.
func ArtifactCID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// ArtifactCIDString returns the string form of ArtifactCID.
func ArtifactCIDString(data []byte) string {
	id, err := ArtifactCID(data)
	if err != nil {
		// multihash.Sum with SHA2_256 and default length only errors on
		// invalid codes; unreachable here.
		return ""
	}
	return id.String()
}
