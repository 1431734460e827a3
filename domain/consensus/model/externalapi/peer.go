package externalapi

// PeerID identifies the remote node a block was received from.
type PeerID struct {
	id string
}

// NewPeerID returns a PeerID for the given node identifier.
func NewPeerID(id string) *PeerID {
	return &PeerID{id: id}
}

func (peerID PeerID) String() string {
	return peerID.id
}

// Equal returns whether peerID equals to other
func (peerID *PeerID) Equal(other *PeerID) bool {
	if peerID == nil || other == nil {
		return peerID == other
	}
	return peerID.id == other.id
}
