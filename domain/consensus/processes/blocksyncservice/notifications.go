package blocksyncservice

import (
	"fmt"

	"github.com/kaspanet/chainsyncd/domain/consensus/model"
	"github.com/kaspanet/chainsyncd/domain/consensus/model/externalapi"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various block synchronization events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// NTBlockConnected indicates the associated block was connected to the
	// chain.
	NTBlockConnected NotificationType = iota

	// NTChainChanged indicates that the best block changed.
	NTChainChanged
)

// notificationTypeStrings is a map of notification types back to their
// constant names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	NTBlockConnected: "NTBlockConnected",
	NTChainChanged:   "NTChainChanged",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// Notification defines notification that is sent to the caller via
// the callback function provided during the call to Subscribe.
// The Data field is *BlockConnectedNotificationData for NTBlockConnected
// and *ChainChangedNotificationData for NTChainChanged.
type Notification struct {
	Type NotificationType
	Data interface{}
}

// BlockConnectedNotificationData defines data to be sent along with a
// BlockConnected notification
type BlockConnectedNotificationData struct {
	Block         *externalapi.DomainBlock
	Result        model.ImportResult
	WasUnorphaned bool
}

// ChainChangedNotificationData defines data to be sent along with a
// ChainChanged notification. RemovedChainBlockHashes holds the former main
// chain blocks down to the fork point, tip first; AddedChainBlockHashes
// holds the new main chain blocks from the fork point up to the new best
// block.
type ChainChangedNotificationData struct {
	OldBestHash             *externalapi.BlockHash
	NewBestHash             *externalapi.BlockHash
	RemovedChainBlockHashes []*externalapi.BlockHash
	AddedChainBlockHashes   []*externalapi.BlockHash
}

// Subscribe to block synchronization notifications. Registers a callback
// to be executed when various events take place. Callbacks run while the
// service processes a block, so they must not call ProcessBlock.
func (s *BlockSyncService) Subscribe(callback NotificationCallback) {
	s.notificationsLock.Lock()
	defer s.notificationsLock.Unlock()
	s.notifications = append(s.notifications, callback)
}

// sendNotification sends a notification with the passed type and data if
// the caller requested notifications by providing a callback function in
// the call to Subscribe.
func (s *BlockSyncService) sendNotification(typ NotificationType, data interface{}) {
	// Generate and send the notification.
	n := Notification{Type: typ, Data: data}
	s.notificationsLock.RLock()
	defer s.notificationsLock.RUnlock()
	for _, callback := range s.notifications {
		callback(&n)
	}
}
