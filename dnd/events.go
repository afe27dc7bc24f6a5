// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package dnd

// Event opcodes are logical identifiers translated to real
// wl_data_device/wl_data_offer/wl_data_source wire opcodes by the
// (out-of-scope) protocol dispatcher, matching package input's
// Event* and package surface's Event* conventions.
const (
	EventDeviceDataOffer uint32 = iota
	EventDeviceEnter
	EventDeviceLeave
	EventDeviceMotion
	EventDeviceDrop
	EventDeviceSelection

	EventOfferOffer
	EventOfferSourceActions
	EventOfferAction

	EventSourceCancelled
	EventSourceDndDropPerformed
)
