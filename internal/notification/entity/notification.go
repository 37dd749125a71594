package entity

import "github.com/shandysiswandi/verimail/internal/pkg/valueobject"

type CreateDeliveryLog struct {
	ID        int64
	Recipient string
	Kind      MailKind
	Status    DeliveryStatus
}

type UpdateDeliveryLog struct {
	ID               int64
	Status           DeliveryStatus
	Attempts         int32
	ProviderResponse valueobject.JSONMap
}
