package enums

import "fmt"

// AttachmentSlot names the supporting documents a sale can carry.
type AttachmentSlot string

const (
	AttachmentSlotTaxExemption   AttachmentSlot = "tax_exemption"
	AttachmentSlotCertifiedCheck AttachmentSlot = "certified_check"
	AttachmentSlotBuyerID        AttachmentSlot = "buyer_id"
)

var validAttachmentSlots = []AttachmentSlot{
	AttachmentSlotTaxExemption,
	AttachmentSlotCertifiedCheck,
	AttachmentSlotBuyerID,
}

// String implements fmt.Stringer.
func (a AttachmentSlot) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AttachmentSlot.
func (a AttachmentSlot) IsValid() bool {
	for _, candidate := range validAttachmentSlots {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAttachmentSlot converts raw input into an AttachmentSlot.
func ParseAttachmentSlot(value string) (AttachmentSlot, error) {
	for _, candidate := range validAttachmentSlots {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid attachment slot %q", value)
}

// PathPrefix is the object storage folder used for the slot.
func (a AttachmentSlot) PathPrefix() string {
	switch a {
	case AttachmentSlotTaxExemption:
		return "tax-exemptions"
	case AttachmentSlotCertifiedCheck:
		return "certified-checks"
	case AttachmentSlotBuyerID:
		return "buyer-ids"
	}
	return "attachments"
}

// AttachmentSlots returns every slot in upload order.
func AttachmentSlots() []AttachmentSlot {
	return append([]AttachmentSlot(nil), validAttachmentSlots...)
}

// FormField is the multipart field that carries the slot's file.
func (a AttachmentSlot) FormField() string {
	return string(a) + "_file"
}
